package dto

import (
	"time"

	"github.com/yidong-blog/blog-api/internal/model"
)

// 内容格式
const (
	ContentFormatMarkdown = "markdown"
	ContentFormatHTML     = "html"
)

// ArticleListRequest 公开文章列表请求
type ArticleListRequest struct {
	Page       int    `form:"page,default=1" binding:"min=1"`
	PageSize   int    `form:"pageSize,default=10" binding:"min=1,max=50"`
	CategoryID uint   `form:"categoryId"`
	TagID      uint   `form:"tagId"`
	Featured   *bool  `form:"featured"`
	Keyword    string `form:"keyword" binding:"max=100"`
}

// AdminArticleListRequest 作者文章列表请求
type AdminArticleListRequest struct {
	Page       int    `form:"page,default=1" binding:"min=1"`
	PageSize   int    `form:"pageSize,default=10" binding:"min=1,max=100"`
	Status     string `form:"status" binding:"omitempty,oneof=draft published"`
	Keyword    string `form:"keyword" binding:"max=100"`
	CategoryID uint   `form:"categoryId"`
}

// FeaturedRequest 精选文章请求
type FeaturedRequest struct {
	Limit int `form:"limit,default=5" binding:"min=1,max=20"`
}

// PageRequest 通用分页请求
type PageRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"pageSize,default=10" binding:"min=1,max=50"`
}

// ArticleCreateRequest 创建文章请求
type ArticleCreateRequest struct {
	Title         string `json:"title" binding:"required,max=255"`
	Content       string `json:"content" binding:"required"`
	ContentFormat string `json:"content_format" binding:"omitempty,oneof=markdown html"`
	Summary       string `json:"summary" binding:"max=500"`
	CoverImage    string `json:"cover_image" binding:"max=255"`
	CategoryID    *uint  `json:"category_id"`
	Tags          []uint `json:"tags"`
	Status        string `json:"status" binding:"omitempty,oneof=draft published"`
	IsFeatured    bool   `json:"is_featured"`
}

// ArticleUpdateRequest 更新文章请求，未提供的字段保持不变
// tags 提供时（包括空数组）整体替换文章标签；category_id 为 0 表示清空分类
type ArticleUpdateRequest struct {
	Title         *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content       *string `json:"content" binding:"omitempty,min=1"`
	ContentFormat string  `json:"content_format" binding:"omitempty,oneof=markdown html"`
	Summary       *string `json:"summary" binding:"omitempty,max=500"`
	CoverImage    *string `json:"cover_image" binding:"omitempty,max=255"`
	CategoryID    *uint   `json:"category_id"`
	Tags          *[]uint `json:"tags"`
	Status        *string `json:"status" binding:"omitempty,oneof=draft published"`
	IsFeatured    *bool   `json:"is_featured"`
}

// TagInfo 文章上的标签
type TagInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryInfo 文章上的分类
type CategoryInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ArticleListItem 文章列表项，不含正文
type ArticleListItem struct {
	ID         uint          `json:"id"`
	Title      string        `json:"title"`
	Summary    string        `json:"summary"`
	CoverImage string        `json:"cover_image"`
	Status     string        `json:"status"`
	IsFeatured bool          `json:"is_featured"`
	ViewCount  int           `json:"view_count"`
	LikeCount  int           `json:"like_count"`
	CategoryID *uint         `json:"category_id"`
	Category   *CategoryInfo `json:"category"`
	Author     *AuthorInfo   `json:"author"`
	Tags       []TagInfo     `json:"tags"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ArticleDetailResponse 文章详情
type ArticleDetailResponse struct {
	ArticleListItem
	Content     string `json:"content"`
	ContentHTML string `json:"content_html,omitempty"`
}

// ArticleDetail 公开文章详情及相关文章
type ArticleDetail struct {
	Article         *ArticleDetailResponse `json:"article"`
	RelatedArticles []ArticleListItem      `json:"relatedArticles"`
}

// ArticleListResponse 文章列表
type ArticleListResponse struct {
	Total int64             `json:"total"`
	List  []ArticleListItem `json:"list"`
}

// DashboardStats 后台统计
type DashboardStats struct {
	Articles    ArticleCounts `json:"articles"`
	Categories  int64         `json:"categories"`
	Tags        int64         `json:"tags"`
	TotalViews  int64         `json:"total_views"`
	TotalLikes  int64         `json:"total_likes"`
	RecentViews []DailyViews  `json:"recent_views"`
}

// ArticleCounts 文章数量统计
type ArticleCounts struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Draft     int64 `json:"draft"`
}

// DailyViews 按文章创建日期汇总的浏览量
type DailyViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// NewArticleListItem 从模型构造列表项
func NewArticleListItem(a *model.Article) ArticleListItem {
	item := ArticleListItem{
		ID:         a.ID,
		Title:      a.Title,
		Summary:    a.Summary,
		CoverImage: a.CoverImage,
		Status:     a.Status,
		IsFeatured: a.IsFeatured,
		ViewCount:  a.ViewCount,
		LikeCount:  a.LikeCount,
		CategoryID: a.CategoryID,
		Tags:       make([]TagInfo, 0, len(a.Tags)),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Category != nil {
		item.Category = &CategoryInfo{ID: a.Category.ID, Name: a.Category.Name, Color: a.Category.Color}
	}
	if a.Author != nil {
		item.Author = &AuthorInfo{
			ID:       a.Author.ID,
			Username: a.Author.Username,
			Nickname: a.Author.Nickname,
			Avatar:   a.Author.Avatar,
		}
	}
	for _, t := range a.Tags {
		item.Tags = append(item.Tags, TagInfo{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return item
}

// NewArticleDetailResponse 从模型构造详情
func NewArticleDetailResponse(a *model.Article, contentHTML string) *ArticleDetailResponse {
	return &ArticleDetailResponse{
		ArticleListItem: NewArticleListItem(a),
		Content:         a.Content,
		ContentHTML:     contentHTML,
	}
}

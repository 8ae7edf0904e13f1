package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/pkg/markdown"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	summaryLength   = 200
	relatedLimit    = 5
	searchHitsLimit = 500
	recentViewDays  = 7
)

// ArticleService 文章仓储
type ArticleService struct {
	db       *gorm.DB
	searcher ArticleSearcher
	log      *zap.SugaredLogger
}

// NewArticleService 创建文章服务实例，searcher 可以为 nil
func NewArticleService(db *gorm.DB, searcher ArticleSearcher) *ArticleService {
	return &ArticleService{
		db:       db,
		searcher: searcher,
		log:      logger.GetSugaredLogger(),
	}
}

// 列表查询需要的关联，作者只取公开字段
func preloadListAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "nickname", "avatar")
		}).
		Preload("Tags")
}

// ListPublished 公开文章列表，精选优先，其次按创建时间倒序
func (s *ArticleService) ListPublished(ctx context.Context, req *dto.ArticleListRequest) (*dto.ArticleListResponse, error) {
	base := s.db.WithContext(ctx).Model(&model.Article{}).Where("articles.status = ?", model.ArticleStatusPublished)

	if req.CategoryID > 0 {
		base = base.Where("articles.category_id = ?", req.CategoryID)
	}
	if req.TagID > 0 {
		base = base.Where("articles.id IN (?)",
			s.db.Model(&model.ArticleTag{}).Select("article_id").Where("tag_id = ?", req.TagID))
	}
	if req.Featured != nil {
		base = base.Where("articles.is_featured = ?", *req.Featured)
	}
	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		base = s.keywordFilter(ctx, base, kw)
	}

	var (
		total    int64
		articles []model.Article
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return base.Session(&gorm.Session{}).WithContext(gctx).Count(&total).Error
	})
	g.Go(func() error {
		return preloadListAssociations(base.Session(&gorm.Session{}).WithContext(gctx)).
			Omit("content").
			Order("articles.is_featured DESC, articles.created_at DESC, articles.id DESC").
			Offset((req.Page - 1) * req.PageSize).
			Limit(req.PageSize).
			Find(&articles).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dto.ArticleListResponse{Total: total, List: toListItems(articles)}, nil
}

// keywordFilter 配置了 ES 时按全文检索结果过滤，否则或检索失败时退回 LIKE
func (s *ArticleService) keywordFilter(ctx context.Context, db *gorm.DB, keyword string) *gorm.DB {
	if s.searcher != nil {
		ids, err := s.searcher.SearchIDs(ctx, keyword, searchHitsLimit)
		if err == nil {
			if len(ids) == 0 {
				return db.Where("1 = 0")
			}
			return db.Where("articles.id IN ?", ids)
		}
		s.log.Warnw("ES搜索失败，使用数据库查询", "keyword", keyword, "error", err)
	}

	like := "%" + escapeLike(keyword) + "%"
	return db.Where("(articles.title LIKE ? ESCAPE '!' OR articles.summary LIKE ? ESCAPE '!' OR articles.content LIKE ? ESCAPE '!')", like, like, like)
}

// escapeLike 转义 LIKE 通配符，配合 ESCAPE '!' 使用
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// ListFeatured 精选文章
func (s *ArticleService) ListFeatured(ctx context.Context, limit int) ([]dto.ArticleListItem, error) {
	var articles []model.Article
	err := preloadListAssociations(s.db.WithContext(ctx)).
		Omit("content").
		Where("status = ? AND is_featured = ?", model.ArticleStatusPublished, true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return toListItems(articles), nil
}

// GetPublished 文章详情；草稿只有作者本人可见，viewerID 为 0 表示匿名
func (s *ArticleService) GetPublished(ctx context.Context, id, viewerID uint) (*dto.ArticleDetail, error) {
	var article model.Article
	err := preloadListAssociations(s.db.WithContext(ctx)).First(&article, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if !article.IsPublished() && (viewerID == 0 || article.AuthorID != viewerID) {
		return nil, ErrArticleNotFound
	}

	related, err := s.related(ctx, &article)
	if err != nil {
		return nil, err
	}

	return &dto.ArticleDetail{
		Article:         dto.NewArticleDetailResponse(&article, markdown.ToHTML(article.Content)),
		RelatedArticles: related,
	}, nil
}

// related 同分类下的其他已发布文章
func (s *ArticleService) related(ctx context.Context, article *model.Article) ([]dto.ArticleListItem, error) {
	if article.CategoryID == nil {
		return []dto.ArticleListItem{}, nil
	}

	var articles []model.Article
	err := preloadListAssociations(s.db.WithContext(ctx)).
		Omit("content").
		Where("category_id = ? AND id <> ? AND status = ?", *article.CategoryID, article.ID, model.ArticleStatusPublished).
		Order("view_count DESC, created_at DESC").
		Limit(relatedLimit).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return toListItems(articles), nil
}

// IncrementView 已发布文章浏览量加一
func (s *ArticleService) IncrementView(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&model.Article{}).
		Where("id = ? AND status = ?", id, model.ArticleStatusPublished).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// ListByCategory 分类下的已发布文章
func (s *ArticleService) ListByCategory(ctx context.Context, categoryID uint, page, pageSize int) (*dto.ArticleListResponse, error) {
	return s.ListPublished(ctx, &dto.ArticleListRequest{Page: page, PageSize: pageSize, CategoryID: categoryID})
}

// ListByTag 标签下的已发布文章
func (s *ArticleService) ListByTag(ctx context.Context, tagID uint, page, pageSize int) (*dto.ArticleListResponse, error) {
	return s.ListPublished(ctx, &dto.ArticleListRequest{Page: page, PageSize: pageSize, TagID: tagID})
}

// ListByAuthor 作者自己的文章，包括草稿，按更新时间倒序
func (s *ArticleService) ListByAuthor(ctx context.Context, authorID uint, req *dto.AdminArticleListRequest) (*dto.ArticleListResponse, error) {
	base := s.db.WithContext(ctx).Model(&model.Article{}).Where("author_id = ?", authorID)
	if req.Status != "" {
		base = base.Where("status = ?", req.Status)
	}
	if req.CategoryID > 0 {
		base = base.Where("category_id = ?", req.CategoryID)
	}
	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		like := "%" + escapeLike(kw) + "%"
		base = base.Where("(title LIKE ? ESCAPE '!' OR summary LIKE ? ESCAPE '!')", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var articles []model.Article
	err := preloadListAssociations(base.Session(&gorm.Session{})).
		Omit("content").
		Order("updated_at DESC, id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}

	return &dto.ArticleListResponse{Total: total, List: toListItems(articles)}, nil
}

// GetForAuthor 作者查看自己的文章，不属于该作者时与不存在相同
func (s *ArticleService) GetForAuthor(ctx context.Context, id, authorID uint) (*dto.ArticleDetailResponse, error) {
	article, err := s.loadOwned(s.db.WithContext(ctx), id, authorID)
	if err != nil {
		return nil, err
	}
	return dto.NewArticleDetailResponse(article, ""), nil
}

func (s *ArticleService) loadOwned(db *gorm.DB, id, authorID uint) (*model.Article, error) {
	var article model.Article
	err := preloadListAssociations(db).
		Where("id = ? AND author_id = ?", id, authorID).
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotOwned
		}
		return nil, err
	}
	return &article, nil
}

// Create 创建文章，标签与文章在同一事务中写入
func (s *ArticleService) Create(ctx context.Context, authorID uint, req *dto.ArticleCreateRequest) (*dto.ArticleDetailResponse, error) {
	content, err := normalizeContent(req.Content, req.ContentFormat)
	if err != nil {
		return nil, err
	}

	article := &model.Article{
		AuthorID:   authorID,
		Title:      strings.TrimSpace(req.Title),
		Content:    content,
		Summary:    strings.TrimSpace(req.Summary),
		CoverImage: strings.TrimSpace(req.CoverImage),
		CategoryID: normalizeCategoryID(req.CategoryID),
		Status:     req.Status,
		IsFeatured: req.IsFeatured,
	}
	if article.Status == "" {
		article.Status = model.ArticleStatusDraft
	}
	if article.Summary == "" {
		article.Summary = markdown.Summarize(content, summaryLength)
	}
	if article.CoverImage == "" {
		article.CoverImage = markdown.FirstImage(content)
	}

	var created *model.Article
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategory(tx, article.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit("Tags", "Author", "Category").Create(article).Error; err != nil {
			return err
		}
		if err := replaceArticleTags(tx, article.ID, req.Tags); err != nil {
			return err
		}
		created, err = s.loadOwned(tx, article.ID, authorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("文章已创建", "article_id", created.ID, "author_id", authorID, "status", created.Status)
	s.syncSearch(ctx, created)
	return dto.NewArticleDetailResponse(created, ""), nil
}

// Update 更新作者自己的文章，只修改请求中提供的字段
func (s *ArticleService) Update(ctx context.Context, id, authorID uint, req *dto.ArticleUpdateRequest) (*dto.ArticleDetailResponse, error) {
	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		content, err := normalizeContent(*req.Content, req.ContentFormat)
		if err != nil {
			return nil, err
		}
		updates["content"] = content
		if req.Summary == nil {
			updates["summary"] = markdown.Summarize(content, summaryLength)
		}
	}
	if req.Summary != nil {
		updates["summary"] = strings.TrimSpace(*req.Summary)
	}
	if req.CoverImage != nil {
		updates["cover_image"] = strings.TrimSpace(*req.CoverImage)
	}
	if req.CategoryID != nil {
		updates["category_id"] = normalizeCategoryID(req.CategoryID)
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}

	var updated *model.Article
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadOwned(tx, id, authorID); err != nil {
			return err
		}
		if req.CategoryID != nil {
			if err := checkCategory(tx, normalizeCategoryID(req.CategoryID)); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			updates["updated_at"] = time.Now()
			if err := tx.Model(&model.Article{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := replaceArticleTags(tx, id, *req.Tags); err != nil {
				return err
			}
		}

		var err error
		updated, err = s.loadOwned(tx, id, authorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.syncSearch(ctx, updated)
	return dto.NewArticleDetailResponse(updated, ""), nil
}

// Delete 删除作者自己的文章及其标签关联
func (s *ArticleService) Delete(ctx context.Context, id, authorID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadOwned(tx, id, authorID); err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&model.ArticleTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Article{}, id).Error
	})
	if err != nil {
		return err
	}

	s.log.Infow("文章已删除", "article_id", id, "author_id", authorID)
	if s.searcher != nil {
		if err := s.searcher.Remove(ctx, id); err != nil {
			s.log.Warnw("从ES删除文章失败", "article_id", id, "error", err)
		}
	}
	return nil
}

// syncSearch 事务提交后同步索引，失败只记录日志
func (s *ArticleService) syncSearch(ctx context.Context, article *model.Article) {
	if s.searcher == nil {
		return
	}
	if err := s.searcher.Index(ctx, article); err != nil {
		s.log.Warnw("同步文章到ES失败", "article_id", article.ID, "error", err)
	}
}

// DashboardStats 作者的后台统计
func (s *ArticleService) DashboardStats(ctx context.Context, authorID uint) (*dto.DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &dto.DashboardStats{}

	var rows []struct {
		Status string
		Count  int64
		Views  int64
		Likes  int64
	}
	err := db.Model(&model.Article{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(view_count), 0) AS views, COALESCE(SUM(like_count), 0) AS likes").
		Where("author_id = ?", authorID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.Articles.Total += r.Count
		stats.TotalViews += r.Views
		stats.TotalLikes += r.Likes
		switch r.Status {
		case model.ArticleStatusPublished:
			stats.Articles.Published = r.Count
		case model.ArticleStatusDraft:
			stats.Articles.Draft = r.Count
		}
	}

	if err := db.Model(&model.Category{}).Count(&stats.Categories).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Tag{}).Count(&stats.Tags).Error; err != nil {
		return nil, err
	}

	recent, err := s.recentViews(ctx, authorID, time.Now())
	if err != nil {
		return nil, err
	}
	stats.RecentViews = recent
	return stats, nil
}

// recentViews 最近几天创建的文章按日期汇总浏览量，没有文章的日期补 0
func (s *ArticleService) recentViews(ctx context.Context, authorID uint, now time.Time) ([]dto.DailyViews, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	since := today.AddDate(0, 0, -(recentViewDays - 1))

	var rows []struct {
		CreatedAt time.Time
		ViewCount int64
	}
	err := s.db.WithContext(ctx).Model(&model.Article{}).
		Select("created_at, view_count").
		Where("author_id = ? AND created_at >= ?", authorID, since).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int64, recentViewDays)
	for _, r := range rows {
		byDay[r.CreatedAt.In(now.Location()).Format(time.DateOnly)] += r.ViewCount
	}

	out := make([]dto.DailyViews, 0, recentViewDays)
	for i := 0; i < recentViewDays; i++ {
		day := since.AddDate(0, 0, i).Format(time.DateOnly)
		out = append(out, dto.DailyViews{Date: day, Views: byDay[day]})
	}
	return out, nil
}

// replaceArticleTags 用给定标签整体替换文章标签，必须在事务中调用
func replaceArticleTags(tx *gorm.DB, articleID uint, tagIDs []uint) error {
	ids := uniqueIDs(tagIDs)
	for _, id := range ids {
		if id == 0 {
			return ErrTagInvalid
		}
	}

	if len(ids) > 0 {
		var count int64
		if err := tx.Model(&model.Tag{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(ids)) {
			return ErrTagInvalid
		}
	}

	if err := tx.Where("article_id = ?", articleID).Delete(&model.ArticleTag{}).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	rows := make([]model.ArticleTag, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, model.ArticleTag{ArticleID: articleID, TagID: id})
	}
	return tx.Create(&rows).Error
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func checkCategory(tx *gorm.DB, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&model.Category{}).Where("id = ?", *categoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrCategoryInvalid
	}
	return nil
}

// category_id 为 0 视为未分类
func normalizeCategoryID(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

// normalizeContent 统一以 Markdown 存储正文
func normalizeContent(content, format string) (string, error) {
	if format != dto.ContentFormatHTML {
		return content, nil
	}
	out, err := markdown.FromHTML(content)
	if err != nil {
		if errors.Is(err, markdown.ErrEmptyContent) {
			return "", newError(KindInvalid, err.Error())
		}
		return "", err
	}
	return out, nil
}

func toListItems(articles []model.Article) []dto.ArticleListItem {
	items := make([]dto.ArticleListItem, 0, len(articles))
	for i := range articles {
		items = append(items, dto.NewArticleListItem(&articles[i]))
	}
	return items
}

package model

import (
	"fmt"
)

// 文章状态
const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
)

// Article 文章模型
type Article struct {
	Base
	AuthorID   uint   `gorm:"not null;index" json:"author_id"`
	Title      string `gorm:"type:varchar(255);not null" json:"title"`
	Content    string `gorm:"type:longtext" json:"content,omitempty"`
	Summary    string `gorm:"type:text" json:"summary"`
	CoverImage string `gorm:"type:varchar(255)" json:"cover_image"`
	CategoryID *uint  `gorm:"index" json:"category_id"`
	Status     string `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	IsFeatured bool   `gorm:"not null;default:false;index" json:"is_featured"`
	ViewCount  int    `gorm:"not null;default:0" json:"view_count"`
	LikeCount  int    `gorm:"not null;default:0" json:"like_count"`

	// 关联
	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags     []Tag     `gorm:"many2many:article_tags;" json:"tags"`
}

// TableName 指定表名
func (Article) TableName() string {
	return "articles"
}

// IsPublished 是否已发布
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// SearchDocumentID ES文档ID
func (a *Article) SearchDocumentID() string {
	return fmt.Sprintf("article_%d", a.ID)
}

// ToSearchDocument 转换为搜索文档
func (a *Article) ToSearchDocument() *ESArticle {
	tags := make([]string, 0, len(a.Tags))
	for _, tag := range a.Tags {
		tags = append(tags, tag.Name)
	}

	doc := &ESArticle{
		ID:         a.SearchDocumentID(),
		ArticleID:  a.ID,
		Title:      a.Title,
		Content:    a.Content,
		Summary:    a.Summary,
		AuthorID:   a.AuthorID,
		Tags:       tags,
		Status:     a.Status,
		IsFeatured: a.IsFeatured,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.CategoryID != nil {
		doc.CategoryID = *a.CategoryID
	}
	if a.Category != nil {
		doc.CategoryName = a.Category.Name
	}
	if a.Author != nil {
		doc.AuthorName = a.Author.Username
	}
	return doc
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/yidong-blog/blog-api/internal/database"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TagService 标签服务
type TagService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewTagService 创建标签服务实例
func NewTagService(db *gorm.DB) *TagService {
	return &TagService{
		db:     db,
		logger: logger.GetSugaredLogger(),
	}
}

// 附带已发布文章数的标签查询
func (s *TagService) withArticleCount(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&model.Tag{}).
		Select("tags.*, COUNT(articles.id) AS article_count").
		Joins("LEFT JOIN article_tags ON article_tags.tag_id = tags.id").
		Joins("LEFT JOIN articles ON articles.id = article_tags.article_id AND articles.status = ?", model.ArticleStatusPublished).
		Group("tags.id")
}

// List 所有标签，文章多的在前
func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.withArticleCount(ctx).
		Order("article_count DESC, tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Popular 热门标签，只返回有已发布文章的标签
func (s *TagService) Popular(ctx context.Context, limit int) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.withArticleCount(ctx).
		Having("COUNT(articles.id) > 0").
		Order("article_count DESC, tags.id ASC").
		Limit(limit).
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// GetByID 获取标签
func (s *TagService) GetByID(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	err := s.withArticleCount(ctx).Where("tags.id = ?", id).Take(&tag).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// Create 创建标签
func (s *TagService) Create(ctx context.Context, req *dto.TagCreateRequest) (*model.Tag, error) {
	tag := &model.Tag{
		Name:  strings.TrimSpace(req.Name),
		Color: req.Color,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkTagName(tx, tag.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(tag).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return ErrTagExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("标签已创建", "tag_id", tag.ID, "name", tag.Name)
	return tag, nil
}

// Update 更新标签
func (s *TagService) Update(ctx context.Context, id uint, req *dto.TagUpdateRequest) (*model.Tag, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag model.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTagNotFound
			}
			return err
		}
		if name, ok := updates["name"].(string); ok && name != tag.Name {
			if err := checkTagName(tx, name, id); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&tag).Updates(updates).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return ErrTagExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete 删除标签，同时解除与文章的关联
func (s *TagService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag model.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTagNotFound
			}
			return err
		}
		if err := tx.Where("tag_id = ?", id).Delete(&model.ArticleTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		return err
	}

	s.logger.Infow("标签已删除", "tag_id", id)
	return nil
}

func checkTagName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := tx.Model(&model.Tag{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrTagExists
	}
	return nil
}

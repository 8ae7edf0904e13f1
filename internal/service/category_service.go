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

// CategoryService 分类服务
type CategoryService struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewCategoryService 创建分类服务实例
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{
		db:     db,
		logger: logger.GetSugaredLogger(),
	}
}

// 附带已发布文章数的分类查询
func (s *CategoryService) withArticleCount(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&model.Category{}).
		Select("categories.*, COUNT(articles.id) AS article_count").
		Joins("LEFT JOIN articles ON articles.category_id = categories.id AND articles.status = ?", model.ArticleStatusPublished).
		Group("categories.id")
}

// List 所有分类，按排序值和创建时间升序
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := s.withArticleCount(ctx).
		Order("categories.sort_order ASC, categories.created_at ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// GetByID 获取分类
func (s *CategoryService) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := s.withArticleCount(ctx).Where("categories.id = ?", id).Take(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create 创建分类
func (s *CategoryService) Create(ctx context.Context, req *dto.CategoryCreateRequest) (*model.Category, error) {
	category := &model.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Color:       req.Color,
		SortOrder:   req.SortOrder,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkCategoryName(tx, category.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(category).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return ErrCategoryExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("分类已创建", "category_id", category.ID, "name", category.Name)
	return category, nil
}

// Update 更新分类
func (s *CategoryService) Update(ctx context.Context, id uint, req *dto.CategoryUpdateRequest) (*model.Category, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		if name, ok := updates["name"].(string); ok && name != category.Name {
			if err := checkCategoryName(tx, name, id); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&category).Updates(updates).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return ErrCategoryExists
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

// Delete 删除分类，仍有文章（包括草稿）引用时拒绝删除
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category model.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.Article{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryInUse
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		return err
	}

	s.logger.Infow("分类已删除", "category_id", id)
	return nil
}

func checkCategoryName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := tx.Model(&model.Category{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryExists
	}
	return nil
}

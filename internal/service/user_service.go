package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yidong-blog/blog-api/internal/config"
	"github.com/yidong-blog/blog-api/internal/database"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/pkg/auth"
	"github.com/yidong-blog/blog-api/pkg/markdown"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 允许用户自己修改的资料字段
var profileFields = map[string]bool{
	"nickname": true,
	"avatar":   true,
	"bio":      true,
	"email":    true,
}

// UserService 用户凭据与资料
type UserService struct {
	db     *gorm.DB
	cfg    config.AuthConfig
	logger *zap.SugaredLogger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, cfg config.AuthConfig) *UserService {
	return &UserService{
		db:     db,
		cfg:    cfg,
		logger: logger.GetSugaredLogger(),
	}
}

// FindByIdentifier 按用户名或邮箱查找用户，已封禁的用户视为不存在
func (s *UserService) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrUserNotFound
	}

	var user model.User
	err := s.db.WithContext(ctx).
		Where("(username = ? OR email = ?) AND status <> ?", identifier, strings.ToLower(identifier), model.UserStatusBanned).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetActiveUser 获取状态正常的用户，认证中间件每次请求都会调用
func (s *UserService) GetActiveUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, model.UserStatusActive).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Create 注册新用户
func (s *UserService) Create(ctx context.Context, req *dto.RegisterRequest) (*model.User, error) {
	return s.create(ctx, req, "")
}

// CreateAdmin 创建管理员，命令行使用
func (s *UserService) CreateAdmin(ctx context.Context, username, email, password string) (*model.User, error) {
	return s.create(ctx, &dto.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, model.RoleAdmin)
}

func (s *UserService) create(ctx context.Context, req *dto.RegisterRequest, role string) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	nickname := markdown.StripTags(req.Nickname)
	if nickname == "" {
		nickname = username
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
		Role:         role,
		Status:       model.UserStatusActive,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}

		if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		if user.Role == "" {
			r, err := s.registerRole(tx)
			if err != nil {
				return err
			}
			user.Role = r
		}

		if err := tx.Create(user).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return ErrAccountExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("新用户注册", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// registerRole 新注册用户的角色；空库时第一个用户成为管理员
func (s *UserService) registerRole(tx *gorm.DB) (string, error) {
	if s.cfg.FirstUserAdmin {
		var count int64
		if err := tx.Model(&model.User{}).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return model.RoleAdmin, nil
		}
	}
	if model.ValidRole(s.cfg.RegisterRole) {
		return s.cfg.RegisterRole, nil
	}
	return model.RoleUser, nil
}

// ValidatePassword 校验登录凭据，用户不存在和密码错误返回同一个错误
func (s *UserService) ValidatePassword(ctx context.Context, identifier, password string) (*model.User, error) {
	user, err := s.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// 与真实用户走同样的哈希比较
			s.compareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("校验密码失败: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("last_login_at", now).Error; err != nil {
		s.logger.Warnf("更新最后登录时间失败: %v", err)
	}
	user.LastLoginAt = &now
	return user, nil
}

func (s *UserService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("not-a-real-password", s.cfg.BcryptCost)
	})
	_, _ = auth.CheckPassword(s.dummyHash, password)
}

// Update 更新资料，只接受 nickname、avatar、bio、email
func (s *UserService) Update(ctx context.Context, id uint, fields map[string]any) (*model.User, error) {
	updates := make(map[string]any)
	for k, v := range fields {
		if !profileFields[k] {
			continue
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case "nickname", "bio":
			str = markdown.StripTags(str)
		case "email":
			str = strings.ToLower(strings.TrimSpace(str))
			if str == "" {
				continue
			}
		default:
			str = strings.TrimSpace(str)
		}
		updates[k] = str
	}
	if len(updates) == 0 {
		return nil, ErrNoUpdatableFields
	}

	var user model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if email, ok := updates["email"].(string); ok {
			if email == user.Email {
				delete(updates, "email")
			} else {
				var count int64
				if err := tx.Model(&model.User{}).Where("email = ? AND id <> ?", email, id).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return ErrEmailTaken
				}
				// 邮箱变更后需要重新验证
				updates["email_verified"] = false
			}
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&model.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return ErrEmailTaken
			}
			return err
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword 校验原密码后修改密码
func (s *UserService) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, oldPassword)
	if err != nil {
		return fmt.Errorf("校验密码失败: %w", err)
	}
	if !ok {
		return ErrWrongPassword
	}

	return s.setPassword(ctx, id, newPassword)
}

// ResetPassword 直接重置密码，命令行使用
func (s *UserService) ResetPassword(ctx context.Context, id uint, newPassword string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.setPassword(ctx, id, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, id uint, password string) error {
	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash).Error
}

// UpdateStatus 修改账户状态
func (s *UserService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !model.ValidUserStatus(status) {
		return ErrInvalidStatus
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("status", status).Error
}

// List 分页列出用户
func (s *UserService) List(ctx context.Context, page, pageSize int) ([]model.User, int64, error) {
	var (
		users []model.User
		total int64
	)
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := s.db.WithContext(ctx).Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Stats 用户已发布文章的数量、浏览量和点赞数
func (s *UserService) Stats(ctx context.Context, id uint) (*dto.UserStats, error) {
	var stats dto.UserStats
	err := s.db.WithContext(ctx).Model(&model.Article{}).
		Select("COUNT(*) AS article_count, COALESCE(SUM(view_count), 0) AS total_views, COALESCE(SUM(like_count), 0) AS total_likes").
		Where("author_id = ? AND status = ?", id, model.ArticleStatusPublished).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

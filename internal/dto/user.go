package dto

import (
	"time"

	"github.com/yidong-blog/blog-api/internal/model"
)

// RegisterRequest 用户注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Nickname string `json:"nickname" binding:"omitempty,max=50"`
}

// LoginRequest 用户登录请求，identifier 可以是用户名或邮箱
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// UpdateProfileRequest 个人资料更新请求，未提供的字段保持不变
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname" binding:"omitempty,max=50"`
	Email    *string `json:"email" binding:"omitempty,email,max=100"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=255"`
}

// Fields 转换为待更新字段
func (r *UpdateProfileRequest) Fields() map[string]any {
	fields := make(map[string]any)
	if r.Nickname != nil {
		fields["nickname"] = *r.Nickname
	}
	if r.Email != nil {
		fields["email"] = *r.Email
	}
	if r.Bio != nil {
		fields["bio"] = *r.Bio
	}
	if r.Avatar != nil {
		fields["avatar"] = *r.Avatar
	}
	return fields
}

// ChangePasswordRequest 密码修改请求
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=72"`
}

// UserResponse 用户信息
type UserResponse struct {
	ID            uint       `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Nickname      string     `json:"nickname"`
	Avatar        string     `json:"avatar"`
	Bio           string     `json:"bio"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	CreatedAt     time.Time  `json:"created_at"`
	Stats         *UserStats `json:"stats,omitempty"`
}

// UserStats 用户文章统计
type UserStats struct {
	ArticleCount int64 `json:"article_count"`
	TotalViews   int64 `json:"total_views"`
	TotalLikes   int64 `json:"total_likes"`
}

// AuthResponse 注册、登录返回
type AuthResponse struct {
	User      *UserResponse `json:"user"`
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expires_in"` // 秒
}

// NewUserResponse 从模型构造用户信息
func NewUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Nickname:      u.Nickname,
		Avatar:        u.Avatar,
		Bio:           u.Bio,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// AuthorInfo 文章作者摘要
type AuthorInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

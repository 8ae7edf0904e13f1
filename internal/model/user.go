package model

import (
	"time"
)

// 用户角色
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusBanned   = "banned"
)

// User 用户模型
type User struct {
	Base
	Username      string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"`
	Email         string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"email"`
	PasswordHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	Nickname      string     `gorm:"type:varchar(50)" json:"nickname"`
	Avatar        string     `gorm:"type:varchar(255)" json:"avatar"`
	Bio           string     `gorm:"type:text" json:"bio"`
	Role          string     `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	Status        string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	EmailVerified bool       `gorm:"not null;default:false" json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsActive 账户是否可用
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// ValidUserStatus 状态值是否合法
func ValidUserStatus(s string) bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusBanned:
		return true
	}
	return false
}

// ValidRole 角色值是否合法
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleUser
}

package middleware

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/pkg/auth"
	"github.com/yidong-blog/blog-api/pkg/response"
	"go.uber.org/zap"
)

// 上下文键
const (
	ctxUserKey  = "currentUser"
	ctxTokenKey = "token"
)

// 缺失、过期、被篡改、已注销的令牌都返回同一条提示
const (
	msgInvalidToken = "未提供有效的认证令牌"
	msgUserDisabled = "用户不存在或已被禁用"
	msgForbidden    = "权限不足"
)

// ErrUserUnavailable 用户不存在或状态不是 active
var ErrUserUnavailable = errors.New("用户不存在或已被禁用")

// UserLoader 按ID加载状态正常的用户，用户不可用时返回 ErrUserUnavailable
type UserLoader interface {
	LoadActiveUser(ctx context.Context, id uint) (*model.User, error)
}

// TokenVerifier 校验访问令牌
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// Authenticator 认证与角色校验中间件
type Authenticator struct {
	tokens TokenVerifier
	users  UserLoader
}

// NewAuthenticator 创建认证中间件
func NewAuthenticator(tokens TokenVerifier, users UserLoader) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// JWTAuth 必须登录
func (a *Authenticator) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// OptionalAuth 令牌有效时设置当前用户，否则以匿名身份继续
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := a.tokens.Verify(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		user, err := a.users.LoadActiveUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, ErrUserUnavailable) {
				logger.Warn("可选认证加载用户失败", zap.Uint("user_id", claims.UserID), zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

// RequireRoles 必须登录且角色在允许列表中
func (a *Authenticator) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			if !a.authenticate(c) {
				return
			}
			user, _ = CurrentUser(c)
		}

		if !slices.Contains(roles, user.Role) {
			response.Forbidden(c, msgForbidden, nil)
			return
		}
		c.Next()
	}
}

// authenticate 校验令牌并加载用户，失败时已写出响应
func (a *Authenticator) authenticate(c *gin.Context) bool {
	token := bearerToken(c)
	if token == "" {
		response.Unauthorized(c, msgInvalidToken, nil)
		return false
	}

	claims, err := a.tokens.Verify(c.Request.Context(), token)
	if err != nil {
		response.Unauthorized(c, msgInvalidToken, err)
		return false
	}

	user, err := a.users.LoadActiveUser(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserUnavailable) {
			response.Unauthorized(c, msgUserDisabled, err)
			return false
		}
		response.InternalServerError(c, "认证失败", err)
		return false
	}

	c.Set(ctxUserKey, user)
	c.Set(ctxTokenKey, token)
	return true
}

// bearerToken 读取 Authorization: Bearer <token>
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CurrentUser 从上下文中获取当前用户
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(ctxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// GetUserID 从上下文中获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return 0, false
	}
	return user.ID, true
}

// GetUserRole 从上下文中获取用户角色
func GetUserRole(c *gin.Context) (string, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return "", false
	}
	return user.Role, true
}

// GetToken 从上下文中获取当前请求的令牌
func GetToken(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxTokenKey)
	if !exists {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}

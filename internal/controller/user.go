package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/middleware"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/internal/service"
	"github.com/yidong-blog/blog-api/pkg/auth"
	"github.com/yidong-blog/blog-api/pkg/response"
	"go.uber.org/zap"
)

// AuthApi 注册、登录与个人资料
type AuthApi struct {
	logger        *zap.SugaredLogger
	userService   *service.UserService
	uploadService *service.UploadService
	tokens        *auth.TokenService
}

// NewAuthApi 创建认证控制器实例
func NewAuthApi(users *service.UserService, uploads *service.UploadService, tokens *auth.TokenService) *AuthApi {
	return &AuthApi{
		logger:        logger.GetSugaredLogger(),
		userService:   users,
		uploadService: uploads,
		tokens:        tokens,
	}
}

func (api *AuthApi) authResponse(c *gin.Context, msg string, user *model.User) {
	token, err := api.tokens.Issue(user.ID, user.Username)
	if err != nil {
		handleServiceError(c, api.logger, "签发令牌", err)
		return
	}
	response.Success(c, msg, dto.AuthResponse{
		User:      dto.NewUserResponse(user),
		Token:     token,
		ExpiresIn: int64(api.tokens.ExpiresIn().Seconds()),
	})
}

// Register 用户注册
func (api *AuthApi) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := api.userService.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, api.logger, "注册", err)
		return
	}
	api.authResponse(c, "注册成功", user)
}

// Login 用户登录
func (api *AuthApi) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := api.userService.ValidatePassword(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		api.logger.Warnw("登录失败", "identifier", req.Identifier, "ip", c.ClientIP(), "error", err)
		handleServiceError(c, api.logger, "登录", err)
		return
	}
	api.authResponse(c, "登录成功", user)
}

// Logout 注销当前令牌
func (api *AuthApi) Logout(c *gin.Context) {
	token, _ := middleware.GetToken(c)
	if err := api.tokens.Revoke(c.Request.Context(), token); err != nil {
		api.logger.Warnw("注销令牌失败", "error", err)
	}
	response.Success(c, "已退出登录", nil)
}

// Verify 校验令牌是否有效
func (api *AuthApi) Verify(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	response.Success(c, "令牌有效", gin.H{
		"valid": true,
		"user":  dto.NewUserResponse(user),
	})
}

// Me 当前用户信息及文章统计
func (api *AuthApi) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := api.userService.Stats(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, api.logger, "获取用户统计", err)
		return
	}

	resp := dto.NewUserResponse(user)
	resp.Stats = stats
	response.Success(c, "获取成功", resp)
}

// UpdateProfile 更新个人资料
func (api *AuthApi) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	updated, err := api.userService.Update(c.Request.Context(), user.ID, req.Fields())
	if err != nil {
		handleServiceError(c, api.logger, "更新资料", err)
		return
	}
	response.Success(c, "更新成功", dto.NewUserResponse(updated))
}

// ChangePassword 修改密码
func (api *AuthApi) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := api.userService.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(c, api.logger, "修改密码", err)
		return
	}
	response.Success(c, "密码修改成功", nil)
}

// UploadAvatar 上传头像，表单字段 avatar
func (api *AuthApi) UploadAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		response.BadRequest(c, service.ErrFileEmpty.Message, err)
		return
	}
	file, err := fh.Open()
	if err != nil {
		handleServiceError(c, api.logger, "读取上传文件", err)
		return
	}
	defer file.Close()

	updated, res, err := api.uploadService.UploadAvatar(c.Request.Context(), user.ID, file, fh.Size)
	if err != nil {
		handleServiceError(c, api.logger, "上传头像", err)
		return
	}
	response.Success(c, "头像上传成功", gin.H{
		"user":   dto.NewUserResponse(updated),
		"avatar": res.URL,
		"file":   res,
	})
}

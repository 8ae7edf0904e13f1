package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yidong-blog/blog-api/internal/middleware"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/internal/service"
	"github.com/yidong-blog/blog-api/pkg/response"
	"github.com/yidong-blog/blog-api/pkg/validator"
	"go.uber.org/zap"
)

// handleServiceError 业务错误按分类返回，其余错误记录日志后返回500
func handleServiceError(c *gin.Context, log *zap.SugaredLogger, action string, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case service.KindInvalid:
			response.BadRequest(c, se.Message, err)
		case service.KindUnauthorized:
			response.Unauthorized(c, se.Message, err)
		case service.KindForbidden:
			response.Forbidden(c, se.Message, err)
		case service.KindNotFound:
			response.NotFound(c, se.Message, err)
		default:
			response.Error(c, http.StatusBadRequest, se.Message, err)
		}
		return
	}

	log.Errorw(action+"失败", "path", c.FullPath(), "error", err)
	response.InternalServerError(c, action+"失败", err)
}

// bindError 参数绑定失败统一返回400
func bindError(c *gin.Context, err error) {
	response.BadRequest(c, validator.Message(err), err)
}

// parseIDParam 解析路径中的正整数ID
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的ID", err)
		return 0, false
	}
	return uint(id), true
}

// currentUser 当前登录用户，路由都挂在认证中间件之后
func currentUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "未授权", nil)
		return nil, false
	}
	return user, true
}

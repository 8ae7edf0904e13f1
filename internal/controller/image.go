package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/service"
	"github.com/yidong-blog/blog-api/pkg/response"
	"go.uber.org/zap"
)

// ImageApi 文章图片上传
type ImageApi struct {
	logger        *zap.SugaredLogger
	uploadService *service.UploadService
}

// NewImageApi 创建图片控制器实例
func NewImageApi(uploads *service.UploadService) *ImageApi {
	return &ImageApi{
		logger:        logger.GetSugaredLogger(),
		uploadService: uploads,
	}
}

// Upload 上传图片，表单字段 image
func (api *ImageApi) Upload(c *gin.Context) {
	fh, err := c.FormFile("image")
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

	res, err := api.uploadService.UploadImage(c.Request.Context(), file, fh.Size)
	if err != nil {
		handleServiceError(c, api.logger, "上传图片", err)
		return
	}
	response.Success(c, "上传成功", res)
}

package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/service"
	"github.com/yidong-blog/blog-api/pkg/response"
	"go.uber.org/zap"
)

// TagApi 标签控制器
type TagApi struct {
	logger         *zap.SugaredLogger
	tagService     *service.TagService
	articleService *service.ArticleService
}

// NewTagApi 创建标签控制器实例
func NewTagApi(tags *service.TagService, articles *service.ArticleService) *TagApi {
	return &TagApi{
		logger:         logger.GetSugaredLogger(),
		tagService:     tags,
		articleService: articles,
	}
}

// List 标签列表
func (api *TagApi) List(c *gin.Context) {
	tags, err := api.tagService.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, api.logger, "获取标签列表", err)
		return
	}
	response.Success(c, "获取成功", tags)
}

// Popular 热门标签
func (api *TagApi) Popular(c *gin.Context) {
	var req dto.PopularTagsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	tags, err := api.tagService.Popular(c.Request.Context(), req.Limit)
	if err != nil {
		handleServiceError(c, api.logger, "获取热门标签", err)
		return
	}
	response.Success(c, "获取成功", tags)
}

// Get 标签详情
func (api *TagApi) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tag, err := api.tagService.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, api.logger, "获取标签", err)
		return
	}
	response.Success(c, "获取成功", tag)
}

// Articles 标签下的已发布文章
func (api *TagApi) Articles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	if _, err := api.tagService.GetByID(c.Request.Context(), id); err != nil {
		handleServiceError(c, api.logger, "获取标签", err)
		return
	}

	res, err := api.articleService.ListByTag(c.Request.Context(), id, req.Page, req.PageSize)
	if err != nil {
		handleServiceError(c, api.logger, "获取标签文章", err)
		return
	}
	response.SuccessPage(c, "获取成功", res.List, req.Page, req.PageSize, res.Total)
}

// Create 创建标签
func (api *TagApi) Create(c *gin.Context) {
	var req dto.TagCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tag, err := api.tagService.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, api.logger, "创建标签", err)
		return
	}
	response.Created(c, "创建成功", tag)
}

// Update 更新标签
func (api *TagApi) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.TagUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Name == nil && req.Color == nil {
		response.BadRequest(c, service.ErrNoUpdatableFields.Message, nil)
		return
	}

	tag, err := api.tagService.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, api.logger, "更新标签", err)
		return
	}
	response.Success(c, "更新成功", tag)
}

// Delete 删除标签
func (api *TagApi) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := api.tagService.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, api.logger, "删除标签", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

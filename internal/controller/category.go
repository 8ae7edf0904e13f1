package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/service"
	"github.com/yidong-blog/blog-api/pkg/response"
	"go.uber.org/zap"
)

// CategoryApi 分类控制器
type CategoryApi struct {
	logger          *zap.SugaredLogger
	categoryService *service.CategoryService
	articleService  *service.ArticleService
}

// NewCategoryApi 创建分类控制器实例
func NewCategoryApi(categories *service.CategoryService, articles *service.ArticleService) *CategoryApi {
	return &CategoryApi{
		logger:          logger.GetSugaredLogger(),
		categoryService: categories,
		articleService:  articles,
	}
}

// List 分类列表
func (api *CategoryApi) List(c *gin.Context) {
	categories, err := api.categoryService.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, api.logger, "获取分类列表", err)
		return
	}
	response.Success(c, "获取成功", categories)
}

// Get 分类详情
func (api *CategoryApi) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := api.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, api.logger, "获取分类", err)
		return
	}
	response.Success(c, "获取成功", category)
}

// Articles 分类下的已发布文章
func (api *CategoryApi) Articles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	if _, err := api.categoryService.GetByID(c.Request.Context(), id); err != nil {
		handleServiceError(c, api.logger, "获取分类", err)
		return
	}

	res, err := api.articleService.ListByCategory(c.Request.Context(), id, req.Page, req.PageSize)
	if err != nil {
		handleServiceError(c, api.logger, "获取分类文章", err)
		return
	}
	response.SuccessPage(c, "获取成功", res.List, req.Page, req.PageSize, res.Total)
}

// Create 创建分类
func (api *CategoryApi) Create(c *gin.Context) {
	var req dto.CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := api.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, api.logger, "创建分类", err)
		return
	}
	response.Created(c, "创建成功", category)
}

// Update 更新分类
func (api *CategoryApi) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Name == nil && req.Description == nil && req.Color == nil && req.SortOrder == nil {
		response.BadRequest(c, service.ErrNoUpdatableFields.Message, nil)
		return
	}

	category, err := api.categoryService.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, api.logger, "更新分类", err)
		return
	}
	response.Success(c, "更新成功", category)
}

// Delete 删除分类
func (api *CategoryApi) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := api.categoryService.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, api.logger, "删除分类", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/middleware"
	"github.com/yidong-blog/blog-api/internal/service"
	"github.com/yidong-blog/blog-api/pkg/response"
	"go.uber.org/zap"
)

// ArticleApi 公开文章接口
type ArticleApi struct {
	logger         *zap.SugaredLogger
	articleService *service.ArticleService
}

// NewArticleApi 创建文章控制器实例
func NewArticleApi(articles *service.ArticleService) *ArticleApi {
	return &ArticleApi{
		logger:         logger.GetSugaredLogger(),
		articleService: articles,
	}
}

// List 已发布文章列表
func (api *ArticleApi) List(c *gin.Context) {
	var req dto.ArticleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := api.articleService.ListPublished(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, api.logger, "获取文章列表", err)
		return
	}
	response.SuccessPage(c, "获取成功", res.List, req.Page, req.PageSize, res.Total)
}

// Featured 精选文章
func (api *ArticleApi) Featured(c *gin.Context) {
	var req dto.FeaturedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, err := api.articleService.ListFeatured(c.Request.Context(), req.Limit)
	if err != nil {
		handleServiceError(c, api.logger, "获取精选文章", err)
		return
	}
	response.Success(c, "获取成功", items)
}

// Detail 文章详情，登录的作者可以看到自己的草稿
func (api *ArticleApi) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	viewerID, _ := middleware.GetUserID(c)

	detail, err := api.articleService.GetPublished(c.Request.Context(), id, viewerID)
	if err != nil {
		handleServiceError(c, api.logger, "获取文章详情", err)
		return
	}
	response.Success(c, "获取成功", detail)
}

// View 浏览量加一
func (api *ArticleApi) View(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := api.articleService.IncrementView(c.Request.Context(), id); err != nil {
		handleServiceError(c, api.logger, "记录浏览", err)
		return
	}
	response.Success(c, "操作成功", nil)
}

// AdminArticleApi 作者后台的文章管理
type AdminArticleApi struct {
	logger         *zap.SugaredLogger
	articleService *service.ArticleService
}

// NewAdminArticleApi 创建后台文章控制器实例
func NewAdminArticleApi(articles *service.ArticleService) *AdminArticleApi {
	return &AdminArticleApi{
		logger:         logger.GetSugaredLogger(),
		articleService: articles,
	}
}

// Dashboard 后台统计
func (api *AdminArticleApi) Dashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := api.articleService.DashboardStats(c.Request.Context(), user.ID)
	if err != nil {
		handleServiceError(c, api.logger, "获取统计数据", err)
		return
	}
	response.Success(c, "获取成功", stats)
}

// List 当前作者的文章
func (api *AdminArticleApi) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.AdminArticleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := api.articleService.ListByAuthor(c.Request.Context(), user.ID, &req)
	if err != nil {
		handleServiceError(c, api.logger, "获取文章列表", err)
		return
	}
	response.SuccessPage(c, "获取成功", res.List, req.Page, req.PageSize, res.Total)
}

// Get 查看自己的文章
func (api *AdminArticleApi) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	article, err := api.articleService.GetForAuthor(c.Request.Context(), id, user.ID)
	if err != nil {
		handleServiceError(c, api.logger, "获取文章", err)
		return
	}
	response.Success(c, "获取成功", article)
}

// Create 创建文章
func (api *AdminArticleApi) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ArticleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	article, err := api.articleService.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		handleServiceError(c, api.logger, "创建文章", err)
		return
	}
	response.Created(c, "创建成功", article)
}

// Update 更新文章
func (api *AdminArticleApi) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ArticleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	article, err := api.articleService.Update(c.Request.Context(), id, user.ID, &req)
	if err != nil {
		handleServiceError(c, api.logger, "更新文章", err)
		return
	}
	response.Success(c, "更新成功", article)
}

// Delete 删除文章
func (api *AdminArticleApi) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := api.articleService.Delete(c.Request.Context(), id, user.ID); err != nil {
		handleServiceError(c, api.logger, "删除文章", err)
		return
	}
	response.Success(c, "删除成功", nil)
}

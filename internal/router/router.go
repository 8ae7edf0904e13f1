package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yidong-blog/blog-api/internal/config"
	"github.com/yidong-blog/blog-api/internal/controller"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/middleware"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/internal/service"
	"github.com/yidong-blog/blog-api/pkg/auth"
	"github.com/yidong-blog/blog-api/pkg/idgen"
	"github.com/yidong-blog/blog-api/pkg/response"
	"github.com/yidong-blog/blog-api/pkg/storage"
	"github.com/yidong-blog/blog-api/pkg/validator"
	"gorm.io/gorm"
)

// Options 路由依赖，Redis 与 ES 可以为 nil
type Options struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	ES     *elasticsearch.Client
}

// activeUsers 把用户服务适配成认证中间件需要的加载器
type activeUsers struct {
	users *service.UserService
}

func (a activeUsers) LoadActiveUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := a.users.GetActiveUser(ctx, id)
	if errors.Is(err, service.ErrUserNotFound) {
		return nil, middleware.ErrUserUnavailable
	}
	return user, err
}

// New 组装服务和控制器，返回注册好路由的 gin 引擎
func New(ctx context.Context, opts Options) (*gin.Engine, error) {
	cfg := opts.Config
	validator.Register()

	expiry, err := cfg.JWT.Expiry()
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenService(cfg.JWT.Secret, expiry, cfg.JWT.Issuer, auth.NewBlacklist(cfg.Auth.Blacklist, opts.Redis))

	store, err := storage.New(ctx, &cfg.Upload)
	if err != nil {
		return nil, fmt.Errorf("初始化文件存储失败: %w", err)
	}
	ids, err := idgen.New(cfg.Snowflake.Epoch, cfg.Snowflake.NodeID)
	if err != nil {
		return nil, err
	}

	var searcher service.ArticleSearcher
	if opts.ES != nil {
		searcher = service.NewArticleSearchService(opts.ES, cfg.Elasticsearch.Index)
	}

	userService := service.NewUserService(opts.DB, cfg.Auth)
	articleService := service.NewArticleService(opts.DB, searcher)
	categoryService := service.NewCategoryService(opts.DB)
	tagService := service.NewTagService(opts.DB)
	uploadService := service.NewUploadService(store, ids, cfg.Upload, userService)

	authn := middleware.NewAuthenticator(tokens, activeUsers{users: userService})

	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxSize + 1<<20
	r.Use(logger.GinLogger(), middleware.Recovery(), middleware.CORS(cfg.App.Cors))

	// 本地存储的上传文件
	if cfg.Upload.Storage == "" || cfg.Upload.Storage == "local" {
		r.Static(cfg.Upload.Local.URLPrefix, cfg.Upload.Local.Path)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "接口不存在", nil)
	})

	api := r.Group("/api")
	api.GET("/health", controller.Health(cfg.App.Version))

	setupAuthRoutes(api, authn, controller.NewAuthApi(userService, uploadService, tokens))
	setupArticleRoutes(api, authn, controller.NewArticleApi(articleService))
	setupCategoryRoutes(api, controller.NewCategoryApi(categoryService, articleService))
	setupTagRoutes(api, controller.NewTagApi(tagService, articleService))
	setupAdminRoutes(api, authn, adminControllers{
		articles:   controller.NewAdminArticleApi(articleService),
		images:     controller.NewImageApi(uploadService),
		categories: controller.NewCategoryApi(categoryService, articleService),
		tags:       controller.NewTagApi(tagService, articleService),
	})

	logger.Info("路由初始化完成")
	return r, nil
}

func setupAuthRoutes(api *gin.RouterGroup, authn *middleware.Authenticator, authApi *controller.AuthApi) {
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authApi.Register)
		authRoutes.POST("/login", authApi.Login)
	}

	protected := api.Group("/auth", authn.JWTAuth())
	{
		protected.POST("/logout", authApi.Logout)
		protected.GET("/verify", authApi.Verify)
		protected.GET("/me", authApi.Me)
		protected.PUT("/profile", authApi.UpdateProfile)
		protected.PUT("/password", authApi.ChangePassword)
		protected.POST("/avatar", authApi.UploadAvatar)
	}
}

func setupArticleRoutes(api *gin.RouterGroup, authn *middleware.Authenticator, articleApi *controller.ArticleApi) {
	articleRoutes := api.Group("/articles")
	{
		articleRoutes.GET("", articleApi.List)
		articleRoutes.GET("/featured", articleApi.Featured)
		articleRoutes.GET("/:id", authn.OptionalAuth(), articleApi.Detail)
		articleRoutes.PUT("/:id/view", articleApi.View)
	}
}

func setupCategoryRoutes(api *gin.RouterGroup, categoryApi *controller.CategoryApi) {
	categoryRoutes := api.Group("/categories")
	{
		categoryRoutes.GET("", categoryApi.List)
		categoryRoutes.GET("/:id", categoryApi.Get)
		categoryRoutes.GET("/:id/articles", categoryApi.Articles)
	}
}

func setupTagRoutes(api *gin.RouterGroup, tagApi *controller.TagApi) {
	tagRoutes := api.Group("/tags")
	{
		tagRoutes.GET("", tagApi.List)
		tagRoutes.GET("/popular", tagApi.Popular)
		tagRoutes.GET("/:id", tagApi.Get)
		tagRoutes.GET("/:id/articles", tagApi.Articles)
	}
}

type adminControllers struct {
	articles   *controller.AdminArticleApi
	images     *controller.ImageApi
	categories *controller.CategoryApi
	tags       *controller.TagApi
}

// setupAdminRoutes 后台路由，分类和标签的写操作只允许管理员
func setupAdminRoutes(api *gin.RouterGroup, authn *middleware.Authenticator, ctl adminControllers) {
	admin := api.Group("/admin", authn.JWTAuth())
	adminOnly := authn.RequireRoles(model.RoleAdmin)

	admin.GET("/dashboard/stats", ctl.articles.Dashboard)

	articleRoutes := admin.Group("/articles")
	{
		articleRoutes.GET("", ctl.articles.List)
		articleRoutes.POST("", ctl.articles.Create)
		articleRoutes.GET("/:id", ctl.articles.Get)
		articleRoutes.PUT("/:id", ctl.articles.Update)
		articleRoutes.DELETE("/:id", ctl.articles.Delete)
	}

	admin.POST("/upload/image", ctl.images.Upload)

	categoryRoutes := admin.Group("/categories")
	{
		categoryRoutes.GET("", ctl.categories.List)
		categoryRoutes.POST("", adminOnly, ctl.categories.Create)
		categoryRoutes.PUT("/:id", adminOnly, ctl.categories.Update)
		categoryRoutes.DELETE("/:id", adminOnly, ctl.categories.Delete)
	}

	tagRoutes := admin.Group("/tags")
	{
		tagRoutes.GET("", ctl.tags.List)
		tagRoutes.POST("", adminOnly, ctl.tags.Create)
		tagRoutes.PUT("/:id", adminOnly, ctl.tags.Update)
		tagRoutes.DELETE("/:id", adminOnly, ctl.tags.Delete)
	}
}

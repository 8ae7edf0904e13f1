package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/yidong-blog/blog-api/internal/config"
	"github.com/yidong-blog/blog-api/internal/database"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/internal/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var configPath string

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "blog-api",
	Short: "个人博客API服务",
	Long:  `个人博客后端服务，提供认证、文章、分类、标签和图片上传接口`,
}

// serveCmd 启动服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	Long:  `启动博客API的HTTP服务器`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config", "配置文件路径")
	rootCmd.AddCommand(serveCmd)
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// system 命令运行期间共享的资源
type system struct {
	loader *config.Loader
	cfg    *config.Config
	db     *gorm.DB
	redis  *redis.Client
	es     *elasticsearch.Client
}

// initializeSystem 加载配置、日志和数据库；extras 为 true 时按配置连接 Redis 和 ES
func initializeSystem(ctx context.Context, extras bool) (*system, error) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("配置初始化失败: %w", err)
	}
	logger.InitLogger(&cfg.Log)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("数据库初始化失败: %w", err)
	}
	if err := model.InitTables(db); err != nil {
		return nil, err
	}

	sys := &system{loader: loader, cfg: cfg, db: db}
	if !extras {
		return sys, nil
	}

	if cfg.Redis.Enabled {
		sys.redis, err = database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			sys.Close()
			return nil, err
		}
	}
	if cfg.Elasticsearch.Enabled {
		sys.es, err = database.InitElasticsearch(ctx, &cfg.Elasticsearch)
		if err != nil {
			sys.Close()
			return nil, err
		}
		if err := model.InitESIndex(ctx, sys.es, cfg.Elasticsearch.Index); err != nil {
			sys.Close()
			return nil, err
		}
	}
	return sys, nil
}

// Close 释放连接
func (s *system) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Sync()
}

// startServer 启动HTTP服务，收到信号后优雅关闭
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sys, err := initializeSystem(ctx, true)
	if err != nil {
		return err
	}
	defer sys.Close()

	if sys.cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	// 编译时注入的版本优先于配置
	if Version != "dev" {
		sys.cfg.App.Version = Version
	}

	// 配置文件变化时只热更新日志级别
	sys.loader.Watch(func(cfg *config.Config) {
		logger.SetLevel(cfg.Log.Level)
		logger.Info("配置已重新加载", zap.String("log_level", cfg.Log.Level))
	})

	r, err := router.New(ctx, router.Options{
		Config: sys.cfg,
		DB:     sys.db,
		Redis:  sys.redis,
		ES:     sys.es,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", sys.cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("服务已启动", zap.String("addr", srv.Addr), zap.String("env", sys.cfg.App.Env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("HTTP服务启动失败: %w", err)
	}
	logger.Info("关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务关闭异常: %w", err)
	}

	logger.Info("服务已关闭")
	return nil
}


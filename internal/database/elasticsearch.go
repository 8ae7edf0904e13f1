package database

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/yidong-blog/blog-api/internal/config"
	"github.com/yidong-blog/blog-api/internal/logger"
	"go.uber.org/zap"
)

// InitElasticsearch 初始化Elasticsearch连接
func InitElasticsearch(ctx context.Context, cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	esConfig := elasticsearch.Config{
		Addresses: cfg.URLs,
	}
	if cfg.Username != "" && cfg.Password != "" {
		esConfig.Username = cfg.Username
		esConfig.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("创建elasticsearch客户端失败: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch健康检查失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch健康检查失败: %s", res.Status())
	}

	logger.Info("elasticsearch连接成功", zap.Strings("addresses", cfg.URLs))
	return client, nil
}

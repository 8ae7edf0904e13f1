package model

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"gorm.io/gorm"
)

// 需要自动迁移的模型列表
var models = []interface{}{
	&User{},
	&Category{},
	&Tag{},
	&Article{},
	&ArticleTag{},
}

// InitTables 初始化数据库表
func InitTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Article{}, "Tags", &ArticleTag{}); err != nil {
		return fmt.Errorf("设置文章标签关联表失败: %w", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("自动迁移数据库表失败: %w", err)
	}
	return nil
}

// InitESIndex 索引不存在时按映射创建
func InitESIndex(ctx context.Context, client *elasticsearch.Client, index string) error {
	res, err := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("检查索引 %s 是否存在时出错: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		return nil
	}

	createRes, err := client.Indices.Create(
		index,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(ESArticle{}.ESMapping())),
	)
	if err != nil {
		return fmt.Errorf("创建索引 %s 失败: %w", index, err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return fmt.Errorf("创建索引 %s 返回错误: %s", index, createRes.String())
	}
	return nil
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArticleSearcher 文章全文检索，未配置 ES 时为 nil
type ArticleSearcher interface {
	Index(ctx context.Context, article *model.Article) error
	Remove(ctx context.Context, articleID uint) error
	SearchIDs(ctx context.Context, keyword string, limit int) ([]uint, error)
}

// ArticleSearchService 基于 Elasticsearch 的文章检索
type ArticleSearchService struct {
	client *elasticsearch.Client
	index  string
	log    *zap.SugaredLogger
}

// NewArticleSearchService 创建文章搜索服务实例
func NewArticleSearchService(client *elasticsearch.Client, index string) *ArticleSearchService {
	if index == "" {
		index = "articles"
	}
	return &ArticleSearchService{
		client: client,
		index:  index,
		log:    logger.GetSugaredLogger(),
	}
}

// Index 写入或覆盖文章文档，草稿会从索引中移除
func (s *ArticleSearchService) Index(ctx context.Context, article *model.Article) error {
	if !article.IsPublished() {
		return s.Remove(ctx, article.ID)
	}

	body, err := json.Marshal(article.ToSearchDocument())
	if err != nil {
		return fmt.Errorf("序列化文章文档失败: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: article.SearchDocumentID(),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("索引文章失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("索引文章返回错误: %s", res.String())
	}
	return nil
}

// Remove 删除文章文档，文档不存在不算错误
func (s *ArticleSearchService) Remove(ctx context.Context, articleID uint) error {
	req := esapi.DeleteRequest{
		Index:      s.index,
		DocumentID: (&model.Article{Base: model.Base{ID: articleID}}).SearchDocumentID(),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("删除文章文档失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("删除文章文档返回错误: %s", res.String())
	}
	return nil
}

// SearchIDs 按相关度返回匹配文章的ID
func (s *ArticleSearchService) SearchIDs(ctx context.Context, keyword string, limit int) ([]uint, error) {
	query := map[string]interface{}{
		"_source": []string{"article_id"},
		"size":    limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":  keyword,
							"fields": []string{"title^3", "summary^2", "content", "tags"},
							"type":   "best_fields",
						},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"status": model.ArticleStatusPublished}},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("搜索文章失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("搜索文章返回错误: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID     string `json:"_id"`
				Source struct {
					ArticleID uint `json:"article_id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析搜索结果失败: %w", err)
	}

	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.Source.ArticleID)
	}
	return ids, nil
}

// SyncAll 把数据库中所有已发布文章重新写入索引，返回写入数量
func (s *ArticleSearchService) SyncAll(ctx context.Context, db *gorm.DB) (int, error) {
	var (
		articles []model.Article
		synced   int
	)
	err := db.WithContext(ctx).
		Preload("Author").Preload("Category").Preload("Tags").
		Where("status = ?", model.ArticleStatusPublished).
		FindInBatches(&articles, 100, func(tx *gorm.DB, batch int) error {
			for i := range articles {
				if err := s.Index(ctx, &articles[i]); err != nil {
					s.log.Warnw("同步文章到ES失败", "article_id", articles[i].ID, "error", err)
					continue
				}
				synced++
			}
			return nil
		}).Error
	if err != nil {
		return synced, err
	}

	res, err := s.client.Indices.Refresh(
		s.client.Indices.Refresh.WithContext(ctx),
		s.client.Indices.Refresh.WithIndex(s.index),
	)
	if err != nil {
		return synced, fmt.Errorf("刷新索引失败: %w", err)
	}
	res.Body.Close()

	s.log.Infow("文章同步到ES完成", "count", synced, "index", s.index)
	return synced, nil
}

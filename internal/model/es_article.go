package model

import "time"

// ESArticle Elasticsearch文章文档模型，只收录已发布文章
type ESArticle struct {
	ID           string    `json:"id"`         // 格式为 article_{id}
	ArticleID    uint      `json:"article_id"` // 数据库中的文章ID
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Summary      string    `json:"summary"`
	AuthorID     uint      `json:"author_id"`
	AuthorName   string    `json:"author_name"`
	CategoryID   uint      `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Tags         []string  `json:"tags"`
	Status       string    `json:"status"`
	IsFeatured   bool      `json:"is_featured"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ESMapping 返回ES索引映射
func (ESArticle) ESMapping() string {
	return `{
		"settings": {
			"number_of_shards": 1,
			"number_of_replicas": 0,
			"analysis": {
				"analyzer": {
					"text_analyzer": {
						"type": "custom",
						"tokenizer": "standard",
						"char_filter": ["html_strip"],
						"filter": ["lowercase", "asciifolding"]
					}
				}
			}
		},
		"mappings": {
			"properties": {
				"id": { "type": "keyword" },
				"article_id": { "type": "long" },
				"title": {
					"type": "text",
					"analyzer": "text_analyzer",
					"fields": { "keyword": { "type": "keyword" } }
				},
				"content": { "type": "text", "analyzer": "text_analyzer" },
				"summary": { "type": "text", "analyzer": "text_analyzer" },
				"author_id": { "type": "long" },
				"author_name": { "type": "keyword" },
				"category_id": { "type": "long" },
				"category_name": { "type": "keyword" },
				"tags": { "type": "keyword" },
				"status": { "type": "keyword" },
				"is_featured": { "type": "boolean" },
				"created_at": { "type": "date" },
				"updated_at": { "type": "date" }
			}
		}
	}`
}

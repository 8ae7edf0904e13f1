package model

// Category 分类模型
type Category struct {
	Base
	Name        string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Color       string `gorm:"type:varchar(20)" json:"color"`
	SortOrder   int    `gorm:"not null;default:0;index" json:"sort_order"`

	// 已发布文章数，查询时统计
	ArticleCount int64 `gorm:"->;-:migration" json:"article_count"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

package model

// Tag 标签模型
type Tag struct {
	Base
	Name  string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Color string `gorm:"type:varchar(20)" json:"color"`

	// 已发布文章数，查询时统计
	ArticleCount int64 `gorm:"->;-:migration" json:"article_count"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// ArticleTag 文章-标签关联模型
type ArticleTag struct {
	ArticleID uint `gorm:"primaryKey;autoIncrement:false" json:"article_id"`
	TagID     uint `gorm:"primaryKey;autoIncrement:false;index" json:"tag_id"`
}

// TableName 指定表名
func (ArticleTag) TableName() string {
	return "article_tags"
}

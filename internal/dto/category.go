package dto

// CategoryCreateRequest 创建分类请求
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description" binding:"max=500"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	SortOrder   int    `json:"sort_order" binding:"gte=0"`
}

// CategoryUpdateRequest 更新分类请求，未提供的字段保持不变
type CategoryUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=50"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
	SortOrder   *int    `json:"sort_order" binding:"omitempty,gte=0"`
}

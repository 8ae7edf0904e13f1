package dto

// TagCreateRequest 创建标签请求
type TagCreateRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// TagUpdateRequest 更新标签请求
type TagUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=50"`
	Color *string `json:"color" binding:"omitempty,hexcolor"`
}

// PopularTagsRequest 热门标签请求
type PopularTagsRequest struct {
	Limit int `form:"limit,default=10" binding:"min=1,max=50"`
}

package controller

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yidong-blog/blog-api/pkg/response"
)

// Health 健康检查
func Health(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, "ok", gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   version,
		})
	}
}

package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yidong-blog/blog-api/internal/config"
)

// Storage 上传文件的存储后端
type Storage interface {
	// Save 保存文件并返回可访问的URL
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete 删除文件
	Delete(ctx context.Context, key string) error
}

// New 根据配置创建存储后端
func New(ctx context.Context, cfg *config.UploadConfig) (Storage, error) {
	switch cfg.Storage {
	case "local", "":
		return NewLocal(cfg.Local.Path, cfg.Local.URLPrefix), nil
	case "cos":
		return NewCOS(cfg.COS)
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Storage)
	}
}

// cleanKey 规范化对象键，拒绝跳出根目录的路径
func cleanKey(key string) (string, error) {
	k := strings.TrimPrefix(path.Clean("/"+key), "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("非法的文件路径: %q", key)
	}
	return k, nil
}

func joinURL(prefix, key string) string {
	return strings.TrimRight(prefix, "/") + "/" + key
}

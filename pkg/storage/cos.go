package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"
	"github.com/yidong-blog/blog-api/internal/config"
)

// COS 腾讯云对象存储
type COS struct {
	client    *cos.Client
	urlPrefix string
}

// NewCOS 创建COS存储
func NewCOS(cfg config.COSStorageConfig) (*COS, error) {
	u, err := url.Parse(cfg.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("解析COS URL失败: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	prefix := cfg.URLPrefix
	if prefix == "" {
		prefix = strings.TrimRight(cfg.BucketURL, "/")
	}
	return &COS{client: client, urlPrefix: prefix}, nil
}

// Save 上传对象
func (s *COS) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType:   contentType,
			ContentLength: size,
		},
	}
	if _, err := s.client.Object.Put(ctx, key, r, opt); err != nil {
		return "", fmt.Errorf("上传到腾讯云失败: %w", err)
	}
	return joinURL(s.urlPrefix, key), nil
}

// Delete 删除对象
func (s *COS) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.Object.Delete(ctx, key); err != nil {
		return fmt.Errorf("删除腾讯云对象失败: %w", err)
	}
	return nil
}

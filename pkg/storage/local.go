package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local 本地磁盘存储，由 /uploads 静态路由对外提供访问
type Local struct {
	root      string
	urlPrefix string
}

// NewLocal 创建本地存储
func NewLocal(root, urlPrefix string) *Local {
	return &Local{root: root, urlPrefix: urlPrefix}
}

// Root 存储根目录
func (s *Local) Root() string {
	return s.root
}

// Save 保存文件
func (s *Local) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("创建上传目录失败: %w", err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	return joinURL(s.urlPrefix, key), nil
}

// Delete 删除文件，文件不存在时视为成功
func (s *Local) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yidong-blog/blog-api/internal/config"
)

func TestLocalSaveAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	s := NewLocal(root, "/uploads/")

	url, err := s.Save(ctx, "avatars/avatar-1.png", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/avatar-1.png", url)

	data, err := os.ReadFile(filepath.Join(root, "avatars", "avatar-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = s.Save(ctx, "avatars/avatar-1.png", strings.NewReader("again"), 5, "image/png")
	assert.Error(t, err, "existing files are never overwritten")

	require.NoError(t, s.Delete(ctx, "avatars/avatar-1.png"))
	require.NoError(t, s.Delete(ctx, "avatars/avatar-1.png"))
	_, err = os.Stat(filepath.Join(root, "avatars", "avatar-1.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalKeysStayInsideRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := NewLocal(filepath.Join(root, "uploads"), "/uploads")

	url, err := s.Save(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.txt", url)

	_, err = os.Stat(filepath.Join(root, "uploads", "escape.txt"))
	assert.NoError(t, err)

	_, err = s.Save(context.Background(), "/", strings.NewReader("x"), 1, "text/plain")
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	s, err := New(context.Background(), &config.UploadConfig{
		Storage: "local",
		Local:   config.LocalStorageConfig{Path: t.TempDir(), URLPrefix: "/uploads"},
	})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	c, err := New(context.Background(), &config.UploadConfig{
		Storage: "cos",
		COS:     config.COSStorageConfig{BucketURL: "https://bucket-1250000000.cos.ap-guangzhou.myqcloud.com"},
	})
	require.NoError(t, err)
	assert.IsType(t, &COS{}, c)

	_, err = New(context.Background(), &config.UploadConfig{Storage: "ftp"})
	assert.Error(t, err)
}

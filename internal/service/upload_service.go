package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"slices"

	"github.com/yidong-blog/blog-api/internal/config"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/logger"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/pkg/idgen"
	"github.com/yidong-blog/blog-api/pkg/storage"
	"go.uber.org/zap"
)

// 文件类型按内容识别，不信任客户端声明的类型和扩展名
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

const sniffLen = 512

// UploadService 头像和文章图片上传
type UploadService struct {
	store storage.Storage
	ids   *idgen.Generator
	cfg   config.UploadConfig
	users *UserService
	log   *zap.SugaredLogger
}

// NewUploadService 创建上传服务实例
func NewUploadService(store storage.Storage, ids *idgen.Generator, cfg config.UploadConfig, users *UserService) *UploadService {
	return &UploadService{
		store: store,
		ids:   ids,
		cfg:   cfg,
		users: users,
		log:   logger.GetSugaredLogger(),
	}
}

// UploadImage 上传文章图片
func (s *UploadService) UploadImage(ctx context.Context, r io.Reader, size int64) (*dto.UploadResponse, error) {
	return s.save(ctx, r, size, "images", "image-", s.cfg.ImageType)
}

// UploadAvatar 上传头像并更新用户资料
func (s *UploadService) UploadAvatar(ctx context.Context, userID uint, r io.Reader, size int64) (*model.User, *dto.UploadResponse, error) {
	res, err := s.save(ctx, r, size, "avatars", "avatar-", s.cfg.AvatarType)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.Update(ctx, userID, map[string]any{"avatar": res.URL})
	if err != nil {
		if derr := s.store.Delete(ctx, path.Join("avatars", res.Filename)); derr != nil {
			s.log.Warnw("删除未使用的头像失败", "filename", res.Filename, "error", derr)
		}
		return nil, nil, err
	}
	return user, res, nil
}

func (s *UploadService) save(ctx context.Context, r io.Reader, size int64, dir, prefix string, allowed []string) (*dto.UploadResponse, error) {
	if size <= 0 {
		return nil, ErrFileEmpty
	}
	if s.cfg.MaxSize > 0 && size > s.cfg.MaxSize {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrFileEmpty
	}

	mimeType := http.DetectContentType(head)
	ext, ok := imageExtensions[mimeType]
	if !ok || !slices.Contains(allowed, mimeType) {
		return nil, ErrFileTypeInvalid
	}

	filename := prefix + s.ids.NextString() + ext
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), size)
	url, err := s.store.Save(ctx, path.Join(dir, filename), body, size, mimeType)
	if err != nil {
		return nil, err
	}

	s.log.Infow("文件已上传", "filename", filename, "size", size, "mime_type", mimeType)
	return &dto.UploadResponse{
		URL:      url,
		Filename: filename,
		Size:     size,
		MimeType: mimeType,
	}, nil
}

package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yidong-blog/blog-api/internal/config"
	"github.com/yidong-blog/blog-api/internal/database"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "blog.db"),
		LogLevel: "silent",
		Retries:  1,
	})
	require.NoError(t, err)
	require.NoError(t, model.InitTables(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		RegisterRole:   model.RoleUser,
		FirstUserAdmin: true,
		BcryptCost:     bcrypt.MinCost,
	}
}

func mustRegister(t *testing.T, users *UserService, username string) *model.User {
	t.Helper()

	u, err := users.Create(context.Background(), &dto.RegisterRequest{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "secret1",
	})
	require.NoError(t, err)
	return u
}

func mustCategory(t *testing.T, db *gorm.DB, name string) *model.Category {
	t.Helper()

	c := &model.Category{Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

func mustTag(t *testing.T, db *gorm.DB, name string) *model.Tag {
	t.Helper()

	tag := &model.Tag{Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

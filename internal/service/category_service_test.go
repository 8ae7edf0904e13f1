package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/model"
)

func TestCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	categories := NewCategoryService(newTestDB(t))

	c, err := categories.Create(ctx, &dto.CategoryCreateRequest{Name: " Go ", Color: "#00ADD8", SortOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, "Go", c.Name)

	_, err = categories.Create(ctx, &dto.CategoryCreateRequest{Name: "Go"})
	assert.ErrorIs(t, err, ErrCategoryExists)

	first, err := categories.Create(ctx, &dto.CategoryCreateRequest{Name: "Life", SortOrder: 1})
	require.NoError(t, err)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	updated, err := categories.Update(ctx, c.ID, &dto.CategoryUpdateRequest{Description: strPtr("golang")})
	require.NoError(t, err)
	assert.Equal(t, "golang", updated.Description)
	assert.Equal(t, "Go", updated.Name)

	_, err = categories.Update(ctx, c.ID, &dto.CategoryUpdateRequest{Name: strPtr("Life")})
	assert.ErrorIs(t, err, ErrCategoryExists)

	_, err = categories.Update(ctx, 999, &dto.CategoryUpdateRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	require.NoError(t, categories.Delete(ctx, c.ID))
	_, err = categories.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.ErrorIs(t, categories.Delete(ctx, c.ID), ErrCategoryNotFound)
}

func TestCategoryArticleCount(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	categories := NewCategoryService(f.db)
	c := mustCategory(t, f.db, "tech")
	mustCategory(t, f.db, "empty")

	f.create(t, &dto.ArticleCreateRequest{Title: "a", CategoryID: uintPtr(c.ID)})
	f.create(t, &dto.ArticleCreateRequest{Title: "b", CategoryID: uintPtr(c.ID)})
	f.create(t, &dto.ArticleCreateRequest{Title: "draft", CategoryID: uintPtr(c.ID), Status: model.ArticleStatusDraft})

	got, err := categories.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ArticleCount)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, item := range list {
		counts[item.Name] = item.ArticleCount
	}
	assert.Equal(t, map[string]int64{"tech": 2, "empty": 0}, counts)
}

func TestDeleteCategoryInUse(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	categories := NewCategoryService(f.db)
	c := mustCategory(t, f.db, "tech")

	// 草稿同样阻止删除
	a := f.create(t, &dto.ArticleCreateRequest{Title: "draft", CategoryID: uintPtr(c.ID), Status: model.ArticleStatusDraft})

	err := categories.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCategoryInUse)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindInvalid, se.Kind)

	still, err := categories.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "tech", still.Name)

	require.NoError(t, f.articles.Delete(ctx, a.ID, f.author.ID))
	assert.NoError(t, categories.Delete(ctx, c.ID))
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yidong-blog/blog-api/internal/dto"
	"github.com/yidong-blog/blog-api/internal/model"
	"gorm.io/gorm"
)

type fakeSearcher struct {
	ids     []uint
	err     error
	indexed []uint
	removed []uint
}

func (f *fakeSearcher) Index(_ context.Context, a *model.Article) error {
	f.indexed = append(f.indexed, a.ID)
	return nil
}

func (f *fakeSearcher) Remove(_ context.Context, id uint) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeSearcher) SearchIDs(_ context.Context, _ string, _ int) ([]uint, error) {
	return f.ids, f.err
}

type articleFixture struct {
	db       *gorm.DB
	users    *UserService
	articles *ArticleService
	author   *model.User
}

func newArticleFixture(t *testing.T) *articleFixture {
	t.Helper()

	db := newTestDB(t)
	users := NewUserService(db, testAuthConfig())
	return &articleFixture{
		db:       db,
		users:    users,
		articles: NewArticleService(db, nil),
		author:   mustRegister(t, users, "alice"),
	}
}

func (f *articleFixture) create(t *testing.T, req *dto.ArticleCreateRequest) *dto.ArticleDetailResponse {
	t.Helper()

	if req.Status == "" {
		req.Status = model.ArticleStatusPublished
	}
	if req.Content == "" {
		req.Content = "正文内容"
	}
	a, err := f.articles.Create(context.Background(), f.author.ID, req)
	require.NoError(t, err)
	return a
}

func tagIDs(items []dto.TagInfo) []uint {
	ids := make([]uint, 0, len(items))
	for _, t := range items {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestCreateArticleDefaults(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()

	a, err := f.articles.Create(ctx, f.author.ID, &dto.ArticleCreateRequest{
		Title:   "  Hello  ",
		Content: "# 标题\n\n第一段内容\n\n![cover](/uploads/images/a.png)",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", a.Title)
	assert.Equal(t, model.ArticleStatusDraft, a.Status)
	assert.Contains(t, a.Summary, "第一段内容")
	assert.Equal(t, "/uploads/images/a.png", a.CoverImage)
	require.NotNil(t, a.Author)
	assert.Equal(t, "alice", a.Author.Username)
	assert.Empty(t, a.Tags)
}

func TestCreateArticleFromHTML(t *testing.T) {
	f := newArticleFixture(t)

	a := f.create(t, &dto.ArticleCreateRequest{
		Title:         "html",
		Content:       "<h1>Title</h1><p>Some <strong>bold</strong> text</p>",
		ContentFormat: dto.ContentFormatHTML,
	})
	assert.Contains(t, a.Content, "# Title")
	assert.Contains(t, a.Content, "**bold**")

	_, err := f.articles.Create(context.Background(), f.author.ID, &dto.ArticleCreateRequest{
		Title:         "empty",
		Content:       "   ",
		ContentFormat: dto.ContentFormatHTML,
	})
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindInvalid, se.Kind)
}

func TestCreateArticleValidatesReferences(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	tag := mustTag(t, f.db, "go")

	_, err := f.articles.Create(ctx, f.author.ID, &dto.ArticleCreateRequest{
		Title: "bad category", Content: "x", CategoryID: uintPtr(99),
	})
	assert.ErrorIs(t, err, ErrCategoryInvalid)

	_, err = f.articles.Create(ctx, f.author.ID, &dto.ArticleCreateRequest{
		Title: "bad tag", Content: "x", Tags: []uint{tag.ID, 99},
	})
	assert.ErrorIs(t, err, ErrTagInvalid)

	// 失败的事务不能留下文章
	var count int64
	require.NoError(t, f.db.Model(&model.Article{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReplaceTagsYieldsExactSet(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	t1 := mustTag(t, f.db, "go")
	t2 := mustTag(t, f.db, "gin")
	t3 := mustTag(t, f.db, "gorm")

	a := f.create(t, &dto.ArticleCreateRequest{Title: "tags", Tags: []uint{t1.ID, t2.ID, t1.ID}})
	assert.ElementsMatch(t, []uint{t1.ID, t2.ID}, tagIDs(a.Tags))

	updated, err := f.articles.Update(ctx, a.ID, f.author.ID, &dto.ArticleUpdateRequest{Tags: &[]uint{t2.ID, t3.ID}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{t2.ID, t3.ID}, tagIDs(updated.Tags))

	// 不提供 tags 时保持不变
	updated, err = f.articles.Update(ctx, a.ID, f.author.ID, &dto.ArticleUpdateRequest{Title: strPtr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.ElementsMatch(t, []uint{t2.ID, t3.ID}, tagIDs(updated.Tags))

	// 非法标签整体回滚
	_, err = f.articles.Update(ctx, a.ID, f.author.ID, &dto.ArticleUpdateRequest{
		Title: strPtr("rolled back"),
		Tags:  &[]uint{t1.ID, 404},
	})
	assert.ErrorIs(t, err, ErrTagInvalid)
	current, err := f.articles.GetForAuthor(ctx, a.ID, f.author.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", current.Title)
	assert.ElementsMatch(t, []uint{t2.ID, t3.ID}, tagIDs(current.Tags))

	updated, err = f.articles.Update(ctx, a.ID, f.author.ID, &dto.ArticleUpdateRequest{Tags: &[]uint{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestUpdateArticleCategory(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	c := mustCategory(t, f.db, "tech")

	a := f.create(t, &dto.ArticleCreateRequest{Title: "cat", CategoryID: uintPtr(c.ID)})
	require.NotNil(t, a.Category)
	assert.Equal(t, "tech", a.Category.Name)

	updated, err := f.articles.Update(ctx, a.ID, f.author.ID, &dto.ArticleUpdateRequest{CategoryID: uintPtr(0)})
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
	assert.Nil(t, updated.Category)

	_, err = f.articles.Update(ctx, a.ID, f.author.ID, &dto.ArticleUpdateRequest{CategoryID: uintPtr(99)})
	assert.ErrorIs(t, err, ErrCategoryInvalid)
}

func TestArticleOwnership(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	bob := mustRegister(t, f.users, "bob")
	a := f.create(t, &dto.ArticleCreateRequest{Title: "mine"})

	_, err := f.articles.GetForAuthor(ctx, a.ID, bob.ID)
	assert.ErrorIs(t, err, ErrArticleNotOwned)
	_, err = f.articles.Update(ctx, a.ID, bob.ID, &dto.ArticleUpdateRequest{Title: strPtr("stolen")})
	assert.ErrorIs(t, err, ErrArticleNotOwned)
	assert.ErrorIs(t, f.articles.Delete(ctx, a.ID, bob.ID), ErrArticleNotOwned)

	require.NoError(t, f.articles.Delete(ctx, a.ID, f.author.ID))
	_, err = f.articles.GetForAuthor(ctx, a.ID, f.author.ID)
	assert.ErrorIs(t, err, ErrArticleNotOwned)
}

func TestDeleteArticleRemovesTagLinks(t *testing.T) {
	f := newArticleFixture(t)
	tag := mustTag(t, f.db, "go")
	a := f.create(t, &dto.ArticleCreateRequest{Title: "linked", Tags: []uint{tag.ID}})

	require.NoError(t, f.articles.Delete(context.Background(), a.ID, f.author.ID))

	var links int64
	require.NoError(t, f.db.Model(&model.ArticleTag{}).Where("article_id = ?", a.ID).Count(&links).Error)
	assert.Zero(t, links)
}

func TestListPublished(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	c := mustCategory(t, f.db, "tech")
	tag := mustTag(t, f.db, "go")

	for i := 0; i < 5; i++ {
		f.create(t, &dto.ArticleCreateRequest{Title: "post", CategoryID: uintPtr(c.ID)})
	}
	featured := f.create(t, &dto.ArticleCreateRequest{Title: "featured", IsFeatured: true, Tags: []uint{tag.ID}})
	f.create(t, &dto.ArticleCreateRequest{Title: "draft", Status: model.ArticleStatusDraft})

	res, err := f.articles.ListPublished(ctx, &dto.ArticleListRequest{Page: 1, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Total)
	require.Len(t, res.List, 4)
	assert.Equal(t, featured.ID, res.List[0].ID)

	res, err = f.articles.ListPublished(ctx, &dto.ArticleListRequest{Page: 2, PageSize: 4})
	require.NoError(t, err)
	assert.Len(t, res.List, 2)

	res, err = f.articles.ListPublished(ctx, &dto.ArticleListRequest{Page: 1, PageSize: 10, CategoryID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Total)

	res, err = f.articles.ListByTag(ctx, tag.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, res.List, 1)
	assert.Equal(t, featured.ID, res.List[0].ID)

	res, err = f.articles.ListPublished(ctx, &dto.ArticleListRequest{Page: 1, PageSize: 10, Featured: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Total)

	res, err = f.articles.ListPublished(ctx, &dto.ArticleListRequest{Page: 1, PageSize: 10, Keyword: "feat"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)

	items, err := f.articles.ListFeatured(ctx, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "featured", items[0].Title)
}

func TestListPublishedUsesSearcher(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	a := f.create(t, &dto.ArticleCreateRequest{Title: "alpha"})
	b := f.create(t, &dto.ArticleCreateRequest{Title: "beta"})

	searcher := &fakeSearcher{ids: []uint{b.ID}}
	svc := NewArticleService(f.db, searcher)

	res, err := svc.ListPublished(ctx, &dto.ArticleListRequest{Page: 1, PageSize: 10, Keyword: "anything"})
	require.NoError(t, err)
	require.Len(t, res.List, 1)
	assert.Equal(t, b.ID, res.List[0].ID)

	// 检索失败时退回数据库查询
	searcher.err = errors.New("es down")
	res, err = svc.ListPublished(ctx, &dto.ArticleListRequest{Page: 1, PageSize: 10, Keyword: "alpha"})
	require.NoError(t, err)
	require.Len(t, res.List, 1)
	assert.Equal(t, a.ID, res.List[0].ID)

	searcher.err = nil
	searcher.ids = nil
	res, err = svc.ListPublished(ctx, &dto.ArticleListRequest{Page: 1, PageSize: 10, Keyword: "alpha"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestSearcherFollowsWrites(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	searcher := &fakeSearcher{}
	svc := NewArticleService(f.db, searcher)

	a, err := svc.Create(ctx, f.author.ID, &dto.ArticleCreateRequest{Title: "x", Content: "y"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, a.ID, f.author.ID, &dto.ArticleUpdateRequest{Title: strPtr("z")})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, a.ID, f.author.ID))

	assert.Equal(t, []uint{a.ID, a.ID}, searcher.indexed)
	assert.Equal(t, []uint{a.ID}, searcher.removed)
}

func TestGetPublished(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	bob := mustRegister(t, f.users, "bob")
	c := mustCategory(t, f.db, "tech")

	a := f.create(t, &dto.ArticleCreateRequest{Title: "main", Content: "**bold**", CategoryID: uintPtr(c.ID)})
	sibling := f.create(t, &dto.ArticleCreateRequest{Title: "sibling", CategoryID: uintPtr(c.ID)})
	f.create(t, &dto.ArticleCreateRequest{Title: "hidden", CategoryID: uintPtr(c.ID), Status: model.ArticleStatusDraft})
	draft := f.create(t, &dto.ArticleCreateRequest{Title: "draft", Status: model.ArticleStatusDraft})

	detail, err := f.articles.GetPublished(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Contains(t, detail.Article.ContentHTML, "<strong>bold</strong>")
	require.Len(t, detail.RelatedArticles, 1)
	assert.Equal(t, sibling.ID, detail.RelatedArticles[0].ID)

	_, err = f.articles.GetPublished(ctx, draft.ID, 0)
	assert.ErrorIs(t, err, ErrArticleNotFound)
	_, err = f.articles.GetPublished(ctx, draft.ID, bob.ID)
	assert.ErrorIs(t, err, ErrArticleNotFound)
	own, err := f.articles.GetPublished(ctx, draft.ID, f.author.ID)
	require.NoError(t, err)
	assert.Equal(t, "draft", own.Article.Title)

	_, err = f.articles.GetPublished(ctx, 999, 0)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestIncrementView(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	a := f.create(t, &dto.ArticleCreateRequest{Title: "views"})
	draft := f.create(t, &dto.ArticleCreateRequest{Title: "draft", Status: model.ArticleStatusDraft})

	require.NoError(t, f.articles.IncrementView(ctx, a.ID))
	require.NoError(t, f.articles.IncrementView(ctx, a.ID))
	assert.ErrorIs(t, f.articles.IncrementView(ctx, draft.ID), ErrArticleNotFound)

	detail, err := f.articles.GetPublished(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Article.ViewCount)
}

func TestListByAuthorAndDashboard(t *testing.T) {
	f := newArticleFixture(t)
	ctx := context.Background()
	bob := mustRegister(t, f.users, "bob")
	mustCategory(t, f.db, "tech")
	mustTag(t, f.db, "go")

	a := f.create(t, &dto.ArticleCreateRequest{Title: "one"})
	f.create(t, &dto.ArticleCreateRequest{Title: "two", Status: model.ArticleStatusDraft})
	_, err := f.articles.Create(ctx, bob.ID, &dto.ArticleCreateRequest{Title: "bob's", Content: "x", Status: model.ArticleStatusPublished})
	require.NoError(t, err)
	require.NoError(t, f.articles.IncrementView(ctx, a.ID))

	res, err := f.articles.ListByAuthor(ctx, f.author.ID, &dto.AdminArticleListRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	res, err = f.articles.ListByAuthor(ctx, f.author.ID, &dto.AdminArticleListRequest{Page: 1, PageSize: 10, Status: model.ArticleStatusDraft})
	require.NoError(t, err)
	require.Len(t, res.List, 1)
	assert.Equal(t, "two", res.List[0].Title)

	stats, err := f.articles.DashboardStats(ctx, f.author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Articles.Total)
	assert.Equal(t, int64(1), stats.Articles.Published)
	assert.Equal(t, int64(1), stats.Articles.Draft)
	assert.Equal(t, int64(1), stats.TotalViews)
	assert.Equal(t, int64(1), stats.Categories)
	assert.Equal(t, int64(1), stats.Tags)

	require.Len(t, stats.RecentViews, recentViewDays)
	last := stats.RecentViews[len(stats.RecentViews)-1]
	assert.Equal(t, time.Now().Format(time.DateOnly), last.Date)
	assert.Equal(t, int64(1), last.Views)
}

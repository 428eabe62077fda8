package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/apperr"
	"sitecms/models"
	"sitecms/repositories"
)

func publishedPost(title, slug string, at time.Time) *models.BlogPost {
	p := &models.BlogPost{Title: title, Slug: slug, Content: "<p>body</p>"}
	p.SetStatus(models.PostStatusPublished, at)
	return p
}

func TestPostsListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	catID := primitive.NewObjectID()
	tagID := primitive.NewObjectID()

	first := publishedPost("Alpha", "alpha", base)
	first.CategoryID = &catID
	second := publishedPost("Bravo", "bravo", base.Add(time.Hour))
	second.TagIDs = []primitive.ObjectID{tagID}
	second.Analytics.Views = 50
	draft := &models.BlogPost{Title: "Charlie draft", Slug: "charlie", Content: "x", Status: models.PostStatusDraft}

	for _, p := range []*models.BlogPost{first, second, draft} {
		require.NoError(t, store.Posts.Insert(ctx, p))
	}

	posts, total, err := store.Posts.List(ctx, repositories.PostListFilter{Status: models.PostStatusPublished})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, posts, 2)
	assert.Equal(t, "bravo", posts[0].Slug, "newest first")

	posts, _, err = store.Posts.List(ctx, repositories.PostListFilter{Sort: repositories.SortOldest})
	require.NoError(t, err)
	assert.Equal(t, "charlie", posts[0].Slug, "unpublished sorts as oldest")

	posts, _, err = store.Posts.List(ctx, repositories.PostListFilter{CategoryID: &catID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "alpha", posts[0].Slug)

	posts, _, err = store.Posts.List(ctx, repositories.PostListFilter{TagIDs: []primitive.ObjectID{tagID}})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "bravo", posts[0].Slug)

	posts, _, err = store.Posts.List(ctx, repositories.PostListFilter{Search: "CHARLIE"})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	posts, total, err = store.Posts.List(ctx, repositories.PostListFilter{Limit: 1, Page: 2, Sort: repositories.SortTitle})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "bravo", posts[0].Slug)

	posts, _, err = store.Posts.List(ctx, repositories.PostListFilter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostsSlugConflict(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	a := publishedPost("A", "same", time.Now())
	require.NoError(t, store.Posts.Insert(ctx, a))

	err := store.Posts.Insert(ctx, publishedPost("B", "same", time.Now()))
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	exists, err := store.Posts.SlugExists(ctx, "same", a.ID.Hex())
	require.NoError(t, err)
	assert.False(t, exists, "a document does not collide with itself")

	exists, err = store.Posts.SlugExists(ctx, "same", "")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPostsIncrementAnalytics(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := publishedPost("A", "a", time.Now())
	require.NoError(t, store.Posts.Insert(ctx, p))

	for i := 0; i < 3; i++ {
		_, err := store.Posts.IncrementAnalytics(ctx, p.ID, repositories.FieldViews, 1)
		require.NoError(t, err)
	}
	a, err := store.Posts.IncrementAnalytics(ctx, p.ID, repositories.FieldLikes, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, a.Views)
	assert.EqualValues(t, 2, a.Likes)

	_, err = store.Posts.IncrementAnalytics(ctx, primitive.NewObjectID(), repositories.FieldViews, 1)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := publishedPost("A", "a", time.Now())
	require.NoError(t, store.Posts.Insert(ctx, p))

	got, err := store.Posts.FindBySlug(ctx, "a")
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := store.Posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Title)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := New()
	store := db.Store()

	cat := &models.BlogCategory{Name: "Go", Slug: "go"}
	require.NoError(t, store.Categories.Insert(ctx, cat))

	boom := errors.New("boom")
	err := store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, store.Categories.IncrementPostCount(ctx, cat.ID, 1))
		require.NoError(t, store.Posts.Insert(ctx, publishedPost("A", "a", time.Now())))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Categories.FindByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.PostCount)
	_, err = store.Posts.FindBySlug(ctx, "a")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		return store.Categories.IncrementPostCount(ctx, cat.ID, 1)
	})
	require.NoError(t, err)
	got, err = store.Categories.FindByID(ctx, cat.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.PostCount)
}

func TestFailSimulatesOutage(t *testing.T) {
	ctx := context.Background()
	db := New()
	store := db.Store()

	db.Fail(errors.New("connection refused"))
	_, _, err := store.Posts.List(ctx, repositories.PostListFilter{})
	assert.True(t, errors.Is(err, apperr.ErrUpstreamStore))
	assert.True(t, errors.Is(store.Tags.Insert(ctx, &models.BlogTag{Name: "x", Slug: "x"}), apperr.ErrUpstreamStore))

	db.Fail(nil)
	_, _, err = store.Posts.List(ctx, repositories.PostListFilter{})
	assert.NoError(t, err)
}

func TestTaxonomyCounters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	goTag := &models.BlogTag{Name: "Go", Slug: "go"}
	rust := &models.BlogTag{Name: "Rust", Slug: "rust"}
	require.NoError(t, store.Tags.Insert(ctx, goTag))
	require.NoError(t, store.Tags.Insert(ctx, rust))

	require.NoError(t, store.Tags.IncrementUsage(ctx, []primitive.ObjectID{rust.ID}, 2))
	tags, err := store.Tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "rust", tags[0].Slug, "most used first")

	rust.Name = "Rust lang"
	rust.UsageCount = 0
	require.NoError(t, store.Tags.Replace(ctx, rust))
	got, err := store.Tags.FindByID(ctx, rust.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rust lang", got.Name)
	assert.EqualValues(t, 2, got.UsageCount, "replace keeps counters")

	byIDs, err := store.Tags.FindByIDs(ctx, []primitive.ObjectID{rust.ID, goTag.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, "Go", byIDs[0].Name)
}

func TestPullTagAndUnsetCategory(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	catID := primitive.NewObjectID()
	tagA, tagB := primitive.NewObjectID(), primitive.NewObjectID()

	p := publishedPost("A", "a", time.Now())
	p.CategoryID = &catID
	p.TagIDs = []primitive.ObjectID{tagA, tagB}
	require.NoError(t, store.Posts.Insert(ctx, p))

	n, err := store.Posts.PullTag(ctx, tagA)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = store.Posts.UnsetCategory(ctx, catID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := store.Posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Equal(t, []primitive.ObjectID{tagB}, got.TagIDs)
}

func TestCommentsOrdering(t *testing.T) {
	ctx := context.Background()
	db := New()
	store := db.Store()
	postID := primitive.NewObjectID()

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	db.SetClock(func() time.Time { return clock })
	for i, status := range []models.CommentStatus{models.CommentStatusApproved, models.CommentStatusPending, models.CommentStatusApproved} {
		clock = clock.Add(time.Minute)
		c := &models.BlogComment{PostID: postID, AuthorName: "reader", Content: string(rune('a' + i)), Status: status}
		require.NoError(t, store.Comments.Insert(ctx, c))
	}

	approved, err := store.Comments.ListApproved(ctx, postID)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, "a", approved[0].Content, "oldest first")

	listed, total, err := store.Comments.List(ctx, repositories.CommentListFilter{Status: models.CommentStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "b", listed[0].Content)

	n, err := store.Comments.DeleteByPost(ctx, postID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestPagesUpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	db := New()
	store := db.Store()

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	db.SetClock(func() time.Time { return t0 })
	require.NoError(t, store.Pages.Upsert(ctx, &models.Page{Slug: "about", Title: "About"}))

	db.SetClock(func() time.Time { return t0.Add(time.Hour) })
	require.NoError(t, store.Pages.Upsert(ctx, &models.Page{Slug: "about", Title: "About us"}))

	pg, err := store.Pages.FindBySlug(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, "About us", pg.Title)
	assert.Equal(t, t0, pg.CreatedAt)
	assert.Equal(t, t0.Add(time.Hour), pg.UpdatedAt)

	require.NoError(t, store.Pages.Delete(ctx, "about"))
	assert.True(t, errors.Is(store.Pages.Delete(ctx, "about"), apperr.ErrNotFound))
}

func TestEventsEndsAfter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	past := &models.Event{Title: "Past", Slug: "past", StartDate: now.Add(-48 * time.Hour), Status: models.EventStatusPublished}
	endLater := now.Add(2 * time.Hour)
	running := &models.Event{Title: "Running", Slug: "running", StartDate: now.Add(-time.Hour), EndDate: &endLater, Status: models.EventStatusPublished}
	next := &models.Event{Title: "Next", Slug: "next", StartDate: now.Add(24 * time.Hour), Status: models.EventStatusPublished}
	for _, e := range []*models.Event{next, past, running} {
		require.NoError(t, store.Events.Insert(ctx, e))
	}

	events, total, err := store.Events.List(ctx, repositories.EventListFilter{Status: models.EventStatusPublished, EndsAfter: &now})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, events, 2)
	assert.Equal(t, "running", events[0].Slug)
	assert.Equal(t, "next", events[1].Slug)
}

func TestChatbotDefault(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	cfg, err := store.Chatbot.Get(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)

	cfg.Enabled = true
	cfg.SystemPrompt = "be brief"
	require.NoError(t, store.Chatbot.Save(ctx, cfg))

	again, err := store.Chatbot.Get(ctx)
	require.NoError(t, err)
	assert.True(t, again.Enabled)
	assert.Equal(t, "be brief", again.SystemPrompt)
}

func TestPostsReplaceKeepsCounters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	p := publishedPost("Alpha", "alpha", time.Now())
	require.NoError(t, store.Posts.Insert(ctx, p))

	stale := *p
	_, err := store.Posts.IncrementAnalytics(ctx, p.ID, repositories.FieldLikes, 3)
	require.NoError(t, err)

	stale.Title = "Alpha v2"
	require.NoError(t, store.Posts.Replace(ctx, &stale))

	got, err := store.Posts.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha v2", got.Title)
	assert.EqualValues(t, 3, got.Analytics.Likes)
}

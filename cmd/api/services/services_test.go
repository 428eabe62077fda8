package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/apperr"
	"sitecms/cmd/api/dto"
	"sitecms/cmd/internal/eventbus"
	"sitecms/config"
	"sitecms/events"
	"sitecms/feeder"
	"sitecms/models"
	"sitecms/repositories"
	"sitecms/repositories/memory"
)

var testSite = config.SiteConfig{
	Name:          "Acme",
	BaseURL:       "https://acme.example",
	Description:   "Acme engineering blog",
	Language:      "en",
	DefaultAuthor: "Acme Team",
}

type fixture struct {
	db    *memory.DB
	store repositories.Store
	pub   *eventbus.MemoryPublisher
	posts *PostService
	tax   *TaxonomyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	store := db.Store()
	pub := &eventbus.MemoryPublisher{}
	return &fixture{
		db:    db,
		store: store,
		pub:   pub,
		posts: NewPostService(store, testSite, pub, "sitecms.content"),
		tax:   NewTaxonomyService(store),
	}
}

func (f *fixture) category(t *testing.T, name string) *models.BlogCategory {
	t.Helper()
	c, err := f.tax.CreateCategory(context.Background(), dto.CategoryInputDTO{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) tag(t *testing.T, name string) *models.BlogTag {
	t.Helper()
	tg, err := f.tax.CreateTag(context.Background(), dto.TagInputDTO{Name: name})
	require.NoError(t, err)
	return tg
}

func (f *fixture) counts(t *testing.T, catID, tagID string) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	cid, _ := parseID(catID, "category")
	tid, _ := parseID(tagID, "tag")
	c, err := f.store.Categories.FindByID(ctx, cid)
	require.NoError(t, err)
	tg, err := f.store.Tags.FindByID(ctx, tid)
	require.NoError(t, err)
	return c.PostCount, tg.UsageCount
}

func eventTypes(pub *eventbus.MemoryPublisher) []string {
	var out []string
	for _, e := range pub.Events() {
		out = append(out, e.Event.Type)
	}
	return out
}

func TestPostLifecycleCounters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := f.category(t, "Engineering")
	tag := f.tag(t, "Go")

	post, err := f.posts.Create(ctx, dto.PostInputDTO{
		Title:      "Guía de Migración 2024",
		Content:    "<p>Hello <strong>world</strong></p>",
		CategoryID: cat.ID.Hex(),
		TagIDs:     []string{tag.ID.Hex(), tag.ID.Hex()},
	}, Author{ID: "u1", Name: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "guia-de-migracion-2024", post.Slug)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.Equal(t, "Jane", post.AuthorName)
	assert.Equal(t, "Hello world", post.Excerpt)
	assert.Len(t, post.Tags, 1, "duplicate tag ids collapse")

	pc, uc := f.counts(t, cat.ID.Hex(), tag.ID.Hex())
	assert.Zero(t, pc)
	assert.Zero(t, uc)

	published, err := f.posts.Publish(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	first := *published.PublishedAt
	pc, uc = f.counts(t, cat.ID.Hex(), tag.ID.Hex())
	assert.EqualValues(t, 1, pc)
	assert.EqualValues(t, 1, uc)

	_, err = f.posts.Publish(ctx, post.ID)
	require.NoError(t, err)
	pc, _ = f.counts(t, cat.ID.Hex(), tag.ID.Hex())
	assert.EqualValues(t, 1, pc, "publishing twice is a no-op")

	_, err = f.posts.Unpublish(ctx, post.ID)
	require.NoError(t, err)
	pc, uc = f.counts(t, cat.ID.Hex(), tag.ID.Hex())
	assert.Zero(t, pc)
	assert.Zero(t, uc)

	again, err := f.posts.Publish(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *again.PublishedAt, "published_at is set once")

	_, err = f.posts.Archive(ctx, post.ID)
	require.NoError(t, err)
	pc, _ = f.counts(t, cat.ID.Hex(), tag.ID.Hex())
	assert.Zero(t, pc)

	_, err = f.posts.Publish(ctx, post.ID)
	require.NoError(t, err)
	require.NoError(t, f.posts.Delete(ctx, post.ID))
	pc, uc = f.counts(t, cat.ID.Hex(), tag.ID.Hex())
	assert.Zero(t, pc)
	assert.Zero(t, uc)

	assert.Equal(t, []string{
		string(events.PostPublished),
		string(events.PostUnpublished),
		string(events.PostPublished),
		string(events.PostArchived),
		string(events.PostPublished),
		string(events.PostDeleted),
	}, eventTypes(f.pub))
}

func TestUpdateMovesCountersBetweenCategories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.category(t, "A")
	b := f.category(t, "B")
	tag := f.tag(t, "Go")

	post, err := f.posts.Create(ctx, dto.PostInputDTO{
		Title: "Post", Content: "body", Status: models.PostStatusPublished,
		CategoryID: a.ID.Hex(), TagIDs: []string{tag.ID.Hex()},
	}, Author{})
	require.NoError(t, err)
	assert.Equal(t, "Acme Team", post.AuthorName)

	updated, err := f.posts.Update(ctx, post.ID, dto.PostInputDTO{Title: "Post renamed", Content: "body", CategoryID: b.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, post.Slug, updated.Slug, "slug is kept unless given")
	assert.Equal(t, models.PostStatusPublished, updated.Status, "status is kept unless given")

	pa, uc := f.counts(t, a.ID.Hex(), tag.ID.Hex())
	pb, _ := f.counts(t, b.ID.Hex(), tag.ID.Hex())
	assert.Zero(t, pa)
	assert.EqualValues(t, 1, pb)
	assert.Zero(t, uc, "removed tag is released")
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "Taken", Content: "x"}, Author{})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   dto.PostInputDTO
		want error
	}{
		{"blank title", dto.PostInputDTO{Title: "  "}, apperr.ErrInvalidInput},
		{"publish without content", dto.PostInputDTO{Title: "T", Status: models.PostStatusPublished}, apperr.ErrInvalidInput},
		{"unknown category", dto.PostInputDTO{Title: "T", CategoryID: "507f1f77bcf86cd799439011"}, apperr.ErrInvalidInput},
		{"malformed tag id", dto.PostInputDTO{Title: "T", TagIDs: []string{"nope"}}, apperr.ErrInvalidInput},
		{"explicit slug taken", dto.PostInputDTO{Title: "Other", Slug: "taken"}, apperr.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.posts.Create(ctx, tt.in, Author{})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	dup, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "Taken", Content: "x"}, Author{})
	require.NoError(t, err)
	assert.Equal(t, "taken-1", dup.Slug)
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := f.category(t, "News")
	draft, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "Draft", Content: "x", CategoryID: cat.ID.Hex()}, Author{})
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, dto.PostInputDTO{Title: "Live", Content: "x", Status: models.PostStatusPublished, CategoryID: cat.ID.Hex()}, Author{})
	require.NoError(t, err)

	_, err = f.posts.GetBySlug(ctx, draft.Slug, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	got, err := f.posts.GetBySlug(ctx, draft.Slug, true)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	page, err := f.posts.List(ctx, ListPostsInput{Status: "draft"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "live", page.Items[0].Slug, "status is ignored without permission")
	require.NotNil(t, page.Items[0].Category)
	assert.Equal(t, "news", page.Items[0].Category.Slug)

	page, err = f.posts.List(ctx, ListPostsInput{Status: "draft", CanReadDrafts: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "draft", page.Items[0].Slug)

	page, err = f.posts.List(ctx, ListPostsInput{CanReadDrafts: true, AnyStatus: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)

	page, err = f.posts.List(ctx, ListPostsInput{Category: "missing"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 0, page.Pagination.Total)

	_, err = f.posts.List(ctx, ListPostsInput{Sort: "random"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = f.posts.Engage(ctx, draft.Slug, repositories.FieldLikes)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "drafts cannot be liked")
}

func TestEngageAndRelated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tag := f.tag(t, "Go")
	var slugs []string
	for _, title := range []string{"One", "Two", "Three"} {
		p, err := f.posts.Create(ctx, dto.PostInputDTO{
			Title: title, Content: "body", Status: models.PostStatusPublished, TagIDs: []string{tag.ID.Hex()},
		}, Author{})
		require.NoError(t, err)
		slugs = append(slugs, p.Slug)
	}

	for i := 0; i < 3; i++ {
		_, err := f.posts.Engage(ctx, slugs[0], repositories.FieldViews)
		require.NoError(t, err)
	}
	got, err := f.posts.Engage(ctx, slugs[0], repositories.FieldLikes)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Analytics.Views)
	assert.EqualValues(t, 1, got.Analytics.Likes)

	_, err = f.posts.Engage(ctx, slugs[0], repositories.FieldComments)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	related, err := f.posts.Related(ctx, slugs[0], 5)
	require.NoError(t, err)
	require.Len(t, related, 2)
	for _, r := range related {
		assert.NotEqual(t, slugs[0], r.Slug)
	}
}

func TestEventPublishFailureDoesNotFailRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.pub.Err = errors.New("broker down")
	_, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "T", Content: "x", Status: models.PostStatusPublished}, Author{})
	assert.NoError(t, err)
}

func TestStoreOutageRollsBackTransition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := f.category(t, "A")
	post, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "T", Content: "x", CategoryID: cat.ID.Hex()}, Author{})
	require.NoError(t, err)

	f.db.Fail(errors.New("connection reset"))
	_, err = f.posts.Publish(ctx, post.ID)
	assert.ErrorIs(t, err, apperr.ErrUpstreamStore)
	f.db.Fail(nil)

	got, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, got.Status)
}

func TestTaxonomyDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent := f.category(t, "Parent")
	child, err := f.tax.CreateCategory(ctx, dto.CategoryInputDTO{Name: "Child", ParentID: parent.ID.Hex()})
	require.NoError(t, err)
	tag := f.tag(t, "Go")
	post, err := f.posts.Create(ctx, dto.PostInputDTO{
		Title: "T", Content: "x", CategoryID: parent.ID.Hex(), TagIDs: []string{tag.ID.Hex()},
	}, Author{})
	require.NoError(t, err)

	_, err = f.tax.UpdateCategory(ctx, parent.ID.Hex(), dto.CategoryInputDTO{Name: "Parent", ParentID: parent.ID.Hex()})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	require.NoError(t, f.tax.DeleteCategory(ctx, parent.ID.Hex()))
	require.NoError(t, f.tax.DeleteTag(ctx, tag.ID.Hex()))

	got, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)
	assert.Empty(t, got.Tags)

	c, err := f.tax.GetCategory(ctx, child.Slug)
	require.NoError(t, err)
	assert.Nil(t, c.ParentID)

	_, err = f.tax.CreateTag(ctx, dto.TagInputDTO{Name: "Rust", Slug: "go"})
	assert.NoError(t, err, "deleted tag frees its slug")
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	comments := NewCommentService(f.store)
	post, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "T", Content: "x", Status: models.PostStatusPublished}, Author{})
	require.NoError(t, err)
	closed := false
	locked, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "Locked", Content: "x", Status: models.PostStatusPublished, AllowComments: &closed}, Author{})
	require.NoError(t, err)
	draft, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "Draft", Content: "x"}, Author{})
	require.NoError(t, err)

	in := dto.CommentInputDTO{AuthorName: "Ann", AuthorEmail: "Ann@Example.com", Content: "<b>Nice</b> post"}
	root, err := comments.Create(ctx, post.Slug, in, RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Nice post", root.Content)

	_, err = comments.Create(ctx, locked.Slug, in, RequestMeta{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = comments.Create(ctx, draft.Slug, in, RequestMeta{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = comments.Create(ctx, post.Slug, dto.CommentInputDTO{AuthorName: "A", AuthorEmail: "a@b.c", Content: strings.Repeat("x", maxCommentLength+1)}, RequestMeta{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	reply := in
	reply.ParentID = root.ID
	_, err = comments.Create(ctx, post.Slug, reply, RequestMeta{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "pending parents cannot be replied to")

	list, err := comments.ListForPost(ctx, post.Slug)
	require.NoError(t, err)
	assert.Empty(t, list, "pending comments are hidden")

	_, err = comments.Moderate(ctx, root.ID, models.CommentStatusApproved)
	require.NoError(t, err)
	child, err := comments.Create(ctx, post.Slug, reply, RequestMeta{})
	require.NoError(t, err)
	_, err = comments.Moderate(ctx, child.ID, models.CommentStatusApproved)
	require.NoError(t, err)

	list, err = comments.ListForPost(ctx, post.Slug)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Replies, 1)
	assert.Equal(t, child.ID, list[0].Replies[0].ID)

	p, err := f.posts.GetBySlug(ctx, post.Slug, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.Analytics.Comments)

	_, err = comments.Moderate(ctx, child.ID, models.CommentStatusSpam)
	require.NoError(t, err)
	require.NoError(t, comments.Delete(ctx, root.ID))
	p, err = f.posts.GetBySlug(ctx, post.Slug, false)
	require.NoError(t, err)
	assert.Zero(t, p.Analytics.Comments)

	pending, err := comments.AdminList(ctx, "spam", "", 1, 10)
	require.NoError(t, err)
	assert.Len(t, pending.Items, 1)
}

func TestPagesEventsChatbot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pages := NewPageService(f.store)
	_, err := pages.Upsert(ctx, "about", dto.PageInputDTO{Title: "About"})
	require.NoError(t, err)
	_, err = pages.Get(ctx, "about", false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = pages.Upsert(ctx, "Not A Slug", dto.PageInputDTO{Title: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	evs := NewEventService(f.store)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	evs.now = func() time.Time { return now }
	past := now.Add(-48 * time.Hour)
	_, err = evs.Create(ctx, dto.EventInputDTO{Title: "Past", StartDate: past, Status: models.EventStatusPublished})
	require.NoError(t, err)
	_, err = evs.Create(ctx, dto.EventInputDTO{Title: "Next", StartDate: now.Add(24 * time.Hour), Status: models.EventStatusPublished})
	require.NoError(t, err)
	_, err = evs.Create(ctx, dto.EventInputDTO{Title: "Hidden", StartDate: now.Add(24 * time.Hour)})
	require.NoError(t, err)
	end := now.Add(-time.Hour)
	_, err = evs.Create(ctx, dto.EventInputDTO{Title: "Bad", StartDate: now, EndDate: &end})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	upcoming, err := evs.Upcoming(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, upcoming.Items, 1)
	assert.Equal(t, "next", upcoming.Items[0].Slug)
	_, err = evs.GetBySlug(ctx, "hidden", false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	bot := NewChatbotService(f.store)
	pub, err := bot.Public(ctx)
	require.NoError(t, err)
	assert.False(t, pub.Enabled)
	_, err = bot.Update(ctx, dto.ChatbotInputDTO{Enabled: true, Name: "Helper", SystemPrompt: "secret", QuickReplies: []string{" hi ", ""}})
	require.NoError(t, err)
	pub, err = bot.Public(ctx)
	require.NoError(t, err)
	assert.True(t, pub.Enabled)
	assert.Equal(t, []string{"hi"}, pub.QuickReplies)
	full, err := bot.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret", full.SystemPrompt)
}

func TestAuthorProfileNamesPosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	users := NewUserService(f.store)
	_, err := users.UpsertProfile(ctx, Author{ID: "u1"}, "jane@example.com", dto.AuthorInputDTO{Name: "Jane Doe"})
	require.NoError(t, err)

	p, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "T", Content: "x"}, Author{ID: "u1", Name: "jane"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.AuthorName)

	a, err := users.GetAuthor(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", a.Name)
	_, err = users.GetAuthor(ctx, "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSEOStaleFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "Hello", Content: "<p>x</p>", Status: models.PostStatusPublished}, Author{})
	require.NoError(t, err)
	svc := NewSEOService(f.store, config.AppConfig{Site: testSite}, nil)

	_, err = func() (*Document, error) {
		f.db.Fail(errors.New("down"))
		defer f.db.Fail(nil)
		return svc.Sitemap(ctx)
	}()
	assert.ErrorIs(t, err, apperr.ErrUpstreamStore, "nothing to fall back to yet")

	fresh, err := svc.Sitemap(ctx)
	require.NoError(t, err)
	assert.False(t, fresh.Stale)
	assert.Contains(t, string(fresh.Body), "https://acme.example/blog/hello")

	f.db.Fail(errors.New("down"))
	stale, err := svc.Sitemap(ctx)
	f.db.Fail(nil)
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	assert.Equal(t, fresh.Body, stale.Body)
}

func TestSEOSitemapIndexAndFeeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cat := f.category(t, "Engineering")
	for _, title := range []string{"One", "Two", "Three"} {
		_, err := f.posts.Create(ctx, dto.PostInputDTO{Title: title, Content: "<p>x</p>", Status: models.PostStatusPublished, CategoryID: cat.ID.Hex()}, Author{})
		require.NoError(t, err)
	}
	svc := NewSEOService(f.store, config.AppConfig{Site: testSite, Sitemap: config.SitemapConfig{MaxURLs: 2}}, nil)

	idx, err := svc.Sitemap(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(idx.Body), "<sitemapindex")
	assert.Contains(t, string(idx.Body), "https://acme.example/sitemaps/2")

	pg, err := svc.SitemapPage(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, string(pg.Body), "<urlset")
	_, err = svc.SitemapPage(ctx, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	for _, format := range []FeedFormat{FeedRSS, FeedAtom, FeedJSON} {
		doc, err := svc.Feed(ctx, format, 2)
		require.NoError(t, err)
		parsed, err := feeder.Parse(string(doc.Body), 0)
		require.NoError(t, err, format)
		assert.Len(t, parsed.Items, 2, format)
	}
	_, err = svc.Feed(ctx, "yaml", 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	doc, err := svc.CategoryFeed(ctx, "engineering", 0)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeRSS, doc.ContentType)
	_, err = svc.CategoryFeed(ctx, "missing", 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	schema, err := svc.Schema(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, "https://schema.org", schema["@context"])
	meta, err := svc.Meta(ctx, "one")
	require.NoError(t, err)
	assert.Contains(t, meta.HTML(), "og:title")
	_, err = svc.Meta(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAIService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.posts.Create(ctx, dto.PostInputDTO{
		Title: "Kubernetes Operators", Content: "<h2>Intro</h2><p>Operators extend Kubernetes. They reconcile state.</p>",
		Status: models.PostStatusPublished,
	}, Author{})
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, dto.PostInputDTO{Title: "Hidden", Content: "x"}, Author{})
	require.NoError(t, err)
	svc := NewAIService(f.store, testSite, nil)

	md, err := svc.Markdown(ctx, "kubernetes-operators")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Kubernetes Operators"))
	_, err = svc.Markdown(ctx, "hidden")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	meta, err := svc.Metadata(ctx, "kubernetes-operators")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example/blog/kubernetes-operators", meta.URL)

	_, err = svc.Analysis(ctx, "kubernetes-operators")
	require.NoError(t, err)

	txt, err := svc.LLMsTxt(ctx)
	require.NoError(t, err)
	assert.Contains(t, txt, "Kubernetes Operators")
	assert.NotContains(t, txt, "Hidden")

	idx, err := svc.ContentIndex(ctx)
	require.NoError(t, err)
	assert.Len(t, idx, 1)
}

type stubFetcher struct {
	feed *feeder.Feed
	err  error
}

func (s stubFetcher) Fetch(context.Context, string, int) (*feeder.Feed, error) { return s.feed, s.err }

func TestImportFeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.posts.Create(ctx, dto.PostInputDTO{Title: "Existing", Content: "x"}, Author{})
	require.NoError(t, err)

	svc := NewImportService(f.posts, stubFetcher{feed: &feeder.Feed{Items: []feeder.FeedItem{
		{Title: "Existing", Content: "<p>dup</p>"},
		{Title: "Fresh Item", Summary: "<p>Short</p>", Content: "<p>Full body</p>", Link: "https://src.example/a", ImageURL: "https://src.example/a.png"},
		{Title: ""},
	}}})
	res, err := svc.ImportFeed(ctx, dto.ImportFeedInputDTO{URL: "https://src.example/feed"}, Author{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Existing"}, res.Skipped)
	require.Len(t, res.Imported, 1)
	assert.Equal(t, models.PostStatusDraft, res.Imported[0].Status)
	require.NotNil(t, res.Imported[0].FeaturedImage)

	got, err := f.posts.GetBySlug(ctx, "fresh-item", true)
	require.NoError(t, err)
	assert.Equal(t, "https://src.example/a", got.SEO.CanonicalURL)
	assert.Equal(t, "Short", got.Excerpt)

	failing := NewImportService(f.posts, stubFetcher{err: errors.New("404")})
	_, err = failing.ImportFeed(ctx, dto.ImportFeedInputDTO{URL: "https://src.example/feed"}, Author{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

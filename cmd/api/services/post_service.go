package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/aicontent"
	"sitecms/apperr"
	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/trace"
	"sitecms/cmd/internal/eventbus"
	"sitecms/cmd/internal/logger"
	"sitecms/config"
	"sitecms/events"
	"sitecms/markdown"
	"sitecms/models"
	"sitecms/repositories"
	"sitecms/siteurl"
	"sitecms/slug"
	"sitecms/textutil"
)

const (
	excerptMax          = 300
	defaultRelatedLimit = 3
	maxRelatedLimit     = 10
)

// PostService owns the post lifecycle: visibility, validation, counter transitions and content events.
//
// - store: 글/카테고리/태그 저장소. 상태 전이는 store.Tx 안에서 카운터와 함께 갱신된다.
// - pub: 커밋 이후 post.* 이벤트를 발행한다. 실패는 로그만 남긴다.
type PostService struct {
	store repositories.Store
	site  config.SiteConfig
	pub   eventbus.Publisher
	topic string
	now   func() time.Time
}

func NewPostService(store repositories.Store, site config.SiteConfig, pub eventbus.Publisher, topic string) *PostService {
	if pub == nil {
		pub = eventbus.NoopPublisher{}
	}
	return &PostService{store: store, site: site, pub: pub, topic: topic, now: utcNow}
}

type ListPostsInput struct {
	Page     int
	Limit    int
	Category string // slug
	Tag      string // slug
	Search   string
	Featured *bool
	Sort     string
	Status   string
	// CanReadDrafts lets Status select non-published posts.
	CanReadDrafts bool
	// AnyStatus lists every status when Status is empty (admin listing).
	AnyStatus bool
}

func (s *PostService) List(ctx context.Context, in ListPostsInput) (dto.Page[dto.PostSummaryDTO], error) {
	f := repositories.PostListFilter{
		Status:   models.PostStatusPublished,
		Search:   strings.TrimSpace(in.Search),
		Featured: in.Featured,
		Sort:     repositories.PostSort(in.Sort),
		Page:     in.Page,
		Limit:    in.Limit,
	}
	if !f.Sort.Valid() {
		return dto.Page[dto.PostSummaryDTO]{}, apperr.InvalidInputf("unknown sort %q", in.Sort)
	}
	if in.CanReadDrafts {
		switch {
		case in.Status != "":
			st := models.PostStatus(in.Status)
			if !st.Valid() {
				return dto.Page[dto.PostSummaryDTO]{}, apperr.InvalidInputf("unknown status %q", in.Status)
			}
			f.Status = st
		case in.AnyStatus:
			f.Status = ""
		}
	}
	f = f.Normalize()

	empty := dto.Page[dto.PostSummaryDTO]{Items: []dto.PostSummaryDTO{}, Pagination: dto.NewPagination(f.Page, f.Limit, 0)}
	if in.Category != "" {
		c, err := s.store.Categories.FindBySlug(ctx, in.Category)
		if errors.Is(err, apperr.ErrNotFound) {
			return empty, nil
		}
		if err != nil {
			logStoreError(ctx, "list posts", err)
			return dto.Page[dto.PostSummaryDTO]{}, err
		}
		f.CategoryID = &c.ID
	}
	if in.Tag != "" {
		t, err := s.store.Tags.FindBySlug(ctx, in.Tag)
		if errors.Is(err, apperr.ErrNotFound) {
			return empty, nil
		}
		if err != nil {
			logStoreError(ctx, "list posts", err)
			return dto.Page[dto.PostSummaryDTO]{}, err
		}
		f.TagIDs = []primitive.ObjectID{t.ID}
	}

	posts, total, err := s.store.Posts.List(ctx, f)
	if err != nil {
		logStoreError(ctx, "list posts", err)
		return dto.Page[dto.PostSummaryDTO]{}, err
	}
	items, err := s.summaries(ctx, posts)
	if err != nil {
		return dto.Page[dto.PostSummaryDTO]{}, err
	}
	return dto.Page[dto.PostSummaryDTO]{Items: items, Pagination: dto.NewPagination(f.Page, f.Limit, total)}, nil
}

func (s *PostService) summaries(ctx context.Context, posts []models.BlogPost) ([]dto.PostSummaryDTO, error) {
	tx, err := loadTaxonomy(ctx, s.store, posts)
	if err != nil {
		logStoreError(ctx, "load taxonomy", err)
		return nil, err
	}
	out := make([]dto.PostSummaryDTO, 0, len(posts))
	for i := range posts {
		cat, tags := tx.of(&posts[i])
		out = append(out, dto.NewPostSummary(&posts[i], cat, tags, readingTime(&posts[i])))
	}
	return out, nil
}

func (s *PostService) detail(ctx context.Context, p *models.BlogPost) (*dto.PostDetailDTO, error) {
	cat, tags, err := postRelations(ctx, s.store, p)
	if err != nil {
		logStoreError(ctx, "load taxonomy", err)
		return nil, err
	}
	d := dto.NewPostDetail(p, cat, tags, readingTime(p))
	return &d, nil
}

// GetBySlug returns a published post. Drafts and archived posts are visible only with canReadDrafts.
func (s *PostService) GetBySlug(ctx context.Context, slug string, canReadDrafts bool) (*dto.PostDetailDTO, error) {
	p, err := s.store.Posts.FindBySlug(ctx, slug)
	if err != nil {
		logStoreError(ctx, "get post", err)
		return nil, err
	}
	if !p.IsPublished && !canReadDrafts {
		return nil, apperr.NotFound("post not found")
	}
	return s.detail(ctx, p)
}

// Related lists published posts sharing tags with the post, then its category, newest first.
func (s *PostService) Related(ctx context.Context, slug string, limit int) ([]dto.PostSummaryDTO, error) {
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	if limit > maxRelatedLimit {
		limit = maxRelatedLimit
	}
	p, err := publishedPost(ctx, s.store, slug)
	if err != nil {
		logStoreError(ctx, "related posts", err)
		return nil, err
	}

	var filters []repositories.PostListFilter
	if len(p.TagIDs) > 0 {
		filters = append(filters, repositories.PostListFilter{TagIDs: p.TagIDs})
	}
	if p.CategoryID != nil {
		filters = append(filters, repositories.PostListFilter{CategoryID: p.CategoryID})
	}
	filters = append(filters, repositories.PostListFilter{})

	picked := []models.BlogPost{}
	seen := map[primitive.ObjectID]bool{p.ID: true}
	for _, f := range filters {
		if len(picked) >= limit {
			break
		}
		f.Status = models.PostStatusPublished
		f.ExcludeID = &p.ID
		f.Limit = limit + len(picked)
		posts, _, err := s.store.Posts.List(ctx, f)
		if err != nil {
			logStoreError(ctx, "related posts", err)
			return nil, err
		}
		for _, rp := range posts {
			if len(picked) >= limit {
				break
			}
			if !seen[rp.ID] {
				seen[rp.ID] = true
				picked = append(picked, rp)
			}
		}
	}
	return s.summaries(ctx, picked)
}

// Engage atomically increments a public counter of a published post.
func (s *PostService) Engage(ctx context.Context, slug string, field repositories.AnalyticsField) (*dto.EngagementDTO, error) {
	switch field {
	case repositories.FieldViews, repositories.FieldLikes, repositories.FieldShares:
	default:
		return nil, apperr.InvalidInputf("unknown counter %q", field)
	}
	p, err := publishedPost(ctx, s.store, slug)
	if err != nil {
		logStoreError(ctx, "engage post", err)
		return nil, err
	}
	a, err := s.store.Posts.IncrementAnalytics(ctx, p.ID, field, 1)
	if err != nil {
		logStoreError(ctx, "engage post", err)
		return nil, err
	}
	return &dto.EngagementDTO{Slug: p.Slug, Analytics: *a}, nil
}

func (s *PostService) GetByID(ctx context.Context, hexID string) (*dto.PostDetailDTO, error) {
	id, err := parseID(hexID, "post")
	if err != nil {
		return nil, err
	}
	p, err := s.store.Posts.FindByID(ctx, id)
	if err != nil {
		logStoreError(ctx, "get post", err)
		return nil, err
	}
	return s.detail(ctx, p)
}

func (s *PostService) Create(ctx context.Context, in dto.PostInputDTO, author Author) (*dto.PostDetailDTO, error) {
	p := &models.BlogPost{
		AuthorID:      author.ID,
		AuthorName:    s.authorName(ctx, author),
		AllowComments: true,
		TagIDs:        []primitive.ObjectID{},
	}
	var created *models.BlogPost
	err := withTx(ctx, s.store, func(ctx context.Context) error {
		if err := s.apply(ctx, p, in, true); err != nil {
			return err
		}
		if err := s.store.Posts.Insert(ctx, p); err != nil {
			return err
		}
		created = p
		return s.adjustTaxonomy(ctx, p, 1)
	})
	if err != nil {
		logStoreError(ctx, "create post", err)
		return nil, err
	}
	if created.IsPublished {
		s.emit(ctx, events.PostPublished, created)
	}
	logger.InfoWithFields("post created", trace.Fields(ctx, logger.Fields{"post_id": created.ID.Hex(), "slug": created.Slug}))
	return s.detail(ctx, created)
}

// Update replaces the editable fields of a post. The slug changes only when one is given.
func (s *PostService) Update(ctx context.Context, hexID string, in dto.PostInputDTO) (*dto.PostDetailDTO, error) {
	id, err := parseID(hexID, "post")
	if err != nil {
		return nil, err
	}
	var before, after models.BlogPost
	err = withTx(ctx, s.store, func(ctx context.Context) error {
		p, err := s.store.Posts.FindByID(ctx, id)
		if err != nil {
			return err
		}
		before = *p
		if err := s.apply(ctx, p, in, false); err != nil {
			return err
		}
		if err := s.store.Posts.Replace(ctx, p); err != nil {
			return err
		}
		after = *p
		if err := s.adjustTaxonomy(ctx, &before, -1); err != nil {
			return err
		}
		return s.adjustTaxonomy(ctx, &after, 1)
	})
	if err != nil {
		logStoreError(ctx, "update post", err)
		return nil, err
	}
	s.emitTransition(ctx, &before, &after)
	return s.detail(ctx, &after)
}

func (s *PostService) Publish(ctx context.Context, hexID string) (*dto.PostDetailDTO, error) {
	return s.transition(ctx, hexID, models.PostStatusPublished)
}

func (s *PostService) Unpublish(ctx context.Context, hexID string) (*dto.PostDetailDTO, error) {
	return s.transition(ctx, hexID, models.PostStatusDraft)
}

func (s *PostService) Archive(ctx context.Context, hexID string) (*dto.PostDetailDTO, error) {
	return s.transition(ctx, hexID, models.PostStatusArchived)
}

func (s *PostService) transition(ctx context.Context, hexID string, status models.PostStatus) (*dto.PostDetailDTO, error) {
	id, err := parseID(hexID, "post")
	if err != nil {
		return nil, err
	}
	var before, after models.BlogPost
	err = withTx(ctx, s.store, func(ctx context.Context) error {
		p, err := s.store.Posts.FindByID(ctx, id)
		if err != nil {
			return err
		}
		before = *p
		if p.Status == status {
			after = *p
			return nil
		}
		if status == models.PostStatusPublished {
			if err := p.Renderable(); err != nil {
				return err
			}
		}
		p.SetStatus(status, s.now())
		if err := s.store.Posts.Replace(ctx, p); err != nil {
			return err
		}
		after = *p
		if err := s.adjustTaxonomy(ctx, &before, -1); err != nil {
			return err
		}
		return s.adjustTaxonomy(ctx, &after, 1)
	})
	if err != nil {
		logStoreError(ctx, "post "+string(status), err)
		return nil, err
	}
	s.emitTransition(ctx, &before, &after)
	return s.detail(ctx, &after)
}

// Delete removes a post with its comments and releases its taxonomy counters.
func (s *PostService) Delete(ctx context.Context, hexID string) error {
	id, err := parseID(hexID, "post")
	if err != nil {
		return err
	}
	var deleted models.BlogPost
	err = withTx(ctx, s.store, func(ctx context.Context) error {
		p, err := s.store.Posts.FindByID(ctx, id)
		if err != nil {
			return err
		}
		deleted = *p
		if err := s.store.Posts.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.store.Comments.DeleteByPost(ctx, id); err != nil {
			return err
		}
		return s.adjustTaxonomy(ctx, p, -1)
	})
	if err != nil {
		logStoreError(ctx, "delete post", err)
		return err
	}
	s.emit(ctx, events.PostDeleted, &deleted)
	logger.InfoWithFields("post deleted", trace.Fields(ctx, logger.Fields{"post_id": hexID, "slug": deleted.Slug}))
	return nil
}

// OptimizeAI recomputes the heuristic analysis of a post and stores it.
func (s *PostService) OptimizeAI(ctx context.Context, hexID string) (*models.AIOptimization, error) {
	id, err := parseID(hexID, "post")
	if err != nil {
		return nil, err
	}
	p, err := s.store.Posts.FindByID(ctx, id)
	if err != nil {
		logStoreError(ctx, "optimize post", err)
		return nil, err
	}
	cat, tags, err := postRelations(ctx, s.store, p)
	if err != nil {
		logStoreError(ctx, "optimize post", err)
		return nil, err
	}
	meta, err := aicontent.Metadata(p, aicontent.Related{Site: s.site, Category: cat, Tags: tags}, s.now())
	if err != nil {
		return nil, err
	}
	opt := aicontent.Optimization(meta)
	if err := s.store.Posts.SetAIOptimization(ctx, id, opt); err != nil {
		logStoreError(ctx, "optimize post", err)
		return nil, err
	}
	return &opt, nil
}

// apply copies validated input onto p.
func (s *PostService) apply(ctx context.Context, p *models.BlogPost, in dto.PostInputDTO, creating bool) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperr.InvalidInput("post title is required")
	}
	format := in.ContentFormat
	if format == "" {
		format = models.ContentFormatHTML
	}
	if format != models.ContentFormatHTML && format != models.ContentFormatMarkdown {
		return apperr.InvalidInputf("unknown content format %q", format)
	}
	status := in.Status
	if status == "" {
		status = p.Status
	}
	if status == "" {
		status = models.PostStatusDraft
	}
	if !status.Valid() {
		return apperr.InvalidInputf("unknown status %q", status)
	}

	excludeID := ""
	if !creating {
		excludeID = p.ID.Hex()
	}
	switch {
	case strings.TrimSpace(in.Slug) != "":
		want := slug.ToSlug(in.Slug)
		taken, err := s.store.Posts.SlugExists(ctx, want, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("slug already in use")
		}
		p.Slug = want
	case creating:
		generated, err := slug.UniqueSlugFor(ctx, title, s.store.Posts, "")
		if err != nil {
			return err
		}
		p.Slug = generated
	}

	p.CategoryID = nil
	if in.CategoryID != "" {
		cid, err := parseID(in.CategoryID, "category")
		if err != nil {
			return err
		}
		if _, err := s.store.Categories.FindByID(ctx, cid); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.InvalidInput("category does not exist")
			}
			return err
		}
		p.CategoryID = &cid
	}

	tagIDs := make([]primitive.ObjectID, 0, len(in.TagIDs))
	seen := map[primitive.ObjectID]bool{}
	for _, raw := range in.TagIDs {
		tid, err := parseID(raw, "tag")
		if err != nil {
			return err
		}
		if !seen[tid] {
			seen[tid] = true
			tagIDs = append(tagIDs, tid)
		}
	}
	if len(tagIDs) > 0 {
		found, err := s.store.Tags.FindByIDs(ctx, tagIDs)
		if err != nil {
			return err
		}
		if len(found) != len(tagIDs) {
			return apperr.InvalidInput("one or more tags do not exist")
		}
	}
	p.TagIDs = tagIDs

	p.Title = title
	p.Content = in.Content
	p.ContentFormat = format
	p.FeaturedImage = in.FeaturedImage
	p.Featured = in.Featured
	if in.AllowComments != nil {
		p.AllowComments = *in.AllowComments
	}
	p.SEO = in.SEO

	rendered := markdown.PostHTML(p)
	p.Images = textutil.ExtractImages(rendered)
	p.Excerpt = strings.TrimSpace(in.Excerpt)
	if p.Excerpt == "" {
		p.Excerpt = textutil.Truncate(textutil.StripHTML(rendered), excerptMax)
	}

	if status == models.PostStatusPublished {
		if err := p.Renderable(); err != nil {
			return err
		}
	}
	p.SetStatus(status, s.now())
	return nil
}

// adjustTaxonomy moves the counters of a published post by delta. Categories or tags deleted in
// the meantime are ignored.
func (s *PostService) adjustTaxonomy(ctx context.Context, p *models.BlogPost, delta int) error {
	if p == nil || !p.IsPublished {
		return nil
	}
	if p.CategoryID != nil {
		err := s.store.Categories.IncrementPostCount(ctx, *p.CategoryID, delta)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
	}
	if len(p.TagIDs) > 0 {
		if err := s.store.Tags.IncrementUsage(ctx, p.TagIDs, delta); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostService) authorName(ctx context.Context, a Author) string {
	if a.ID != "" {
		if u, err := s.store.Users.FindByID(ctx, a.ID); err == nil && u.Name != "" {
			return u.Name
		}
	}
	if a.Name != "" {
		return a.Name
	}
	return s.site.DefaultAuthor
}

func (s *PostService) emitTransition(ctx context.Context, before, after *models.BlogPost) {
	switch {
	case before.Status == after.Status:
	case after.Status == models.PostStatusPublished:
		s.emit(ctx, events.PostPublished, after)
	case after.Status == models.PostStatusArchived:
		s.emit(ctx, events.PostArchived, after)
	case before.Status == models.PostStatusPublished:
		s.emit(ctx, events.PostUnpublished, after)
	}
}

// emit publishes a post event after commit. Failures are logged only.
func (s *PostService) emit(ctx context.Context, t events.EventType, p *models.BlogPost) {
	evt := events.NewPostEvent(t, p, siteurl.Post(s.site.BaseURL, p.Slug), s.now())
	data, eventType, err := events.SerializeEvent(evt)
	if err == nil {
		err = s.pub.Publish(ctx, s.topic, eventbus.Event{ID: evt.ID, Type: string(eventType), Payload: data})
	}
	if err != nil {
		logger.WarnWithFields("post event publish failed", trace.Fields(ctx, logger.Fields{
			"event_type": string(t),
			"post_id":    p.ID.Hex(),
			"error":      err.Error(),
		}))
	}
}

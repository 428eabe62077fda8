package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sitecms/apperr"
	"sitecms/cmd/api/metrics"
	"sitecms/cmd/api/trace"
	"sitecms/cmd/internal/logger"
	"sitecms/config"
	"sitecms/feeds"
	"sitecms/models"
	"sitecms/repositories"
	"sitecms/seo"
	"sitecms/siteurl"
	"sitecms/sitemap"
)

const (
	ContentTypeXML  = "application/xml; charset=utf-8"
	ContentTypeRSS  = "application/rss+xml; charset=utf-8"
	ContentTypeAtom = "application/atom+xml; charset=utf-8"
	ContentTypeJSON = "application/feed+json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

type FeedFormat string

const (
	FeedRSS  FeedFormat = "rss"
	FeedAtom FeedFormat = "atom"
	FeedJSON FeedFormat = "json"
)

// Document is a rendered crawler-facing file. Stale marks a body served from the last good
// render because the store was unavailable.
type Document struct {
	Body        []byte
	ContentType string
	Stale       bool
}

// SEOService renders sitemaps, feeds, robots.txt, JSON-LD and meta tags from published content.
type SEOService struct {
	store   repositories.Store
	site    config.SiteConfig
	meta    seo.Builder
	feeds   config.FeedsConfig
	sitemap config.SitemapConfig
	rec     metrics.Recorder
	now     func() time.Time

	mu   sync.RWMutex
	last map[string][]byte
}

func NewSEOService(store repositories.Store, cfg config.AppConfig, rec metrics.Recorder) *SEOService {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &SEOService{
		store:   store,
		site:    cfg.Site,
		meta:    seo.NewBuilder(cfg.Site, cfg.SEO),
		feeds:   cfg.Feeds,
		sitemap: cfg.Sitemap,
		rec:     rec,
		now:     utcNow,
		last:    map[string][]byte{},
	}
}

// render runs fn and remembers its output under key. When fn fails with a store error and an
// earlier body exists, that body is returned marked stale.
func (s *SEOService) render(ctx context.Context, key, formatter, contentType string, fn func(ctx context.Context) ([]byte, error)) (*Document, error) {
	start := time.Now()
	body, err := fn(ctx)
	s.rec.ObserveFormatter(formatter, time.Since(start), err == nil)
	if err == nil {
		s.mu.Lock()
		s.last[key] = body
		s.mu.Unlock()
		return &Document{Body: body, ContentType: contentType}, nil
	}
	if errors.Is(err, apperr.ErrUpstreamStore) {
		s.mu.RLock()
		stale, ok := s.last[key]
		s.mu.RUnlock()
		if ok {
			logger.WarnWithFields("serving stale document", trace.Fields(ctx, logger.Fields{"key": key, "error": err.Error()}))
			return &Document{Body: stale, ContentType: contentType, Stale: true}, nil
		}
	}
	logStoreError(ctx, "render "+formatter, err)
	return nil, err
}

func (s *SEOService) sources(ctx context.Context) (sitemap.Sources, error) {
	var src sitemap.Sources
	var err error
	if src.Posts, err = allPublished(ctx, s.store); err != nil {
		return src, err
	}
	if src.Categories, err = s.store.Categories.List(ctx); err != nil {
		return src, err
	}
	if src.Tags, err = s.store.Tags.List(ctx); err != nil {
		return src, err
	}
	if src.Pages, err = s.store.Pages.List(ctx); err != nil {
		return src, err
	}
	src.Events, _, err = s.store.Events.List(ctx, repositories.EventListFilter{Status: models.EventStatusPublished, NoLimit: true})
	return src, err
}

func (s *SEOService) sitemapPages(ctx context.Context) ([][]sitemap.Entry, error) {
	src, err := s.sources(ctx)
	if err != nil {
		return nil, err
	}
	return sitemap.Paginate(sitemap.Entries(s.site, src), sitemap.LimitsFrom(s.sitemap))
}

// Sitemap renders one urlset, or a sitemap index when the URLs do not fit in a single file.
func (s *SEOService) Sitemap(ctx context.Context) (*Document, error) {
	return s.render(ctx, "sitemap", "sitemap", ContentTypeXML, func(ctx context.Context) ([]byte, error) {
		pages, err := s.sitemapPages(ctx)
		if err != nil {
			return nil, err
		}
		if len(pages) == 1 {
			return sitemap.URLSet(pages[0])
		}
		return sitemap.Index(s.site, pages)
	})
}

// SitemapPage renders page n (1-based) of a paginated sitemap.
func (s *SEOService) SitemapPage(ctx context.Context, n int) (*Document, error) {
	if n < 1 {
		return nil, apperr.NotFound("sitemap page not found")
	}
	return s.render(ctx, fmt.Sprintf("sitemap:%d", n), "sitemap", ContentTypeXML, func(ctx context.Context) ([]byte, error) {
		pages, err := s.sitemapPages(ctx)
		if err != nil {
			return nil, err
		}
		if n > len(pages) {
			return nil, apperr.NotFound("sitemap page not found")
		}
		return sitemap.URLSet(pages[n-1])
	})
}

func (s *SEOService) ImageSitemap(ctx context.Context) (*Document, error) {
	return s.render(ctx, "sitemap-images", "sitemap_images", ContentTypeXML, func(ctx context.Context) ([]byte, error) {
		posts, err := allPublished(ctx, s.store)
		if err != nil {
			return nil, err
		}
		return sitemap.Images(s.site, posts)
	})
}

func (s *SEOService) NewsSitemap(ctx context.Context) (*Document, error) {
	return s.render(ctx, "sitemap-news", "sitemap_news", ContentTypeXML, func(ctx context.Context) ([]byte, error) {
		now := s.now()
		maxAge := s.sitemap.NewsAge
		if maxAge <= 0 {
			maxAge = 48 * time.Hour
		}
		since := now.Add(-maxAge)
		posts, _, err := s.store.Posts.List(ctx, repositories.PostListFilter{
			Status:         models.PostStatusPublished,
			PublishedSince: &since,
			Sort:           repositories.SortNewest,
			NoLimit:        true,
		})
		if err != nil {
			return nil, err
		}
		return sitemap.News(s.site, posts, sitemap.NewsOptions{Now: now, MaxAge: maxAge, Limit: s.sitemap.NewsLimit})
	})
}

func (s *SEOService) Robots() *Document {
	return &Document{Body: []byte(sitemap.Robots(s.site)), ContentType: ContentTypeText}
}

func (s *SEOService) feedLimit(requested int) int {
	if requested <= 0 {
		requested = s.feeds.Limit
	}
	return feeds.ClampLimit(requested)
}

// Feed renders the site-wide feed in the given format.
func (s *SEOService) Feed(ctx context.Context, format FeedFormat, limit int) (*Document, error) {
	limit = s.feedLimit(limit)
	ch := feeds.Channel{Limit: limit, DescriptionMax: s.feeds.DescriptionMax}
	switch format {
	case FeedRSS:
		ch.SelfURL = siteurl.Feed(s.site.BaseURL)
	case FeedAtom:
		ch.SelfURL = siteurl.AtomFeed(s.site.BaseURL)
	case FeedJSON:
		ch.SelfURL = siteurl.JSONFeed(s.site.BaseURL)
	default:
		return nil, apperr.InvalidInputf("unknown feed format %q", format)
	}
	key := fmt.Sprintf("feed:%s:%d", format, limit)
	return s.renderFeed(ctx, key, format, ch, repositories.PostListFilter{})
}

// CategoryFeed renders an RSS feed of one category.
func (s *SEOService) CategoryFeed(ctx context.Context, categorySlug string, limit int) (*Document, error) {
	c, err := s.store.Categories.FindBySlug(ctx, categorySlug)
	if err != nil && !errors.Is(err, apperr.ErrUpstreamStore) {
		return nil, err
	}
	limit = s.feedLimit(limit)
	key := fmt.Sprintf("feed:category:%s:%d", categorySlug, limit)
	if err != nil {
		return s.render(ctx, key, "feed_rss", ContentTypeRSS, func(context.Context) ([]byte, error) { return nil, err })
	}
	ch := feeds.Channel{
		Title:          s.site.Name + " - " + c.Name,
		Description:    c.Description,
		Link:           siteurl.Category(s.site.BaseURL, c.Slug),
		SelfURL:        siteurl.CategoryFeed(s.site.BaseURL, c.Slug),
		Limit:          limit,
		DescriptionMax: s.feeds.DescriptionMax,
	}
	return s.renderFeed(ctx, key, FeedRSS, ch, repositories.PostListFilter{CategoryID: &c.ID})
}

func (s *SEOService) renderFeed(ctx context.Context, key string, format FeedFormat, ch feeds.Channel, f repositories.PostListFilter) (*Document, error) {
	contentType := map[FeedFormat]string{FeedRSS: ContentTypeRSS, FeedAtom: ContentTypeAtom, FeedJSON: ContentTypeJSON}[format]
	return s.render(ctx, key, "feed_"+string(format), contentType, func(ctx context.Context) ([]byte, error) {
		f.Status = models.PostStatusPublished
		f.Sort = repositories.SortNewest
		f.Limit = ch.Limit
		posts, _, err := s.store.Posts.List(ctx, f)
		if err != nil {
			return nil, err
		}
		tx, err := loadTaxonomy(ctx, s.store, posts)
		if err != nil {
			return nil, err
		}
		entries := make([]feeds.Entry, 0, len(posts))
		for i := range posts {
			cat, tags := tx.of(&posts[i])
			entries = append(entries, feeds.Entry{Post: posts[i], Category: cat, Tags: tags})
		}
		ch.Updated = s.now()
		switch format {
		case FeedAtom:
			return feeds.Atom(s.site, ch, entries)
		case FeedJSON:
			return feeds.JSON(s.site, ch, entries)
		default:
			return feeds.RSS(s.site, ch, entries)
		}
	})
}

// resolved is the public document a slug points at: a post, else a page, else an event.
type resolved struct {
	post     *models.BlogPost
	category *models.BlogCategory
	tags     []models.BlogTag
	page     *models.Page
	event    *models.Event
}

func (s *SEOService) resolve(ctx context.Context, docSlug string) (*resolved, error) {
	p, err := publishedPost(ctx, s.store, docSlug)
	if err == nil {
		cat, tags, err := postRelations(ctx, s.store, p)
		if err != nil {
			return nil, err
		}
		return &resolved{post: p, category: cat, tags: tags}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	pg, err := s.store.Pages.FindBySlug(ctx, docSlug)
	if err == nil && pg.IsPublished {
		return &resolved{page: pg}, nil
	}
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	e, err := s.store.Events.FindBySlug(ctx, docSlug)
	if err == nil && e.Status != models.EventStatusDraft {
		return &resolved{event: e}, nil
	}
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return nil, apperr.NotFoundf("no document with slug %q", docSlug)
}

// Schema returns the JSON-LD graph of the document at docSlug.
func (s *SEOService) Schema(ctx context.Context, docSlug string) (map[string]any, error) {
	r, err := s.resolve(ctx, docSlug)
	if err != nil {
		logStoreError(ctx, "schema", err)
		return nil, err
	}
	start := time.Now()
	var out map[string]any
	switch {
	case r.post != nil:
		out, err = seo.PostGraph(s.site, r.post, r.category, r.tags)
	case r.page != nil:
		out, err = seo.WebPage(s.site, r.page)
	default:
		out, err = seo.Event(s.site, r.event)
	}
	s.rec.ObserveFormatter("schema", time.Since(start), err == nil)
	return out, err
}

// Meta returns the meta tags of the document at docSlug.
func (s *SEOService) Meta(ctx context.Context, docSlug string) (*seo.MetaTags, error) {
	r, err := s.resolve(ctx, docSlug)
	if err != nil {
		logStoreError(ctx, "meta", err)
		return nil, err
	}
	start := time.Now()
	var out *seo.MetaTags
	switch {
	case r.post != nil:
		out, err = s.meta.Post(r.post, r.category, r.tags)
	case r.page != nil:
		out, err = s.meta.Page(r.page)
	default:
		out, err = s.meta.Event(r.event)
	}
	s.rec.ObserveFormatter("meta", time.Since(start), err == nil)
	return out, err
}

package middleware

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sitecms/cmd/api/metrics"
	"sitecms/config"
)

// RouteClass selects the Cache-Control policy of a route.
type RouteClass string

const (
	ClassPostList   RouteClass = "post-list"
	ClassPostDetail RouteClass = "post-detail"
	ClassTaxonomy   RouteClass = "taxonomy"
	ClassPage       RouteClass = "page"
	ClassFeed       RouteClass = "feed"
	ClassSitemap    RouteClass = "sitemap"
	ClassSEO        RouteClass = "seo"
	ClassAI         RouteClass = "ai"
	ClassAssets     RouteClass = "assets"
	ClassNoCache    RouteClass = "no-cache"
	ClassPrivate    RouteClass = "private"
)

// CachePolicy is one row of the policy table.
type CachePolicy struct {
	MaxAge               int
	StaleWhileRevalidate int
	Private              bool
	Immutable            bool
	NoCache              bool
	MustRevalidate       bool
}

// CacheControl renders the Cache-Control header value.
func (p CachePolicy) CacheControl() string {
	var parts []string
	switch {
	case p.NoCache:
		parts = append(parts, "no-cache")
	case p.Private:
		parts = append(parts, "private")
	default:
		parts = append(parts, "public")
	}
	parts = append(parts, fmt.Sprintf("max-age=%d", p.MaxAge))
	if p.StaleWhileRevalidate > 0 && !p.NoCache && !p.Private {
		parts = append(parts, fmt.Sprintf("stale-while-revalidate=%d", p.StaleWhileRevalidate))
	}
	if p.Immutable {
		parts = append(parts, "immutable")
	}
	if p.MustRevalidate {
		parts = append(parts, "must-revalidate")
	}
	return strings.Join(parts, ", ")
}

// CachePolicies maps every route class to its policy.
type CachePolicies map[RouteClass]CachePolicy

var privatePolicy = CachePolicy{Private: true, MaxAge: 0, MustRevalidate: true}

// DefaultCachePolicies is the built-in policy table.
func DefaultCachePolicies() CachePolicies {
	return CachePolicies{
		ClassPostList:   {MaxAge: 300, StaleWhileRevalidate: 60},
		ClassPostDetail: {MaxAge: 600, StaleWhileRevalidate: 120},
		ClassTaxonomy:   {MaxAge: 600, StaleWhileRevalidate: 120},
		ClassPage:       {MaxAge: 600, StaleWhileRevalidate: 120},
		ClassFeed:       {MaxAge: 3600, StaleWhileRevalidate: 600},
		ClassSitemap:    {MaxAge: 3600, StaleWhileRevalidate: 600},
		ClassSEO:        {MaxAge: 3600, StaleWhileRevalidate: 600},
		ClassAI:         {MaxAge: 1800, StaleWhileRevalidate: 300},
		ClassAssets:     {MaxAge: 31536000, Immutable: true},
		ClassNoCache:    {NoCache: true, MaxAge: 0, MustRevalidate: true},
		ClassPrivate:    privatePolicy,
	}
}

// CachePoliciesFrom applies cache.policies overrides from the config on top of the defaults.
func CachePoliciesFrom(cfg config.CacheConfig) (CachePolicies, error) {
	policies := DefaultCachePolicies()
	names := make([]string, 0, len(cfg.Policies))
	for name := range cfg.Policies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		class := RouteClass(name)
		p, ok := policies[class]
		if !ok {
			return nil, fmt.Errorf("cache.policies: unknown route class %q", name)
		}
		o := cfg.Policies[name]
		if o.MaxAge != nil {
			if *o.MaxAge < 0 {
				return nil, fmt.Errorf("cache.policies.%s.max_age must be >= 0", name)
			}
			p.MaxAge = *o.MaxAge
		}
		if o.StaleWhileRevalidate != nil {
			p.StaleWhileRevalidate = *o.StaleWhileRevalidate
		}
		if o.Private != nil {
			p.Private = *o.Private
		}
		if o.Immutable != nil {
			p.Immutable = *o.Immutable
		}
		if o.NoCache != nil {
			p.NoCache = *o.NoCache
		}
		if o.MustRevalidate != nil {
			p.MustRevalidate = *o.MustRevalidate
		}
		policies[class] = p
	}
	return policies, nil
}

const ctxKeyLastModified = "httpcache.last_modified"

// SetLastModified exposes the document's updatedAt to the cache middleware of a detail route.
func SetLastModified(c *gin.Context, t time.Time) {
	if !t.IsZero() {
		c.Set(ctxKeyLastModified, t)
	}
}

// HeaderWarning marks a response served from the stale fallback.
const HeaderWarning = "Warning"

// HTTPCache computes ETags and answers conditional requests.
type HTTPCache struct {
	policies CachePolicies
	rec      metrics.Recorder
}

func NewHTTPCache(policies CachePolicies, rec metrics.Recorder) *HTTPCache {
	if policies == nil {
		policies = DefaultCachePolicies()
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &HTTPCache{policies: policies, rec: rec}
}

// Policy returns the policy of class; unknown classes fall back to no-cache.
func (h *HTTPCache) Policy(class RouteClass) CachePolicy {
	if p, ok := h.policies[class]; ok {
		return p
	}
	return h.policies[ClassNoCache]
}

// bufferedWriter holds the response until the ETag is known.
type bufferedWriter struct {
	gin.ResponseWriter
	status int
	body   bytes.Buffer
	wrote  bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 && !w.wrote {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() { w.wrote = true }

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.wrote = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int   { return w.status }
func (w *bufferedWriter) Size() int     { return w.body.Len() }
func (w *bufferedWriter) Written() bool { return w.wrote }

// ETag returns the strong validator of body.
func ETag(body []byte) string {
	sum := md5.Sum(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func etagMatches(ifNoneMatch, etag string) bool {
	for _, part := range strings.Split(ifNoneMatch, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// notModifiedSince reports whether the resource last changed at or before the If-Modified-Since date.
func notModifiedSince(ifModifiedSince string, lastModified time.Time) bool {
	since, err := http.ParseTime(ifModifiedSince)
	if err != nil {
		return false
	}
	return !lastModified.Truncate(time.Second).After(since)
}

// Handle wraps the routes of class.
func (h *HTTPCache) Handle(class RouteClass) gin.HandlerFunc {
	policy := h.Policy(class)
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			c.Next()
			return
		}

		orig := c.Writer
		bw := &bufferedWriter{ResponseWriter: orig, status: http.StatusOK}
		c.Writer = bw
		// A panicking handler must leave the real writer in place for gin.Recovery.
		defer func() { c.Writer = orig }()
		c.Next()
		c.Writer = orig

		body := bw.body.Bytes()
		header := orig.Header()
		if bw.status != http.StatusOK {
			h.rec.IncCacheOutcome(string(class), metrics.CacheBypass)
			orig.WriteHeader(bw.status)
			orig.Write(body)
			return
		}

		etag := ETag(body)
		cacheControl := policy.CacheControl()
		outcome := metrics.CacheSent
		switch {
		case header.Get(HeaderWarning) != "":
			cacheControl = h.Policy(ClassNoCache).CacheControl()
			outcome = metrics.CacheStale
		case c.GetHeader("Authorization") != "" && !policy.Private && !policy.NoCache:
			cacheControl = privatePolicy.CacheControl()
		}
		header.Set("ETag", etag)
		header.Set("Cache-Control", cacheControl)
		header.Set("Vary", "Accept-Encoding")

		var lastModified time.Time
		if v, ok := c.Get(ctxKeyLastModified); ok {
			lastModified, _ = v.(time.Time)
		}
		if !lastModified.IsZero() {
			header.Set("Last-Modified", lastModified.UTC().Format(http.TimeFormat))
		}

		notModified := false
		if inm := c.GetHeader("If-None-Match"); inm != "" {
			notModified = etagMatches(inm, etag)
		} else if ims := c.GetHeader("If-Modified-Since"); ims != "" && !lastModified.IsZero() {
			notModified = notModifiedSince(ims, lastModified)
		}

		if notModified {
			header.Del("Content-Type")
			header.Del("Content-Length")
			h.rec.IncCacheOutcome(string(class), metrics.CacheNotModified)
			orig.WriteHeader(http.StatusNotModified)
			orig.WriteHeaderNow()
			return
		}

		h.rec.IncCacheOutcome(string(class), outcome)
		orig.WriteHeader(http.StatusOK)
		orig.Write(body)
	}
}

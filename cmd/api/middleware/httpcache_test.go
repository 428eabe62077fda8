package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/config"
)

var updatedAt = time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

func newCacheEngine(cache *HTTPCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/posts/:slug", cache.Handle(ClassPostDetail), func(c *gin.Context) {
		SetLastModified(c, updatedAt)
		c.JSON(http.StatusOK, gin.H{"success": true, "slug": c.Param("slug")})
	})
	r.GET("/missing", cache.Handle(ClassPostDetail), func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
	})
	r.GET("/stale", cache.Handle(ClassSitemap), func(c *gin.Context) {
		c.Header(HeaderWarning, `110 - "Response is Stale"`)
		c.Data(http.StatusOK, "application/xml", []byte("<urlset/>"))
	})
	r.POST("/posts/:slug/view", cache.Handle(ClassNoCache), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCachePolicyHeaders(t *testing.T) {
	p := DefaultCachePolicies()
	tests := []struct {
		class RouteClass
		want  string
	}{
		{ClassPostList, "public, max-age=300, stale-while-revalidate=60"},
		{ClassPostDetail, "public, max-age=600, stale-while-revalidate=120"},
		{ClassFeed, "public, max-age=3600, stale-while-revalidate=600"},
		{ClassAI, "public, max-age=1800, stale-while-revalidate=300"},
		{ClassAssets, "public, max-age=31536000, immutable"},
		{ClassNoCache, "no-cache, max-age=0, must-revalidate"},
		{ClassPrivate, "private, max-age=0, must-revalidate"},
	}
	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			assert.Equal(t, tt.want, p[tt.class].CacheControl())
		})
	}
}

func TestDetailRouteServesETag(t *testing.T) {
	r := newCacheEngine(NewHTTPCache(nil, nil))

	rec := do(r, http.MethodGet, "/posts/hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=600, stale-while-revalidate=120", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))
	assert.Equal(t, "Sat, 01 Jun 2024 12:30:00 GMT", rec.Header().Get("Last-Modified"))
	assert.Equal(t, ETag(rec.Body.Bytes()), rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), `"slug":"hello"`)
}

func TestMatchingIfNoneMatchIsNotModified(t *testing.T) {
	r := newCacheEngine(NewHTTPCache(nil, nil))
	first := do(r, http.MethodGet, "/posts/hello", nil)
	etag := first.Header().Get("ETag")

	rec := do(r, http.MethodGet, "/posts/hello", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))
	assert.Equal(t, etag, rec.Header().Get("ETag"))
	assert.Equal(t, "public, max-age=600, stale-while-revalidate=120", rec.Header().Get("Cache-Control"))

	rec = do(r, http.MethodGet, "/posts/hello", map[string]string{"If-None-Match": `"other", W/` + etag})
	assert.Equal(t, http.StatusNotModified, rec.Code, "weak and listed validators match")

	rec = do(r, http.MethodGet, "/posts/hello", map[string]string{"If-None-Match": `"0000"`})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=600, stale-while-revalidate=120", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Body.String())
}

func TestIfModifiedSince(t *testing.T) {
	r := newCacheEngine(NewHTTPCache(nil, nil))

	rec := do(r, http.MethodGet, "/posts/hello", map[string]string{"If-Modified-Since": updatedAt.Format(http.TimeFormat)})
	assert.Equal(t, http.StatusNotModified, rec.Code)

	later := updatedAt.Add(time.Hour).Format(http.TimeFormat)
	rec = do(r, http.MethodGet, "/posts/hello", map[string]string{"If-Modified-Since": later})
	assert.Equal(t, http.StatusNotModified, rec.Code)

	earlier := updatedAt.Add(-time.Hour).Format(http.TimeFormat)
	rec = do(r, http.MethodGet, "/posts/hello", map[string]string{"If-Modified-Since": earlier})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/posts/hello", map[string]string{
		"If-Modified-Since": later,
		"If-None-Match":     `"nope"`,
	})
	assert.Equal(t, http.StatusOK, rec.Code, "If-None-Match takes precedence")
}

func TestETagStability(t *testing.T) {
	a := ETag([]byte(`{"a":1}`))
	assert.Equal(t, a, ETag([]byte(`{"a":1}`)))
	assert.NotEqual(t, a, ETag([]byte(`{"a":2}`)))
}

func TestNonOKAndNonGETPassThrough(t *testing.T) {
	r := newCacheEngine(NewHTTPCache(nil, nil))

	rec := do(r, http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), `"success":false`)

	rec = do(r, http.MethodPost, "/posts/hello/view", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("ETag"))
}

func TestAuthenticatedResponsesArePrivate(t *testing.T) {
	r := newCacheEngine(NewHTTPCache(nil, nil))
	rec := do(r, http.MethodGet, "/posts/hello", map[string]string{"Authorization": "Bearer x"})
	assert.Equal(t, "private, max-age=0, must-revalidate", rec.Header().Get("Cache-Control"))
}

func TestStaleResponsesAreNotCached(t *testing.T) {
	r := newCacheEngine(NewHTTPCache(nil, nil))
	rec := do(r, http.MethodGet, "/stale", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache, max-age=0, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, `110 - "Response is Stale"`, rec.Header().Get("Warning"))
}

func TestCachePoliciesFrom(t *testing.T) {
	maxAge := 30
	policies, err := CachePoliciesFrom(config.CacheConfig{Policies: map[string]config.CachePolicyConfig{
		"post-list": {MaxAge: &maxAge},
	}})
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=30, stale-while-revalidate=60", policies[ClassPostList].CacheControl())

	_, err = CachePoliciesFrom(config.CacheConfig{Policies: map[string]config.CachePolicyConfig{
		"bogus": {MaxAge: &maxAge},
	}})
	assert.Error(t, err)
}

func TestPanicInCachedHandlerIsServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/boom", NewHTTPCache(nil, nil).Handle(ClassPostDetail), func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		var counts map[string]int
		counts["x"] = 1
	})

	rec := do(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("ETag"))
}

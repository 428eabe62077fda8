package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sitecms/apperr"
	"sitecms/cmd/api/services"
	"sitecms/seo"
)

// SitemapHandler godoc
// @Summary      sitemap.xml
// @Description  A urlset, or a sitemapindex pointing at /sitemaps/{page} once the URL or byte limit is exceeded.
// @Tags         seo
// @Produce      xml
// @Success      200  {string}  string
// @Router       /sitemap.xml [get]
func SitemapHandler(svc *services.SEOService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := svc.Sitemap(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		writeDocument(c, doc)
	}
}

// SitemapPageHandler godoc
// @Summary      One page of a paginated sitemap
// @Tags         seo
// @Param        page  path  int  true  "Page number (1-based)"
// @Produce      xml
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /sitemaps/{page} [get]
func SitemapPageHandler(svc *services.SEOService) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := strconv.Atoi(strings.TrimSuffix(c.Param("page"), ".xml"))
		if err != nil {
			respondError(c, apperr.NotFound("sitemap page not found"))
			return
		}
		doc, err := svc.SitemapPage(c.Request.Context(), n)
		if err != nil {
			respondError(c, err)
			return
		}
		writeDocument(c, doc)
	}
}

// ImageSitemapHandler godoc
// @Summary      Image sitemap
// @Tags         seo
// @Produce      xml
// @Success      200  {string}  string
// @Router       /sitemap-images.xml [get]
func ImageSitemapHandler(svc *services.SEOService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := svc.ImageSitemap(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		writeDocument(c, doc)
	}
}

// NewsSitemapHandler godoc
// @Summary      Google News sitemap
// @Description  최근 게시글만 포함한다 (기본 48시간).
// @Tags         seo
// @Produce      xml
// @Success      200  {string}  string
// @Router       /sitemap-news.xml [get]
func NewsSitemapHandler(svc *services.SEOService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := svc.NewsSitemap(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		writeDocument(c, doc)
	}
}

// RobotsHandler godoc
// @Summary      robots.txt
// @Tags         seo
// @Produce      plain
// @Success      200  {string}  string
// @Router       /robots.txt [get]
func RobotsHandler(svc *services.SEOService) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeDocument(c, svc.Robots())
	}
}

// FeedHandler godoc
// @Summary      Site feed
// @Description  RSS 2.0 at /feed.xml, Atom at /feed.atom, JSON Feed 1.1 at /feed.json.
// @Tags         feeds
// @Param        limit  query  int  false  "Items (<=100)"
// @Produce      xml
// @Success      200  {string}  string
// @Router       /feed.xml [get]
func FeedHandler(svc *services.SEOService, format services.FeedFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := svc.Feed(c.Request.Context(), format, queryInt(c, "limit", 0))
		if err != nil {
			respondError(c, err)
			return
		}
		writeDocument(c, doc)
	}
}

// CategoryFeedHandler godoc
// @Summary      Category RSS feed
// @Tags         feeds
// @Param        slug   path   string  true   "Category slug"
// @Param        limit  query  int     false  "Items (<=100)"
// @Produce      xml
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /feed/category/{slug} [get]
func CategoryFeedHandler(svc *services.SEOService) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := svc.CategoryFeed(c.Request.Context(), c.Param("slug"), queryInt(c, "limit", 0))
		if err != nil {
			respondError(c, err)
			return
		}
		writeDocument(c, doc)
	}
}

// SchemaHandler godoc
// @Summary      JSON-LD for a document
// @Description  Resolves a post, then a page, then an event by slug.
// @Tags         seo
// @Param        slug  path  string  true  "Document slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /schema/{slug} [get]
func SchemaHandler(svc *services.SEOService) gin.HandlerFunc {
	return func(c *gin.Context) {
		schema, err := svc.Schema(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, schema)
	}
}

// MetaResponse carries the meta tags and their rendered <head> fragment.
type MetaResponse struct {
	Tags *seo.MetaTags `json:"tags"`
	HTML string        `json:"html"`
}

// MetaHandler godoc
// @Summary      Meta tags for a document
// @Tags         seo
// @Param        slug  path  string  true  "Document slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=handlers.MetaResponse}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /meta/{slug} [get]
func MetaHandler(svc *services.SEOService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tags, err := svc.Meta(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, MetaResponse{Tags: tags, HTML: tags.HTML()})
	}
}

// Package siteurl builds the public URLs of stored documents.
package siteurl

import (
	"strconv"
	"strings"
)

// HomePageSlug is the page served at the site root.
const HomePageSlug = "home"

func join(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}

func Home(base string) string { return strings.TrimRight(base, "/") + "/" }

func BlogIndex(base string) string { return join(base, "blog") }

func Events(base string) string { return join(base, "events") }

func Post(base, slug string) string { return join(base, "blog", slug) }

func Category(base, slug string) string { return join(base, "blog", "category", slug) }

func Tag(base, slug string) string { return join(base, "blog", "tag", slug) }

func Event(base, slug string) string { return join(base, "events", slug) }

// Page returns the root URL for the home page and /{slug} for the rest.
func Page(base, slug string) string {
	if slug == HomePageSlug {
		return Home(base)
	}
	return join(base, slug)
}

// PostMarkdown is the machine-readable Markdown rendition of a post.
func PostMarkdown(base, slug string) string { return join(base, "ai", "posts", slug, "markdown") }

func Feed(base string) string { return join(base, "feed.xml") }

func AtomFeed(base string) string { return join(base, "feed.atom") }

func JSONFeed(base string) string { return join(base, "feed.json") }

func CategoryFeed(base, slug string) string { return join(base, "feed", "category", slug) }

func Sitemap(base string) string { return join(base, "sitemap.xml") }

func SitemapPage(base string, page int) string { return join(base, "sitemaps", strconv.Itoa(page)) }

func ImageSitemap(base string) string { return join(base, "sitemap-images.xml") }

func NewsSitemap(base string) string { return join(base, "sitemap-news.xml") }

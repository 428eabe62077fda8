package sitemap

import (
	"encoding/xml"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/config"
	"sitecms/models"
	"sitecms/slug"
)

var site = config.SiteConfig{Name: "Acme", BaseURL: "https://acme.example", Language: "es"}

func published(title string, updated time.Time) models.BlogPost {
	pub := updated.Add(-time.Hour)
	return models.BlogPost{
		Title:       title,
		Slug:        slug.ToSlug(title),
		Content:     "<p>body</p>",
		Status:      models.PostStatusPublished,
		IsPublished: true,
		PublishedAt: &pub,
		UpdatedAt:   updated,
	}
}

func TestPublishedPostAppearsWithLastMod(t *testing.T) {
	updated := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	p := published("Guía de Migración 2024!", updated)
	require.Equal(t, "guia-de-migracion-2024", p.Slug)

	out, err := URLSet(Entries(site, Sources{Posts: []models.BlogPost{p}}))
	require.NoError(t, err)
	assert.Contains(t, string(out),
		"<url><loc>https://acme.example/blog/guia-de-migracion-2024</loc><lastmod>2024-06-01T12:30:00Z</lastmod>")
	assert.True(t, strings.HasPrefix(string(out), xml.Header))
}

func TestEntriesSkipUnpublished(t *testing.T) {
	now := time.Now()
	draft := published("Draft", now)
	draft.IsPublished = false
	hidden := published("Hidden", now)
	hidden.SEO.NoIndex = true

	entries := Entries(site, Sources{
		Posts:      []models.BlogPost{draft, hidden, published("Live", now)},
		Categories: []models.BlogCategory{{Slug: "news"}},
		Tags:       []models.BlogTag{{Slug: "go"}},
		Pages:      []models.Page{{Slug: "about", IsPublished: true}, {Slug: "secret"}, {Slug: "home", IsPublished: true}},
		Events:     []models.Event{{Slug: "meetup", Status: models.EventStatusPublished}, {Slug: "off", Status: models.EventStatusCancelled}},
	})
	var locs []string
	for _, e := range entries {
		locs = append(locs, e.Loc)
	}
	assert.Equal(t, []string{
		"https://acme.example/",
		"https://acme.example/blog",
		"https://acme.example/events",
		"https://acme.example/blog/live",
		"https://acme.example/blog/category/news",
		"https://acme.example/blog/tag/go",
		"https://acme.example/about",
		"https://acme.example/events/meetup",
	}, locs)
}

func TestPaginateByCount(t *testing.T) {
	entries := make([]Entry, 25)
	for i := range entries {
		entries[i] = Entry{Loc: fmt.Sprintf("https://acme.example/blog/p-%d", i)}
	}
	pages, err := Paginate(entries, Limits{MaxURLs: 10})
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 10)
	assert.Len(t, pages[2], 5)
}

func TestPaginateByBytes(t *testing.T) {
	entries := make([]Entry, 20)
	for i := range entries {
		entries[i] = Entry{Loc: fmt.Sprintf("https://acme.example/blog/%s-%02d", strings.Repeat("x", 50), i)}
	}
	lim := Limits{MaxBytes: 600}
	pages, err := Paginate(entries, lim)
	require.NoError(t, err)
	require.Greater(t, len(pages), 1)

	total := 0
	for _, page := range pages {
		total += len(page)
		out, err := URLSet(page)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(out), lim.MaxBytes)
	}
	assert.Equal(t, len(entries), total)

	_, err = Paginate([]Entry{{Loc: strings.Repeat("y", 1000)}}, lim)
	assert.Error(t, err)
}

func TestPaginateFillsPagesExactly(t *testing.T) {
	entries := make([]Entry, 6)
	for i := range entries {
		entries[i] = Entry{Loc: fmt.Sprintf("https://acme.example/blog/post-%02d", i)}
	}
	one, err := URLSet(entries[:1])
	require.NoError(t, err)
	empty, err := URLSet(nil)
	require.NoError(t, err)
	perEntry := len(one) - len(empty)

	lim := Limits{MaxBytes: len(empty) + 3*perEntry}
	pages, err := Paginate(entries, lim)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	for _, page := range pages {
		out, err := URLSet(page)
		require.NoError(t, err)
		assert.Len(t, out, lim.MaxBytes)
	}
}

func TestPaginateEmpty(t *testing.T) {
	pages, err := Paginate(nil, Limits{})
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestIndex(t *testing.T) {
	t1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out, err := Index(site, [][]Entry{{{Loc: "a", LastMod: t1}}, {{Loc: "b"}}})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<sitemap><loc>https://acme.example/sitemaps/1</loc><lastmod>2024-01-02T00:00:00Z</lastmod></sitemap>")
	assert.Contains(t, s, "<sitemap><loc>https://acme.example/sitemaps/2</loc></sitemap>")
}

func TestImages(t *testing.T) {
	p := published("Pics", time.Now())
	p.FeaturedImage = &models.Image{URL: "/hero.png", Alt: "Hero"}
	p.Content = `<p><img src="/hero.png"><img src="https://cdn.example/b.jpg" alt="B"></p>`
	none := published("Plain", time.Now())

	out, err := Images(site, []models.BlogPost{p, none})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `xmlns:image="http://www.google.com/schemas/sitemap-image/1.1"`)
	assert.Equal(t, 1, strings.Count(s, "<image:loc>https://acme.example/hero.png</image:loc>"))
	assert.Contains(t, s, "<image:loc>https://cdn.example/b.jpg</image:loc>")
	assert.NotContains(t, s, "/blog/plain")
}

func TestNewsWindow(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	fresh := published("Fresh & New", now.Add(-2*time.Hour))
	old := published("Old", now.Add(-72*time.Hour))

	out, err := News(site, []models.BlogPost{fresh, old}, NewsOptions{Now: now, MaxAge: 48 * time.Hour})
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "<news:title>Fresh &amp; New</news:title>")
	assert.Contains(t, s, "<news:language>es</news:language>")
	assert.NotContains(t, s, "/blog/old")
}

func TestRobots(t *testing.T) {
	r := Robots(site)
	assert.Contains(t, r, "User-agent: *\n")
	assert.Contains(t, r, "Sitemap: https://acme.example/sitemap.xml\n")
	assert.Contains(t, r, "Sitemap: https://acme.example/sitemap-news.xml\n")
}

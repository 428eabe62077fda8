package seo

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/apperr"
	"sitecms/config"
	"sitecms/models"
)

var site = config.SiteConfig{
	Name:          "Acme",
	BaseURL:       "https://acme.example",
	Description:   "Acme product blog",
	Language:      "en-US",
	Logo:          "/logo.png",
	Twitter:       "@acme",
	DefaultAuthor: "Acme Team",
}

func builder() Builder { return NewBuilder(site, config.SEOConfig{}) }

func livePost() *models.BlogPost {
	pub := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	return &models.BlogPost{
		Title:       "Scaling the edge",
		Slug:        "scaling-the-edge",
		Content:     "<p>" + strings.Repeat("Edge nodes serve traffic close to users. ", 20) + "</p>",
		IsPublished: true,
		Status:      models.PostStatusPublished,
		PublishedAt: &pub,
		UpdatedAt:   pub.Add(time.Hour),
	}
}

func TestPostMetaFallbacks(t *testing.T) {
	m, err := builder().Post(livePost(), &models.BlogCategory{Name: "Infra"}, []models.BlogTag{{Name: "CDN"}})
	require.NoError(t, err)

	assert.Equal(t, "Scaling the edge | Acme", m.Title)
	assert.LessOrEqual(t, len([]rune(m.Description)), DefaultDescriptionMax)
	assert.True(t, strings.HasPrefix(m.Description, "Edge nodes serve traffic"))
	assert.Equal(t, "https://acme.example/blog/scaling-the-edge", m.Canonical)
	assert.Equal(t, "index, follow", m.Robots)
	assert.Equal(t, []string{"CDN"}, m.Keywords)
	assert.Equal(t, "article", m.OpenGraph.Type)
	assert.Equal(t, "https://acme.example/logo.png", m.OpenGraph.Image)
	assert.Equal(t, "en_US", m.OpenGraph.Locale)
	assert.Equal(t, "Infra", m.OpenGraph.Section)
	assert.Equal(t, "summary_large_image", m.Twitter.Card)
	assert.Equal(t, "@acme", m.Twitter.Site)
	assert.Equal(t, "Acme Team", m.Author)
}

func TestPostMetaLongTitleTruncated(t *testing.T) {
	p := livePost()
	p.Title = strings.Repeat("Very long headline ", 10)
	m, err := builder().Post(p, nil, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(m.Title)), DefaultTitleMax)
	assert.NotContains(t, m.Title, "| Acme")
}

func TestPostMetaExplicitOverrides(t *testing.T) {
	p := livePost()
	p.SEO = models.SEO{
		MetaTitle:       "Custom",
		MetaDescription: "Custom description",
		CanonicalURL:    "/elsewhere",
		OGImage:         "https://cdn.example/og.png",
		TwitterCard:     "summary",
		Keywords:        []string{"edge", "Edge", "cdn"},
		NoIndex:         true,
	}
	m, err := builder().Post(p, nil, []models.BlogTag{{Name: "CDN"}})
	require.NoError(t, err)

	assert.Equal(t, "Custom", m.Title)
	assert.Equal(t, "Custom description", m.Description)
	assert.Equal(t, "https://acme.example/elsewhere", m.Canonical)
	assert.Equal(t, "https://acme.example/elsewhere", m.OpenGraph.URL)
	assert.Equal(t, "https://cdn.example/og.png", m.OpenGraph.Image)
	assert.Equal(t, "summary", m.Twitter.Card)
	assert.Equal(t, []string{"edge", "cdn"}, m.Keywords)
	assert.Equal(t, "noindex, nofollow", m.Robots)
}

func TestDraftIsNoIndex(t *testing.T) {
	p := livePost()
	p.IsPublished = false
	m, err := builder().Post(p, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "noindex, nofollow", m.Robots)
}

func TestMetaErrors(t *testing.T) {
	_, err := builder().Post(nil, nil, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = builder().Post(&models.BlogPost{Content: "x"}, nil, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = builder().Page(&models.Page{Slug: "about"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestMetaHTMLEscapes(t *testing.T) {
	p := livePost()
	p.Title = `Tips & "tricks"`
	m, err := builder().Post(p, nil, nil)
	require.NoError(t, err)
	out := m.HTML()
	assert.Contains(t, out, "<title>Tips &amp; &#34;tricks&#34; | Acme</title>")
	assert.Contains(t, out, `<meta property="og:title" content="Tips &amp; &#34;tricks&#34; | Acme">`)
	assert.Contains(t, out, `<link rel="canonical" href="https://acme.example/blog/scaling-the-edge">`)
	assert.Contains(t, out, `<meta property="article:published_time" content="2024-04-01T09:00:00Z">`)
}

func TestPageMetaUsesSiteDescription(t *testing.T) {
	m, err := builder().Page(&models.Page{Slug: "home", Title: "Welcome", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "https://acme.example/", m.Canonical)
	assert.Equal(t, "Acme product blog", m.Description)
	assert.Equal(t, "website", m.OpenGraph.Type)
}

func TestPostGraph(t *testing.T) {
	g, err := PostGraph(site, livePost(), &models.BlogCategory{Name: "Infra", Slug: "infra"}, []models.BlogTag{{Name: "CDN"}})
	require.NoError(t, err)

	b, err := json.Marshal(g)
	require.NoError(t, err)
	var doc struct {
		Context string           `json:"@context"`
		Graph   []map[string]any `json:"@graph"`
	}
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, "https://schema.org", doc.Context)
	require.Len(t, doc.Graph, 3)

	posting := doc.Graph[0]
	assert.Equal(t, "BlogPosting", posting["@type"])
	assert.Equal(t, "Scaling the edge", posting["headline"])
	assert.Equal(t, "2024-04-01T09:00:00Z", posting["datePublished"])
	assert.Equal(t, "CDN", posting["keywords"])
	assert.Equal(t, "Infra", posting["articleSection"])
	assert.NotContains(t, posting, "@context")

	crumbs := doc.Graph[1]["itemListElement"].([]any)
	require.Len(t, crumbs, 4)
	last := crumbs[3].(map[string]any)
	assert.Equal(t, float64(4), last["position"])
	assert.Equal(t, "https://acme.example/blog/scaling-the-edge", last["item"])
}

func TestEventSchema(t *testing.T) {
	start := time.Date(2024, 9, 1, 18, 0, 0, 0, time.UTC)
	e := &models.Event{
		Title:     "Meetup",
		Slug:      "meetup",
		StartDate: start,
		Status:    models.EventStatusCancelled,
		Location:  models.EventLocation{Online: true, URL: "https://meet.example/x"},
	}
	data, err := Event(site, e)
	require.NoError(t, err)
	assert.Equal(t, "https://schema.org/EventCancelled", data["eventStatus"])
	assert.Equal(t, "https://schema.org/OnlineEventAttendanceMode", data["eventAttendanceMode"])
	assert.Equal(t, "2024-09-01T18:00:00Z", data["startDate"])

	_, err = Event(site, &models.Event{Title: "No date"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestWebSiteSchema(t *testing.T) {
	data := WebSite(site)
	assert.Equal(t, "WebSite", data["@type"])
	assert.Equal(t, "https://acme.example/", data["url"])
}

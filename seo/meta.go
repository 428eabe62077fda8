// Package seo builds meta tag sets and schema.org JSON-LD for posts, pages, categories and events.
package seo

import (
	"html"
	"strings"
	"time"

	"sitecms/apperr"
	"sitecms/config"
	"sitecms/markdown"
	"sitecms/models"
	"sitecms/siteurl"
	"sitecms/textutil"
)

const (
	DefaultTitleMax       = 60
	DefaultDescriptionMax = 160
)

// OpenGraph holds og:* properties.
type OpenGraph struct {
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	URL           string     `json:"url"`
	Image         string     `json:"image,omitempty"`
	ImageAlt      string     `json:"image_alt,omitempty"`
	SiteName      string     `json:"site_name,omitempty"`
	Locale        string     `json:"locale,omitempty"`
	PublishedTime *time.Time `json:"published_time,omitempty"`
	ModifiedTime  *time.Time `json:"modified_time,omitempty"`
	Section       string     `json:"section,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
}

// Twitter holds twitter:* properties.
type Twitter struct {
	Card        string `json:"card"`
	Site        string `json:"site,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// MetaTags is the full head metadata of one document.
type MetaTags struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords"`
	Canonical   string    `json:"canonical"`
	Robots      string    `json:"robots"`
	Author      string    `json:"author,omitempty"`
	OpenGraph   OpenGraph `json:"open_graph"`
	Twitter     Twitter   `json:"twitter"`
}

// Builder fills meta tags for one site with the configured length budgets.
type Builder struct {
	Site           config.SiteConfig
	TitleMax       int
	DescriptionMax int
}

func NewBuilder(site config.SiteConfig, cfg config.SEOConfig) Builder {
	b := Builder{Site: site, TitleMax: cfg.TitleMax, DescriptionMax: cfg.DescriptionMax}
	if b.TitleMax <= 0 {
		b.TitleMax = DefaultTitleMax
	}
	if b.DescriptionMax <= 0 {
		b.DescriptionMax = DefaultDescriptionMax
	}
	return b
}

// title prefers an explicit SEO title, then "title | site" when it fits, then the bare title.
func (b Builder) title(explicit, title string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return textutil.Truncate(s, b.TitleMax)
	}
	title = strings.TrimSpace(title)
	if b.Site.Name != "" && title != b.Site.Name {
		full := title + " | " + b.Site.Name
		if len([]rune(full)) <= b.TitleMax {
			return full
		}
	}
	return textutil.Truncate(title, b.TitleMax)
}

func (b Builder) description(candidates ...string) string {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return textutil.Truncate(strings.Join(strings.Fields(s), " "), b.DescriptionMax)
		}
	}
	return ""
}

func (b Builder) image(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return textutil.AbsoluteURL(b.Site.BaseURL, c)
		}
	}
	if b.Site.Logo != "" {
		return textutil.AbsoluteURL(b.Site.BaseURL, b.Site.Logo)
	}
	return ""
}

func robots(noIndex bool) string {
	if noIndex {
		return "noindex, nofollow"
	}
	return "index, follow"
}

func twitterCard(explicit, image string) string {
	if explicit != "" {
		return explicit
	}
	if image != "" {
		return "summary_large_image"
	}
	return "summary"
}

func locale(lang string) string {
	if lang == "" {
		return ""
	}
	return strings.ReplaceAll(lang, "-", "_")
}

// apply copies the shared SEO overrides onto m.
func (b Builder) apply(m *MetaTags, s models.SEO, ogType string) {
	if s.CanonicalURL != "" {
		m.Canonical = textutil.AbsoluteURL(b.Site.BaseURL, s.CanonicalURL)
	}
	m.OpenGraph.Type = ogType
	m.OpenGraph.URL = m.Canonical
	m.OpenGraph.SiteName = b.Site.Name
	m.OpenGraph.Locale = locale(b.Site.Language)
	m.OpenGraph.Title = firstNonEmpty(s.OGTitle, m.Title)
	m.OpenGraph.Description = firstNonEmpty(s.OGDescription, m.Description)
	m.OpenGraph.Image = b.image(s.OGImage, m.OpenGraph.Image)

	m.Twitter.Site = b.Site.Twitter
	m.Twitter.Title = firstNonEmpty(s.TwitterTitle, m.OpenGraph.Title)
	m.Twitter.Description = firstNonEmpty(s.TwitterDescription, m.OpenGraph.Description)
	m.Twitter.Image = firstNonEmpty(textutil.AbsoluteURL(b.Site.BaseURL, s.TwitterImage), m.OpenGraph.Image)
	m.Twitter.Card = twitterCard(s.TwitterCard, m.Twitter.Image)
	if m.Keywords == nil {
		m.Keywords = []string{}
	}
}

// Post builds meta tags for a blog post. Unpublished posts are always noindex.
func (b Builder) Post(p *models.BlogPost, category *models.BlogCategory, tags []models.BlogTag) (*MetaTags, error) {
	if err := p.Renderable(); err != nil {
		return nil, err
	}
	m := &MetaTags{
		Title:       b.title(p.SEO.MetaTitle, p.Title),
		Description: b.description(p.SEO.MetaDescription, p.Excerpt, p.AIOptimization.Summary, textutil.StripHTML(markdown.PostHTML(p))),
		Canonical:   siteurl.Post(b.Site.BaseURL, p.Slug),
		Robots:      robots(p.SEO.NoIndex || !p.IsPublished),
		Author:      firstNonEmpty(p.AuthorName, b.Site.DefaultAuthor),
	}

	var tagNames []string
	for _, t := range tags {
		tagNames = append(tagNames, t.Name)
	}
	m.Keywords = dedup(p.SEO.Keywords, p.AIOptimization.Keywords, tagNames)

	if p.FeaturedImage != nil {
		m.OpenGraph.Image = p.FeaturedImage.URL
		m.OpenGraph.ImageAlt = p.FeaturedImage.Alt
	}
	b.apply(m, p.SEO, "article")
	if p.PublishedAt != nil {
		t := p.PublishedAt.UTC()
		m.OpenGraph.PublishedTime = &t
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt.UTC()
		m.OpenGraph.ModifiedTime = &t
	}
	if category != nil {
		m.OpenGraph.Section = category.Name
	}
	m.OpenGraph.Tags = tagNames
	return m, nil
}

// Page builds meta tags for a site page.
func (b Builder) Page(pg *models.Page) (*MetaTags, error) {
	if pg == nil {
		return nil, apperr.NotFound("page not found")
	}
	if strings.TrimSpace(pg.Title) == "" {
		return nil, apperr.InvalidInput("page title is required")
	}
	m := &MetaTags{
		Title:       b.title(pg.SEO.MetaTitle, pg.Title),
		Description: b.description(pg.SEO.MetaDescription, pg.Description, b.Site.Description),
		Canonical:   siteurl.Page(b.Site.BaseURL, pg.Slug),
		Robots:      robots(pg.SEO.NoIndex || !pg.IsPublished),
		Keywords:    dedup(pg.SEO.Keywords),
	}
	b.apply(m, pg.SEO, "website")
	return m, nil
}

// Category builds meta tags for a category archive.
func (b Builder) Category(c *models.BlogCategory) (*MetaTags, error) {
	if c == nil {
		return nil, apperr.NotFound("category not found")
	}
	m := &MetaTags{
		Title:       b.title(c.SEO.MetaTitle, c.Name),
		Description: b.description(c.SEO.MetaDescription, c.Description, b.Site.Description),
		Canonical:   siteurl.Category(b.Site.BaseURL, c.Slug),
		Robots:      robots(c.SEO.NoIndex),
		Keywords:    dedup(c.SEO.Keywords, []string{c.Name}),
	}
	b.apply(m, c.SEO, "website")
	return m, nil
}

// Event builds meta tags for an event.
func (b Builder) Event(e *models.Event) (*MetaTags, error) {
	if e == nil {
		return nil, apperr.NotFound("event not found")
	}
	if strings.TrimSpace(e.Title) == "" {
		return nil, apperr.InvalidInput("event title is required")
	}
	m := &MetaTags{
		Title:       b.title("", e.Title),
		Description: b.description(textutil.StripHTML(e.Description)),
		Canonical:   siteurl.Event(b.Site.BaseURL, e.Slug),
		Robots:      robots(e.Status != models.EventStatusPublished),
		Keywords:    []string{},
	}
	if e.FeaturedImage != nil {
		m.OpenGraph.Image = e.FeaturedImage.URL
		m.OpenGraph.ImageAlt = e.FeaturedImage.Alt
	}
	b.apply(m, models.SEO{}, "website")
	return m, nil
}

// HTML renders the tags as <head> markup with escaped attribute values.
func (m *MetaTags) HTML() string {
	var sb strings.Builder
	sb.WriteString("<title>" + html.EscapeString(m.Title) + "</title>\n")
	meta := func(attr, key, value string) {
		if value == "" {
			return
		}
		sb.WriteString(`<meta ` + attr + `="` + key + `" content="` + html.EscapeString(value) + "\">\n")
	}
	meta("name", "description", m.Description)
	if len(m.Keywords) > 0 {
		meta("name", "keywords", strings.Join(m.Keywords, ", "))
	}
	meta("name", "author", m.Author)
	meta("name", "robots", m.Robots)
	sb.WriteString(`<link rel="canonical" href="` + html.EscapeString(m.Canonical) + "\">\n")

	og := m.OpenGraph
	meta("property", "og:type", og.Type)
	meta("property", "og:title", og.Title)
	meta("property", "og:description", og.Description)
	meta("property", "og:url", og.URL)
	meta("property", "og:image", og.Image)
	meta("property", "og:image:alt", og.ImageAlt)
	meta("property", "og:site_name", og.SiteName)
	meta("property", "og:locale", og.Locale)
	if og.PublishedTime != nil {
		meta("property", "article:published_time", og.PublishedTime.Format(time.RFC3339))
	}
	if og.ModifiedTime != nil {
		meta("property", "article:modified_time", og.ModifiedTime.Format(time.RFC3339))
	}
	meta("property", "article:section", og.Section)
	for _, t := range og.Tags {
		meta("property", "article:tag", t)
	}

	tw := m.Twitter
	meta("name", "twitter:card", tw.Card)
	meta("name", "twitter:site", tw.Site)
	meta("name", "twitter:title", tw.Title)
	meta("name", "twitter:description", tw.Description)
	meta("name", "twitter:image", tw.Image)
	return sb.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// dedup merges keyword lists case-insensitively, keeping first spelling and order.
func dedup(lists ...[]string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, l := range lists {
		for _, k := range l {
			k = strings.TrimSpace(k)
			key := strings.ToLower(k)
			if k == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, k)
		}
	}
	return out
}

// Package feeds renders RSS 2.0, Atom 1.0 and JSON Feed 1.1 documents from published posts.
package feeds

import (
	"path"
	"strings"
	"time"

	"sitecms/config"
	"sitecms/markdown"
	"sitecms/models"
	"sitecms/siteurl"
	"sitecms/textutil"
)

const (
	DefaultLimit          = 20
	MaxLimit              = 100
	DefaultDescriptionMax = 300
	generator             = "sitecms"
)

// Entry is a post plus the taxonomy it references.
type Entry struct {
	Post     models.BlogPost
	Category *models.BlogCategory
	Tags     []models.BlogTag
}

// Channel describes one feed. Zero fields are filled from the site by Normalize.
type Channel struct {
	Title          string
	Description    string
	Link           string
	SelfURL        string
	Language       string
	Limit          int
	DescriptionMax int
	// Updated is used when no entry carries a timestamp.
	Updated time.Time
}

// Normalize fills empty channel fields from site and clamps the limits.
func (ch Channel) Normalize(site config.SiteConfig) Channel {
	if ch.Title == "" {
		ch.Title = site.Name
	}
	if ch.Description == "" {
		ch.Description = site.Description
	}
	if ch.Link == "" {
		ch.Link = siteurl.BlogIndex(site.BaseURL)
	}
	if ch.Language == "" {
		ch.Language = site.Language
	}
	if ch.Limit <= 0 {
		ch.Limit = DefaultLimit
	}
	if ch.Limit > MaxLimit {
		ch.Limit = MaxLimit
	}
	if ch.DescriptionMax <= 0 {
		ch.DescriptionMax = DefaultDescriptionMax
	}
	return ch
}

// ClampLimit applies the feed limit rules to a requested count.
func ClampLimit(n int) int {
	return Channel{Limit: n}.Normalize(config.SiteConfig{}).Limit
}

// item is the format-independent view of one entry.
type item struct {
	title       string
	url         string
	description string
	contentHTML string
	author      string
	categories  []string
	published   time.Time
	updated     time.Time
	image       *models.Image
}

// items keeps renderable entries, most recent first as given, up to the channel limit.
func items(site config.SiteConfig, ch Channel, entries []Entry) []item {
	out := make([]item, 0, len(entries))
	for i := range entries {
		if len(out) == ch.Limit {
			break
		}
		e := &entries[i]
		p := &e.Post
		if p.Renderable() != nil || p.Slug == "" {
			continue
		}
		it := item{
			title:       strings.TrimSpace(p.Title),
			url:         siteurl.Post(site.BaseURL, p.Slug),
			description: description(p, ch.DescriptionMax),
			contentHTML: markdown.PostHTML(p),
			author:      p.AuthorName,
			published:   p.PublishedTime().UTC(),
			updated:     p.UpdatedAt.UTC(),
		}
		if it.author == "" {
			it.author = site.DefaultAuthor
		}
		if e.Category != nil {
			it.categories = append(it.categories, e.Category.Name)
		}
		for _, t := range e.Tags {
			it.categories = append(it.categories, t.Name)
		}
		if p.FeaturedImage != nil && p.FeaturedImage.URL != "" {
			img := *p.FeaturedImage
			img.URL = textutil.AbsoluteURL(site.BaseURL, img.URL)
			it.image = &img
		}
		if it.updated.IsZero() {
			it.updated = it.published
		}
		out = append(out, it)
	}
	return out
}

func description(p *models.BlogPost, max int) string {
	if s := strings.TrimSpace(p.Excerpt); s != "" {
		return textutil.Truncate(s, max)
	}
	return textutil.Truncate(textutil.StripHTML(markdown.PostHTML(p)), max)
}

// lastUpdated returns the newest entry timestamp, or the channel fallback.
func lastUpdated(ch Channel, its []item) time.Time {
	var latest time.Time
	for _, it := range its {
		if it.updated.After(latest) {
			latest = it.updated
		}
	}
	if latest.IsZero() {
		return ch.Updated.UTC()
	}
	return latest
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".avif": "image/avif",
}

// imageType guesses the MIME type of an image URL from its extension.
func imageType(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if t, ok := imageTypes[strings.ToLower(path.Ext(u))]; ok {
		return t
	}
	return "image/jpeg"
}

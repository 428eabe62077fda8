package aicontent

import (
	"fmt"
	"strings"
	"time"

	"sitecms/config"
	"sitecms/markdown"
	"sitecms/models"
	"sitecms/siteurl"
)

const dateLayout = "2006-01-02"

// PostMarkdown renders the Markdown document of a post: title, metadata block, excerpt,
// body, key points, then tags.
func PostMarkdown(p *models.BlogPost, rel Related) (string, error) {
	if err := p.Renderable(); err != nil {
		return "", err
	}
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(p.Title))

	fmt.Fprintf(&b, "- URL: %s\n", siteurl.Post(rel.Site.BaseURL, p.Slug))
	fmt.Fprintf(&b, "- Author: %s\n", authorName(p, rel.Site))
	if p.PublishedAt != nil {
		fmt.Fprintf(&b, "- Published: %s\n", p.PublishedAt.UTC().Format(dateLayout))
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "- Updated: %s\n", p.UpdatedAt.UTC().Format(dateLayout))
	}
	if rel.Category != nil {
		fmt.Fprintf(&b, "- Category: %s\n", rel.Category.Name)
	}
	fmt.Fprintf(&b, "- Reading time: %d min\n", readingTime(p))
	b.WriteString("\n")

	if excerpt := strings.TrimSpace(p.Excerpt); excerpt != "" {
		fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(excerpt, "\n", "\n> "))
	}

	if body := markdown.PostBody(p); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	if points := KeyPoints(p); len(points) > 0 {
		b.WriteString("## Key Points\n\n")
		for _, pt := range points {
			fmt.Fprintf(&b, "- %s\n", pt)
		}
		b.WriteString("\n")
	}

	if names := rel.tagNames(); len(names) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(names, ", "))
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func readingTime(p *models.BlogPost) int {
	if p.AIOptimization.ReadingTimeMinutes > 0 {
		return p.AIOptimization.ReadingTimeMinutes
	}
	a, err := Analyze(p)
	if err != nil {
		return 1
	}
	return a.ReadingTimeMinutes
}

// IndexEntry is one post in the /ai/content-index listing.
type IndexEntry struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	URL         string     `json:"url"`
	MarkdownURL string     `json:"markdown_url"`
	Summary     string     `json:"summary"`
	Keywords    []string   `json:"keywords"`
	Topics      []string   `json:"topics"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ContentIndex lists published posts for crawlers. Posts without title or content are skipped.
func ContentIndex(site config.SiteConfig, posts []models.BlogPost) []IndexEntry {
	out := make([]IndexEntry, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		if p.Renderable() != nil {
			continue
		}
		entry := IndexEntry{
			Title:       p.Title,
			Slug:        p.Slug,
			URL:         siteurl.Post(site.BaseURL, p.Slug),
			MarkdownURL: siteurl.PostMarkdown(site.BaseURL, p.Slug),
			Summary:     Summary(p),
			Keywords:    p.AIOptimization.Keywords,
			Topics:      p.AIOptimization.Topics,
			PublishedAt: p.PublishedAt,
			UpdatedAt:   p.UpdatedAt,
		}
		if entry.Keywords == nil {
			entry.Keywords = p.SEO.Keywords
		}
		if entry.Keywords == nil {
			entry.Keywords = []string{}
		}
		if entry.Topics == nil {
			entry.Topics = []string{}
		}
		out = append(out, entry)
	}
	return out
}

// LLMsIndex renders the llms.txt Markdown index of the site.
func LLMsIndex(site config.SiteConfig, posts []models.BlogPost, categories []models.BlogCategory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", site.Name)
	if site.Description != "" {
		fmt.Fprintf(&b, "> %s\n\n", site.Description)
	}

	b.WriteString("## Blog Posts\n\n")
	n := 0
	for i := range posts {
		p := &posts[i]
		if p.Renderable() != nil {
			continue
		}
		n++
		fmt.Fprintf(&b, "- [%s](%s)", escapeLinkText(p.Title), siteurl.PostMarkdown(site.BaseURL, p.Slug))
		if s := Summary(p); s != "" {
			fmt.Fprintf(&b, ": %s", oneLine(s))
		}
		b.WriteString("\n")
	}
	if n == 0 {
		b.WriteString("No published posts yet.\n")
	}
	b.WriteString("\n")

	if len(categories) > 0 {
		b.WriteString("## Categories\n\n")
		for _, c := range categories {
			fmt.Fprintf(&b, "- [%s](%s)", escapeLinkText(c.Name), siteurl.Category(site.BaseURL, c.Slug))
			if c.Description != "" {
				fmt.Fprintf(&b, ": %s", oneLine(c.Description))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Feeds\n\n")
	fmt.Fprintf(&b, "- [RSS](%s)\n", siteurl.Feed(site.BaseURL))
	fmt.Fprintf(&b, "- [Atom](%s)\n", siteurl.AtomFeed(site.BaseURL))
	fmt.Fprintf(&b, "- [JSON Feed](%s)\n", siteurl.JSONFeed(site.BaseURL))
	fmt.Fprintf(&b, "- [Sitemap](%s)\n", siteurl.Sitemap(site.BaseURL))
	return b.String()
}

var linkTextEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

func escapeLinkText(s string) string { return linkTextEscaper.Replace(oneLine(s)) }

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }

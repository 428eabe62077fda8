package aicontent

import (
	"regexp"
	"strings"
	"time"

	"sitecms/config"
	"sitecms/markdown"
	"sitecms/models"
	"sitecms/siteurl"
	"sitecms/textutil"
)

const (
	maxKeyPoints  = 5
	maxSummary    = 300
	maxMetaTerms  = 15
	minRichLength = 300
)

// Related carries the documents a post references, resolved by the caller.
type Related struct {
	Site     config.SiteConfig
	Category *models.BlogCategory
	Tags     []models.BlogTag
}

func (r Related) tagNames() []string {
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		names = append(names, t.Name)
	}
	return names
}

// PostMetadata is the AI-metadata object served at /ai/posts/:slug/metadata.
type PostMetadata struct {
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	URL                string     `json:"url"`
	MarkdownURL        string     `json:"markdown_url"`
	Language           string     `json:"language"`
	Author             string     `json:"author"`
	Category           string     `json:"category,omitempty"`
	Tags               []string   `json:"tags"`
	ContentType        string     `json:"content_type"`
	Summary            string     `json:"summary"`
	KeyPoints          []string   `json:"key_points"`
	Keywords           []string   `json:"keywords"`
	Entities           []string   `json:"entities"`
	Topics             []string   `json:"topics"`
	WordCount          int        `json:"word_count"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	ReadabilityScore   float64    `json:"readability_score"`
	SEOScore           int        `json:"seo_score"`
	ContentScore       int        `json:"content_score"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
	GeneratedAt        time.Time  `json:"generated_at"`
}

var (
	mdInline   = strings.NewReplacer("**", "", "__", "", "`", "")
	mdLinkText = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]+\)`)
)

// Metadata builds the AI-metadata object for a post.
func Metadata(p *models.BlogPost, rel Related, now time.Time) (*PostMetadata, error) {
	a, err := Analyze(p)
	if err != nil {
		return nil, err
	}
	text := plainText(p)

	m := &PostMetadata{
		Title:              p.Title,
		Slug:               p.Slug,
		URL:                siteurl.Post(rel.Site.BaseURL, p.Slug),
		MarkdownURL:        siteurl.PostMarkdown(rel.Site.BaseURL, p.Slug),
		Language:           rel.Site.Language,
		Author:             authorName(p, rel.Site),
		Tags:               rel.tagNames(),
		ContentType:        contentType(p.Title, text),
		Summary:            Summary(p),
		KeyPoints:          KeyPoints(p),
		Keywords:           mergeTerms(maxMetaTerms, p.SEO.Keywords, rel.tagNames(), keywordTerms(a.Keywords)),
		Entities:           a.Entities,
		Topics:             a.Topics,
		WordCount:          a.WordCount,
		ReadingTimeMinutes: a.ReadingTimeMinutes,
		ReadabilityScore:   a.ReadabilityScore,
		SEOScore:           SEOScore(p, a),
		ContentScore:       ContentScore(a),
		PublishedAt:        p.PublishedAt,
		UpdatedAt:          p.UpdatedAt,
		GeneratedAt:        now.UTC(),
	}
	if rel.Category != nil {
		m.Category = rel.Category.Name
	}
	return m, nil
}

// Optimization converts metadata into the sub-document stored on the post.
func Optimization(m *PostMetadata) models.AIOptimization {
	return models.AIOptimization{
		Keywords:           m.Keywords,
		Entities:           m.Entities,
		Topics:             m.Topics,
		Summary:            m.Summary,
		KeyPoints:          m.KeyPoints,
		ReadingTimeMinutes: m.ReadingTimeMinutes,
		ReadabilityScore:   m.ReadabilityScore,
		SEOScore:           m.SEOScore,
		ContentScore:       m.ContentScore,
		GeneratedAt:        m.GeneratedAt,
	}
}

// Summary prefers the stored AI summary, then the excerpt, then the first two sentences.
func Summary(p *models.BlogPost) string {
	if s := strings.TrimSpace(p.AIOptimization.Summary); s != "" {
		return s
	}
	if s := strings.TrimSpace(p.Excerpt); s != "" {
		return textutil.Truncate(s, maxSummary)
	}
	sentences := textutil.Sentences(plainText(p))
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	return textutil.Truncate(strings.Join(sentences, " "), maxSummary)
}

// KeyPoints returns list items of the body, or the lead sentence of each paragraph when the
// body has no lists.
func KeyPoints(p *models.BlogPost) []string {
	if len(p.AIOptimization.KeyPoints) > 0 {
		return p.AIOptimization.KeyPoints
	}
	body := markdown.PostBody(p)
	points := []string{}
	for _, m := range mdListItem.FindAllStringSubmatch(body, -1) {
		if pt := cleanInline(m[1]); pt != "" {
			points = append(points, pt)
		}
		if len(points) == maxKeyPoints {
			return points
		}
	}
	if len(points) > 0 {
		return points
	}
	for _, block := range paragraphBreaks.Split(body, -1) {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") || strings.HasPrefix(block, "```") || strings.HasPrefix(block, "![") {
			continue
		}
		first := textutil.Sentences(cleanInline(block))
		if len(first) == 0 {
			continue
		}
		points = append(points, first[0])
		if len(points) == maxKeyPoints {
			break
		}
	}
	return points
}

func cleanInline(s string) string {
	s = mdLinkText.ReplaceAllString(s, "$1")
	s = mdInline.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(strings.Trim(s, "*_ "))
}

// SEOScore grades on-page signals on a 0..100 scale.
func SEOScore(p *models.BlogPost, a *Analysis) int {
	score := 0
	title := p.SEO.MetaTitle
	if title == "" {
		title = p.Title
	}
	if n := len([]rune(title)); n >= 30 && n <= 60 {
		score += 20
	} else if n > 0 {
		score += 10
	}
	desc := p.SEO.MetaDescription
	if n := len([]rune(desc)); n >= 120 && n <= 160 {
		score += 20
	} else if desc != "" || p.Excerpt != "" {
		score += 10
	}
	if len(p.SEO.Keywords) > 0 || len(p.TagIDs) > 0 {
		score += 15
	}
	if p.FeaturedImage != nil && p.FeaturedImage.URL != "" {
		score += 10
		if p.FeaturedImage.Alt != "" {
			score += 5
		}
	}
	if a.WordCount >= minRichLength {
		score += 15
	}
	if len(a.Headings) > 0 {
		score += 15
	}
	return clamp(score)
}

// ContentScore grades length, structure and readability on a 0..100 scale.
func ContentScore(a *Analysis) int {
	score := 0
	switch {
	case a.WordCount >= 1500:
		score += 30
	case a.WordCount >= 800:
		score += 25
	case a.WordCount >= minRichLength:
		score += 15
	case a.WordCount > 0:
		score += 5
	}
	if len(a.Headings) >= 3 {
		score += 20
	} else if len(a.Headings) > 0 {
		score += 10
	}
	if a.ListCount > 0 {
		score += 10
	}
	if a.ImageCount > 0 {
		score += 10
	}
	if a.LinkCount > 0 {
		score += 10
	}
	switch {
	case a.ReadabilityScore >= 60:
		score += 20
	case a.ReadabilityScore >= 40:
		score += 10
	}
	return clamp(score)
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func contentType(title, text string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "how to") || strings.Contains(t, "tutorial") || strings.Contains(t, "step by step"):
		return "tutorial"
	case strings.Contains(t, "guide") || strings.Contains(t, "guía"):
		return "guide"
	case strings.Contains(t, "announc") || strings.Contains(t, "release") || strings.Contains(t, "launch"):
		return "news"
	case strings.HasSuffix(strings.TrimSpace(t), "?"):
		return "faq"
	case strings.Contains(strings.ToLower(text), "case study"):
		return "case-study"
	default:
		return "article"
	}
}

func authorName(p *models.BlogPost, site config.SiteConfig) string {
	if p.AuthorName != "" {
		return p.AuthorName
	}
	if site.DefaultAuthor != "" {
		return site.DefaultAuthor
	}
	return site.Name
}

func keywordTerms(ks []Keyword) []string {
	out := make([]string, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.Term)
	}
	return out
}

// mergeTerms concatenates term lists, dropping case-insensitive duplicates, up to limit.
func mergeTerms(limit int, lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range lists {
		for _, term := range list {
			key := strings.ToLower(strings.TrimSpace(term))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, strings.TrimSpace(term))
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

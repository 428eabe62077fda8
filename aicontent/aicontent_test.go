package aicontent

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/apperr"
	"sitecms/config"
	"sitecms/models"
)

var testSite = config.SiteConfig{
	Name:          "Acme",
	BaseURL:       "https://acme.example",
	Description:   "Acme product blog",
	Language:      "en",
	DefaultAuthor: "Acme Team",
}

func samplePost() *models.BlogPost {
	published := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.BlogPost{
		Title:         "How to run Kubernetes",
		Slug:          "how-to-run-kubernetes",
		Excerpt:       "A short tour of clusters.",
		ContentFormat: models.ContentFormatHTML,
		Content: `<h2>Why Kubernetes</h2><p>Kubernetes runs containers at scale. Docker images are built in CI/CD pipelines. Is it hard?</p>` +
			`<ul><li>Declarative config</li><li><strong>Self</strong> healing</li></ul>` +
			`<p>Read more at <a href="https://kubernetes.io">the docs</a>. Google Cloud Platform hosts clusters.</p>`,
		Status:      models.PostStatusPublished,
		IsPublished: true,
		PublishedAt: &published,
		UpdatedAt:   published.Add(time.Hour),
		SEO:         models.SEO{Keywords: []string{"k8s"}},
	}
}

func TestAnalyze(t *testing.T) {
	a, err := Analyze(samplePost())
	require.NoError(t, err)

	assert.Equal(t, []Heading{{Level: 2, Text: "Why Kubernetes"}}, a.Headings)
	require.NotEmpty(t, a.Keywords)
	assert.Equal(t, "kubernetes", a.Keywords[0].Term)
	assert.Equal(t, 2, a.Keywords[0].Count)
	assert.Contains(t, a.TechnologyTerms, "kubernetes")
	assert.Contains(t, a.TechnologyTerms, "docker")
	assert.Contains(t, a.TechnologyTerms, "ci/cd")
	assert.Contains(t, a.Topics, "DevOps")
	assert.Contains(t, a.Topics, "Cloud")
	assert.Contains(t, a.Entities, "Google Cloud Platform")
	assert.Equal(t, []string{"Is it hard?"}, a.Questions)
	assert.Equal(t, 2, a.ListCount)
	assert.Equal(t, 1, a.LinkCount)
	assert.Equal(t, 1, a.ReadingTimeMinutes)
	assert.GreaterOrEqual(t, a.ReadabilityScore, 0.0)
	assert.LessOrEqual(t, a.ReadabilityScore, 100.0)
}

func TestAnalyzeDeterministic(t *testing.T) {
	a1, err := Analyze(samplePost())
	require.NoError(t, err)
	a2, err := Analyze(samplePost())
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestFormattersRejectMissingOrEmptyPosts(t *testing.T) {
	_, err := Analyze(nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = PostMarkdown(&models.BlogPost{Content: "x"}, Related{Site: testSite})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = Metadata(&models.BlogPost{Title: "x", Content: "  "}, Related{Site: testSite}, time.Now())
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestPostMarkdownSectionOrder(t *testing.T) {
	rel := Related{
		Site:     testSite,
		Category: &models.BlogCategory{Name: "Engineering", Slug: "engineering"},
		Tags:     []models.BlogTag{{Name: "Kubernetes"}, {Name: "DevOps"}},
	}
	doc, err := PostMarkdown(samplePost(), rel)
	require.NoError(t, err)

	order := []string{
		"# How to run Kubernetes\n",
		"- URL: https://acme.example/blog/how-to-run-kubernetes\n",
		"- Published: 2024-03-01\n",
		"- Category: Engineering\n",
		"> A short tour of clusters.\n",
		"## Why Kubernetes",
		"## Key Points\n\n- Declarative config\n- Self healing\n",
		"Tags: Kubernetes, DevOps\n",
	}
	last := -1
	for _, part := range order {
		idx := strings.Index(doc, part)
		require.GreaterOrEqual(t, idx, 0, "missing %q in:\n%s", part, doc)
		assert.Greater(t, idx, last, "%q out of order", part)
		last = idx
	}
	assert.Contains(t, doc, "- Author: Acme Team\n")
}

func TestPostMarkdownOmitsEmptyOptionalSections(t *testing.T) {
	p := &models.BlogPost{Title: "Bare", Slug: "bare", Content: "<p>Only text here.</p>"}
	doc, err := PostMarkdown(p, Related{Site: testSite})
	require.NoError(t, err)

	assert.NotContains(t, doc, "- Published:")
	assert.NotContains(t, doc, "- Category:")
	assert.NotContains(t, doc, "Tags:")
	assert.NotContains(t, doc, "> ")
	assert.Contains(t, doc, "## Key Points\n\n- Only text here.\n")
}

func TestMetadata(t *testing.T) {
	now := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	rel := Related{Site: testSite, Tags: []models.BlogTag{{Name: "Kubernetes"}}}
	m, err := Metadata(samplePost(), rel, now)
	require.NoError(t, err)

	assert.Equal(t, "https://acme.example/blog/how-to-run-kubernetes", m.URL)
	assert.Equal(t, "https://acme.example/ai/posts/how-to-run-kubernetes/markdown", m.MarkdownURL)
	assert.Equal(t, "tutorial", m.ContentType)
	assert.Equal(t, "A short tour of clusters.", m.Summary)
	require.GreaterOrEqual(t, len(m.Keywords), 2)
	assert.Equal(t, []string{"k8s", "Kubernetes"}, m.Keywords[:2])
	assert.NotContains(t, m.Keywords[2:], "kubernetes")
	assert.Equal(t, now, m.GeneratedAt)
	assert.Greater(t, m.SEOScore, 0)
	assert.LessOrEqual(t, m.SEOScore, 100)
	assert.Greater(t, m.ContentScore, 0)

	opt := Optimization(m)
	assert.Equal(t, m.Summary, opt.Summary)
	assert.Equal(t, m.SEOScore, opt.SEOScore)
}

func TestSummaryFallsBackToSentences(t *testing.T) {
	p := &models.BlogPost{Title: "t", Content: "<p>First one. Second one! Third one?</p>"}
	assert.Equal(t, "First one. Second one!", Summary(p))
}

func TestLLMsIndexAndContentIndex(t *testing.T) {
	posts := []models.BlogPost{*samplePost(), {Title: "", Slug: "broken"}}
	cats := []models.BlogCategory{{Name: "Engineering", Slug: "engineering", Description: "Deep dives"}}

	txt := LLMsIndex(testSite, posts, cats)
	assert.True(t, strings.HasPrefix(txt, "# Acme\n\n> Acme product blog\n"))
	assert.Contains(t, txt, "- [How to run Kubernetes](https://acme.example/ai/posts/how-to-run-kubernetes/markdown): A short tour of clusters.\n")
	assert.Contains(t, txt, "- [Engineering](https://acme.example/blog/category/engineering): Deep dives\n")
	assert.Contains(t, txt, "- [RSS](https://acme.example/feed.xml)\n")
	assert.NotContains(t, txt, "broken")

	idx := ContentIndex(testSite, posts)
	require.Len(t, idx, 1)
	assert.Equal(t, "how-to-run-kubernetes", idx[0].Slug)
	assert.Equal(t, []string{"k8s"}, idx[0].Keywords)
}

func TestContainsTermWordBoundaries(t *testing.T) {
	cases := []struct {
		s    string
		want bool
	}{
		{"we use java daily", true},
		{"java", true},
		{"javascript only", false},
		{"caféjava mix", false},
		{"javaé mix", false},
		{"naïve, java!", true},
	}
	for _, tc := range cases {
		t.Run(tc.s, func(t *testing.T) {
			assert.Equal(t, tc.want, containsTerm(tc.s, "java"))
		})
	}
}

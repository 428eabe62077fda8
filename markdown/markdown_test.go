package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/models"
)

func TestFromHTMLTrustedSubset(t *testing.T) {
	in := `<h2>Title</h2><p>Some <strong>bold</strong> and <a href="https://x.dev">link</a></p><ul><li>one</li><li>two</li></ul>`
	out := FromHTML(in)

	assert.Equal(t, 1, strings.Count(out, "## "))
	assert.Equal(t, 1, strings.Count(out, "**bold**"))
	assert.Equal(t, 1, strings.Count(out, "[link](https://x.dev)"))
	assert.Equal(t, 2, strings.Count(out, "- "))
	assert.NotContains(t, out, "<")
	assert.Equal(t, "## Title\n\nSome **bold** and [link](https://x.dev)\n\n- one\n- two", out)
}

func TestFromHTMLBlocks(t *testing.T) {
	in := "<h1>A</h1><ol><li>first</li><li>second</li></ol><blockquote><p>quoted</p></blockquote>" +
		`<pre><code>go test ./...</code></pre><p>x<br>y</p><hr><img src="/i.png" alt="pic"><p><em>it</em> <code>c</code></p>`
	out := FromHTML(in)

	assert.Contains(t, out, "# A")
	assert.Contains(t, out, "1. first\n2. second")
	assert.Contains(t, out, "> quoted")
	assert.Contains(t, out, "```\ngo test ./...\n```")
	assert.Contains(t, out, "x  \ny")
	assert.Contains(t, out, "---")
	assert.Contains(t, out, "![pic](/i.png)")
	assert.Contains(t, out, "*it* `c`")
}

func TestFromHTMLEntities(t *testing.T) {
	assert.Equal(t, "Fish & Chips <3 “quoted”", FromHTML("<p>Fish &amp; Chips &lt;3 &ldquo;quoted&rdquo;</p>"))
	assert.Equal(t, "&lt;", FromHTML("<p>&amp;lt;</p>"))
}

func TestFromHTMLFallsBackOutsideSubset(t *testing.T) {
	in := `<div><span>Hi</span> <strong>there</strong></div>`
	require.False(t, Trusted(in))

	out := FromHTML(in)
	assert.Contains(t, out, "**there**")
	assert.NotContains(t, out, "<span")
	assert.NotContains(t, out, "<div")
}

func TestFromHTMLEmpty(t *testing.T) {
	assert.Equal(t, "", FromHTML("   "))
}

func TestToHTML(t *testing.T) {
	out, err := ToHTML("# Hi\n\nSome *text*.")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Hi</h1>")
	assert.Contains(t, out, "<em>text</em>")
}

func TestPostBodyAndHTML(t *testing.T) {
	md := &models.BlogPost{Content: "## Sub", ContentFormat: models.ContentFormatMarkdown}
	assert.Equal(t, "## Sub", PostBody(md))
	assert.Contains(t, PostHTML(md), "<h2>Sub</h2>")

	h := &models.BlogPost{Content: "<h2>Sub</h2>", ContentFormat: models.ContentFormatHTML}
	assert.Equal(t, "## Sub", PostBody(h))
	assert.Equal(t, "<h2>Sub</h2>", PostHTML(h))
}

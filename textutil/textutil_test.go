package textutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	in := `<h2>Intro</h2><p>Fast &amp; <strong>safe</strong>.</p><script>alert(1)</script><style>p{}</style><p>Done</p>`
	assert.Equal(t, "Intro Fast & safe. Done", StripHTML(in))
	assert.Equal(t, "plain text", StripHTML("  plain   text "))
	assert.Equal(t, "", StripHTML(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Hello…", Truncate("Hello world this is long", 10))

	got := Truncate("ümlaut ümlaut ümlaut ümlaut", 8)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 8)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "", Truncate("anything", 0))
}

func TestWordCountAndReadingTime(t *testing.T) {
	assert.Equal(t, 3, WordCount(" one two\nthree "))
	assert.Equal(t, 1, ReadingTime(0))
	assert.Equal(t, 1, ReadingTime(200))
	assert.Equal(t, 2, ReadingTime(201))
}

func TestSentences(t *testing.T) {
	got := Sentences("Go is fast. Is it simple? Yes! v1.2 ships soon")
	assert.Equal(t, []string{"Go is fast.", "Is it simple?", "Yes!", "v1.2 ships soon"}, got)
	assert.Nil(t, Sentences("   "))
}

func TestExtractImages(t *testing.T) {
	in := `<p><img src="/a.png" alt="A" width="640" height="480"></p><img src="/a.png"><IMG SRC="https://cdn.example/b.jpg" title="B"/><img alt="no src">`
	images := ExtractImages(in)
	require.Len(t, images, 2)
	assert.Equal(t, "/a.png", images[0].URL)
	assert.Equal(t, "A", images[0].Alt)
	assert.Equal(t, 640, images[0].Width)
	assert.Equal(t, 480, images[0].Height)
	assert.Equal(t, "https://cdn.example/b.jpg", images[1].URL)
	assert.Equal(t, "B", images[1].Title)
	assert.Nil(t, ExtractImages("<p>no images</p>"))
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://acme.example/"
	assert.Equal(t, "https://acme.example/a.png", AbsoluteURL(base, "/a.png"))
	assert.Equal(t, "https://acme.example/a.png", AbsoluteURL(base, "a.png"))
	assert.Equal(t, "https://cdn.example/a.png", AbsoluteURL(base, "https://cdn.example/a.png"))
	assert.Equal(t, "", AbsoluteURL(base, ""))
}

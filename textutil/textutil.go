// Package textutil extracts plain text, images and simple statistics from stored post bodies.
package textutil

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"sitecms/models"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)
	spaces      = regexp.MustCompile(`\s+`)
)

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "tr": true, "td": true, "th": true,
	"section": true, "article": true, "header": true, "footer": true, "hr": true,
}

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed.
// Script and style contents are dropped; entities are decoded.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; keep what was read
			return strings.TrimSpace(spaces.ReplaceAllString(b.String(), " "))
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		}
	}
}

// Truncate shortens s to at most max runes, preferring a word boundary, and appends "…" when cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	cut := runes[:max-1]
	for i := len(cut) - 1; i > len(cut)/2; i-- {
		if unicode.IsSpace(cut[i]) {
			cut = cut[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(cut), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime returns whole minutes at WordsPerMinute, never less than 1.
func ReadingTime(words int) int {
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Sentences splits text on runs of '.', '!' or '?' followed by whitespace or end of text.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[last:loc[1]])
		if sentence != "" {
			out = append(out, sentence)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// ExtractImages returns the <img> elements of an HTML fragment in document order, skipping
// images without src and duplicate sources.
func ExtractImages(s string) []models.Image {
	if !strings.Contains(s, "<img") && !strings.Contains(s, "<IMG") {
		return nil
	}
	var images []models.Image
	seen := map[string]bool{}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return images
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "img" || !hasAttr {
			continue
		}
		var img models.Image
		for {
			key, val, more := z.TagAttr()
			switch string(key) {
			case "src":
				img.URL = strings.TrimSpace(string(val))
			case "alt":
				img.Alt = string(val)
			case "title":
				img.Title = string(val)
			case "width":
				img.Width, _ = strconv.Atoi(string(val))
			case "height":
				img.Height, _ = strconv.Atoi(string(val))
			}
			if !more {
				break
			}
		}
		if img.URL == "" || seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		images = append(images, img)
	}
}

// AbsoluteURL resolves a root-relative or relative href against baseURL.
func AbsoluteURL(baseURL, href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"), strings.HasPrefix(href, "//"):
		return href
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(baseURL, "/") + href
	default:
		return strings.TrimRight(baseURL, "/") + "/" + href
	}
}

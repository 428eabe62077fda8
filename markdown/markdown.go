// Package markdown converts post bodies between HTML and Markdown.
//
// FromHTML handles the trusted tag subset produced by the admin editor with a fixed chain of
// substitutions. Input containing any other element is handed to html-to-markdown instead of
// growing the chain.
package markdown

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"sitecms/models"
)

var trustedTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "br": true, "strong": true, "b": true, "em": true, "i": true,
	"a": true, "ul": true, "ol": true, "li": true, "code": true, "pre": true,
	"blockquote": true, "img": true, "hr": true,
}

var (
	tagName    = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)`)
	preCode    = regexp.MustCompile(`(?is)<pre[^>]*>\s*<code[^>]*>(.*?)</code>\s*</pre>`)
	pre        = regexp.MustCompile(`(?is)<pre[^>]*>(.*?)</pre>`)
	heading    = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]>`)
	strong     = regexp.MustCompile(`(?is)<(?:strong|b)(?:\s[^>]*)?>(.*?)</(?:strong|b)>`)
	em         = regexp.MustCompile(`(?is)<(?:em|i)(?:\s[^>]*)?>(.*?)</(?:em|i)>`)
	code       = regexp.MustCompile(`(?is)<code[^>]*>(.*?)</code>`)
	img        = regexp.MustCompile(`(?is)<img\s[^>]*>`)
	attrSrc    = regexp.MustCompile(`(?i)\ssrc\s*=\s*["']([^"']*)["']`)
	attrAlt    = regexp.MustCompile(`(?i)\salt\s*=\s*["']([^"']*)["']`)
	link       = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*["']([^"']*)["'][^>]*>(.*?)</a>`)
	blockquote = regexp.MustCompile(`(?is)<blockquote[^>]*>(.*?)</blockquote>`)
	ulist      = regexp.MustCompile(`(?is)<ul[^>]*>(.*?)</ul>`)
	olist      = regexp.MustCompile(`(?is)<ol[^>]*>(.*?)</ol>`)
	listItem   = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)
	br         = regexp.MustCompile(`(?i)<br\s*/?>`)
	hr         = regexp.MustCompile(`(?i)<hr\s*/?>`)
	paragraph  = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	anyTag     = regexp.MustCompile(`(?s)<[^>]+>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// entities is the fixed decode table applied after tag substitution.
var entities = strings.NewReplacer(
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&apos;", "'",
	"&hellip;", "…",
	"&mdash;", "—",
	"&ndash;", "–",
	"&rsquo;", "’",
	"&lsquo;", "‘",
	"&rdquo;", "”",
	"&ldquo;", "“",
	"&copy;", "©",
	"&amp;", "&",
)

// Trusted reports whether every element in s belongs to the subset FromHTML converts itself.
func Trusted(s string) bool {
	for _, m := range tagName.FindAllStringSubmatch(s, -1) {
		if !trustedTags[strings.ToLower(m[1])] {
			return false
		}
	}
	return true
}

// FromHTML converts an HTML fragment to Markdown.
func FromHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if !Trusted(s) {
		md, err := htmltomarkdown.ConvertString(s)
		if err == nil {
			return strings.TrimSpace(md)
		}
		// fall through to the substitution chain on converter failure
	}
	return convertTrusted(s)
}

func convertTrusted(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	s = preCode.ReplaceAllString(s, "\n\n```\n$1\n```\n\n")
	s = pre.ReplaceAllString(s, "\n\n```\n$1\n```\n\n")
	s = heading.ReplaceAllStringFunc(s, func(m string) string {
		sub := heading.FindStringSubmatch(m)
		level, _ := strconv.Atoi(sub[1])
		return "\n\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(sub[2]) + "\n\n"
	})
	s = strong.ReplaceAllString(s, "**$1**")
	s = em.ReplaceAllString(s, "*$1*")
	s = code.ReplaceAllString(s, "`$1`")
	s = img.ReplaceAllStringFunc(s, func(m string) string {
		src := attrSrc.FindStringSubmatch(m)
		if src == nil {
			return ""
		}
		alt := ""
		if a := attrAlt.FindStringSubmatch(m); a != nil {
			alt = a[1]
		}
		return "![" + alt + "](" + src[1] + ")"
	})
	s = link.ReplaceAllString(s, "[$2]($1)")
	s = blockquote.ReplaceAllStringFunc(s, func(m string) string {
		inner := blockquote.FindStringSubmatch(m)[1]
		inner = strings.TrimSpace(paragraph.ReplaceAllString(inner, "$1\n"))
		lines := strings.Split(inner, "\n")
		for i, l := range lines {
			lines[i] = "> " + strings.TrimSpace(l)
		}
		return "\n\n" + strings.Join(lines, "\n") + "\n\n"
	})
	s = ulist.ReplaceAllStringFunc(s, func(m string) string {
		return "\n\n" + listItems(ulist.FindStringSubmatch(m)[1], false) + "\n\n"
	})
	s = olist.ReplaceAllStringFunc(s, func(m string) string {
		return "\n\n" + listItems(olist.FindStringSubmatch(m)[1], true) + "\n\n"
	})
	s = br.ReplaceAllString(s, "  \n")
	s = hr.ReplaceAllString(s, "\n\n---\n\n")
	s = paragraph.ReplaceAllString(s, "\n\n$1\n\n")
	s = anyTag.ReplaceAllString(s, "")
	s = entities.Replace(s)
	s = blankLines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

func listItems(inner string, ordered bool) string {
	var lines []string
	for i, m := range listItem.FindAllStringSubmatch(inner, -1) {
		marker := "- "
		if ordered {
			marker = strconv.Itoa(i+1) + ". "
		}
		lines = append(lines, marker+strings.TrimSpace(m[1]))
	}
	return strings.Join(lines, "\n")
}

var renderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ToHTML renders Markdown to HTML.
func ToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PostBody returns the post body as Markdown regardless of how it was authored.
func PostBody(p *models.BlogPost) string {
	if p.ContentFormat == models.ContentFormatMarkdown {
		return strings.TrimSpace(p.Content)
	}
	return FromHTML(p.Content)
}

// PostHTML returns the post body as HTML. Markdown that fails to render is returned as-is.
func PostHTML(p *models.BlogPost) string {
	if p.ContentFormat != models.ContentFormatMarkdown {
		return p.Content
	}
	out, err := ToHTML(p.Content)
	if err != nil {
		return p.Content
	}
	return out
}

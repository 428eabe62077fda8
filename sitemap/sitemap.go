// Package sitemap renders sitemaps.org documents: the web urlset, the sitemap index used once the
// protocol limits are exceeded, Google image and news extensions, and robots.txt.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"sitecms/config"
	"sitecms/models"
	"sitecms/siteurl"
	"sitecms/textutil"
)

const (
	xmlnsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xmlnsImage   = "http://www.google.com/schemas/sitemap-image/1.1"
	xmlnsNews    = "http://www.google.com/schemas/sitemap-news/0.9"

	// protocol limits per file
	MaxURLs  = 50000
	MaxBytes = 50 * 1024 * 1024
)

// Entry is one <url> of the web sitemap.
type Entry struct {
	Loc        string
	LastMod    time.Time
	ChangeFreq string
	Priority   float64
}

// Sources are the published documents a sitemap is built from.
type Sources struct {
	Posts      []models.BlogPost
	Categories []models.BlogCategory
	Tags       []models.BlogTag
	Pages      []models.Page
	Events     []models.Event
}

// Entries lists every public URL of the site. Unpublished or slugless documents are skipped.
func Entries(site config.SiteConfig, src Sources) []Entry {
	base := site.BaseURL
	latest := latestPost(src.Posts)

	out := []Entry{
		{Loc: siteurl.Home(base), LastMod: latest, ChangeFreq: "daily", Priority: 1.0},
		{Loc: siteurl.BlogIndex(base), LastMod: latest, ChangeFreq: "daily", Priority: 0.9},
	}
	if len(src.Events) > 0 {
		out = append(out, Entry{Loc: siteurl.Events(base), ChangeFreq: "weekly", Priority: 0.6})
	}
	for _, p := range src.Posts {
		if !p.IsPublished || p.Slug == "" {
			continue
		}
		if p.SEO.NoIndex {
			continue
		}
		out = append(out, Entry{Loc: siteurl.Post(base, p.Slug), LastMod: p.UpdatedAt, ChangeFreq: "weekly", Priority: 0.8})
	}
	for _, c := range src.Categories {
		if c.Slug == "" {
			continue
		}
		out = append(out, Entry{Loc: siteurl.Category(base, c.Slug), LastMod: c.UpdatedAt, ChangeFreq: "weekly", Priority: 0.6})
	}
	for _, t := range src.Tags {
		if t.Slug == "" {
			continue
		}
		out = append(out, Entry{Loc: siteurl.Tag(base, t.Slug), LastMod: t.UpdatedAt, ChangeFreq: "weekly", Priority: 0.5})
	}
	for _, pg := range src.Pages {
		if !pg.IsPublished || pg.Slug == "" || pg.Slug == siteurl.HomePageSlug || pg.SEO.NoIndex {
			continue
		}
		out = append(out, Entry{Loc: siteurl.Page(base, pg.Slug), LastMod: pg.UpdatedAt, ChangeFreq: "monthly", Priority: 0.7})
	}
	for _, e := range src.Events {
		if e.Status != models.EventStatusPublished || e.Slug == "" {
			continue
		}
		out = append(out, Entry{Loc: siteurl.Event(base, e.Slug), LastMod: e.UpdatedAt, ChangeFreq: "weekly", Priority: 0.6})
	}
	return out
}

func latestPost(posts []models.BlogPost) time.Time {
	var t time.Time
	for _, p := range posts {
		if p.IsPublished && p.UpdatedAt.After(t) {
			t = p.UpdatedAt
		}
	}
	return t
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []urlXML `xml:"url"`
}

type urlXML struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

func (e Entry) xml() urlXML {
	u := urlXML{Loc: e.Loc, ChangeFreq: e.ChangeFreq}
	if !e.LastMod.IsZero() {
		u.LastMod = lastMod(e.LastMod)
	}
	if e.Priority > 0 {
		u.Priority = fmt.Sprintf("%.1f", e.Priority)
	}
	return u
}

func lastMod(t time.Time) string { return t.UTC().Format(time.RFC3339) }

// URLSet renders entries as a single <urlset>.
func URLSet(entries []Entry) ([]byte, error) {
	set := urlSet{XMLNS: xmlnsSitemap, URLs: make([]urlXML, 0, len(entries))}
	for _, e := range entries {
		set.URLs = append(set.URLs, e.xml())
	}
	return encode(set)
}

// Limits bound a single sitemap file. Zero values take the protocol maximums.
type Limits struct {
	MaxURLs  int
	MaxBytes int
}

func (l Limits) normalize() Limits {
	if l.MaxURLs <= 0 || l.MaxURLs > MaxURLs {
		l.MaxURLs = MaxURLs
	}
	if l.MaxBytes <= 0 || l.MaxBytes > MaxBytes {
		l.MaxBytes = MaxBytes
	}
	return l
}

// LimitsFrom reads the sitemap limits from configuration.
func LimitsFrom(cfg config.SitemapConfig) Limits {
	return Limits{MaxURLs: cfg.MaxURLs, MaxBytes: cfg.MaxBytes}
}

var envelopeSize = func() int {
	b, _ := URLSet(nil)
	return len(b)
}()

// Paginate splits entries into chunks that each fit in one sitemap file. A single entry larger than
// the byte limit is an error.
func Paginate(entries []Entry, lim Limits) ([][]Entry, error) {
	lim = lim.normalize()
	var (
		pages [][]Entry
		cur   []Entry
		size  = envelopeSize
	)
	for _, e := range entries {
		b, err := xml.Marshal(e.xml())
		if err != nil {
			return nil, err
		}
		n := len(b)
		if envelopeSize+n > lim.MaxBytes {
			return nil, fmt.Errorf("sitemap entry %s exceeds %d bytes", e.Loc, lim.MaxBytes)
		}
		if len(cur) == lim.MaxURLs || size+n > lim.MaxBytes {
			pages = append(pages, cur)
			cur, size = nil, envelopeSize
		}
		cur = append(cur, e)
		size += n
	}
	if len(cur) > 0 || len(pages) == 0 {
		pages = append(pages, cur)
	}
	return pages, nil
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Index renders a <sitemapindex> pointing at /sitemaps/1..n. Each page's lastmod is its newest entry.
func Index(site config.SiteConfig, pages [][]Entry) ([]byte, error) {
	idx := sitemapIndex{XMLNS: xmlnsSitemap, Sitemaps: make([]sitemapRef, 0, len(pages))}
	for i, page := range pages {
		ref := sitemapRef{Loc: siteurl.SitemapPage(site.BaseURL, i+1)}
		var newest time.Time
		for _, e := range page {
			if e.LastMod.After(newest) {
				newest = e.LastMod
			}
		}
		if !newest.IsZero() {
			ref.LastMod = lastMod(newest)
		}
		idx.Sitemaps = append(idx.Sitemaps, ref)
	}
	return encode(idx)
}

type imageURLSet struct {
	XMLName    xml.Name      `xml:"urlset"`
	XMLNS      string        `xml:"xmlns,attr"`
	XMLNSImage string        `xml:"xmlns:image,attr"`
	URLs       []imageURLXML `xml:"url"`
}

type imageURLXML struct {
	Loc    string     `xml:"loc"`
	Images []imageXML `xml:"image:image"`
}

type imageXML struct {
	Loc     string `xml:"image:loc"`
	Title   string `xml:"image:title,omitempty"`
	Caption string `xml:"image:caption,omitempty"`
}

// Images renders the image sitemap: one <url> per published post that has a featured or inline
// image, with relative image URLs resolved against the site.
func Images(site config.SiteConfig, posts []models.BlogPost) ([]byte, error) {
	set := imageURLSet{XMLNS: xmlnsSitemap, XMLNSImage: xmlnsImage, URLs: []imageURLXML{}}
	for _, p := range posts {
		if !p.IsPublished || p.Slug == "" {
			continue
		}
		imgs := postImages(p)
		if len(imgs) == 0 {
			continue
		}
		u := imageURLXML{Loc: siteurl.Post(site.BaseURL, p.Slug)}
		for _, img := range imgs {
			u.Images = append(u.Images, imageXML{
				Loc:     textutil.AbsoluteURL(site.BaseURL, img.URL),
				Title:   img.Title,
				Caption: img.Alt,
			})
		}
		set.URLs = append(set.URLs, u)
	}
	return encode(set)
}

func postImages(p models.BlogPost) []models.Image {
	var out []models.Image
	seen := map[string]bool{}
	add := func(img models.Image) {
		if img.URL == "" || seen[img.URL] {
			return
		}
		seen[img.URL] = true
		out = append(out, img)
	}
	if p.FeaturedImage != nil {
		add(*p.FeaturedImage)
	}
	for _, img := range p.Images {
		add(img)
	}
	if p.ContentFormat != models.ContentFormatMarkdown {
		for _, img := range textutil.ExtractImages(p.Content) {
			add(img)
		}
	}
	return out
}

type newsURLSet struct {
	XMLName   xml.Name     `xml:"urlset"`
	XMLNS     string       `xml:"xmlns,attr"`
	XMLNSNews string       `xml:"xmlns:news,attr"`
	URLs      []newsURLXML `xml:"url"`
}

type newsURLXML struct {
	Loc  string  `xml:"loc"`
	News newsXML `xml:"news:news"`
}

type newsXML struct {
	Publication newsPublication `xml:"news:publication"`
	Date        string          `xml:"news:publication_date"`
	Title       string          `xml:"news:title"`
	Keywords    string          `xml:"news:keywords,omitempty"`
}

type newsPublication struct {
	Name     string `xml:"news:name"`
	Language string `xml:"news:language"`
}

// NewsOptions bound the news sitemap.
type NewsOptions struct {
	Now    time.Time
	MaxAge time.Duration
	Limit  int
}

// News renders the Google News sitemap: posts published within MaxAge of Now, newest first as given,
// at most Limit entries.
func News(site config.SiteConfig, posts []models.BlogPost, opt NewsOptions) ([]byte, error) {
	if opt.MaxAge <= 0 {
		opt.MaxAge = 48 * time.Hour
	}
	if opt.Limit <= 0 || opt.Limit > 1000 {
		opt.Limit = 1000
	}
	lang := site.Language
	if lang == "" {
		lang = "en"
	}
	cutoff := opt.Now.Add(-opt.MaxAge)

	set := newsURLSet{XMLNS: xmlnsSitemap, XMLNSNews: xmlnsNews, URLs: []newsURLXML{}}
	for _, p := range posts {
		if len(set.URLs) == opt.Limit {
			break
		}
		if !p.IsPublished || p.Slug == "" || p.PublishedAt == nil || p.PublishedAt.Before(cutoff) {
			continue
		}
		n := newsXML{
			Publication: newsPublication{Name: site.Name, Language: lang},
			Date:        lastMod(*p.PublishedAt),
			Title:       p.Title,
		}
		if len(p.SEO.Keywords) > 0 {
			n.Keywords = strings.Join(p.SEO.Keywords, ", ")
		}
		set.URLs = append(set.URLs, newsURLXML{Loc: siteurl.Post(site.BaseURL, p.Slug), News: n})
	}
	return encode(set)
}

// Robots renders robots.txt with the sitemap directives for the site.
func Robots(site config.SiteConfig) string {
	base := site.BaseURL
	return fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/v1/admin/\nDisallow: /swagger/\n\nSitemap: %s\nSitemap: %s\nSitemap: %s\n",
		siteurl.Sitemap(base), siteurl.ImageSitemap(base), siteurl.NewsSitemap(base))
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package feeds

import (
	"encoding/xml"
	"time"

	"sitecms/config"
	"sitecms/siteurl"
	"sitecms/textutil"
)

type atomFeed struct {
	XMLName   xml.Name    `xml:"feed"`
	XMLNS     string      `xml:"xmlns,attr"`
	Title     string      `xml:"title"`
	Subtitle  string      `xml:"subtitle,omitempty"`
	ID        string      `xml:"id"`
	Updated   string      `xml:"updated"`
	Links     []atomLink  `xml:"link"`
	Author    *atomAuthor `xml:"author,omitempty"`
	Generator string      `xml:"generator"`
	Icon      string      `xml:"icon,omitempty"`
	Entries   []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomText struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type atomEntry struct {
	Title      string         `xml:"title"`
	ID         string         `xml:"id"`
	Links      []atomLink     `xml:"link"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Author     *atomAuthor    `xml:"author,omitempty"`
	Categories []atomCategory `xml:"category"`
	Summary    *atomText      `xml:"summary,omitempty"`
	Content    *atomText      `xml:"content,omitempty"`
}

// Atom renders an Atom 1.0 document. HTML content is carried as escaped text with type="html".
func Atom(site config.SiteConfig, ch Channel, entries []Entry) ([]byte, error) {
	ch = ch.Normalize(site)
	its := items(site, ch, entries)

	feed := atomFeed{
		XMLNS:     "http://www.w3.org/2005/Atom",
		Title:     ch.Title,
		Subtitle:  ch.Description,
		ID:        ch.Link,
		Updated:   lastUpdated(ch, its).Format(time.RFC3339),
		Links:     []atomLink{{Href: ch.Link, Rel: "alternate", Type: "text/html"}},
		Generator: generator,
		Entries:   make([]atomEntry, 0, len(its)),
	}
	if ch.SelfURL != "" {
		feed.Links = append(feed.Links, atomLink{Href: ch.SelfURL, Rel: "self", Type: "application/atom+xml"})
	}
	if name := firstNonEmpty(site.DefaultAuthor, site.Name); name != "" {
		feed.Author = &atomAuthor{Name: name}
	}
	if site.Logo != "" {
		feed.Icon = textutil.AbsoluteURL(site.BaseURL, site.Logo)
	}
	if feed.ID == "" {
		feed.ID = siteurl.Home(site.BaseURL)
	}

	for _, it := range its {
		e := atomEntry{
			Title:     it.title,
			ID:        it.url,
			Links:     []atomLink{{Href: it.url, Rel: "alternate", Type: "text/html"}},
			Published: it.published.Format(time.RFC3339),
			Updated:   it.updated.Format(time.RFC3339),
		}
		if it.author != "" {
			e.Author = &atomAuthor{Name: it.author}
		}
		for _, c := range it.categories {
			e.Categories = append(e.Categories, atomCategory{Term: c})
		}
		if it.description != "" {
			e.Summary = &atomText{Type: "text", Value: it.description}
		}
		if it.contentHTML != "" {
			e.Content = &atomText{Type: "html", Value: it.contentHTML}
		}
		if it.image != nil {
			e.Links = append(e.Links, atomLink{Href: it.image.URL, Rel: "enclosure", Type: imageType(it.image.URL)})
		}
		feed.Entries = append(feed.Entries, e)
	}
	return encodeXML(feed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

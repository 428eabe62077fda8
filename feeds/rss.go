package feeds

import (
	"bytes"
	"encoding/xml"
	"time"

	"sitecms/config"
	"sitecms/textutil"
)

type rssXML struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	DCNS      string     `xml:"xmlns:dc,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string       `xml:"title"`
	Link          string       `xml:"link"`
	Description   string       `xml:"description"`
	Language      string       `xml:"language,omitempty"`
	LastBuildDate string       `xml:"lastBuildDate,omitempty"`
	Generator     string       `xml:"generator"`
	AtomLink      *rssAtomLink `xml:"atom:link,omitempty"`
	Image         *rssImage    `xml:"image,omitempty"`
	Items         []rssItem    `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssImage struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssContent struct {
	Value string `xml:",cdata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	GUID        rssGUID       `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Creator     string        `xml:"dc:creator,omitempty"`
	Categories  []string      `xml:"category"`
	Description string        `xml:"description"`
	Content     *rssContent   `xml:"content:encoded,omitempty"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
}

// RSS renders an RSS 2.0 document. Text fields are XML-escaped by the encoder; the full
// HTML body goes into a content:encoded CDATA section.
func RSS(site config.SiteConfig, ch Channel, entries []Entry) ([]byte, error) {
	ch = ch.Normalize(site)
	its := items(site, ch, entries)

	channel := rssChannel{
		Title:       ch.Title,
		Link:        ch.Link,
		Description: ch.Description,
		Language:    ch.Language,
		Generator:   generator,
		Items:       make([]rssItem, 0, len(its)),
	}
	if updated := lastUpdated(ch, its); !updated.IsZero() {
		channel.LastBuildDate = updated.Format(time.RFC1123Z)
	}
	if ch.SelfURL != "" {
		channel.AtomLink = &rssAtomLink{Href: ch.SelfURL, Rel: "self", Type: "application/rss+xml"}
	}
	if site.Logo != "" {
		channel.Image = &rssImage{URL: textutil.AbsoluteURL(site.BaseURL, site.Logo), Title: ch.Title, Link: ch.Link}
	}

	for _, it := range its {
		ri := rssItem{
			Title:       it.title,
			Link:        it.url,
			GUID:        rssGUID{IsPermaLink: "true", Value: it.url},
			PubDate:     it.published.Format(time.RFC1123Z),
			Creator:     it.author,
			Categories:  it.categories,
			Description: it.description,
		}
		if it.contentHTML != "" {
			ri.Content = &rssContent{Value: it.contentHTML}
		}
		if it.image != nil {
			ri.Enclosure = &rssEnclosure{URL: it.image.URL, Length: "0", Type: imageType(it.image.URL)}
		}
		channel.Items = append(channel.Items, ri)
	}

	doc := rssXML{
		Version:   "2.0",
		AtomNS:    "http://www.w3.org/2005/Atom",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		DCNS:      "http://purl.org/dc/elements/1.1/",
		Channel:   channel,
	}
	return encodeXML(doc)
}

func encodeXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

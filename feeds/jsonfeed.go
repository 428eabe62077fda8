package feeds

import (
	"encoding/json"
	"time"

	"sitecms/config"
	"sitecms/textutil"
)

const jsonFeedVersion = "https://jsonfeed.org/version/1.1"

type jsonFeed struct {
	Version     string       `json:"version"`
	Title       string       `json:"title"`
	HomePageURL string       `json:"home_page_url"`
	FeedURL     string       `json:"feed_url,omitempty"`
	Description string       `json:"description,omitempty"`
	Icon        string       `json:"icon,omitempty"`
	Language    string       `json:"language,omitempty"`
	Authors     []jsonAuthor `json:"authors,omitempty"`
	Items       []jsonItem   `json:"items"`
}

type jsonAuthor struct {
	Name string `json:"name"`
}

type jsonItem struct {
	ID            string       `json:"id"`
	URL           string       `json:"url"`
	Title         string       `json:"title"`
	ContentHTML   string       `json:"content_html"`
	Summary       string       `json:"summary,omitempty"`
	Image         string       `json:"image,omitempty"`
	DatePublished string       `json:"date_published"`
	DateModified  string       `json:"date_modified,omitempty"`
	Authors       []jsonAuthor `json:"authors,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
}

// JSON renders a JSON Feed 1.1 document.
func JSON(site config.SiteConfig, ch Channel, entries []Entry) ([]byte, error) {
	ch = ch.Normalize(site)
	its := items(site, ch, entries)

	feed := jsonFeed{
		Version:     jsonFeedVersion,
		Title:       ch.Title,
		HomePageURL: ch.Link,
		FeedURL:     ch.SelfURL,
		Description: ch.Description,
		Language:    ch.Language,
		Items:       make([]jsonItem, 0, len(its)),
	}
	if site.Logo != "" {
		feed.Icon = textutil.AbsoluteURL(site.BaseURL, site.Logo)
	}
	if name := firstNonEmpty(site.DefaultAuthor, site.Name); name != "" {
		feed.Authors = []jsonAuthor{{Name: name}}
	}

	for _, it := range its {
		ji := jsonItem{
			ID:            it.url,
			URL:           it.url,
			Title:         it.title,
			ContentHTML:   it.contentHTML,
			Summary:       it.description,
			DatePublished: it.published.Format(time.RFC3339),
			Tags:          it.categories,
		}
		if !it.updated.IsZero() {
			ji.DateModified = it.updated.Format(time.RFC3339)
		}
		if it.author != "" {
			ji.Authors = []jsonAuthor{{Name: it.author}}
		}
		if it.image != nil {
			ji.Image = it.image.URL
		}
		feed.Items = append(feed.Items, ji)
	}
	return json.MarshalIndent(feed, "", "  ")
}

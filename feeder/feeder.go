// Package feeder reads external RSS/Atom/JSON feeds for the admin import.
package feeder

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const DefaultTimeout = 15 * time.Second

type FeedItem struct {
	Title       string
	Link        string
	GUID        string
	Summary     string
	Content     string
	Author      string
	Categories  []string
	ImageURL    string
	PublishedAt time.Time
}

type Feed struct {
	Title string
	Link  string
	Items []FeedItem
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	Client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: DefaultTimeout}}
}

// Fetch parses the feed at feedURL.
// If limit is greater than 0, it returns only the first limit items.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string, limit int) (*Feed, error) {
	fp := gofeed.NewParser()
	if f.Client != nil {
		fp.Client = f.Client
	}

	parsed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}
	return convert(parsed, limit), nil
}

// Parse reads a feed document that is already in memory.
func Parse(body string, limit int) (*Feed, error) {
	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, err
	}
	return convert(parsed, limit), nil
}

func convert(parsed *gofeed.Feed, limit int) *Feed {
	out := &Feed{Title: parsed.Title, Link: parsed.Link}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		fi := FeedItem{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			GUID:        item.GUID,
			Summary:     item.Description,
			Content:     item.Content,
			Categories:  item.Categories,
			PublishedAt: published,
		}
		if item.Author != nil {
			fi.Author = item.Author.Name
		} else if len(item.Authors) > 0 && item.Authors[0] != nil {
			fi.Author = item.Authors[0].Name
		}
		if item.Image != nil {
			fi.ImageURL = item.Image.URL
		} else {
			for _, enc := range item.Enclosures {
				if enc != nil && strings.HasPrefix(enc.Type, "image/") {
					fi.ImageURL = enc.URL
					break
				}
			}
		}
		out.Items = append(out.Items, fi)
	}

	if limit > 0 && len(out.Items) > limit {
		out.Items = out.Items[:limit]
	}
	return out
}

// Body returns the richest HTML the item carries.
func (i FeedItem) Body() string {
	if strings.TrimSpace(i.Content) != "" {
		return i.Content
	}
	return i.Summary
}

package seo

import (
	"strings"
	"time"

	"sitecms/apperr"
	"sitecms/config"
	"sitecms/markdown"
	"sitecms/models"
	"sitecms/siteurl"
	"sitecms/textutil"
)

const schemaContext = "https://schema.org"

// Crumb is one BreadcrumbList element.
type Crumb struct {
	Name string
	URL  string
}

// Organization describes the publisher.
func Organization(site config.SiteConfig) map[string]any {
	data := map[string]any{
		"@type": "Organization",
		"@id":   siteurl.Home(site.BaseURL) + "#organization",
		"name":  firstNonEmpty(site.Organization, site.Name),
		"url":   siteurl.Home(site.BaseURL),
	}
	if site.Logo != "" {
		data["logo"] = map[string]any{
			"@type": "ImageObject",
			"url":   textutil.AbsoluteURL(site.BaseURL, site.Logo),
		}
	}
	if site.Twitter != "" {
		data["sameAs"] = []string{"https://twitter.com/" + strings.TrimPrefix(site.Twitter, "@")}
	}
	return data
}

// WebSite describes the site with a search action over the posts API.
func WebSite(site config.SiteConfig) map[string]any {
	data := map[string]any{
		"@context":  schemaContext,
		"@type":     "WebSite",
		"name":      site.Name,
		"url":       siteurl.Home(site.BaseURL),
		"publisher": map[string]any{"@id": siteurl.Home(site.BaseURL) + "#organization"},
		"potentialAction": map[string]any{
			"@type":       "SearchAction",
			"target":      siteurl.BlogIndex(site.BaseURL) + "?search={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	if site.Language != "" {
		data["inLanguage"] = site.Language
	}
	return data
}

// Breadcrumbs builds a BreadcrumbList with 1-based positions.
func Breadcrumbs(crumbs []Crumb) map[string]any {
	items := make([]map[string]any, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     c.URL,
		})
	}
	return map[string]any{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}

// PostBreadcrumbs is Home > Blog > [Category >] Post.
func PostBreadcrumbs(site config.SiteConfig, p *models.BlogPost, category *models.BlogCategory) []Crumb {
	crumbs := []Crumb{
		{Name: "Home", URL: siteurl.Home(site.BaseURL)},
		{Name: "Blog", URL: siteurl.BlogIndex(site.BaseURL)},
	}
	if category != nil && category.Slug != "" {
		crumbs = append(crumbs, Crumb{Name: category.Name, URL: siteurl.Category(site.BaseURL, category.Slug)})
	}
	return append(crumbs, Crumb{Name: p.Title, URL: siteurl.Post(site.BaseURL, p.Slug)})
}

// BlogPosting maps a post to schema.org BlogPosting.
func BlogPosting(site config.SiteConfig, p *models.BlogPost, category *models.BlogCategory, tags []models.BlogTag) (map[string]any, error) {
	if err := p.Renderable(); err != nil {
		return nil, err
	}
	postURL := siteurl.Post(site.BaseURL, p.Slug)
	body := textutil.StripHTML(markdown.PostHTML(p))
	data := map[string]any{
		"@context":      schemaContext,
		"@type":         "BlogPosting",
		"headline":      textutil.Truncate(p.Title, 110),
		"url":           postURL,
		"wordCount":     textutil.WordCount(body),
		"publisher":     Organization(site),
		"mainEntityOfPage": map[string]any{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	data["isAccessibleForFree"] = true
	if d := firstNonEmpty(p.SEO.MetaDescription, p.Excerpt); d != "" {
		data["description"] = d
	} else if body != "" {
		data["description"] = textutil.Truncate(body, DefaultDescriptionMax)
	}
	if name := firstNonEmpty(p.AuthorName, site.DefaultAuthor); name != "" {
		data["author"] = map[string]any{"@type": "Person", "name": name}
	}
	if p.PublishedAt != nil {
		data["datePublished"] = p.PublishedAt.UTC().Format(time.RFC3339)
	}
	if !p.UpdatedAt.IsZero() {
		data["dateModified"] = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if p.FeaturedImage != nil && p.FeaturedImage.URL != "" {
		img := map[string]any{"@type": "ImageObject", "url": textutil.AbsoluteURL(site.BaseURL, p.FeaturedImage.URL)}
		if p.FeaturedImage.Width > 0 && p.FeaturedImage.Height > 0 {
			img["width"] = p.FeaturedImage.Width
			img["height"] = p.FeaturedImage.Height
		}
		data["image"] = img
	}
	if category != nil {
		data["articleSection"] = category.Name
	}
	var keywords []string
	for _, t := range tags {
		keywords = append(keywords, t.Name)
	}
	if kw := dedup(p.SEO.Keywords, keywords); len(kw) > 0 {
		data["keywords"] = strings.Join(kw, ", ")
	}
	if site.Language != "" {
		data["inLanguage"] = site.Language
	}
	return data, nil
}

// PostGraph bundles BlogPosting, BreadcrumbList and Organization for /schema/:slug.
func PostGraph(site config.SiteConfig, p *models.BlogPost, category *models.BlogCategory, tags []models.BlogTag) (map[string]any, error) {
	posting, err := BlogPosting(site, p, category, tags)
	if err != nil {
		return nil, err
	}
	crumbs := Breadcrumbs(PostBreadcrumbs(site, p, category))
	for _, m := range []map[string]any{posting, crumbs} {
		delete(m, "@context")
	}
	return map[string]any{
		"@context": schemaContext,
		"@graph":   []map[string]any{posting, crumbs, Organization(site)},
	}, nil
}

// WebPage maps a site page to schema.org WebPage.
func WebPage(site config.SiteConfig, pg *models.Page) (map[string]any, error) {
	if pg == nil {
		return nil, apperr.NotFound("page not found")
	}
	if strings.TrimSpace(pg.Title) == "" {
		return nil, apperr.InvalidInput("page title is required")
	}
	data := map[string]any{
		"@context": schemaContext,
		"@type":    "WebPage",
		"name":     pg.Title,
		"url":      siteurl.Page(site.BaseURL, pg.Slug),
		"isPartOf": map[string]any{"@type": "WebSite", "url": siteurl.Home(site.BaseURL), "name": site.Name},
	}
	if d := firstNonEmpty(pg.SEO.MetaDescription, pg.Description); d != "" {
		data["description"] = d
	}
	if !pg.UpdatedAt.IsZero() {
		data["dateModified"] = pg.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return data, nil
}

// Event maps an event to schema.org Event.
func Event(site config.SiteConfig, e *models.Event) (map[string]any, error) {
	if e == nil {
		return nil, apperr.NotFound("event not found")
	}
	if strings.TrimSpace(e.Title) == "" || e.StartDate.IsZero() {
		return nil, apperr.InvalidInput("event title and start date are required")
	}
	data := map[string]any{
		"@context":  schemaContext,
		"@type":     "Event",
		"name":      e.Title,
		"url":       siteurl.Event(site.BaseURL, e.Slug),
		"startDate": e.StartDate.UTC().Format(time.RFC3339),
		"organizer": Organization(site),
	}
	if d := textutil.StripHTML(e.Description); d != "" {
		data["description"] = textutil.Truncate(d, DefaultDescriptionMax)
	}
	if e.EndDate != nil {
		data["endDate"] = e.EndDate.UTC().Format(time.RFC3339)
	}
	switch e.Status {
	case models.EventStatusCancelled:
		data["eventStatus"] = "https://schema.org/EventCancelled"
	default:
		data["eventStatus"] = "https://schema.org/EventScheduled"
	}
	if e.Location.Online {
		data["eventAttendanceMode"] = "https://schema.org/OnlineEventAttendanceMode"
		data["location"] = map[string]any{"@type": "VirtualLocation", "url": firstNonEmpty(e.Location.URL, e.RegistrationURL)}
	} else {
		data["eventAttendanceMode"] = "https://schema.org/OfflineEventAttendanceMode"
		loc := map[string]any{"@type": "Place", "name": e.Location.Name}
		if e.Location.Address != "" {
			loc["address"] = e.Location.Address
		}
		data["location"] = loc
	}
	if e.RegistrationURL != "" {
		data["offers"] = map[string]any{"@type": "Offer", "url": e.RegistrationURL}
	}
	if e.FeaturedImage != nil && e.FeaturedImage.URL != "" {
		data["image"] = textutil.AbsoluteURL(site.BaseURL, e.FeaturedImage.URL)
	}
	return data, nil
}

package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/apperr"
)

// PostStatus is the editorial lifecycle of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// ContentFormat tells formatters how to read BlogPost.Content.
type ContentFormat string

const (
	ContentFormatHTML     ContentFormat = "html"
	ContentFormatMarkdown ContentFormat = "markdown"
)

// Image is a featured or discovered image.
type Image struct {
	URL    string `bson:"url" json:"url"`
	Alt    string `bson:"alt,omitempty" json:"alt,omitempty"`
	Title  string `bson:"title,omitempty" json:"title,omitempty"`
	Width  int    `bson:"width,omitempty" json:"width,omitempty"`
	Height int    `bson:"height,omitempty" json:"height,omitempty"`
}

// AIOptimization holds the heuristic analysis stored on the post.
type AIOptimization struct {
	Keywords           []string  `bson:"keywords,omitempty" json:"keywords,omitempty"`
	Entities           []string  `bson:"entities,omitempty" json:"entities,omitempty"`
	Topics             []string  `bson:"topics,omitempty" json:"topics,omitempty"`
	Summary            string    `bson:"summary,omitempty" json:"summary,omitempty"`
	KeyPoints          []string  `bson:"key_points,omitempty" json:"key_points,omitempty"`
	ReadingTimeMinutes int       `bson:"reading_time_minutes,omitempty" json:"reading_time_minutes,omitempty"`
	ReadabilityScore   float64   `bson:"readability_score,omitempty" json:"readability_score,omitempty"`
	SEOScore           int       `bson:"seo_score,omitempty" json:"seo_score,omitempty"`
	ContentScore       int       `bson:"content_score,omitempty" json:"content_score,omitempty"`
	GeneratedAt        time.Time `bson:"generated_at,omitempty" json:"generated_at,omitempty"`
}

// Analytics are counters updated with atomic increments.
type Analytics struct {
	Views    int64 `bson:"views" json:"views"`
	Likes    int64 `bson:"likes" json:"likes"`
	Shares   int64 `bson:"shares" json:"shares"`
	Comments int64 `bson:"comments" json:"comments"`
}

// BlogPost represents an authored article
// Collection: blog_posts
//
// IsPublished mirrors Status == published; PublishedAt is set once, at first publish.
type BlogPost struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
	Title          string               `bson:"title" json:"title"`
	Slug           string               `bson:"slug" json:"slug"`
	Excerpt        string               `bson:"excerpt" json:"excerpt"`
	Content        string               `bson:"content" json:"content"`
	ContentFormat  ContentFormat        `bson:"content_format" json:"content_format"`
	Status         PostStatus           `bson:"status" json:"status"`
	IsPublished    bool                 `bson:"is_published" json:"is_published"`
	PublishedAt    *time.Time           `bson:"published_at,omitempty" json:"published_at,omitempty"`
	AuthorID       string               `bson:"author_id,omitempty" json:"author_id,omitempty"`
	AuthorName     string               `bson:"author_name,omitempty" json:"author_name,omitempty"`
	CategoryID     *primitive.ObjectID  `bson:"category_id,omitempty" json:"category_id,omitempty"`
	TagIDs         []primitive.ObjectID `bson:"tag_ids" json:"tag_ids"`
	FeaturedImage  *Image               `bson:"featured_image,omitempty" json:"featured_image,omitempty"`
	Images         []Image              `bson:"images,omitempty" json:"images,omitempty"`
	Featured       bool                 `bson:"featured" json:"featured"`
	AllowComments  bool                 `bson:"allow_comments" json:"allow_comments"`
	SEO            SEO                  `bson:"seo" json:"seo"`
	AIOptimization AIOptimization       `bson:"ai_optimization" json:"ai_optimization"`
	Analytics      Analytics            `bson:"analytics" json:"analytics"`
}

// SetStatus applies a status transition and keeps IsPublished and PublishedAt consistent.
func (p *BlogPost) SetStatus(s PostStatus, now time.Time) {
	p.Status = s
	p.IsPublished = s == PostStatusPublished
	if p.IsPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
}

// PublishedTime returns PublishedAt, falling back to CreatedAt.
func (p *BlogPost) PublishedTime() time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

// Renderable returns NOT_FOUND for a nil post and INVALID_INPUT when title or content is empty.
func (p *BlogPost) Renderable() error {
	if p == nil {
		return apperr.NotFound("post not found")
	}
	if strings.TrimSpace(p.Title) == "" {
		return apperr.InvalidInput("post title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return apperr.InvalidInput("post content is required")
	}
	return nil
}

// HasTag reports whether id is among the post's tags.
func (p *BlogPost) HasTag(id primitive.ObjectID) bool {
	for _, t := range p.TagIDs {
		if t == id {
			return true
		}
	}
	return false
}

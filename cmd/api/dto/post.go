package dto

import (
	"time"

	"sitecms/models"
)

type CategoryRefDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

type TagRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func NewCategoryRef(c *models.BlogCategory) *CategoryRefDTO {
	if c == nil {
		return nil
	}
	return &CategoryRefDTO{ID: c.ID.Hex(), Name: c.Name, Slug: c.Slug, Color: c.Color}
}

func NewTagRefs(tags []models.BlogTag) []TagRefDTO {
	out := make([]TagRefDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagRefDTO{ID: t.ID.Hex(), Name: t.Name, Slug: t.Slug})
	}
	return out
}

// PostSummaryDTO is a post in a listing; the body is left out.
type PostSummaryDTO struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Slug               string            `json:"slug"`
	Excerpt            string            `json:"excerpt"`
	Status             models.PostStatus `json:"status"`
	PublishedAt        *time.Time        `json:"published_at,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
	AuthorName         string            `json:"author_name,omitempty"`
	FeaturedImage      *models.Image     `json:"featured_image,omitempty"`
	Featured           bool              `json:"featured"`
	ReadingTimeMinutes int               `json:"reading_time_minutes"`
	Category           *CategoryRefDTO   `json:"category,omitempty"`
	Tags               []TagRefDTO       `json:"tags"`
	Analytics          models.Analytics  `json:"analytics"`
}

// PostDetailDTO is a single post with its body and SEO overrides.
type PostDetailDTO struct {
	PostSummaryDTO
	Content        string                `json:"content"`
	ContentFormat  models.ContentFormat  `json:"content_format"`
	AllowComments  bool                  `json:"allow_comments"`
	SEO            models.SEO            `json:"seo"`
	AIOptimization models.AIOptimization `json:"ai_optimization"`
	CreatedAt      time.Time             `json:"created_at"`
}

func NewPostSummary(p *models.BlogPost, cat *models.BlogCategory, tags []models.BlogTag, readingTime int) PostSummaryDTO {
	return PostSummaryDTO{
		ID:                 p.ID.Hex(),
		Title:              p.Title,
		Slug:               p.Slug,
		Excerpt:            p.Excerpt,
		Status:             p.Status,
		PublishedAt:        p.PublishedAt,
		UpdatedAt:          p.UpdatedAt,
		AuthorName:         p.AuthorName,
		FeaturedImage:      p.FeaturedImage,
		Featured:           p.Featured,
		ReadingTimeMinutes: readingTime,
		Category:           NewCategoryRef(cat),
		Tags:               NewTagRefs(tags),
		Analytics:          p.Analytics,
	}
}

func NewPostDetail(p *models.BlogPost, cat *models.BlogCategory, tags []models.BlogTag, readingTime int) PostDetailDTO {
	return PostDetailDTO{
		PostSummaryDTO: NewPostSummary(p, cat, tags, readingTime),
		Content:        p.Content,
		ContentFormat:  p.ContentFormat,
		AllowComments:  p.AllowComments,
		SEO:            p.SEO,
		AIOptimization: p.AIOptimization,
		CreatedAt:      p.CreatedAt,
	}
}

// PostInputDTO creates or fully replaces a post.
type PostInputDTO struct {
	Title         string               `json:"title" binding:"required,max=300" example:"Guía de Migración 2024"`
	Slug          string               `json:"slug,omitempty" binding:"max=120"`
	Excerpt       string               `json:"excerpt,omitempty" binding:"max=1000"`
	Content       string               `json:"content"`
	ContentFormat models.ContentFormat `json:"content_format,omitempty" binding:"omitempty,oneof=html markdown"`
	Status        models.PostStatus    `json:"status,omitempty" binding:"omitempty,oneof=draft published archived"`
	CategoryID    string               `json:"category_id,omitempty"`
	TagIDs        []string             `json:"tag_ids,omitempty"`
	FeaturedImage *models.Image        `json:"featured_image,omitempty"`
	Featured      bool                 `json:"featured"`
	AllowComments *bool                `json:"allow_comments,omitempty"`
	SEO           models.SEO           `json:"seo"`
}

// EngagementDTO is returned by view/like/share.
type EngagementDTO struct {
	Slug      string           `json:"slug"`
	Analytics models.Analytics `json:"analytics"`
}

// ImportFeedInputDTO imports an external feed as draft posts.
type ImportFeedInputDTO struct {
	URL        string `json:"url" binding:"required,url"`
	Limit      int    `json:"limit,omitempty" binding:"omitempty,min=1,max=100"`
	CategoryID string `json:"category_id,omitempty"`
}

type ImportResultDTO struct {
	Imported []PostSummaryDTO `json:"imported"`
	Skipped  []string         `json:"skipped"`
}

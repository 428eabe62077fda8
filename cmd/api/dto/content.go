package dto

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"sitecms/models"
)

type CategoryInputDTO struct {
	Name        string     `json:"name" binding:"required,max=120"`
	Slug        string     `json:"slug,omitempty" binding:"max=120"`
	Description string     `json:"description,omitempty" binding:"max=1000"`
	Color       string     `json:"color,omitempty" binding:"omitempty,max=32"`
	ParentID    string     `json:"parent_id,omitempty"`
	SEO         models.SEO `json:"seo"`
}

type TagInputDTO struct {
	Name        string `json:"name" binding:"required,max=80"`
	Slug        string `json:"slug,omitempty" binding:"max=120"`
	Description string `json:"description,omitempty" binding:"max=1000"`
}

type CommentInputDTO struct {
	AuthorName  string `json:"author_name" binding:"required,max=100"`
	AuthorEmail string `json:"author_email" binding:"required,email"`
	AuthorURL   string `json:"author_url,omitempty" binding:"omitempty,url"`
	Content     string `json:"content" binding:"required,max=5000"`
	ParentID    string `json:"parent_id,omitempty"`
}

type CommentStatusInputDTO struct {
	Status models.CommentStatus `json:"status" binding:"required,oneof=pending approved rejected spam"`
}

// CommentDTO is the public view of a comment; e-mail and IP are never exposed.
type CommentDTO struct {
	ID         string       `json:"id"`
	ParentID   string       `json:"parent_id,omitempty"`
	AuthorName string       `json:"author_name"`
	AuthorURL  string       `json:"author_url,omitempty"`
	Content    string       `json:"content"`
	CreatedAt  time.Time    `json:"created_at"`
	Replies    []CommentDTO `json:"replies"`
}

type PageInputDTO struct {
	Title       string     `json:"title" binding:"required,max=300"`
	Description string     `json:"description,omitempty"`
	Config      bson.M     `json:"config,omitempty"`
	SEO         models.SEO `json:"seo"`
	IsPublished bool       `json:"is_published"`
}

type EventInputDTO struct {
	Title           string               `json:"title" binding:"required,max=300"`
	Slug            string               `json:"slug,omitempty" binding:"max=120"`
	Description     string               `json:"description,omitempty"`
	StartDate       time.Time            `json:"start_date" binding:"required"`
	EndDate         *time.Time           `json:"end_date,omitempty"`
	Timezone        string               `json:"timezone,omitempty"`
	Location        models.EventLocation `json:"location"`
	RegistrationURL string               `json:"registration_url,omitempty" binding:"omitempty,url"`
	FeaturedImage   *models.Image        `json:"featured_image,omitempty"`
	Status          models.EventStatus   `json:"status,omitempty" binding:"omitempty,oneof=draft published cancelled"`
}

// ChatbotPublicDTO is what the site widget may read.
type ChatbotPublicDTO struct {
	Enabled        bool                `json:"enabled"`
	Name           string              `json:"name"`
	WelcomeMessage string              `json:"welcome_message"`
	Placeholder    string              `json:"placeholder"`
	Theme          models.ChatbotTheme `json:"theme"`
	QuickReplies   []string            `json:"quick_replies"`
}

func NewChatbotPublic(c *models.ChatbotConfig) ChatbotPublicDTO {
	replies := c.QuickReplies
	if replies == nil {
		replies = []string{}
	}
	return ChatbotPublicDTO{
		Enabled:        c.Enabled,
		Name:           c.Name,
		WelcomeMessage: c.WelcomeMessage,
		Placeholder:    c.Placeholder,
		Theme:          c.Theme,
		QuickReplies:   replies,
	}
}

type ChatbotInputDTO struct {
	Enabled        bool                `json:"enabled"`
	Name           string              `json:"name" binding:"required,max=80"`
	WelcomeMessage string              `json:"welcome_message" binding:"max=500"`
	Placeholder    string              `json:"placeholder" binding:"max=200"`
	SystemPrompt   string              `json:"system_prompt" binding:"max=8000"`
	Theme          models.ChatbotTheme `json:"theme"`
	QuickReplies   []string            `json:"quick_replies" binding:"max=10,dive,max=120"`
}

// AuthorDTO is the public author profile.
type AuthorDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	URL       string `json:"url,omitempty"`
}

type AuthorInputDTO struct {
	Name      string `json:"name" binding:"required,max=120"`
	Bio       string `json:"bio,omitempty" binding:"max=2000"`
	AvatarURL string `json:"avatar_url,omitempty" binding:"omitempty,url"`
	URL       string `json:"url,omitempty" binding:"omitempty,url"`
}

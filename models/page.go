package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Page is a singleton-per-slug marketing page
// Collection: pages
//
// Config holds presentational sections (colors, layout, blocks) and is stored as-is.
type Page struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
	Slug        string             `bson:"slug" json:"slug"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Config      bson.M             `bson:"config,omitempty" json:"config,omitempty"`
	SEO         SEO                `bson:"seo" json:"seo"`
	IsPublished bool               `bson:"is_published" json:"is_published"`
}

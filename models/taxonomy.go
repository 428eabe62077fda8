package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlogCategory groups posts
// Collection: blog_categories
//
// PostCount counts published posts and is maintained by post lifecycle transitions.
type BlogCategory struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
	Name        string              `bson:"name" json:"name"`
	Slug        string              `bson:"slug" json:"slug"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Color       string              `bson:"color,omitempty" json:"color,omitempty"`
	ParentID    *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	PostCount   int64               `bson:"post_count" json:"post_count"`
	SEO         SEO                 `bson:"seo" json:"seo"`
}

// BlogTag labels posts
// Collection: blog_tags
//
// UsageCount counts published posts carrying the tag.
type BlogTag struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	UsageCount  int64              `bson:"usage_count" json:"usage_count"`
}

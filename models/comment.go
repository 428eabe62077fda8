package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusRejected CommentStatus = "rejected"
	CommentStatusSpam     CommentStatus = "spam"
)

func (s CommentStatus) Valid() bool {
	switch s {
	case CommentStatusPending, CommentStatusApproved, CommentStatusRejected, CommentStatusSpam:
		return true
	}
	return false
}

// BlogComment is a reader comment awaiting or past moderation
// Collection: blog_comments
type BlogComment struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
	PostID      primitive.ObjectID  `bson:"post_id" json:"post_id"`
	ParentID    *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	AuthorName  string              `bson:"author_name" json:"author_name"`
	AuthorEmail string              `bson:"author_email" json:"author_email"`
	AuthorURL   string              `bson:"author_url,omitempty" json:"author_url,omitempty"`
	Content     string              `bson:"content" json:"content"`
	Status      CommentStatus       `bson:"status" json:"status"`
	IP          string              `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent   string              `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	Likes       int64               `bson:"likes" json:"likes"`
}

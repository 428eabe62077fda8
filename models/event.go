package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusCancelled:
		return true
	}
	return false
}

type EventLocation struct {
	Name    string `bson:"name,omitempty" json:"name,omitempty"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	URL     string `bson:"url,omitempty" json:"url,omitempty"`
	Online  bool   `bson:"online" json:"online"`
}

// Event is a webinar, meetup or conference listing
// Collection: events
type Event struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
	Title           string             `bson:"title" json:"title"`
	Slug            string             `bson:"slug" json:"slug"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	StartDate       time.Time          `bson:"start_date" json:"start_date"`
	EndDate         *time.Time         `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Timezone        string             `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Location        EventLocation      `bson:"location" json:"location"`
	RegistrationURL string             `bson:"registration_url,omitempty" json:"registration_url,omitempty"`
	FeaturedImage   *Image             `bson:"featured_image,omitempty" json:"featured_image,omitempty"`
	Status          EventStatus        `bson:"status" json:"status"`
}

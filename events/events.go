package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/models"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	PostPublished   EventType = "post.published"
	PostUnpublished EventType = "post.unpublished"
	PostArchived    EventType = "post.archived"
	PostDeleted     EventType = "post.deleted"
)

const (
	SourceAPI     = "api"
	SchemaVersion = "1"
)

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// PostEvent 포스트 상태 전이 이벤트. post_count/usage_count 갱신이 커밋된 뒤 발행된다.
type PostEvent struct {
	BaseEvent
	PostID      primitive.ObjectID   `json:"post_id"`
	Slug        string               `json:"slug"`
	Title       string               `json:"title"`
	URL         string               `json:"url"`
	Status      models.PostStatus    `json:"status"`
	CategoryID  *primitive.ObjectID  `json:"category_id,omitempty"`
	TagIDs      []primitive.ObjectID `json:"tag_ids"`
	PublishedAt *time.Time           `json:"published_at,omitempty"`
}

// NewPostEvent 포스트의 현재 상태로 이벤트를 만든다.
func NewPostEvent(t EventType, p *models.BlogPost, url string, now time.Time) PostEvent {
	tags := p.TagIDs
	if tags == nil {
		tags = []primitive.ObjectID{}
	}
	return PostEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      t,
			Timestamp: now.UTC(),
			Source:    SourceAPI,
			Version:   SchemaVersion,
		},
		PostID:      p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		URL:         url,
		Status:      p.Status,
		CategoryID:  p.CategoryID,
		TagIDs:      tags,
		PublishedAt: p.PublishedAt,
	}
}

// SerializeEvent 이벤트를 JSON으로 직렬화하고 타입 정보 반환
func SerializeEvent(event any) ([]byte, EventType, error) {
	var eventType EventType
	switch e := event.(type) {
	case PostEvent:
		eventType = e.Type
	case *PostEvent:
		eventType = e.Type
	default:
		return nil, "", fmt.Errorf("unknown event type: %T", event)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, eventType, nil
}

// DeserializeEvent 이벤트 타입에 따라 적절한 구조체로 역직렬화
func DeserializeEvent(eventType EventType, data []byte) (any, error) {
	var event any
	switch eventType {
	case PostPublished, PostUnpublished, PostArchived, PostDeleted:
		event = &PostEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

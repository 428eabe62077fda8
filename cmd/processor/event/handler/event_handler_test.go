package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/apperr"
	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/services"
	"sitecms/cmd/internal/eventbus"
	"sitecms/config"
	"sitecms/events"
	"sitecms/models"
	"sitecms/repositories/memory"
)

type stubOptimizer struct {
	calls []string
	err   error
}

func (s *stubOptimizer) OptimizeAI(_ context.Context, hexID string) (*models.AIOptimization, error) {
	s.calls = append(s.calls, hexID)
	if s.err != nil {
		return nil, s.err
	}
	return &models.AIOptimization{SEOScore: 50}, nil
}

func postEvent(t *testing.T, typ events.EventType, id primitive.ObjectID) eventbus.Event {
	t.Helper()
	evt := events.NewPostEvent(typ, &models.BlogPost{ID: id, Slug: "launch"}, "https://acme.example/blog/launch", time.Now())
	data, et, err := events.SerializeEvent(evt)
	require.NoError(t, err)
	return eventbus.Event{ID: evt.ID, Type: string(et), Payload: data}
}

func TestHandleRoutesByType(t *testing.T) {
	opt := &stubOptimizer{}
	h := NewEventHandlers(opt)
	id := primitive.NewObjectID()

	require.NoError(t, h.Handle(context.Background(), postEvent(t, events.PostPublished, id)))
	require.NoError(t, h.Handle(context.Background(), postEvent(t, events.PostArchived, id)))
	require.NoError(t, h.Handle(context.Background(), eventbus.Event{Type: "comment.created"}))
	require.NoError(t, h.Handle(context.Background(), eventbus.Event{Type: string(events.PostPublished), Payload: []byte("{")}))

	assert.Equal(t, []string{id.Hex()}, opt.calls)
}

func TestHandlePublishedErrors(t *testing.T) {
	id := primitive.NewObjectID()

	gone := NewEventHandlers(&stubOptimizer{err: apperr.NotFound("post not found")})
	assert.NoError(t, gone.Handle(context.Background(), postEvent(t, events.PostPublished, id)), "deleted posts are acknowledged")

	down := NewEventHandlers(&stubOptimizer{err: apperr.Upstream("optimize post", errors.New("timeout"))})
	assert.Error(t, down.Handle(context.Background(), postEvent(t, events.PostPublished, id)), "store errors are retried")
}

func TestPublishedEventStoresOptimization(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pub := &eventbus.MemoryPublisher{}
	site := config.SiteConfig{Name: "Acme", BaseURL: "https://acme.example", Language: "en"}
	posts := services.NewPostService(store, site, pub, "sitecms.content")

	created, err := posts.Create(ctx, dto.PostInputDTO{
		Title:   "Shipping the new pipeline",
		Content: "<h2>Why</h2><p>We rebuilt the ingestion pipeline around Kafka and Mongo.</p>",
		Status:  models.PostStatusPublished,
	}, services.Author{Name: "Ana"})
	require.NoError(t, err)

	published := pub.Events()
	require.NotEmpty(t, published)
	last := published[len(published)-1].Event
	require.Equal(t, string(events.PostPublished), last.Type)

	require.NoError(t, NewEventHandlers(posts).Handle(ctx, last))

	id, err := primitive.ObjectIDFromHex(created.ID)
	require.NoError(t, err)
	stored, err := store.Posts.FindByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, stored.AIOptimization.GeneratedAt.IsZero())
	assert.NotEmpty(t, stored.AIOptimization.Summary)
}

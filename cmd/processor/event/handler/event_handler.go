package handler

import (
	"context"

	"sitecms/apperr"
	"sitecms/cmd/internal/eventbus"
	"sitecms/cmd/internal/logger"
	"sitecms/events"
	"sitecms/models"
)

// Optimizer recomputes and stores the AI analysis of a post.
type Optimizer interface {
	OptimizeAI(ctx context.Context, hexID string) (*models.AIOptimization, error)
}

type EventHandlers struct {
	optimizer Optimizer
}

func NewEventHandlers(optimizer Optimizer) *EventHandlers {
	return &EventHandlers{optimizer: optimizer}
}

// Handle routes a content event by type. Types the processor does not act on are acknowledged.
func (h *EventHandlers) Handle(ctx context.Context, evt eventbus.Event) error {
	switch events.EventType(evt.Type) {
	case events.PostPublished:
		v, err := eventbus.DecodeJSON[events.PostEvent](evt)
		if err != nil {
			// 재시도해도 디코딩은 성공하지 않는다.
			logger.ErrorWithFields("malformed post event dropped", logger.Fields{"event_id": evt.ID, "error": err.Error()})
			return nil
		}
		return h.HandlePostPublished(ctx, &v)
	case events.PostDeleted:
		logger.InfoWithFields("post deleted", logger.Fields{"event_id": evt.ID})
		return nil
	default:
		return nil
	}
}

func (h *EventHandlers) HandlePostPublished(ctx context.Context, event *events.PostEvent) error {
	fields := logger.Fields{"event_id": event.ID, "post_id": event.PostID.Hex(), "slug": event.Slug}
	logger.InfoWithFields("optimizing published post", fields)

	opt, err := h.optimizer.OptimizeAI(ctx, event.PostID.Hex())
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		logger.WarnWithFields("post no longer exists, skipping optimization", fields)
		return nil
	}
	if err != nil {
		return err
	}

	fields["seo_score"] = opt.SEOScore
	fields["content_score"] = opt.ContentScore
	logger.InfoWithFields("post optimization stored", fields)
	return nil
}

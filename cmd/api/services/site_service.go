package services

import (
	"context"
	"strings"
	"time"

	"sitecms/apperr"
	"sitecms/cmd/api/dto"
	"sitecms/models"
	"sitecms/repositories"
	"sitecms/slug"
)

// PageService manages the singleton-per-slug marketing pages.
type PageService struct {
	store repositories.Store
}

func NewPageService(store repositories.Store) *PageService {
	return &PageService{store: store}
}

// Get returns a page. Unpublished pages are visible only with canReadDrafts.
func (s *PageService) Get(ctx context.Context, pageSlug string, canReadDrafts bool) (*models.Page, error) {
	p, err := s.store.Pages.FindBySlug(ctx, pageSlug)
	if err != nil {
		logStoreError(ctx, "get page", err)
		return nil, err
	}
	if !p.IsPublished && !canReadDrafts {
		return nil, apperr.NotFound("page not found")
	}
	return p, nil
}

func (s *PageService) List(ctx context.Context) ([]models.Page, error) {
	pages, err := s.store.Pages.List(ctx)
	logStoreError(ctx, "list pages", err)
	return pages, err
}

// Upsert creates or replaces the page at pageSlug.
func (s *PageService) Upsert(ctx context.Context, pageSlug string, in dto.PageInputDTO) (*models.Page, error) {
	if !slug.Valid(pageSlug) {
		return nil, apperr.InvalidInputf("invalid page slug %q", pageSlug)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.InvalidInput("page title is required")
	}
	p := &models.Page{
		Slug:        pageSlug,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Config:      in.Config,
		SEO:         in.SEO,
		IsPublished: in.IsPublished,
	}
	if err := s.store.Pages.Upsert(ctx, p); err != nil {
		logStoreError(ctx, "upsert page", err)
		return nil, err
	}
	return p, nil
}

func (s *PageService) Delete(ctx context.Context, pageSlug string) error {
	err := s.store.Pages.Delete(ctx, pageSlug)
	logStoreError(ctx, "delete page", err)
	return err
}

type EventService struct {
	store repositories.Store
	now   func() time.Time
}

func NewEventService(store repositories.Store) *EventService {
	return &EventService{store: store, now: utcNow}
}

// Upcoming lists published events that have not ended, soonest first.
func (s *EventService) Upcoming(ctx context.Context, page, limit int) (dto.Page[models.Event], error) {
	now := s.now()
	return s.list(ctx, repositories.EventListFilter{
		Status:    models.EventStatusPublished,
		EndsAfter: &now,
		Page:      page,
		Limit:     limit,
	})
}

// AdminList lists events of any status, optionally filtered by status.
func (s *EventService) AdminList(ctx context.Context, status string, page, limit int) (dto.Page[models.Event], error) {
	f := repositories.EventListFilter{Page: page, Limit: limit}
	if status != "" {
		st := models.EventStatus(status)
		if !st.Valid() {
			return dto.Page[models.Event]{}, apperr.InvalidInputf("unknown status %q", status)
		}
		f.Status = st
	}
	return s.list(ctx, f)
}

func (s *EventService) list(ctx context.Context, f repositories.EventListFilter) (dto.Page[models.Event], error) {
	f = f.Normalize()
	items, total, err := s.store.Events.List(ctx, f)
	if err != nil {
		logStoreError(ctx, "list events", err)
		return dto.Page[models.Event]{}, err
	}
	return dto.Page[models.Event]{Items: items, Pagination: dto.NewPagination(f.Page, f.Limit, total)}, nil
}

// GetBySlug returns a published or cancelled event. Drafts need canReadDrafts.
func (s *EventService) GetBySlug(ctx context.Context, eventSlug string, canReadDrafts bool) (*models.Event, error) {
	e, err := s.store.Events.FindBySlug(ctx, eventSlug)
	if err != nil {
		logStoreError(ctx, "get event", err)
		return nil, err
	}
	if e.Status == models.EventStatusDraft && !canReadDrafts {
		return nil, apperr.NotFound("event not found")
	}
	return e, nil
}

func (s *EventService) Create(ctx context.Context, in dto.EventInputDTO) (*models.Event, error) {
	e := &models.Event{}
	if err := s.apply(ctx, e, in, true); err != nil {
		return nil, err
	}
	if err := s.store.Events.Insert(ctx, e); err != nil {
		logStoreError(ctx, "create event", err)
		return nil, err
	}
	return e, nil
}

func (s *EventService) Update(ctx context.Context, hexID string, in dto.EventInputDTO) (*models.Event, error) {
	id, err := parseID(hexID, "event")
	if err != nil {
		return nil, err
	}
	e, err := s.store.Events.FindByID(ctx, id)
	if err != nil {
		logStoreError(ctx, "update event", err)
		return nil, err
	}
	if err := s.apply(ctx, e, in, false); err != nil {
		return nil, err
	}
	if err := s.store.Events.Replace(ctx, e); err != nil {
		logStoreError(ctx, "update event", err)
		return nil, err
	}
	return e, nil
}

func (s *EventService) Delete(ctx context.Context, hexID string) error {
	id, err := parseID(hexID, "event")
	if err != nil {
		return err
	}
	err = s.store.Events.Delete(ctx, id)
	logStoreError(ctx, "delete event", err)
	return err
}

func (s *EventService) apply(ctx context.Context, e *models.Event, in dto.EventInputDTO, creating bool) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperr.InvalidInput("event title is required")
	}
	if in.StartDate.IsZero() {
		return apperr.InvalidInput("event start_date is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return apperr.InvalidInput("event end_date is before start_date")
	}
	status := in.Status
	if status == "" {
		status = models.EventStatusDraft
	}
	if !status.Valid() {
		return apperr.InvalidInputf("unknown status %q", status)
	}
	excludeID := ""
	if !creating {
		excludeID = e.ID.Hex()
	}
	sl, err := taxonomySlug(ctx, s.store.Events, in.Slug, title, e.Slug, excludeID)
	if err != nil {
		return err
	}

	e.Title = title
	e.Slug = sl
	e.Description = in.Description
	e.StartDate = in.StartDate.UTC()
	e.EndDate = nil
	if in.EndDate != nil {
		end := in.EndDate.UTC()
		e.EndDate = &end
	}
	e.Timezone = in.Timezone
	e.Location = in.Location
	e.RegistrationURL = in.RegistrationURL
	e.FeaturedImage = in.FeaturedImage
	e.Status = status
	return nil
}

// ChatbotService reads and writes the chat widget configuration.
type ChatbotService struct {
	store repositories.Store
}

func NewChatbotService(store repositories.Store) *ChatbotService {
	return &ChatbotService{store: store}
}

// Public returns the widget view; the system prompt stays server-side.
func (s *ChatbotService) Public(ctx context.Context) (*dto.ChatbotPublicDTO, error) {
	cfg, err := s.store.Chatbot.Get(ctx)
	if err != nil {
		logStoreError(ctx, "get chatbot config", err)
		return nil, err
	}
	out := dto.NewChatbotPublic(cfg)
	return &out, nil
}

func (s *ChatbotService) Get(ctx context.Context) (*models.ChatbotConfig, error) {
	cfg, err := s.store.Chatbot.Get(ctx)
	logStoreError(ctx, "get chatbot config", err)
	return cfg, err
}

func (s *ChatbotService) Update(ctx context.Context, in dto.ChatbotInputDTO) (*models.ChatbotConfig, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput("chatbot name is required")
	}
	replies := make([]string, 0, len(in.QuickReplies))
	for _, r := range in.QuickReplies {
		if r = strings.TrimSpace(r); r != "" {
			replies = append(replies, r)
		}
	}
	cfg := &models.ChatbotConfig{
		ID:             models.ChatbotConfigID,
		Enabled:        in.Enabled,
		Name:           name,
		WelcomeMessage: in.WelcomeMessage,
		Placeholder:    in.Placeholder,
		SystemPrompt:   in.SystemPrompt,
		Theme:          in.Theme,
		QuickReplies:   replies,
	}
	if err := s.store.Chatbot.Save(ctx, cfg); err != nil {
		logStoreError(ctx, "save chatbot config", err)
		return nil, err
	}
	return cfg, nil
}

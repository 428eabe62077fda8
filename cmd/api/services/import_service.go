package services

import (
	"context"
	"errors"
	"strings"

	"sitecms/apperr"
	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/trace"
	"sitecms/cmd/internal/logger"
	"sitecms/feeder"
	"sitecms/models"
	"sitecms/slug"
	"sitecms/textutil"
)

const defaultImportLimit = 20

// FeedFetcher is satisfied by *feeder.Fetcher.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string, limit int) (*feeder.Feed, error)
}

// ImportService pulls an external RSS/Atom feed and stores its items as draft posts.
type ImportService struct {
	posts   *PostService
	fetcher FeedFetcher
}

func NewImportService(posts *PostService, fetcher FeedFetcher) *ImportService {
	if fetcher == nil {
		fetcher = feeder.NewFetcher()
	}
	return &ImportService{posts: posts, fetcher: fetcher}
}

// ImportFeed creates one draft per feed item. Items whose slug is already taken are skipped,
// so running the same import twice is harmless.
func (s *ImportService) ImportFeed(ctx context.Context, in dto.ImportFeedInputDTO, author Author) (*dto.ImportResultDTO, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultImportLimit
	}
	feed, err := s.fetcher.Fetch(ctx, in.URL, limit)
	if err != nil {
		logger.WarnWithFields("feed import fetch failed", trace.Fields(ctx, logger.Fields{"url": in.URL, "error": err.Error()}))
		return nil, apperr.InvalidInput("feed could not be fetched").WithCause(err)
	}

	res := &dto.ImportResultDTO{Imported: []dto.PostSummaryDTO{}, Skipped: []string{}}
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		taken, err := s.posts.store.Posts.SlugExists(ctx, slug.ToSlug(title), "")
		if err != nil {
			logStoreError(ctx, "import feed", err)
			return nil, err
		}
		if taken {
			res.Skipped = append(res.Skipped, title)
			continue
		}

		input := dto.PostInputDTO{
			Title:         title,
			Excerpt:       textutil.Truncate(textutil.StripHTML(item.Summary), excerptMax),
			Content:       item.Body(),
			ContentFormat: models.ContentFormatHTML,
			Status:        models.PostStatusDraft,
			CategoryID:    in.CategoryID,
		}
		if item.ImageURL != "" {
			input.FeaturedImage = &models.Image{URL: item.ImageURL, Alt: title}
		}
		if item.Link != "" {
			input.SEO.CanonicalURL = item.Link
		}
		created, err := s.posts.Create(ctx, input, author)
		if errors.Is(err, apperr.ErrConflict) {
			res.Skipped = append(res.Skipped, title)
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Imported = append(res.Imported, created.PostSummaryDTO)
	}

	logger.InfoWithFields("feed imported", trace.Fields(ctx, logger.Fields{
		"url":      in.URL,
		"imported": len(res.Imported),
		"skipped":  len(res.Skipped),
	}))
	return res, nil
}

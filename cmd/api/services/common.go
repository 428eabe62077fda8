package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"sitecms/apperr"
	"sitecms/cmd/api/trace"
	"sitecms/cmd/internal/logger"
	"sitecms/models"
	"sitecms/repositories"
	"sitecms/textutil"
)

// Author identifies the caller of an admin operation. It comes from verified token claims.
type Author struct {
	ID   string
	Name string
}

func utcNow() time.Time { return time.Now().UTC() }

// parseID converts a hex ObjectID coming from a path or body field.
func parseID(hex, entity string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInputf("invalid %s id", entity)
	}
	return id, nil
}

// withTx runs fn inside the store transaction, or directly when the store has none.
func withTx(ctx context.Context, store repositories.Store, fn func(ctx context.Context) error) error {
	if store.Tx == nil {
		return fn(ctx)
	}
	return store.Tx.WithTransaction(ctx, fn)
}

// logStoreError records an upstream failure with the request ids. Domain errors are not logged.
func logStoreError(ctx context.Context, op string, err error) {
	if err == nil || !errors.Is(err, apperr.ErrUpstreamStore) {
		return
	}
	logger.ErrorWithFields("content store call failed", trace.Fields(ctx, logger.Fields{
		"op":    op,
		"error": err.Error(),
	}))
}

func readingTime(p *models.BlogPost) int {
	if p.AIOptimization.ReadingTimeMinutes > 0 {
		return p.AIOptimization.ReadingTimeMinutes
	}
	return textutil.ReadingTime(textutil.WordCount(textutil.StripHTML(p.Content)))
}

// taxonomy resolves category and tag documents for a set of posts with two store reads.
type taxonomy struct {
	categories map[primitive.ObjectID]models.BlogCategory
	tags       map[primitive.ObjectID]models.BlogTag
}

func loadTaxonomy(ctx context.Context, store repositories.Store, posts []models.BlogPost) (*taxonomy, error) {
	tx := &taxonomy{
		categories: map[primitive.ObjectID]models.BlogCategory{},
		tags:       map[primitive.ObjectID]models.BlogTag{},
	}
	var tagIDs []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	needCategories := false
	for _, p := range posts {
		if p.CategoryID != nil {
			needCategories = true
		}
		for _, id := range p.TagIDs {
			if !seen[id] {
				seen[id] = true
				tagIDs = append(tagIDs, id)
			}
		}
	}
	if needCategories {
		cats, err := store.Categories.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range cats {
			tx.categories[c.ID] = c
		}
	}
	if len(tagIDs) > 0 {
		tags, err := store.Tags.FindByIDs(ctx, tagIDs)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			tx.tags[t.ID] = t
		}
	}
	return tx, nil
}

// of returns the category and tags of p. Dangling references are dropped.
func (t *taxonomy) of(p *models.BlogPost) (*models.BlogCategory, []models.BlogTag) {
	var cat *models.BlogCategory
	if p.CategoryID != nil {
		if c, ok := t.categories[*p.CategoryID]; ok {
			cat = &c
		}
	}
	tags := make([]models.BlogTag, 0, len(p.TagIDs))
	for _, id := range p.TagIDs {
		if tg, ok := t.tags[id]; ok {
			tags = append(tags, tg)
		}
	}
	return cat, tags
}

// publishedPost loads a post by slug and hides it unless it is published.
func publishedPost(ctx context.Context, store repositories.Store, slug string) (*models.BlogPost, error) {
	p, err := store.Posts.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished {
		return nil, apperr.NotFound("post not found")
	}
	return p, nil
}

// postRelations returns the category and tags of a single post.
func postRelations(ctx context.Context, store repositories.Store, p *models.BlogPost) (*models.BlogCategory, []models.BlogTag, error) {
	tx, err := loadTaxonomy(ctx, store, []models.BlogPost{*p})
	if err != nil {
		return nil, nil, err
	}
	cat, tags := tx.of(p)
	return cat, tags, nil
}

// allPublished lists every published post, newest first.
func allPublished(ctx context.Context, store repositories.Store) ([]models.BlogPost, error) {
	posts, _, err := store.Posts.List(ctx, repositories.PostListFilter{
		Status:  models.PostStatusPublished,
		Sort:    repositories.SortNewest,
		NoLimit: true,
	})
	return posts, err
}

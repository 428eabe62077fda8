package services

import (
	"context"
	"time"

	"sitecms/aicontent"
	"sitecms/cmd/api/metrics"
	"sitecms/config"
	"sitecms/models"
	"sitecms/repositories"
)

// AIService exposes published posts in machine-friendly forms for LLM crawlers.
type AIService struct {
	store repositories.Store
	site  config.SiteConfig
	rec   metrics.Recorder
	now   func() time.Time
}

func NewAIService(store repositories.Store, site config.SiteConfig, rec metrics.Recorder) *AIService {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &AIService{store: store, site: site, rec: rec, now: utcNow}
}

type aicontentInput struct {
	post *models.BlogPost
	rel  aicontent.Related
}

func (s *AIService) related(ctx context.Context, postSlug string) (*aicontentInput, error) {
	p, err := publishedPost(ctx, s.store, postSlug)
	if err != nil {
		logStoreError(ctx, "ai post", err)
		return nil, err
	}
	cat, tags, err := postRelations(ctx, s.store, p)
	if err != nil {
		logStoreError(ctx, "ai post", err)
		return nil, err
	}
	return &aicontentInput{post: p, rel: aicontent.Related{Site: s.site, Category: cat, Tags: tags}}, nil
}

func (s *AIService) Markdown(ctx context.Context, postSlug string) (string, error) {
	in, err := s.related(ctx, postSlug)
	if err != nil {
		return "", err
	}
	start := time.Now()
	out, err := aicontent.PostMarkdown(in.post, in.rel)
	s.rec.ObserveFormatter("ai_markdown", time.Since(start), err == nil)
	return out, err
}

func (s *AIService) Metadata(ctx context.Context, postSlug string) (*aicontent.PostMetadata, error) {
	in, err := s.related(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := aicontent.Metadata(in.post, in.rel, s.now())
	s.rec.ObserveFormatter("ai_metadata", time.Since(start), err == nil)
	return out, err
}

func (s *AIService) Analysis(ctx context.Context, postSlug string) (*aicontent.Analysis, error) {
	in, err := s.related(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := aicontent.Analyze(in.post)
	s.rec.ObserveFormatter("ai_analysis", time.Since(start), err == nil)
	return out, err
}

// LLMsTxt renders the llms.txt index of every published post.
func (s *AIService) LLMsTxt(ctx context.Context) (string, error) {
	posts, err := allPublished(ctx, s.store)
	if err != nil {
		logStoreError(ctx, "llms.txt", err)
		return "", err
	}
	cats, err := s.store.Categories.List(ctx)
	if err != nil {
		logStoreError(ctx, "llms.txt", err)
		return "", err
	}
	return aicontent.LLMsIndex(s.site, posts, cats), nil
}

func (s *AIService) ContentIndex(ctx context.Context) ([]aicontent.IndexEntry, error) {
	posts, err := allPublished(ctx, s.store)
	if err != nil {
		logStoreError(ctx, "content index", err)
		return nil, err
	}
	return aicontent.ContentIndex(s.site, posts), nil
}

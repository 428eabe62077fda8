package main

import (
	"context"
	"time"

	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/services"
	"sitecms/cmd/internal/logger"
	"sitecms/config"
)

// FeedImporter imports one external feed as draft posts.
type FeedImporter interface {
	ImportFeed(ctx context.Context, in dto.ImportFeedInputDTO, author services.Author) (*dto.ImportResultDTO, error)
}

// AggregateService RSS 피드 수집 서비스
type AggregateService struct {
	importer FeedImporter
	feeds    []config.FeedSource
}

func NewAggregateService(importer FeedImporter, feeds []config.FeedSource) *AggregateService {
	return &AggregateService{importer: importer, feeds: feeds}
}

// RunFeedCollection 설정된 모든 피드를 가져온다. 한 피드의 실패는 나머지를 막지 않는다.
func (s *AggregateService) RunFeedCollection(ctx context.Context) (imported int) {
	if len(s.feeds) == 0 {
		logger.WarnWithFields("no feeds configured in config.yaml (key: import.feeds)", nil)
		return 0
	}

	for _, feed := range s.feeds {
		if ctx.Err() != nil {
			return imported
		}
		fields := logger.Fields{"feed": feed.Name, "url": feed.URL}
		res, err := s.importer.ImportFeed(ctx, dto.ImportFeedInputDTO{
			URL:        feed.URL,
			Limit:      feed.Limit,
			CategoryID: feed.CategoryID,
		}, services.Author{Name: feed.Name})
		if err != nil {
			fields["error"] = err.Error()
			logger.ErrorWithFields("failed to collect posts from feed", fields)
			continue
		}
		fields["imported"] = len(res.Imported)
		fields["skipped"] = len(res.Skipped)
		logger.InfoWithFields("feed collected", fields)
		imported += len(res.Imported)
	}
	return imported
}

// nextRun 는 loc 기준 다음 자정이다.
func nextRun(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, loc)
}

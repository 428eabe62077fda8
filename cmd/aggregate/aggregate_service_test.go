package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/services"
	"sitecms/config"
)

type fakeImporter struct {
	inputs  []dto.ImportFeedInputDTO
	authors []string
	fail    map[string]error
}

func (f *fakeImporter) ImportFeed(_ context.Context, in dto.ImportFeedInputDTO, author services.Author) (*dto.ImportResultDTO, error) {
	f.inputs = append(f.inputs, in)
	f.authors = append(f.authors, author.Name)
	if err := f.fail[in.URL]; err != nil {
		return nil, err
	}
	return &dto.ImportResultDTO{Imported: []dto.PostSummaryDTO{{Slug: "a"}, {Slug: "b"}}, Skipped: []string{"c"}}, nil
}

func TestRunFeedCollectionContinuesPastFailures(t *testing.T) {
	imp := &fakeImporter{fail: map[string]error{"https://down.example/rss": errors.New("timeout")}}
	svc := NewAggregateService(imp, []config.FeedSource{
		{Name: "Down", URL: "https://down.example/rss"},
		{Name: "Eng", URL: "https://eng.example/rss", CategoryID: "65f000000000000000000001", Limit: 5},
	})

	assert.Equal(t, 2, svc.RunFeedCollection(context.Background()))
	require.Len(t, imp.inputs, 2)
	assert.Equal(t, dto.ImportFeedInputDTO{URL: "https://eng.example/rss", Limit: 5, CategoryID: "65f000000000000000000001"}, imp.inputs[1])
	assert.Equal(t, []string{"Down", "Eng"}, imp.authors)
}

func TestRunFeedCollectionStopsOnCancel(t *testing.T) {
	imp := &fakeImporter{}
	svc := NewAggregateService(imp, []config.FeedSource{{Name: "Eng", URL: "https://eng.example/rss"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Zero(t, svc.RunFeedCollection(ctx))
	assert.Empty(t, imp.inputs)
	assert.Zero(t, NewAggregateService(imp, nil).RunFeedCollection(context.Background()))
}

func TestNextRun(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	// 2026-03-01 16:30 UTC is already 01:30 on the 2nd in Seoul.
	now := time.Date(2026, 3, 1, 16, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, seoul), nextRun(now, seoul))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), nextRun(now, time.UTC))

	endOfMonth := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), nextRun(endOfMonth, time.UTC))
}

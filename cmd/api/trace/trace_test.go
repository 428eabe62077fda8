package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"sitecms/cmd/internal/logger"
)

func TestSpanSequence(t *testing.T) {
	ctx := WithRequestAndSpan(context.Background(), "req-1", 0)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "0", CurrentSpanID(ctx))

	_, first := NextSpanID(ctx)
	_, second := NextSpanID(ctx)
	assert.Equal(t, "1", first)
	assert.Equal(t, "2", second)
	assert.Equal(t, "2", CurrentSpanID(ctx))
}

func TestWithoutTraceInfo(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Equal(t, "0", CurrentSpanID(ctx))

	reqID, span := NextSpanID(ctx)
	assert.NotEmpty(t, reqID)
	assert.Equal(t, "1", span)
}

func TestFields(t *testing.T) {
	ctx := WithRequestAndSpan(context.Background(), "req-2", 0)
	f := Fields(ctx, logger.Fields{"slug": "hello"})
	assert.Equal(t, "req-2", f["request_id"])
	assert.Equal(t, "1", f["span_id"])
	assert.Equal(t, "hello", f["slug"])
}

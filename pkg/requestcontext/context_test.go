package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.Empty(t, Referrer(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestRoundTrip(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := WithClientMetadata(context.Background(), "198.51.100.4", "curl/8.0")
	ctx = WithReferrer(ctx, "https://news.example.org/")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, "198.51.100.4", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Equal(t, "https://news.example.org/", Referrer(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}

func TestValuesSurviveDetachedContext(t *testing.T) {
	parent, cancel := context.WithCancel(WithRequestID(context.Background(), "req-2"))
	detached := context.WithoutCancel(parent)
	cancel()

	assert.Error(t, parent.Err())
	assert.NoError(t, detached.Err())
	assert.Equal(t, "req-2", RequestID(detached))
}

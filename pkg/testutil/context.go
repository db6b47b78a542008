package testutil

import (
	"context"
	"time"

	"linkpulse/pkg/requestcontext"
)

// VisitContext returns a context carrying what the request middleware would set for
// one visitor: client address, user agent, referrer and request time.
func VisitContext(ip, userAgent, referrer string, now time.Time) context.Context {
	ctx := requestcontext.WithClientMetadata(context.Background(), ip, userAgent)
	ctx = requestcontext.WithReferrer(ctx, referrer)
	return requestcontext.WithTime(ctx, now)
}

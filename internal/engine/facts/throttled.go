package facts

import (
	"context"
	"time"

	"modcheck/internal/shared/observability"

	"golang.org/x/time/rate"
)

// Provider is the shape of anything that can hand out FileFacts.
type Provider interface {
	SourceFacts(ctx context.Context, project, sourceSet string) ([]FileFacts, error)
}

// Throttled limits how fast an upstream provider is called. Parsers tend to
// be I/O and CPU heavy; the limiter keeps a wide worker pool from flooding
// them.
type Throttled struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewThrottled wraps inner with a token bucket of perSecond tokens and the
// given burst. perSecond <= 0 disables throttling.
func NewThrottled(inner Provider, perSecond float64, burst int) Provider {
	if perSecond <= 0 {
		return inner
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (t *Throttled) SourceFacts(ctx context.Context, project, sourceSet string) ([]FileFacts, error) {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	observability.FactsThrottleWaitSeconds.Observe(time.Since(start).Seconds())
	return t.inner.SourceFacts(ctx, project, sourceSet)
}

package sink

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"mailbridge/pkg/metrics"
	"mailbridge/pkg/models"
)

// RateLimitedSink caps the outbound email rate with a token bucket.
// Over-budget sends wait for a token; a context cancellation while
// waiting becomes a Failed outcome so the identifier stays uncommitted.
type RateLimitedSink struct {
	inner   Sink
	limiter *rate.Limiter
}

func NewRateLimitedSink(inner Sink, perSecond float64, burst int) *RateLimitedSink {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSink{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (s *RateLimitedSink) Send(ctx context.Context, to, subject, body string) models.DeliveryOutcome {
	if !s.limiter.Allow() {
		metrics.SendRateLimitedTotal.Inc()
		if err := s.limiter.Wait(ctx); err != nil {
			return models.Failed(fmt.Errorf("rate limiter wait aborted: %w", err))
		}
	}

	return s.inner.Send(ctx, to, subject, body)
}

package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"mailbridge/pkg/models"
)

type countingSink struct {
	calls int
}

func (s *countingSink) Send(context.Context, string, string, string) models.DeliveryOutcome {
	s.calls++
	return models.Sent("p1")
}

func TestRateLimitedSinkPassesThrough(t *testing.T) {
	inner := &countingSink{}
	s := NewRateLimitedSink(inner, 100, 10)

	outcome := s.Send(context.Background(), "inbox@example.com", "s", "b")

	assert.Equal(t, models.OutcomeSent, outcome.Status)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedSinkCancelledWaitFails(t *testing.T) {
	inner := &countingSink{}
	s := NewRateLimitedSink(inner, 0.001, 1)

	ctx, cancel := context.WithCancel(context.Background())

	// Drain the single burst token, then cancel so the second send
	// aborts instead of waiting.
	_ = s.Send(ctx, "inbox@example.com", "s", "b")
	cancel()

	outcome := s.Send(ctx, "inbox@example.com", "s", "b")

	assert.Equal(t, models.OutcomeFailed, outcome.Status)
	assert.False(t, outcome.Committable())
	assert.Error(t, outcome.Err)
	assert.Equal(t, 1, inner.calls)
}

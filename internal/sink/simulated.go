package sink

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"mailbridge/internal/logger"
	"mailbridge/pkg/models"
)

// SimulatedSink is the test_mode sink: it fabricates a Simulated outcome
// without attempting any delivery.
type SimulatedSink struct {
	logger  logger.Logger
	counter atomic.Int64
	now     func() time.Time
}

func NewSimulatedSink(log logger.Logger) *SimulatedSink {
	return &SimulatedSink{
		logger: log,
		now:    time.Now,
	}
}

func (s *SimulatedSink) Send(ctx context.Context, to, subject, _ string) models.DeliveryOutcome {
	n := s.counter.Add(1)
	providerID := fmt.Sprintf("simulated_%d_%d", s.now().Unix(), n)

	s.logger.InfowCtx(ctx, "Test mode, email simulated",
		"to", to,
		"subject", subject,
		"provider_id", providerID,
	)

	return models.Simulated(providerID)
}

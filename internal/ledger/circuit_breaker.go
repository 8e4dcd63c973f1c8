package ledger

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"mailbridge/internal/config"
	"mailbridge/pkg/circuitbreaker"
)

// CircuitBreakerLedger shields the pipeline from a failing ledger backend.
// When the circuit opens, calls fail fast instead of stalling every check
// on a dead Redis.
type CircuitBreakerLedger struct {
	inner Ledger
	cb    *circuitbreaker.Wrapper
}

func NewCircuitBreakerLedger(inner Ledger, cfg config.CircuitBreakerConfig) *CircuitBreakerLedger {
	if !cfg.Enabled {
		return &CircuitBreakerLedger{inner: inner}
	}

	cbConfig := circuitbreaker.DefaultConfig("ledger")
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MinRequests) {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		}
	}

	return &CircuitBreakerLedger{
		inner: inner,
		cb:    circuitbreaker.NewWrapper(cbConfig),
	}
}

func (l *CircuitBreakerLedger) HasSeen(ctx context.Context, id string) (bool, error) {
	if l.cb == nil {
		return l.inner.HasSeen(ctx, id)
	}

	result, err := l.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return l.inner.HasSeen(ctx, id)
	})
	l.cb.RecordRequest(err == nil)

	if err != nil {
		if l.cb.IsOpen() {
			return false, fmt.Errorf("circuit breaker is open for ledger: %w", err)
		}
		return false, err
	}

	seen, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("ledger returned invalid result type")
	}
	return seen, nil
}

func (l *CircuitBreakerLedger) Commit(ctx context.Context, id string) error {
	if l.cb == nil {
		return l.inner.Commit(ctx, id)
	}

	_, err := l.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, l.inner.Commit(ctx, id)
	})
	l.cb.RecordRequest(err == nil)

	if err != nil && l.cb.IsOpen() {
		return fmt.Errorf("circuit breaker is open for ledger: %w", err)
	}
	return err
}

func (l *CircuitBreakerLedger) Size(ctx context.Context) (int, error) {
	if sizer, ok := l.inner.(Sizer); ok {
		return sizer.Size(ctx)
	}
	return 0, nil
}

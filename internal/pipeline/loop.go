package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mailbridge/internal/constants"
	"mailbridge/internal/logger"
	"mailbridge/internal/source"
	"mailbridge/pkg/logging"
	"mailbridge/pkg/metrics"
	"mailbridge/pkg/models"
)

// Loop repeats fetch-then-process on a timer. A failed iteration logs,
// waits out the error cooldown, and tries again; only context
// cancellation stops the loop, checked once per iteration boundary.
type Loop struct {
	pipeline    *Pipeline
	source      source.Source
	interval    time.Duration
	cooldown    time.Duration
	maxPerCheck int
	logger      logger.Logger
	processed   int

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration)
}

func NewLoop(p *Pipeline, src source.Source, interval time.Duration, maxPerCheck int, log logger.Logger) *Loop {
	return &Loop{
		pipeline:    p,
		source:      src,
		interval:    interval,
		cooldown:    constants.ErrorCooldown,
		maxPerCheck: maxPerCheck,
		logger:      log,
		sleep:       sleepCtx,
	}
}

func (l *Loop) Run(ctx context.Context) error {
	l.logger.Infow("Monitoring loop started",
		"check_interval", l.interval.String(),
		"max_messages_per_check", l.maxPerCheck,
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		iterCtx := logging.WithTraceID(ctx, uuid.NewString())

		summary, err := l.RunOnce(iterCtx)
		if err != nil {
			metrics.CheckIterationsTotal.WithLabelValues("error").Inc()
			l.logger.ErrorwCtx(iterCtx, "Check iteration failed, cooling down",
				"cooldown", l.cooldown.String(),
				"error", err,
			)
			l.sleep(ctx, l.cooldown)
			continue
		}

		metrics.CheckIterationsTotal.WithLabelValues("ok").Inc()
		if summary.Total() > 0 {
			l.logger.InfowCtx(iterCtx, "Check iteration complete",
				"delivered", summary.Delivered,
				"skipped", summary.Skipped,
				"filtered", summary.Filtered,
				"failed", summary.Failed,
				"total_processed", l.processed,
			)
		} else {
			l.logger.DebugwCtx(iterCtx, "No new messages")
		}

		l.sleep(ctx, l.interval)
	}
}

// RunOnce performs a single fetch-and-process pass. The check CLI command
// calls it directly.
func (l *Loop) RunOnce(ctx context.Context) (models.BatchSummary, error) {
	msgs, err := l.source.Fetch(ctx, l.maxPerCheck)
	if err != nil {
		return models.BatchSummary{}, err
	}

	summary := l.pipeline.ProcessBatch(ctx, msgs)
	l.processed += summary.Delivered
	return summary, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

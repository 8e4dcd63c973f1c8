package pipeline

import (
	"context"
	"time"

	"mailbridge/internal/config"
	"mailbridge/internal/constants"
	"mailbridge/internal/format"
	"mailbridge/internal/ledger"
	"mailbridge/internal/logger"
	"mailbridge/internal/rules"
	"mailbridge/internal/sink"
	"mailbridge/pkg/logging"
	"mailbridge/pkg/metrics"
	"mailbridge/pkg/models"
)

// Pipeline turns raw inbound messages into at most one outbound email per
// message identifier. It owns its ledger reference and collaborators
// explicitly; there is no shared global instance, so independent pipelines
// can coexist in one process.
type Pipeline struct {
	cfg     config.ForwardingConfig
	sink    sink.Sink
	ledger  ledger.Ledger
	rules   *rules.Engine
	onError string
	logger  logger.Logger
	allow   map[string]struct{}
}

// New constructs a pipeline. ruleEngine may be nil when no filter rules
// are configured. onError decides what a ledger read failure means:
// FallbackAllow proceeds as if unseen (risking a duplicate email),
// FallbackDeny fails the message (risking a delayed one).
func New(cfg config.ForwardingConfig, s sink.Sink, l ledger.Ledger, ruleEngine *rules.Engine, onError string, log logger.Logger) *Pipeline {
	allow := make(map[string]struct{}, len(cfg.ChannelAllowlist))
	for _, channel := range cfg.ChannelAllowlist {
		allow[channel] = struct{}{}
	}

	return &Pipeline{
		cfg:     cfg,
		sink:    s,
		ledger:  l,
		rules:   ruleEngine,
		onError: onError,
		logger:  log,
		allow:   allow,
	}
}

// ProcessOne drives a single message to a terminal state: Delivered,
// Skipped, Filtered, or Failed. An already-committed identifier never
// reaches the sink again.
func (p *Pipeline) ProcessOne(ctx context.Context, msg models.MessageRecord) models.ProcessingResult {
	ctx = logging.WithMessageID(ctx, msg.ID)
	if msg.Context.Channel != "" {
		ctx = logging.WithChannel(ctx, msg.Context.Channel)
	}

	result := p.processOne(ctx, msg)
	metrics.MessagesProcessedTotal.WithLabelValues(string(result.Status)).Inc()
	p.logResult(ctx, msg, result)
	return result
}

func (p *Pipeline) processOne(ctx context.Context, msg models.MessageRecord) models.ProcessingResult {
	if !msg.Valid() {
		return models.Filtered()
	}

	seen, err := p.ledger.HasSeen(ctx, msg.ID)
	if err != nil {
		if p.onError == constants.FallbackAllow {
			metrics.LedgerFallbackTotal.WithLabelValues("allow").Inc()
			p.logger.WarnwCtx(ctx, "Ledger check failed, proceeding (fallback: allow)",
				"error", err,
			)
			seen = false
		} else {
			metrics.LedgerFallbackTotal.WithLabelValues("deny").Inc()
			return models.DeliveryFailed(err)
		}
	}
	if seen {
		return models.Skipped()
	}

	if len(p.allow) > 0 {
		if _, ok := p.allow[msg.Context.Channel]; !ok {
			return models.Filtered()
		}
	}

	if p.rules != nil && !p.rules.Empty() && !p.rules.Allow(ctx, msg) {
		return models.Filtered()
	}

	subject, body := format.Format(msg, p.cfg)

	start := time.Now()
	outcome := p.sink.Send(ctx, p.cfg.RecipientAddress, subject, body)
	metrics.ObserveDeliveryDuration(time.Since(start), string(outcome.Status))

	if !outcome.Committable() {
		return models.DeliveryFailed(outcome.Err)
	}

	if err := p.ledger.Commit(ctx, msg.ID); err != nil {
		// The email went out; an uncommitted identifier only risks a
		// duplicate on a later pass.
		p.logger.ErrorwCtx(ctx, "Ledger commit failed after delivery",
			"error", err,
		)
	}

	return models.Delivered(outcome)
}

// ProcessBatch applies ProcessOne to each message in source order. A
// failed delivery never aborts the rest of the batch; messages carry no
// ordering dependency on one another.
func (p *Pipeline) ProcessBatch(ctx context.Context, msgs []models.MessageRecord) models.BatchSummary {
	var summary models.BatchSummary

	for _, msg := range msgs {
		summary.Add(p.ProcessOne(ctx, msg))
	}

	p.updateLedgerSize(ctx)
	return summary
}

func (p *Pipeline) logResult(ctx context.Context, msg models.MessageRecord, result models.ProcessingResult) {
	switch result.Status {
	case models.StatusDelivered:
		p.logger.InfowCtx(ctx, "Message forwarded",
			"sender", msg.Context.Sender,
			"outcome", string(result.Outcome.Status),
			"provider_id", result.Outcome.ProviderID,
		)
	case models.StatusSkipped:
		p.logger.DebugwCtx(ctx, "Message already forwarded, skipping")
	case models.StatusFiltered:
		p.logger.DebugwCtx(ctx, "Message filtered")
	case models.StatusFailed:
		p.logger.ErrorwCtx(ctx, "Message delivery failed",
			"error", result.Err,
		)
	}
}

func (p *Pipeline) updateLedgerSize(ctx context.Context) {
	sizer, ok := p.ledger.(ledger.Sizer)
	if !ok {
		return
	}

	size, err := sizer.Size(ctx)
	if err != nil {
		p.logger.DebugwCtx(ctx, "Failed to read ledger size", "error", err)
		return
	}
	metrics.SetLedgerSize(size)
}

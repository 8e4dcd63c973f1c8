package sink

import (
	"context"

	"mailbridge/pkg/models"
)

// Sink delivers a formatted message to its destination mailbox. Transport
// failures surface as a Failed outcome, never as a panic; the pipeline
// decides what a Failed outcome means.
type Sink interface {
	Send(ctx context.Context, to, subject, body string) models.DeliveryOutcome
}

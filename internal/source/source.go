package source

import (
	"context"
	"errors"

	"mailbridge/pkg/models"
)

// ErrUnavailable reports that the source could not produce results for
// this check. The loop recovers by waiting out the error cooldown.
var ErrUnavailable = errors.New("message source unavailable")

// Source produces message records for the pipeline. An empty fetch result
// means nothing new, not an error.
type Source interface {
	Fetch(ctx context.Context, max int) ([]models.MessageRecord, error)
}

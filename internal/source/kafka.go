package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"mailbridge/internal/config"
	"mailbridge/internal/constants"
	"mailbridge/internal/logger"
	"mailbridge/pkg/metrics"
	"mailbridge/pkg/models"
)

// KafkaSource draws chat events from a Kafka topic. Each event is a
// JSON-encoded message record; malformed payloads are counted and skipped
// without aborting the fetch.
type KafkaSource struct {
	reader *kafka.Reader
	logger logger.Logger
}

func NewKafkaSource(cfg config.KafkaSourceConfig, log logger.Logger) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: constants.KafkaMinBytes,
		MaxBytes: constants.KafkaMaxBytes,
	})

	return &KafkaSource{reader: reader, logger: log}
}

func (s *KafkaSource) Fetch(ctx context.Context, max int) ([]models.MessageRecord, error) {
	records := make([]models.MessageRecord, 0, max)

	for len(records) < max {
		fetchCtx, cancel := context.WithTimeout(ctx, constants.KafkaFetchTimeout)
		m, err := s.reader.ReadMessage(fetchCtx)
		cancel()

		if err != nil {
			// A deadline here means the topic is drained for now.
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			if errors.Is(err, context.Canceled) {
				return records, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		var rec models.MessageRecord
		if err := json.Unmarshal(m.Value, &rec); err != nil {
			metrics.SourceRecordsTotal.WithLabelValues("malformed").Inc()
			s.logger.WarnwCtx(ctx, "Skipping malformed chat event",
				"offset", m.Offset,
				"error", err,
			)
			continue
		}

		metrics.SourceRecordsTotal.WithLabelValues("fetched").Inc()
		records = append(records, rec)
	}

	return records, nil
}

func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailbridge/pkg/models"
)

func staticRecord(id string) models.MessageRecord {
	return models.MessageRecord{
		ID:   id,
		Text: "hello",
		Context: models.SourceContext{
			Channel: "general",
			Kind:    models.KindChannel,
			Sender:  "alice",
		},
	}
}

func TestStaticSourceFetchRespectsMax(t *testing.T) {
	src := NewStaticSource(
		staticRecord("m1"),
		staticRecord("m2"),
		staticRecord("m3"),
	)

	batch, err := src.Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "m1", batch[0].ID)
	assert.Equal(t, "m2", batch[1].ID)

	batch, err = src.Fetch(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "m3", batch[0].ID)

	batch, err = src.Fetch(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, batch)
}

func TestStaticSourcePush(t *testing.T) {
	src := NewStaticSource()
	src.Push(staticRecord("m1"))

	batch, err := src.Fetch(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "m1", batch[0].ID)
}

func TestSampleRecords(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := SampleRecords(now)

	require.Len(t, records, 7)

	ids := make(map[string]struct{}, len(records))
	var dms int
	for _, rec := range records {
		assert.True(t, rec.Valid(), "sample record %s must be valid", rec.ID)
		assert.Equal(t, now, rec.OccurredAt)
		ids[rec.ID] = struct{}{}
		if rec.Context.Kind == models.KindDirectMessage {
			dms++
		}
	}

	assert.Len(t, ids, 7, "sample identifiers must be unique")
	assert.Equal(t, 1, dms)
	assert.Equal(t, "colleague", records[len(records)-1].Context.Sender)
}

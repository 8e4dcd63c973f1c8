package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mailbridge/pkg/models"
)

// StaticSource serves records from an in-memory queue. It backs demo runs
// and the one-shot check command, standing in for a live chat workspace.
type StaticSource struct {
	mu    sync.Mutex
	queue []models.MessageRecord
}

func NewStaticSource(records ...models.MessageRecord) *StaticSource {
	return &StaticSource{queue: append([]models.MessageRecord(nil), records...)}
}

// Push appends records to the end of the queue.
func (s *StaticSource) Push(records ...models.MessageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, records...)
}

func (s *StaticSource) Fetch(_ context.Context, max int) ([]models.MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.queue)
	if n > max {
		n = max
	}

	out := append([]models.MessageRecord(nil), s.queue[:n]...)
	s.queue = s.queue[n:]
	return out, nil
}

// SampleRecords is a canned feed of channel messages plus one direct
// message, used by demo mode.
func SampleRecords(now time.Time) []models.MessageRecord {
	channels := []string{"welcome", "engineering", "general"}
	records := make([]models.MessageRecord, 0, len(channels)*2+1)

	for _, channel := range channels {
		for i := 1; i <= 2; i++ {
			records = append(records, models.MessageRecord{
				ID: fmt.Sprintf("%s_msg_%d_%d", channel, now.Unix(), i),
				Context: models.SourceContext{
					Workspace: "demo",
					Channel:   channel,
					Kind:      models.KindChannel,
					Sender:    fmt.Sprintf("user_%d", i),
				},
				Text:       fmt.Sprintf("Sample message %d from #%s", i, channel),
				OccurredAt: now,
			})
		}
	}

	records = append(records, models.MessageRecord{
		ID: fmt.Sprintf("dm_msg_%d", now.Unix()),
		Context: models.SourceContext{
			Workspace: "demo",
			Channel:   "DM",
			Kind:      models.KindDirectMessage,
			Sender:    "colleague",
		},
		Text:       "Hey, can we sync up on the project?",
		OccurredAt: now,
	})

	return records
}

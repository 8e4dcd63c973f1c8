package models

import "time"

// ChannelKind distinguishes direct messages from regular channels.
type ChannelKind string

const (
	KindChannel       ChannelKind = "channel"
	KindDirectMessage ChannelKind = "direct-message"
)

// SourceContext describes where a message originated. All fields are
// optional; missing values render as "Unknown" in formatted output.
type SourceContext struct {
	Workspace string      `json:"workspace,omitempty"`
	Channel   string      `json:"channel,omitempty"`
	Kind      ChannelKind `json:"kind,omitempty"`
	Sender    string      `json:"sender,omitempty"`
}

// MessageRecord is the normalized unit of work: one inbound chat message
// plus metadata, independent of which source produced it.
//
// ID must be stable: re-fetching the same underlying message yields the
// same ID. ID uniqueness is the sole correctness anchor for deduplication;
// if two distinct messages collide on ID, one is silently dropped.
type MessageRecord struct {
	ID         string        `json:"id"`
	Context    SourceContext `json:"context"`
	Text       string        `json:"text"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Valid reports whether the record carries the attributes required for
// forwarding. Records failing this check are rejected individually.
func (m MessageRecord) Valid() bool {
	return m.ID != "" && m.Text != ""
}

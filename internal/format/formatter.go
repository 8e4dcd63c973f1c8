package format

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"mailbridge/internal/config"
	"mailbridge/internal/constants"
	"mailbridge/pkg/models"
)

// Unknown is rendered in place of any missing source context field.
const Unknown = "Unknown"

// Format maps a message record and configuration to an email subject and
// body. It is pure and total: no I/O, and it never fails as long as the
// record carries an ID and text.
func Format(msg models.MessageRecord, cfg config.ForwardingConfig) (subject, body string) {
	sender := orUnknown(msg.Context.Sender)
	channel := orUnknown(msg.Context.Channel)
	workspace := orUnknown(msg.Context.Workspace)

	kind := msg.Context.Kind
	if kind == "" {
		kind = models.KindChannel
	}

	if kind == models.KindDirectMessage {
		subject = fmt.Sprintf("[Bridge DM] Message from %s", sender)
	} else {
		subject = fmt.Sprintf("[Bridge] #%s - %s", channel, sender)
	}

	occurred := Unknown
	if !msg.OccurredAt.IsZero() {
		occurred = msg.OccurredAt.Format(time.RFC3339)
	}

	var b strings.Builder
	b.WriteString("Chat Message Received\n\n")
	fmt.Fprintf(&b, "Workspace: %s\n", workspace)
	fmt.Fprintf(&b, "Channel: #%s (%s)\n", channel, kind)
	fmt.Fprintf(&b, "From: %s\n", sender)
	fmt.Fprintf(&b, "Time: %s\n\n", occurred)
	b.WriteString("Message:\n")
	b.WriteString(msg.Text)
	b.WriteString("\n\n---\n")
	b.WriteString("This message was automatically forwarded from chat.\n\n")
	fmt.Fprintf(&b, "Message ID: %s\n", msg.ID)

	body = b.String()
	if cfg.MaxBodyLength > 0 {
		body = Truncate(body, cfg.MaxBodyLength)
	}

	return subject, body
}

// Truncate caps s at max runes, appending the truncation marker. The cut
// never lands mid-character in multi-byte text.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	marker := constants.TruncationMarker
	markerLen := utf8.RuneCountInString(marker)
	if max <= markerLen {
		return string([]rune(s)[:max])
	}

	return string([]rune(s)[:max-markerLen]) + marker
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unknown
	}
	return s
}

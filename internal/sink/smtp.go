package sink

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"mailbridge/internal/config"
	"mailbridge/internal/constants"
	"mailbridge/internal/logger"
	"mailbridge/pkg/models"
	"mailbridge/pkg/retry"
)

// SMTPSink delivers email through an SMTP relay over implicit TLS.
// Transient transport errors are retried with exponential backoff; the
// final failure becomes a Failed outcome.
type SMTPSink struct {
	cfg    config.SMTPConfig
	policy retry.Policy
	logger logger.Logger
}

func NewSMTPSink(cfg config.SMTPConfig, log logger.Logger) *SMTPSink {
	return &SMTPSink{
		cfg:    cfg,
		policy: retry.DefaultPolicy(),
		logger: log,
	}
}

func (s *SMTPSink) Send(ctx context.Context, to, subject, body string) models.DeliveryOutcome {
	messageID := generateMessageID(s.cfg.From)
	raw := buildMessage(s.cfg.From, to, subject, body, messageID)

	err := retry.Do(ctx, s.policy, func() error {
		return s.deliver(to, raw)
	}, func(attempt int, err error) {
		s.logger.WarnwCtx(ctx, "SMTP delivery attempt failed, retrying",
			"attempt", attempt,
			"error", err,
		)
	})
	if err != nil {
		return models.Failed(fmt.Errorf("smtp delivery to %s failed: %w", to, err))
	}

	return models.Sent(messageID)
}

func (s *SMTPSink) deliver(to string, raw []byte) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(s.cfg.From, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to, nil); err != nil {
		return fmt.Errorf("RCPT TO %q failed: %w", to, err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := writer.Write(raw); err != nil {
		return fmt.Errorf("writing message failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing message failed: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSink) connect() (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := net.Dialer{Timeout: constants.SMTPDialTimeout}

	conn, err := tls.DialWithDialer(&dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return nil, fmt.Errorf("SMTP TLS dial failed: %w", err)
	}

	client := smtp.NewClient(conn)
	if s.cfg.Username != "" {
		auth := sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
		if err := client.Auth(auth); err != nil {
			client.Close()
			// Bad credentials never recover within one send.
			return nil, retry.NewPermanentError(fmt.Errorf("SMTP auth failed: %w", err))
		}
	}

	return client, nil
}

func buildMessage(from, to, subject, body, messageID string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", sanitizeHeader(subject)),
		fmt.Sprintf("Date: %s", time.Now().Format(time.RFC1123Z)),
		fmt.Sprintf("Message-ID: <%s>", messageID),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + normalizeBody(body) + "\r\n")
}

func generateMessageID(from string) string {
	domain := "mailbridge.local"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("%s@%s", uuid.NewString(), domain)
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func normalizeBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

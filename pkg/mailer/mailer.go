// Package mailer delivers transactional email such as participant invitations.
package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single plain text and HTML email.
type Message struct {
	ToName      string
	ToAddress   string
	Subject     string
	TextContent string
	HTMLContent string
}

// Config holds the sender identity and API key.
type Config struct {
	APIKey      string
	FromName    string
	FromAddress string
}

// SendGrid sends messages through the SendGrid v3 API.
type SendGrid struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	logger     zerolog.Logger
}

// NewSendGrid constructs a SendGrid mailer.
func NewSendGrid(cfg Config, logger zerolog.Logger) (*SendGrid, error) {
	if cfg.APIKey == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("sendgrid api key and sender address must be provided")
	}

	return &SendGrid{
		client:     sendgrid.NewSendClient(cfg.APIKey),
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: "[" + cfg.FromName + "] ",
		logger:     logger.With().Str("component", "sendgrid_mailer").Logger(),
	}, nil
}

// Send delivers the message and fails on any non 2xx answer.
func (m *SendGrid) Send(ctx context.Context, msg Message) error {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToAddress))

	message := sgmail.NewV3Mail()
	message.SetFrom(m.from)
	message.AddPersonalizations(p)
	message.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if strings.TrimSpace(msg.HTMLContent) != "" {
		message.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}

	res, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected email with status %d", res.StatusCode)
	}

	m.logger.Info().Str("to", msg.ToAddress).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

// Log writes messages to the logger instead of sending them. Used when no provider is configured.
type Log struct {
	logger zerolog.Logger
}

// NewLog constructs a logging mailer.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "log_mailer").Logger()}
}

// Send logs the message envelope.
func (m *Log) Send(_ context.Context, msg Message) error {
	m.logger.Info().Str("to", msg.ToAddress).Str("subject", msg.Subject).Msg("email delivery skipped, no provider configured")
	return nil
}

package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rentaiagent/adapters/backend"
	"rentaiagent/adapters/storage"
	"rentaiagent/internal/config"
	"rentaiagent/internal/errors"
	"rentaiagent/internal/logging"
)

// Method names the channel that accepted a message
type Method string

const (
	MethodPrimary   Method = "primary"
	MethodAlternate Method = "alternate"
	MethodOutbox    Method = "outbox"
)

// Delivery reports how a message left the client
type Delivery struct {
	Method   Method `json:"method"`
	OutboxID string `json:"outbox_id,omitempty"`
}

// Sent reports whether the message reached the backend
func (d Delivery) Sent() bool {
	return d.Method == MethodPrimary || d.Method == MethodAlternate
}

// Sender is the subset of the backend client used for email
type Sender interface {
	SendEmail(ctx context.Context, msg backend.EmailMessage) error
	SendEmailAlternate(ctx context.Context, msg backend.AltEmailMessage) error
}

// Recorder keeps messages that could not be sent
type Recorder interface {
	Record(ctx context.Context, entry storage.OutboxEntry) (storage.OutboxEntry, error)
}

// Mailer delivers registration notifications
type Mailer struct {
	sender   Sender
	outbox   Recorder
	settings config.NotificationConfig
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a mailer. A nil outbox disables the local fallback. A nil
// logger uses the global logger.
func New(sender Sender, outbox Recorder, settings config.NotificationConfig, logger *zap.Logger) *Mailer {
	return &Mailer{
		sender:   sender,
		outbox:   outbox,
		settings: settings,
		logger:   logging.Named(logger, "mailer"),
		now:      time.Now,
	}
}

// NotifyAdmin sends the registration notification to the team
func (m *Mailer) NotifyAdmin(ctx context.Context, reg Registration) (Delivery, error) {
	msg, err := ComposeAdmin(m.settings.AdminEmail, reg, m.now())
	if err != nil {
		return Delivery{}, errors.Internal("failed to compose admin email", err)
	}
	return m.Deliver(ctx, msg, reg.Redacted())
}

// SendConfirmation sends the confirmation email to the registering user
func (m *Mailer) SendConfirmation(ctx context.Context, reg Registration) (Delivery, error) {
	msg, err := ComposeConfirmation(reg)
	if err != nil {
		return Delivery{}, errors.Internal("failed to compose confirmation email", err)
	}
	return m.Deliver(ctx, msg, nil)
}

// Deliver tries the primary endpoint, then the alternate endpoint, then
// records the message in the outbox. data travels with the alternate
// request and the outbox entry.
func (m *Mailer) Deliver(ctx context.Context, msg Message, data interface{}) (Delivery, error) {
	log := m.logger.With(zap.String("to", msg.To), zap.String("subject", msg.Subject))

	primaryErr := m.sender.SendEmail(ctx, backend.EmailMessage{
		To:       msg.To,
		Subject:  msg.Subject,
		Text:     msg.Text,
		HTML:     msg.HTML,
		From:     m.settings.FromAddress,
		FromName: m.settings.FromName,
		ReplyTo:  msg.ReplyTo,
	})
	if primaryErr == nil {
		log.Debug("email sent", zap.String("method", string(MethodPrimary)))
		return Delivery{Method: MethodPrimary}, nil
	}
	log.Warn("primary email endpoint failed", zap.Error(primaryErr))

	altErr := m.sender.SendEmailAlternate(ctx, backend.AltEmailMessage{
		To:               msg.To,
		Subject:          msg.Subject,
		Text:             msg.Text,
		HTML:             msg.HTML,
		RegistrationData: data,
	})
	if altErr == nil {
		log.Debug("email sent", zap.String("method", string(MethodAlternate)))
		return Delivery{Method: MethodAlternate}, nil
	}
	log.Warn("alternate email endpoint failed", zap.Error(altErr))

	if m.outbox == nil {
		return Delivery{}, errors.Backend("email delivery failed", primaryErr)
	}

	entry := storage.OutboxEntry{To: msg.To, Subject: msg.Subject, Body: msg.Text, HTML: msg.HTML}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Delivery{}, errors.Internal("failed to encode outbox data", err)
		}
		entry.Data = raw
	}
	entry, err := m.outbox.Record(ctx, entry)
	if err != nil {
		log.Error("email could not be sent or recorded", zap.Error(err))
		return Delivery{}, errors.Backend(fmt.Sprintf("email delivery failed and outbox write failed: %v", err), primaryErr)
	}
	log.Warn("email recorded in outbox for manual sending", zap.String("outbox_id", entry.ID))
	return Delivery{Method: MethodOutbox, OutboxID: entry.ID}, nil
}

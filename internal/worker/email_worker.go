package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job body sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html,omitempty"`
	// ExpiresAt marks mail that is worthless after a deadline, such as a
	// verification code. Expired jobs are dropped instead of sent.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the payload's deadline has passed at now.
func (p EmailJobPayload) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// Sender is the outgoing mail transport (infra.Mailer in production).
type Sender interface {
	Send(to, subject, text, html string) error
}

// EmailWorker delivers queued mail.
type EmailWorker struct {
	sender Sender
	now    func() time.Time
}

func NewEmailWorker(sender Sender) *EmailWorker {
	return &EmailWorker{sender: sender, now: time.Now}
}

var errEmptyRecipient = errors.New("email job without recipient")

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		return errEmptyRecipient
	}
	if payload.Expired(w.now()) {
		log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: expired, dropped")
		return nil
	}

	if err := w.sender.Send(payload.ToEmail, payload.Subject, payload.Body, payload.HTML); err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return err
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: sent")
	return nil
}

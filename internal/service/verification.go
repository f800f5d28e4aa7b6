package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"swiftaza/internal/infra"
	"swiftaza/internal/repository"
	"swiftaza/internal/worker"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	minVerificationCode = 1001
	maxVerificationCode = 9999

	verificationSubject = "Welcome to SwiftAza. Copy your verification code"
)

// EmailQueue hands mail to the async worker pool.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

// VerificationService issues and checks short-lived email verification codes.
type VerificationService interface {
	// Generate stores a fresh code for email, replacing any previous one.
	Generate(ctx context.Context, email string) (int, error)
	// IsValid is true only for the latest code of email while it is younger than the TTL.
	IsValid(ctx context.Context, email string, code int) bool
	// Cleanup drops expired codes and returns how many were removed.
	Cleanup(ctx context.Context) int
	SendCode(ctx context.Context, email, fullName string) error
	// Verify marks the account validated when the code is accepted.
	Verify(ctx context.Context, email string, code int) (MirrorStatus, error)
}

type verificationService struct {
	store  repository.CodeStore
	users  repository.UserRepository
	coord  *Coordinator
	queue  EmailQueue
	events infra.EventPublisher
	ttl    time.Duration
	now    func() time.Time
}

func NewVerificationService(
	store repository.CodeStore,
	users repository.UserRepository,
	coord *Coordinator,
	queue EmailQueue,
	events infra.EventPublisher,
	ttl time.Duration,
) VerificationService {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &verificationService{
		store:  store,
		users:  users,
		coord:  coord,
		queue:  queue,
		events: events,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *verificationService) Generate(ctx context.Context, email string) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxVerificationCode-minVerificationCode+1))
	if err != nil {
		return 0, fmt.Errorf("verification code: %w", err)
	}
	code := int(n.Int64()) + minVerificationCode
	issued := repository.IssuedCode{Code: code, IssuedAt: s.now().UTC()}
	if err := s.store.Save(ctx, email, issued, s.ttl); err != nil {
		return 0, err
	}
	return code, nil
}

func (s *verificationService) IsValid(ctx context.Context, email string, code int) bool {
	issued, err := s.store.Load(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).Msg("verification code lookup failed")
		}
		return false
	}
	if issued.Code != code {
		return false
	}
	return s.now().Sub(issued.IssuedAt) < s.ttl
}

func (s *verificationService) Cleanup(ctx context.Context) int {
	n, err := s.store.Sweep(ctx, s.now().Add(-s.ttl))
	if err != nil {
		log.Warn().Err(err).Msg("verification code sweep failed")
	}
	return n
}

func (s *verificationService) SendCode(ctx context.Context, email, fullName string) error {
	code, err := s.Generate(ctx, email)
	if err != nil {
		return err
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nYou have just created an account with SwiftAza.\nHere is your verification code\nVERIFICATION CODE: %d\n\nThank You",
		fullName, code,
	)
	expires := s.now().UTC().Add(s.ttl)
	return s.queue.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail:   email,
		Subject:   verificationSubject,
		Body:      body,
		ExpiresAt: &expires,
	})
}

func (s *verificationService) Verify(ctx context.Context, email string, code int) (MirrorStatus, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.Cleanup(ctx)
	if !s.IsValid(ctx, email, code) {
		return MirrorStatus{}, ErrCodeRejected
	}
	u, err := s.users.FindBy(ctx, repository.ByEmail, email, "")
	if err != nil {
		return MirrorStatus{}, err
	}

	if !u.Validated {
		u.Validated = true
		err = s.coord.Commit(ctx, func(tx *gorm.DB) error {
			return s.users.Update(ctx, tx, u)
		})
		if err != nil {
			return MirrorStatus{}, err
		}
	}
	if err := s.store.Delete(ctx, email); err != nil {
		log.Warn().Err(err).Msg("verification code not consumed")
	}

	status := s.coord.Mirror(ctx, u.ID)
	publish(ctx, s.events, infra.EventUserVerified, u.ID.String(), u.Email, string(u.Kind))
	return status, nil
}

// publish emits a lifecycle event and only logs failures.
func publish(ctx context.Context, p infra.EventPublisher, typ, userID, email, kind string) {
	if p == nil {
		return
	}
	ev := infra.UserEvent{Type: typ, UserID: userID, Email: email, Kind: kind, OccurredAt: time.Now().UTC()}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", typ).Str("user_id", userID).Msg("domain event not published")
	}
}

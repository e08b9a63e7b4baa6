package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ybj/termfolio/internal/store"
)

// Form is the contact form as posted by the page or the JSON API.
type Form struct {
	Name    string `form:"name" json:"name" binding:"required,max=200"`
	Email   string `form:"email" json:"email" binding:"required,email,max=320"`
	Message string `form:"message" json:"message" binding:"required,max=5000"`
}

// Normalize trims surrounding whitespace from every field.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)
}

// Outbox is the persistence the service needs.
type Outbox interface {
	InsertSubmission(ctx context.Context, s *store.Submission) error
	GetSubmission(ctx context.Context, id uuid.UUID) (store.Submission, error)
	ClaimSubmission(ctx context.Context, id uuid.UUID, attempts int, at, staleBefore time.Time) (bool, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause string) error
	PendingSubmissions(ctx context.Context, maxAttempts int, olderThan time.Time, limit int) ([]store.Submission, error)
}

// claimTimeout is how long a delivery attempt may hold a submission before
// another attempt can take it over.
const claimTimeout = 5 * time.Minute

// Service records and delivers submissions.
type Service struct {
	outbox      Outbox
	notifier    Notifier
	logger      *zap.Logger
	maxAttempts int
	now         func() time.Time
}

// NewService returns a Service. A nil notifier stores submissions but
// reports ErrNotConfigured for every delivery.
func NewService(outbox Outbox, notifier Notifier, maxAttempts int, logger *zap.Logger) *Service {
	return &Service{
		outbox:      outbox,
		notifier:    notifier,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Configured reports whether a transport is set up.
func (s *Service) Configured() bool {
	return s.notifier != nil
}

// Submit stores f and makes one delivery attempt. The returned submission
// reflects the outcome even when err is non-nil.
func (s *Service) Submit(ctx context.Context, f Form) (*store.Submission, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("creating submission id: %w", err)
	}

	sub := &store.Submission{
		ID:        id,
		Name:      f.Name,
		Email:     f.Email,
		Message:   f.Message,
		CreatedAt: s.now(),
	}
	if err := s.outbox.InsertSubmission(ctx, sub); err != nil {
		return nil, err
	}

	err = s.deliver(ctx, sub)
	return sub, err
}

// Redeliver makes one more attempt for a stored submission regardless of
// its attempt count. It returns ErrInFlight when another attempt holds it.
func (s *Service) Redeliver(ctx context.Context, id uuid.UUID) (*store.Submission, error) {
	sub, err := s.outbox.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == store.StatusDelivered {
		return &sub, nil
	}
	err = s.deliver(ctx, &sub)
	if errors.Is(err, ErrInFlight) {
		latest, getErr := s.outbox.GetSubmission(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if latest.Status == store.StatusDelivered {
			return &latest, nil
		}
		return &latest, err
	}
	return &sub, err
}

// RetryPending redelivers undelivered submissions created before olderThan.
// It returns how many were delivered and how many failed again.
func (s *Service) RetryPending(ctx context.Context, olderThan time.Time, limit int) (delivered, failed int, err error) {
	if s.notifier == nil {
		return 0, 0, ErrNotConfigured
	}

	pending, err := s.outbox.PendingSubmissions(ctx, s.maxAttempts, olderThan, limit)
	if err != nil {
		return 0, 0, err
	}

	for i := range pending {
		if ctx.Err() != nil {
			return delivered, failed, ctx.Err()
		}
		if err := s.deliver(ctx, &pending[i]); err != nil {
			if errors.Is(err, ErrInFlight) {
				continue
			}
			if !errors.Is(err, ErrDelivery) {
				return delivered, failed, err
			}
			failed++
			continue
		}
		delivered++
	}
	return delivered, failed, nil
}

// deliver claims sub, attempts delivery and records the outcome on sub and
// in the outbox.
func (s *Service) deliver(ctx context.Context, sub *store.Submission) error {
	now := s.now()
	claimed, err := s.outbox.ClaimSubmission(ctx, sub.ID, sub.Attempts, now, now.Add(-claimTimeout))
	if err != nil {
		return err
	}
	if !claimed {
		return ErrInFlight
	}
	sub.Status = store.StatusSending

	if s.notifier == nil {
		if err := s.outbox.MarkFailed(context.WithoutCancel(ctx), sub.ID, ErrNotConfigured.Error()); err != nil {
			return err
		}
		sub.Status = store.StatusFailed
		sub.Attempts++
		sub.LastError = ErrNotConfigured.Error()
		return ErrNotConfigured
	}

	payload := Payload{Name: sub.Name, Email: sub.Email, Message: sub.Message}
	if notifyErr := s.notifier.Notify(ctx, payload); notifyErr != nil {
		s.logger.Warn("Contact delivery failed",
			zap.String("id", sub.ID.String()),
			zap.String("transport", s.notifier.Name()),
			zap.Int("attempt", sub.Attempts+1),
			zap.Error(notifyErr))

		// Record the failure even if the request context is already gone.
		if err := s.outbox.MarkFailed(context.WithoutCancel(ctx), sub.ID, notifyErr.Error()); err != nil {
			return err
		}
		sub.Status = store.StatusFailed
		sub.Attempts++
		sub.LastError = notifyErr.Error()
		return fmt.Errorf("%w: %v", ErrDelivery, notifyErr)
	}

	at := s.now()
	if err := s.outbox.MarkDelivered(context.WithoutCancel(ctx), sub.ID, at); err != nil {
		return err
	}
	sub.Status = store.StatusDelivered
	sub.Attempts++
	sub.LastError = ""
	sub.DeliveredAt = &at

	s.logger.Info("Contact message delivered",
		zap.String("id", sub.ID.String()),
		zap.String("transport", s.notifier.Name()))
	return nil
}

// Retrier periodically redelivers failed submissions.
type Retrier struct {
	service  *Service
	interval time.Duration
	grace    time.Duration
	batch    int
	logger   *zap.Logger
}

// NewRetrier returns a Retrier that runs every interval. Submissions younger
// than grace are skipped so in-flight first attempts are not duplicated.
func NewRetrier(service *Service, interval, grace time.Duration, logger *zap.Logger) *Retrier {
	return &Retrier{
		service:  service,
		interval: interval,
		grace:    grace,
		batch:    50,
		logger:   logger,
	}
}

// Run blocks until ctx is done. A non-positive interval disables retries
// and returns immediately.
func (r *Retrier) Run(ctx context.Context) error {
	if r.interval <= 0 || !r.service.Configured() {
		r.logger.Info("Contact redelivery disabled")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single redelivery pass.
func (r *Retrier) RunOnce(ctx context.Context) {
	delivered, failed, err := r.service.RetryPending(ctx, r.service.now().Add(-r.grace), r.batch)
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("Contact redelivery pass failed", zap.Error(err))
		return
	}
	if delivered > 0 || failed > 0 {
		r.logger.Info("Contact redelivery pass",
			zap.Int("delivered", delivered),
			zap.Int("failed", failed))
	}
}

// Package feedback accepts product feedback from users. With a queue
// configured submissions are handed to the worker; otherwise they are
// written directly.
package feedback

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/models"
	"github.com/onechurch/backend/internal/store"
	"github.com/onechurch/backend/pkg/queue"
	"github.com/onechurch/backend/pkg/result"
)

// MaxLength bounds a single submission in runes.
const MaxLength = 5000

// Enqueuer hands feedback to the background worker.
type Enqueuer interface {
	EnqueueFeedback(ctx context.Context, payload queue.FeedbackPayload) (string, error)
}

// Receipt acknowledges a submission. JobID is set when it was queued.
type Receipt struct {
	Queued bool   `json:"queued"`
	JobID  string `json:"job_id,omitempty"`
	ID     int64  `json:"id,omitempty"`
}

// Service accepts feedback.
type Service struct {
	store  store.Store
	queue  Enqueuer
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a feedback service. q may be nil.
func NewService(st store.Store, q Enqueuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, queue: q, logger: logger, now: time.Now}
}

// Submit records content from userID.
func (s *Service) Submit(ctx context.Context, userID int64, content string) result.Result[Receipt] {
	content = strings.TrimSpace(content)
	if content == "" {
		return result.Fail[Receipt](result.KindValidation, "content required")
	}
	if len([]rune(content)) > MaxLength {
		return result.Fail[Receipt](result.KindValidation, "feedback is too long")
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return store.Failure[Receipt](s.logger, "get user", err, "User not found")
	}

	at := s.now()
	if s.queue != nil {
		id, err := s.queue.EnqueueFeedback(ctx, queue.FeedbackPayload{UserID: userID, Content: content, SubmittedAt: at})
		if err == nil {
			return result.OK("Feedback received", Receipt{Queued: true, JobID: id})
		}
		s.logger.Warn("enqueue feedback failed, writing directly", zap.Int64("user_id", userID), zap.Error(err))
	}
	return s.Save(ctx, userID, content, at)
}

// Save persists feedback. The worker calls it for queued submissions.
func (s *Service) Save(ctx context.Context, userID int64, content string, at time.Time) result.Result[Receipt] {
	f := &models.Feedback{UserID: userID, Content: content, CreatedAt: at}
	if err := s.store.CreateFeedback(ctx, f); err != nil {
		return store.Failure[Receipt](s.logger, "create feedback", err, "")
	}
	return result.OK("Feedback received", Receipt{ID: f.ID})
}

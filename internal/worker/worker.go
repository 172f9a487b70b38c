package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/onechurch/backend/internal/feedback"
	"github.com/onechurch/backend/pkg/queue"
	"github.com/onechurch/backend/pkg/result"
)

// Jobs is the queue surface the processor consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Saver persists a feedback submission.
type Saver interface {
	Save(ctx context.Context, userID int64, content string, at time.Time) result.Result[feedback.Receipt]
}

// errPermanent marks a job that can never succeed and is dropped without retry.
var errPermanent = errors.New("permanent job failure")

// FeedbackProcessor drains feedback jobs into the store.
type FeedbackProcessor struct {
	saver   Saver
	queue   Jobs
	logger  *zap.Logger
	backoff time.Duration
}

// NewFeedbackProcessor creates a feedback processor.
func NewFeedbackProcessor(saver Saver, q Jobs, logger *zap.Logger) *FeedbackProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackProcessor{saver: saver, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one feedback job.
func (p *FeedbackProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeFeedback {
		return fmt.Errorf("%w: unknown job type %s", errPermanent, job.Type)
	}
	var payload queue.FeedbackPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %v", errPermanent, err)
	}
	res := p.saver.Save(ctx, payload.UserID, payload.Content, payload.SubmittedAt)
	if !res.Success {
		return fmt.Errorf("save feedback: %s", res.Message)
	}
	p.logger.Info("feedback stored", zap.String("job_id", job.ID), zap.Int64("feedback_id", res.Data.ID))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *FeedbackProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("feedback worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if errors.Is(err, errPermanent) {
				continue
			}
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *FeedbackProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

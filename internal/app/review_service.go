package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/rabotim/internal/core/completion"
	"github.com/example/rabotim/internal/core/review"
	"github.com/example/rabotim/internal/ports/primary"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ReviewServiceImpl implements the ReviewService interface.
type ReviewServiceImpl struct {
	reviewRepo  secondary.ReviewRepository
	resolver    *PartyResolver
	logWriter   secondary.LogWriter
	dispatcher  *Dispatcher
	logger      *slog.Logger
	unlockAfter time.Duration
	now         func() time.Time
}

// NewReviewService creates a new ReviewService. A non-positive unlockAfter
// selects completion.FeedbackUnlockDelay.
func NewReviewService(
	reviewRepo secondary.ReviewRepository,
	resolver *PartyResolver,
	logWriter secondary.LogWriter,
	dispatcher *Dispatcher,
	logger *slog.Logger,
	unlockAfter time.Duration,
) *ReviewServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewServiceImpl{
		reviewRepo:  reviewRepo,
		resolver:    resolver,
		logWriter:   logWriter,
		dispatcher:  dispatcher,
		logger:      logger,
		unlockAfter: unlockAfter,
		now:         time.Now,
	}
}

// SubmitReview records a rating about the counterparty. Nothing is written
// unless the feedback gate is open for the reviewer.
func (s *ReviewServiceImpl) SubmitReview(ctx context.Context, req primary.SubmitReviewRequest) (*primary.Review, error) {
	p, err := s.resolver.Resolve(ctx, req.TaskID, req.ReviewerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	decision := completion.EvaluateFeedback(completion.FeedbackContext{
		TaskID:       req.TaskID,
		Status:       p.Task.Status,
		Confirmation: p.Confirmation,
		Viewer:       p.Party,
		Now:          now,
		UnlockAfter:  s.unlockAfter,
	})

	reviewed, err := s.reviewRepo.Exists(ctx, req.TaskID, req.ReviewerID)
	if err != nil {
		return nil, err
	}

	text := review.NormalizeText(req.Text)
	guard := review.CanSubmitReview(review.SubmitReviewContext{
		TaskID:          req.TaskID,
		Score:           req.Score,
		Text:            text,
		Feedback:        decision,
		AlreadyReviewed: reviewed,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	record := &secondary.ReviewRecord{
		ID:            uuid.NewString(),
		TaskID:        req.TaskID,
		ReviewerID:    req.ReviewerID,
		RevieweeID:    p.Counterparty(),
		ReviewerParty: string(p.Party),
		Score:         req.Score,
		Text:          text,
		CreatedAt:     now,
	}
	if err := s.reviewRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	audit(ctx, s.logger, s.logWriter, func(w secondary.LogWriter) error {
		return w.LogCreate(ctx, "review", record.ID)
	})
	s.logger.Info("review recorded", "review_id", record.ID, "task_id", req.TaskID, "party", p.Party, "basis", decision.Basis)
	s.dispatcher.Notify(ctx, record.RevieweeID, "review-received:"+record.ID,
		"New review: "+p.Task.Title,
		fmt.Sprintf("The %s of \"%s\" rated you %d/5.", p.Party, p.Task.Title, record.Score))
	s.dispatcher.Publish(ctx, secondary.Event{Type: "review.submitted", TaskID: req.TaskID, ActorID: req.ReviewerID, Party: string(p.Party), At: now})

	return recordToReview(record), nil
}

// ListReviewsFor lists reviews a user has received, newest first.
func (s *ReviewServiceImpl) ListReviewsFor(ctx context.Context, userID string) ([]*primary.Review, error) {
	records, err := s.reviewRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	reviews := make([]*primary.Review, len(records))
	for i, r := range records {
		reviews[i] = recordToReview(r)
	}
	return reviews, nil
}

// RatingSummary aggregates the scores a user has received.
func (s *ReviewServiceImpl) RatingSummary(ctx context.Context, userID string) (*primary.RatingSummary, error) {
	records, err := s.reviewRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	scores := make([]int, len(records))
	for i, r := range records {
		scores[i] = r.Score
	}
	sum := review.Summarize(scores)

	histogram := make(map[int]int, review.MaxScore)
	for score := review.MinScore; score <= review.MaxScore; score++ {
		histogram[score] = sum.Histogram[score]
	}

	return &primary.RatingSummary{
		UserID:    userID,
		Count:     sum.Count,
		Average:   sum.Average,
		Histogram: histogram,
	}, nil
}

func recordToReview(r *secondary.ReviewRecord) *primary.Review {
	return &primary.Review{
		ID:            r.ID,
		TaskID:        r.TaskID,
		ReviewerID:    r.ReviewerID,
		RevieweeID:    r.RevieweeID,
		ReviewerParty: r.ReviewerParty,
		Score:         r.Score,
		Text:          r.Text,
		CreatedAt:     r.CreatedAt,
	}
}

// Ensure ReviewServiceImpl implements the interface
var _ primary.ReviewService = (*ReviewServiceImpl)(nil)

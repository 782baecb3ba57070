package primary

import (
	"context"
	"time"
)

// ReviewService defines the primary port for ratings and reviews.
type ReviewService interface {
	// SubmitReview records a rating (and optional text) about the
	// counterparty of a task. The feedback gate must allow it.
	SubmitReview(ctx context.Context, req SubmitReviewRequest) (*Review, error)

	// ListReviewsFor lists reviews a user has received.
	ListReviewsFor(ctx context.Context, userID string) ([]*Review, error)

	// RatingSummary aggregates the scores a user has received.
	RatingSummary(ctx context.Context, userID string) (*RatingSummary, error)
}

// SubmitReviewRequest contains parameters for a review.
type SubmitReviewRequest struct {
	TaskID     string
	ReviewerID string
	Score      int
	Text       string
}

// Review represents a review at the port boundary.
type Review struct {
	ID            string
	TaskID        string
	ReviewerID    string
	RevieweeID    string
	ReviewerParty string
	Score         int
	Text          string
	CreatedAt     time.Time
}

// RatingSummary aggregates received scores.
type RatingSummary struct {
	UserID    string
	Count     int
	Average   float64
	Histogram map[int]int
}

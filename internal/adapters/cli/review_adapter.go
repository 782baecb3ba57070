package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/rabotim/internal/core/review"
	"github.com/example/rabotim/internal/ports/primary"
)

// ReviewAdapter translates CLI operations to ReviewService calls.
type ReviewAdapter struct {
	service primary.ReviewService
	out     io.Writer
}

// NewReviewAdapter creates a new ReviewAdapter.
func NewReviewAdapter(service primary.ReviewService, out io.Writer) *ReviewAdapter {
	return &ReviewAdapter{service: service, out: out}
}

// Submit records a review.
func (a *ReviewAdapter) Submit(ctx context.Context, req primary.SubmitReviewRequest) error {
	r, err := a.service.SubmitReview(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Rated %s %s on task %s\n", green("✓"), r.RevieweeID, stars(r.Score), r.TaskID)
	return nil
}

// List lists reviews a user received.
func (a *ReviewAdapter) List(ctx context.Context, userID string) error {
	reviews, err := a.service.ListReviewsFor(ctx, userID)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		fmt.Fprintf(a.out, "No reviews for %s\n", userID)
		return nil
	}

	for _, r := range reviews {
		fmt.Fprintf(a.out, "%s  %s as %s  %s\n", stars(r.Score), r.ReviewerID, r.ReviewerParty, faint(r.CreatedAt.Format("2006-01-02")))
		if r.Text != "" {
			fmt.Fprintf(a.out, "    %s\n", r.Text)
		}
	}
	return nil
}

// Rating prints a user's rating summary.
func (a *ReviewAdapter) Rating(ctx context.Context, userID string) error {
	sum, err := a.service.RatingSummary(ctx, userID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\n%s: %.2f from %d review(s)\n", userID, sum.Average, sum.Count)
	for score := review.MaxScore; score >= review.MinScore; score-- {
		fmt.Fprintf(a.out, "  %d %s %d\n", score, strings.Repeat("█", sum.Histogram[score]), sum.Histogram[score])
	}
	fmt.Fprintln(a.out)
	return nil
}

func stars(score int) string {
	if score < 0 {
		score = 0
	}
	if score > review.MaxScore {
		score = review.MaxScore
	}
	return yellow(strings.Repeat("★", score)) + strings.Repeat("☆", review.MaxScore-score)
}

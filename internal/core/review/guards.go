// Package review contains the pure business logic for ratings and reviews.
package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/rabotim/internal/core/completion"
	"github.com/example/rabotim/internal/errs"
)

const (
	MinScore      = 1
	MaxScore      = 5
	MaxTextLength = 2000
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    errs.Kind
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return errs.New(r.Kind, "%s", r.Reason)
}

// SubmitReviewContext provides context for review submission guards.
type SubmitReviewContext struct {
	TaskID          string
	Score           int
	Text            string
	Feedback        completion.FeedbackDecision
	AlreadyReviewed bool
}

// NormalizeText trims surrounding whitespace from review text.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}

// CanSubmitReview evaluates whether a review can be recorded.
// Rules:
// - The feedback gate must allow the reviewer
// - Only one review per reviewer and task
// - Score must be 1..5
// - Text must not exceed 2000 characters
func CanSubmitReview(ctx SubmitReviewContext) GuardResult {
	if !ctx.Feedback.Allowed {
		return GuardResult{Kind: errs.KindInvalidState, Reason: ctx.Feedback.Reason}
	}

	if ctx.AlreadyReviewed {
		return GuardResult{
			Kind:   errs.KindConflict,
			Reason: fmt.Sprintf("you have already reviewed task %s", ctx.TaskID),
		}
	}

	if ctx.Score < MinScore || ctx.Score > MaxScore {
		return GuardResult{
			Kind:   errs.KindValidation,
			Reason: fmt.Sprintf("score must be between %d and %d (got %d)", MinScore, MaxScore, ctx.Score),
		}
	}

	if n := utf8.RuneCountInString(NormalizeText(ctx.Text)); n > MaxTextLength {
		return GuardResult{
			Kind:   errs.KindValidation,
			Reason: fmt.Sprintf("review text is too long (%d > %d characters)", n, MaxTextLength),
		}
	}

	return GuardResult{Allowed: true}
}

// Summary aggregates scores received by one user.
type Summary struct {
	Count     int
	Average   float64
	Histogram [MaxScore + 1]int // index = score, index 0 unused
}

// Summarize aggregates a list of scores. Out-of-range scores are ignored.
func Summarize(scores []int) Summary {
	var s Summary
	total := 0
	for _, sc := range scores {
		if sc < MinScore || sc > MaxScore {
			continue
		}
		s.Histogram[sc]++
		s.Count++
		total += sc
	}
	if s.Count > 0 {
		s.Average = float64(total) / float64(s.Count)
	}
	return s
}

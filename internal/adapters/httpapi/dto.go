package httpapi

import (
	"time"

	"github.com/example/rabotim/internal/ports/primary"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Budget      int64  `json:"budget"`
}

type applyRequest struct {
	Message string `json:"message"`
}

type confirmRequest struct {
	Party string `json:"party"`
}

type reviewRequest struct {
	Score int    `json:"score"`
	Text  string `json:"text"`
}

type profileRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type taskResponse struct {
	ID                  string     `json:"id"`
	PosterID            string     `json:"poster_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	Category            string     `json:"category,omitempty"`
	Budget              int64      `json:"budget"`
	Status              string     `json:"status"`
	ConfirmedByPoster   bool       `json:"confirmed_by_poster"`
	ConfirmedByPosterAt *time.Time `json:"confirmed_by_poster_at,omitempty"`
	ConfirmedByWorker   bool       `json:"confirmed_by_worker"`
	ConfirmedByWorkerAt *time.Time `json:"confirmed_by_worker_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	StartedAt           *time.Time `json:"started_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`

	Completion *completionResponse `json:"completion,omitempty"`
}

type completionResponse struct {
	Phase       string              `json:"phase"`
	ViewerParty string              `json:"viewer_party"`
	Feedback    eligibilityResponse `json:"feedback"`
}

type eligibilityResponse struct {
	TaskID    string     `json:"task_id"`
	Party     string     `json:"party"`
	Allowed   bool       `json:"allowed"`
	Basis     string     `json:"basis,omitempty"`
	UnlocksAt *time.Time `json:"unlocks_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

type confirmResponse struct {
	Task             taskResponse `json:"task"`
	Party            string       `json:"party"`
	Phase            string       `json:"phase"`
	Completed        bool         `json:"completed"`
	AlreadyConfirmed bool         `json:"already_confirmed"`
	CompletedNow     bool         `json:"completed_now"`
}

type applicationResponse struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id"`
	ApplicantID string     `json:"applicant_id"`
	Message     string     `json:"message,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

type reviewResponse struct {
	ID            string    `json:"id"`
	TaskID        string    `json:"task_id"`
	ReviewerID    string    `json:"reviewer_id"`
	RevieweeID    string    `json:"reviewee_id"`
	ReviewerParty string    `json:"reviewer_party"`
	Score         int       `json:"score"`
	Text          string    `json:"text,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ratingResponse struct {
	UserID    string         `json:"user_id"`
	Count     int            `json:"count"`
	Average   float64        `json:"average"`
	Histogram map[string]int `json:"histogram"`
}

type profileResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

func toTaskResponse(t *primary.Task) taskResponse {
	return taskResponse{
		ID:                  t.ID,
		PosterID:            t.PosterID,
		Title:               t.Title,
		Description:         t.Description,
		Category:            t.Category,
		Budget:              t.Budget,
		Status:              t.Status,
		ConfirmedByPoster:   t.ConfirmedByPoster,
		ConfirmedByPosterAt: t.ConfirmedByPosterAt,
		ConfirmedByWorker:   t.ConfirmedByWorker,
		ConfirmedByWorkerAt: t.ConfirmedByWorkerAt,
		CreatedAt:           t.CreatedAt,
		StartedAt:           t.StartedAt,
		CompletedAt:         t.CompletedAt,
		CancelledAt:         t.CancelledAt,
	}
}

func toEligibilityResponse(e primary.FeedbackEligibility) eligibilityResponse {
	return eligibilityResponse{
		TaskID:    e.TaskID,
		Party:     e.Party,
		Allowed:   e.Allowed,
		Basis:     e.Basis,
		UnlocksAt: e.UnlocksAt,
		Reason:    e.Reason,
	}
}

func toApplicationResponse(a *primary.Application) applicationResponse {
	return applicationResponse{
		ID:          a.ID,
		TaskID:      a.TaskID,
		ApplicantID: a.ApplicantID,
		Message:     a.Message,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		DecidedAt:   a.DecidedAt,
	}
}

func toReviewResponse(r *primary.Review) reviewResponse {
	return reviewResponse{
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

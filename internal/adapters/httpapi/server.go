// Package httpapi exposes the task, completion and review services over
// HTTP with fiber.
package httpapi

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/example/rabotim/internal/ctxutil"
	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/primary"
)

// Services are the primary ports the API serves.
type Services struct {
	Tasks        primary.TaskService
	Applications primary.ApplicationService
	Completion   primary.CompletionService
	Reviews      primary.ReviewService
	Profiles     primary.ProfileService
}

// Server holds the handlers' dependencies.
type Server struct {
	svc    Services
	auth   *Authenticator
	logger *slog.Logger
}

// New builds the fiber app with every route registered.
func New(svc Services, auth *Authenticator, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{svc: svc, auth: auth, logger: logger}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
			c.SetUserContext(ctxutil.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", auth.Middleware())
	api.Put("/profile", s.upsertProfile)

	api.Post("/tasks", s.createTask)
	api.Get("/tasks", s.listTasks)
	api.Get("/tasks/:id", s.getTask)
	api.Post("/tasks/:id/cancel", s.cancelTask)
	api.Post("/tasks/:id/applications", s.apply)
	api.Get("/tasks/:id/applications", s.listApplications)
	api.Post("/tasks/:id/confirm", s.confirm)
	api.Get("/tasks/:id/feedback-eligibility", s.eligibility)
	api.Post("/tasks/:id/reviews", s.submitReview)

	api.Post("/applications/:id/accept", s.accept)
	api.Post("/applications/:id/withdraw", s.withdraw)

	api.Get("/users/:id/reviews", s.listReviews)
	api.Get("/users/:id/rating", s.rating)

	return app
}

var kindStatus = map[errs.Kind]int{
	errs.KindNotFound:     fiber.StatusNotFound,
	errs.KindForbidden:    fiber.StatusForbidden,
	errs.KindInvalidState: fiber.StatusConflict,
	errs.KindConflict:     fiber.StatusConflict,
	errs.KindValidation:   fiber.StatusBadRequest,
	errs.KindTransient:    fiber.StatusServiceUnavailable,
}

// handleError renders every error as an ErrorResponse.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "http_error"
		if fe.Code == fiber.StatusUnauthorized {
			code = "unauthorized"
		}
		return c.Status(fe.Code).JSON(ErrorResponse{Error: code, Message: fe.Message})
	}

	kind := errs.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		s.logger.ErrorContext(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(),
			"request_id", ctxutil.RequestIDFromContext(c.UserContext()), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: string(errs.KindInternal), Message: "internal error"})
	}
	if kind == errs.KindTransient {
		s.logger.WarnContext(c.UserContext(), "store unavailable", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: string(kind), Message: err.Error()})
}

func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		return errs.New(errs.KindValidation, "invalid request body: %v", err)
	}
	return nil
}

func (s *Server) upsertProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		if claims := claimsOf(c); claims != nil {
			req.Email = claims.Email
		}
	}

	p, err := s.svc.Profiles.UpsertProfile(c.UserContext(), primary.UpsertProfileRequest{
		UserID:      actor(c),
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}
	return c.JSON(profileResponse{UserID: p.UserID, Email: p.Email, DisplayName: p.DisplayName})
}

func (s *Server) createTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	t, err := s.svc.Tasks.CreateTask(c.UserContext(), primary.CreateTaskRequest{
		PosterID:    actor(c),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(t))
}

func (s *Server) listTasks(c *fiber.Ctx) error {
	filters := primary.TaskFilters{
		PosterID: c.Query("poster_id"),
		WorkerID: c.Query("worker_id"),
		Status:   c.Query("status"),
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return errs.New(errs.KindValidation, "limit must be a non-negative integer")
		}
		filters.Limit = n
	}

	tasks, err := s.svc.Tasks.ListTasks(c.UserContext(), filters)
	if err != nil {
		return err
	}
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskResponse(t)
	}
	return c.JSON(out)
}

// getTask returns the task and, for its parties, the completion state.
func (s *Server) getTask(c *fiber.Ctx) error {
	ctx := c.UserContext()
	t, err := s.svc.Tasks.GetTask(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	resp := toTaskResponse(t)

	status, err := s.svc.Completion.CompletionStatus(ctx, t.ID, actor(c))
	switch {
	case err == nil:
		resp.Completion = &completionResponse{
			Phase:       status.Phase,
			ViewerParty: status.ViewerParty,
			Feedback:    toEligibilityResponse(status.Feedback),
		}
	case errs.KindOf(err) != errs.KindForbidden:
		return err
	}
	return c.JSON(resp)
}

func (s *Server) cancelTask(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	if err := s.svc.Tasks.CancelTask(ctx, primary.CancelTaskRequest{TaskID: id, ActorID: actor(c)}); err != nil {
		return err
	}
	t, err := s.svc.Tasks.GetTask(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(toTaskResponse(t))
}

func (s *Server) apply(c *fiber.Ctx) error {
	var req applyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	a, err := s.svc.Applications.Apply(c.UserContext(), primary.ApplyRequest{
		TaskID:      c.Params("id"),
		ApplicantID: actor(c),
		Message:     req.Message,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toApplicationResponse(a))
}

func (s *Server) listApplications(c *fiber.Ctx) error {
	apps, err := s.svc.Applications.ListForTask(c.UserContext(), c.Params("id"), actor(c))
	if err != nil {
		return err
	}
	out := make([]applicationResponse, len(apps))
	for i, a := range apps {
		out[i] = toApplicationResponse(a)
	}
	return c.JSON(out)
}

func (s *Server) accept(c *fiber.Ctx) error {
	a, err := s.svc.Applications.Accept(c.UserContext(), primary.DecideApplicationRequest{
		ApplicationID: c.Params("id"),
		ActorID:       actor(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(toApplicationResponse(a))
}

func (s *Server) withdraw(c *fiber.Ctx) error {
	err := s.svc.Applications.Withdraw(c.UserContext(), primary.DecideApplicationRequest{
		ApplicationID: c.Params("id"),
		ActorID:       actor(c),
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := s.svc.Completion.ConfirmCompletion(c.UserContext(), primary.ConfirmCompletionRequest{
		TaskID: c.Params("id"),
		UserID: actor(c),
		Party:  req.Party,
	})
	if err != nil {
		return err
	}
	return c.JSON(confirmResponse{
		Task:             toTaskResponse(resp.Task),
		Party:            resp.Party,
		Phase:            resp.Phase,
		Completed:        resp.Completed,
		AlreadyConfirmed: resp.AlreadyConfirmed,
		CompletedNow:     resp.CompletedNow,
	})
}

func (s *Server) eligibility(c *fiber.Ctx) error {
	e, err := s.svc.Completion.FeedbackEligibility(c.UserContext(), c.Params("id"), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(toEligibilityResponse(*e))
}

func (s *Server) submitReview(c *fiber.Ctx) error {
	var req reviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	r, err := s.svc.Reviews.SubmitReview(c.UserContext(), primary.SubmitReviewRequest{
		TaskID:     c.Params("id"),
		ReviewerID: actor(c),
		Score:      req.Score,
		Text:       req.Text,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toReviewResponse(r))
}

func (s *Server) listReviews(c *fiber.Ctx) error {
	reviews, err := s.svc.Reviews.ListReviewsFor(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]reviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = toReviewResponse(r)
	}
	return c.JSON(out)
}

func (s *Server) rating(c *fiber.Ctx) error {
	sum, err := s.svc.Reviews.RatingSummary(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	histogram := make(map[string]int, len(sum.Histogram))
	for score, n := range sum.Histogram {
		histogram[strconv.Itoa(score)] = n
	}
	return c.JSON(ratingResponse{UserID: sum.UserID, Count: sum.Count, Average: sum.Average, Histogram: histogram})
}

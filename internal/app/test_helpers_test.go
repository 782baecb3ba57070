package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockTaskRepository implements secondary.TaskRepository for testing.
type mockTaskRepository struct {
	tasks      map[string]*secondary.TaskRecord
	createErr  error
	getErr     error
	listErr    error
	confirmErr error
	confirms   int // ConfirmParty calls that reached the store
}

func newMockTaskRepository() *mockTaskRepository {
	return &mockTaskRepository{tasks: make(map[string]*secondary.TaskRecord)}
}

func (m *mockTaskRepository) Create(ctx context.Context, t *secondary.TaskRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	clone := *t
	clone.Status = "pending"
	clone.UpdatedAt = t.CreatedAt
	m.tasks[t.ID] = &clone
	return nil
}

func (m *mockTaskRepository) GetByID(ctx context.Context, id string) (*secondary.TaskRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if t, ok := m.tasks[id]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, errs.New(errs.KindNotFound, "task %s not found", id)
}

func (m *mockTaskRepository) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.TaskRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*secondary.TaskRecord
	for _, t := range m.tasks {
		if filters.PosterID != "" && t.PosterID != filters.PosterID {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockTaskRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	t, ok := m.tasks[id]
	if !ok {
		return errs.New(errs.KindNotFound, "task %s not found", id)
	}
	if t.Status != "pending" && t.Status != "in_progress" {
		return errs.New(errs.KindInvalidState, "can only cancel pending or in_progress tasks (current status: %s)", t.Status)
	}
	t.Status = "cancelled"
	t.CancelledAt = &at
	return nil
}

func (m *mockTaskRepository) ConfirmParty(ctx context.Context, id, party string, at time.Time) (*secondary.ConfirmOutcome, error) {
	m.confirms++
	if m.confirmErr != nil {
		return nil, m.confirmErr
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "task %s not found", id)
	}

	flag, stamp := &t.ConfirmedByPoster, &t.ConfirmedByPosterAt
	if party == "worker" {
		flag, stamp = &t.ConfirmedByWorker, &t.ConfirmedByWorkerAt
	}

	outcome := &secondary.ConfirmOutcome{}
	switch {
	case *flag:
	case t.Status != "in_progress":
		return nil, errs.New(errs.KindInvalidState, "task %s is not in progress (current status: %s)", id, t.Status)
	default:
		stampAt := at
		*flag, *stamp = true, &stampAt
		outcome.Applied = true
		if t.ConfirmedByPoster && t.ConfirmedByWorker {
			t.Status = "completed"
			t.CompletedAt = &stampAt
			outcome.CompletedNow = true
		}
	}

	clone := *t
	outcome.Task = &clone
	return outcome, nil
}

// mockApplicationRepository implements secondary.ApplicationRepository for testing.
type mockApplicationRepository struct {
	apps      map[string]*secondary.ApplicationRecord
	tasks     *mockTaskRepository
	createErr error
}

func newMockApplicationRepository(tasks *mockTaskRepository) *mockApplicationRepository {
	return &mockApplicationRepository{apps: make(map[string]*secondary.ApplicationRecord), tasks: tasks}
}

func (m *mockApplicationRepository) Create(ctx context.Context, a *secondary.ApplicationRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	clone := *a
	clone.Status = "pending"
	m.apps[a.ID] = &clone
	return nil
}

func (m *mockApplicationRepository) GetByID(ctx context.Context, id string) (*secondary.ApplicationRecord, error) {
	if a, ok := m.apps[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, errs.New(errs.KindNotFound, "application %s not found", id)
}

func (m *mockApplicationRepository) ListByTask(ctx context.Context, taskID string) ([]*secondary.ApplicationRecord, error) {
	var result []*secondary.ApplicationRecord
	for _, a := range m.apps {
		if a.TaskID == taskID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockApplicationRepository) GetAccepted(ctx context.Context, taskID string) (*secondary.ApplicationRecord, error) {
	for _, a := range m.apps {
		if a.TaskID == taskID && a.Status == "accepted" {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockApplicationRepository) Exists(ctx context.Context, taskID, applicantID string) (bool, error) {
	for _, a := range m.apps {
		if a.TaskID == taskID && a.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApplicationRepository) Accept(ctx context.Context, id string, at time.Time) error {
	a, ok := m.apps[id]
	if !ok {
		return errs.New(errs.KindNotFound, "application %s not found", id)
	}
	a.Status = "accepted"
	a.DecidedAt = &at
	for _, other := range m.apps {
		if other.TaskID == a.TaskID && other.ID != id && other.Status == "pending" {
			other.Status = "rejected"
			other.DecidedAt = &at
		}
	}
	if t, ok := m.tasks.tasks[a.TaskID]; ok {
		t.Status = "in_progress"
		t.StartedAt = &at
	}
	return nil
}

func (m *mockApplicationRepository) Withdraw(ctx context.Context, id string, at time.Time) error {
	a, ok := m.apps[id]
	if !ok {
		return errs.New(errs.KindNotFound, "application %s not found", id)
	}
	a.Status = "withdrawn"
	a.DecidedAt = &at
	return nil
}

// mockReviewRepository implements secondary.ReviewRepository for testing.
type mockReviewRepository struct {
	reviews []*secondary.ReviewRecord
}

func (m *mockReviewRepository) Create(ctx context.Context, r *secondary.ReviewRecord) error {
	for _, existing := range m.reviews {
		if existing.TaskID == r.TaskID && existing.ReviewerID == r.ReviewerID {
			return errs.New(errs.KindConflict, "you have already reviewed task %s", r.TaskID)
		}
	}
	m.reviews = append(m.reviews, r)
	return nil
}

func (m *mockReviewRepository) Exists(ctx context.Context, taskID, reviewerID string) (bool, error) {
	for _, r := range m.reviews {
		if r.TaskID == taskID && r.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewRepository) ListForUser(ctx context.Context, revieweeID string) ([]*secondary.ReviewRecord, error) {
	var result []*secondary.ReviewRecord
	for _, r := range m.reviews {
		if r.RevieweeID == revieweeID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockReviewRepository) ListForTask(ctx context.Context, taskID string) ([]*secondary.ReviewRecord, error) {
	var result []*secondary.ReviewRecord
	for _, r := range m.reviews {
		if r.TaskID == taskID {
			result = append(result, r)
		}
	}
	return result, nil
}

// mockProfileRepository implements secondary.ProfileRepository for testing.
type mockProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]*secondary.ProfileRecord
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{profiles: map[string]*secondary.ProfileRecord{
		"poster-1": {ID: "poster-1", Email: "poster@example.com"},
		"worker-1": {ID: "worker-1", Email: "worker@example.com"},
	}}
}

func (m *mockProfileRepository) Upsert(ctx context.Context, p *secondary.ProfileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.profiles[p.ID] = &clone
	return nil
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id string) (*secondary.ProfileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return nil, errs.New(errs.KindNotFound, "profile %s not found", id)
}

// mockLogWriter implements secondary.LogWriter for testing.
type mockLogWriter struct {
	entries []string
}

func (m *mockLogWriter) LogCreate(ctx context.Context, entityType, entityID string) error {
	m.entries = append(m.entries, "create "+entityType+" "+entityID)
	return nil
}

func (m *mockLogWriter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	m.entries = append(m.entries, "update "+entityType+" "+entityID+" "+fieldName+" "+oldValue+"->"+newValue)
	return nil
}

// mockNotifier implements secondary.Notifier for testing.
type mockNotifier struct {
	mu   sync.Mutex
	sent []secondary.Notification
	err  error
}

func (m *mockNotifier) Notify(ctx context.Context, n secondary.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, len(m.sent))
	for i, n := range m.sent {
		keys[i] = n.Key
	}
	sort.Strings(keys)
	return keys
}

// mockLedger implements secondary.NotificationLedger for testing.
type mockLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *mockLedger) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

// mockPublisher implements secondary.EventPublisher for testing.
type mockPublisher struct {
	mu     sync.Mutex
	events []secondary.Event
}

func (m *mockPublisher) Publish(ctx context.Context, e secondary.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

// ============================================================================
// Fixtures
// ============================================================================

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fixedClock returns a settable clock starting at start.
func fixedClock(start time.Time) (func() time.Time, func(time.Time)) {
	now := start
	return func() time.Time { return now }, func(t time.Time) { now = t }
}

// testEnv wires every service against shared mocks.
type testEnv struct {
	tasks     *mockTaskRepository
	apps      *mockApplicationRepository
	reviews   *mockReviewRepository
	profiles  *mockProfileRepository
	logWriter *mockLogWriter
	notifier  *mockNotifier
	publisher *mockPublisher

	dispatcher *Dispatcher
	taskSvc    *TaskServiceImpl
	appSvc     *ApplicationServiceImpl
	completion *CompletionServiceImpl
	reviewSvc  *ReviewServiceImpl
	setNow     func(time.Time)
}

func newTestEnv() *testEnv {
	e := &testEnv{
		tasks:     newMockTaskRepository(),
		reviews:   &mockReviewRepository{},
		profiles:  newMockProfileRepository(),
		logWriter: &mockLogWriter{},
		notifier:  &mockNotifier{},
		publisher: &mockPublisher{},
	}
	e.apps = newMockApplicationRepository(e.tasks)
	e.dispatcher = NewDispatcher(e.notifier, &mockLedger{}, e.profiles, e.publisher, nil)

	resolver := NewPartyResolver(e.tasks, e.apps)
	now, set := fixedClock(epoch)
	e.setNow = set

	e.taskSvc = NewTaskService(e.tasks, e.apps, e.logWriter, e.dispatcher, nil)
	e.taskSvc.now = now
	e.appSvc = NewApplicationService(e.tasks, e.apps, e.logWriter, e.dispatcher, nil)
	e.appSvc.now = now
	e.completion = NewCompletionService(e.tasks, resolver, e.logWriter, e.dispatcher, nil, 0)
	e.completion.now = now
	e.reviewSvc = NewReviewService(e.reviews, resolver, e.logWriter, e.dispatcher, nil, 0)
	e.reviewSvc.now = now
	return e
}

// seedInProgress stores task id with poster-1 as poster and worker-1 as
// the accepted worker.
func (e *testEnv) seedInProgress(id string) {
	started := epoch.Add(-time.Hour)
	e.tasks.tasks[id] = &secondary.TaskRecord{
		ID: id, PosterID: "poster-1", Title: "Fix the sink", Status: "in_progress",
		CreatedAt: started, UpdatedAt: started, StartedAt: &started,
	}
	e.apps.apps["APP-"+id] = &secondary.ApplicationRecord{
		ID: "APP-" + id, TaskID: id, ApplicantID: "worker-1", Status: "accepted", DecidedAt: &started,
	}
}

// Package wire provides dependency injection for the rabotim application.
// It builds the services once per process from the environment.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"

	cliadapter "github.com/example/rabotim/internal/adapters/cli"
	"github.com/example/rabotim/internal/adapters/email"
	"github.com/example/rabotim/internal/adapters/httpapi"
	natsadapter "github.com/example/rabotim/internal/adapters/nats"
	"github.com/example/rabotim/internal/adapters/postgres"
	redisadapter "github.com/example/rabotim/internal/adapters/redis"
	"github.com/example/rabotim/internal/adapters/sqlite"
	"github.com/example/rabotim/internal/app"
	"github.com/example/rabotim/internal/config"
	"github.com/example/rabotim/internal/db"
	"github.com/example/rabotim/internal/logging"
	"github.com/example/rabotim/internal/ports/secondary"
)

// Container holds the wired services and the resources behind them.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB

	Dispatcher   *app.Dispatcher
	Tasks        *app.TaskServiceImpl
	Applications *app.ApplicationServiceImpl
	Completion   *app.CompletionServiceImpl
	Reviews      *app.ReviewServiceImpl
	Profiles     *app.ProfileServiceImpl
	Logs         *app.LogServiceImpl

	// FeedbackChecker is the store's own gate function, nil for SQLite.
	FeedbackChecker secondary.FeedbackChecker

	closers []func() error
}

type repositories struct {
	tasks        secondary.TaskRepository
	applications secondary.ApplicationRepository
	reviews      secondary.ReviewRepository
	profiles     secondary.ProfileRepository
	logs         secondary.ActivityLogRepository
	checker      secondary.FeedbackChecker
}

// Build opens the configured store and external services and wires every
// application service.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	repos, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}

	ledger, err := c.openLedger(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	var publisher secondary.EventPublisher
	if cfg.NATSURL != "" {
		p, err := natsadapter.Connect(cfg.NATSURL, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.closers = append(c.closers, p.Close)
		publisher = p
	}

	var notifier secondary.Notifier = email.NewLogNotifier(logger)
	if cfg.ResendAPIKey != "" {
		notifier = email.NewResendNotifier(cfg.ResendAPIKey, cfg.ResendFrom, cfg.ResendURL, logger)
	}

	c.Dispatcher = app.NewDispatcher(notifier, ledger, repos.profiles, publisher, logger)
	logWriter := sqlite.NewLogWriterAdapter(repos.logs)
	resolver := app.NewPartyResolver(repos.tasks, repos.applications)

	c.Tasks = app.NewTaskService(repos.tasks, repos.applications, logWriter, c.Dispatcher, logger)
	c.Applications = app.NewApplicationService(repos.tasks, repos.applications, logWriter, c.Dispatcher, logger)
	c.Completion = app.NewCompletionService(repos.tasks, resolver, logWriter, c.Dispatcher, logger, cfg.FeedbackUnlockAfter)
	c.Reviews = app.NewReviewService(repos.reviews, resolver, logWriter, c.Dispatcher, logger, cfg.FeedbackUnlockAfter)
	c.Profiles = app.NewProfileService(repos.profiles)
	c.Logs = app.NewLogService(repos.logs)
	c.FeedbackChecker = repos.checker

	return c, nil
}

func (c *Container) openStore(ctx context.Context) (*repositories, error) {
	switch c.Config.DBDriver {
	case config.DriverPostgres:
		database, err := db.OpenPostgres(ctx, c.Config.DatabaseURL, c.Logger)
		if err != nil {
			return nil, err
		}
		c.DB = database
		c.closers = append(c.closers, database.Close)

		tasks := postgres.NewTaskRepository(database)
		return &repositories{
			tasks:        tasks,
			applications: postgres.NewApplicationRepository(database),
			reviews:      postgres.NewReviewRepository(database),
			profiles:     postgres.NewProfileRepository(database),
			logs:         postgres.NewActivityLogRepository(database),
			checker:      tasks,
		}, nil
	default:
		database, err := db.OpenSQLite(ctx, c.Config.DBPath, c.Logger)
		if err != nil {
			return nil, err
		}
		c.DB = database
		c.closers = append(c.closers, database.Close)

		return &repositories{
			tasks:        sqlite.NewTaskRepository(database),
			applications: sqlite.NewApplicationRepository(database),
			reviews:      sqlite.NewReviewRepository(database),
			profiles:     sqlite.NewProfileRepository(database),
			logs:         sqlite.NewActivityLogRepository(database),
		}, nil
	}
}

func (c *Container) openLedger(ctx context.Context) (secondary.NotificationLedger, error) {
	if c.Config.RedisURL == "" {
		return redisadapter.NewMemoryLedger(), nil
	}
	client, err := redisadapter.Dial(ctx, c.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() error { return closeRedis(client) })
	return redisadapter.NewLedger(client), nil
}

func closeRedis(client *goredis.Client) error {
	if err := client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// Close waits for in-flight notifications, then releases resources in
// reverse order of acquisition.
func (c *Container) Close() error {
	c.Dispatcher.Wait()

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// HTTP returns the fiber app serving the API.
func (c *Container) HTTP() *fiber.App {
	return httpapi.New(httpapi.Services{
		Tasks:        c.Tasks,
		Applications: c.Applications,
		Completion:   c.Completion,
		Reviews:      c.Reviews,
		Profiles:     c.Profiles,
	}, httpapi.NewAuthenticator(c.Config.JWTSecret, c.Config.JWTIssuer), c.Logger)
}

// TaskAdapter returns a TaskAdapter writing to out.
func (c *Container) TaskAdapter(out io.Writer) *cliadapter.TaskAdapter {
	return cliadapter.NewTaskAdapter(c.Tasks, c.Completion, c.FeedbackChecker, out)
}

// ApplicationAdapter returns an ApplicationAdapter writing to out.
func (c *Container) ApplicationAdapter(out io.Writer) *cliadapter.ApplicationAdapter {
	return cliadapter.NewApplicationAdapter(c.Applications, out)
}

// ReviewAdapter returns a ReviewAdapter writing to out.
func (c *Container) ReviewAdapter(out io.Writer) *cliadapter.ReviewAdapter {
	return cliadapter.NewReviewAdapter(c.Reviews, out)
}

var (
	container *Container
	initErr   error
	once      sync.Once
)

// Get returns the process-wide container, building it from the
// environment on first use.
func Get() (*Container, error) {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			initErr = err
			return
		}
		slog.SetDefault(logger)
		container, initErr = Build(context.Background(), cfg, logger)
	})
	return container, initErr
}

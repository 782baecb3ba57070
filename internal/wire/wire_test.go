package wire

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/rabotim/internal/config"
	"github.com/example/rabotim/internal/ports/primary"
)

func TestBuild_SQLite(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"RABOTIM_DB_PATH":    filepath.Join(t.TempDir(), "wire.db"),
		"RABOTIM_JWT_SECRET": "secret",
	})
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	c, err := Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer c.Close()

	if c.FeedbackChecker != nil {
		t.Error("expected no store gate function for sqlite")
	}
	if c.Completion.UnlockAfter() != cfg.FeedbackUnlockAfter {
		t.Errorf("expected unlock delay %s, got %s", cfg.FeedbackUnlockAfter, c.Completion.UnlockAfter())
	}

	ctx := context.Background()
	task, err := c.Tasks.CreateTask(ctx, primary.CreateTaskRequest{PosterID: "poster-1", Title: "Clean windows"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	var out bytes.Buffer
	if err := c.TaskAdapter(&out).Show(ctx, task.ID, "poster-1"); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if !strings.Contains(out.String(), "Clean windows") {
		t.Errorf("unexpected output %q", out.String())
	}

	resp, err := c.HTTP().Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestBuild_UnreachableRedis(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"RABOTIM_DB_PATH":   filepath.Join(t.TempDir(), "wire.db"),
		"RABOTIM_REDIS_URL": "redis://127.0.0.1:1/0",
	})
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if _, err := Build(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for unreachable redis")
	}
}

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/rabotim/internal/ports/secondary"
)

func TestDispatcher_DeduplicatesByKey(t *testing.T) {
	notifier := &mockNotifier{}
	d := NewDispatcher(notifier, &mockLedger{}, newMockProfileRepository(), nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d.Notify(ctx, "worker-1", "confirm-requested:T1:worker", "Please confirm", "body")
	}
	d.Wait()

	if keys := notifier.keys(); len(keys) != 1 {
		t.Errorf("expected one delivery, got %v", keys)
	}
	if notifier.sent[0].To != "worker@example.com" {
		t.Errorf("expected delivery to the profile email, got %s", notifier.sent[0].To)
	}
}

func TestDispatcher_SkipsUnknownProfile(t *testing.T) {
	notifier := &mockNotifier{}
	d := NewDispatcher(notifier, nil, newMockProfileRepository(), nil, nil)

	d.Notify(context.Background(), "ghost", "k", "s", "b")
	d.Wait()

	if len(notifier.sent) != 0 {
		t.Errorf("expected nothing sent, got %v", notifier.sent)
	}
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	notifier := &mockNotifier{err: errors.New("smtp down")}
	publisher := &mockPublisher{}
	d := NewDispatcher(notifier, nil, newMockProfileRepository(), publisher, nil)
	ctx, cancel := context.WithCancel(context.Background())

	d.Notify(ctx, "poster-1", "k", "s", "b")
	d.Publish(ctx, secondary.Event{Type: "task.completed", TaskID: "T1"})
	cancel()
	d.Wait()

	if types := publisher.types(); len(types) != 1 {
		t.Errorf("expected event published despite cancelled request, got %v", types)
	}
}

func TestDispatcher_NilIsNoop(t *testing.T) {
	var d *Dispatcher
	d.Notify(context.Background(), "u", "k", "s", "b")
	d.Publish(context.Background(), secondary.Event{Type: "x"})
	d.Wait()
}

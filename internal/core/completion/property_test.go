package completion

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/example/rabotim/internal/core/task"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func partyOf(poster bool) Party {
	if poster {
		return PartyPoster
	}
	return PartyWorker
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return gopter.NewProperties(parameters)
}

// Property: With(p, t1).With(p, t2) == With(p, t1)
func TestConfirmationIdempotence(t *testing.T) {
	properties := newProperties()

	properties.Property("second confirmation keeps the first stamp", prop.ForAll(
		func(poster bool, first, second int64) bool {
			p := partyOf(poster)
			once := Confirmation{}.With(p, epoch.Add(time.Duration(first)*time.Second))
			twice := once.With(p, epoch.Add(time.Duration(second)*time.Second))
			return once == twice
		},
		gen.Bool(),
		gen.Int64Range(0, 90*24*3600),
		gen.Int64Range(0, 90*24*3600),
	))

	properties.TestingRun(t)
}

// Property: the phase is completed iff both parties confirmed, whichever order.
func TestConfirmationSymmetry(t *testing.T) {
	properties := newProperties()

	properties.Property("order of confirmations does not matter", prop.ForAll(
		func(a, b int64) bool {
			ta := epoch.Add(time.Duration(a) * time.Second)
			tb := epoch.Add(time.Duration(b) * time.Second)
			posterFirst := Confirmation{}.With(PartyPoster, ta)
			workerFirst := Confirmation{}.With(PartyWorker, tb)
			if posterFirst.Phase() == PhaseCompleted || workerFirst.Phase() == PhaseCompleted {
				return false
			}
			return posterFirst.With(PartyWorker, tb) == workerFirst.With(PartyPoster, ta) &&
				posterFirst.With(PartyWorker, tb).Phase() == PhaseCompleted
		},
		gen.Int64Range(0, 90*24*3600),
		gen.Int64Range(0, 90*24*3600),
	))

	properties.TestingRun(t)
}

// Property: with a single confirmation younger than the delay, nobody may
// leave feedback.
func TestNoPrematureUnlock(t *testing.T) {
	properties := newProperties()

	properties.Property("gate stays closed inside the delay", prop.ForAll(
		func(poster, viewPoster bool, elapsed int64) bool {
			c := Confirmation{}.With(partyOf(poster), epoch)
			d := EvaluateFeedback(FeedbackContext{
				TaskID:       "T",
				Status:       task.StatusInProgress,
				Confirmation: c,
				Viewer:       partyOf(viewPoster),
				Now:          epoch.Add(time.Duration(elapsed) * time.Second),
			})
			return !d.Allowed
		},
		gen.Bool(),
		gen.Bool(),
		gen.Int64Range(0, int64(FeedbackUnlockDelay/time.Second)-1),
	))

	properties.TestingRun(t)
}

// Property: the confirming party is allowed from T+7d on and denied before,
// and the projected unlock is always T+7d.
func TestTimeoutUnlock(t *testing.T) {
	properties := newProperties()
	delay := int64(FeedbackUnlockDelay / time.Second)

	properties.Property("gate opens exactly at the delay", prop.ForAll(
		func(poster bool, offset int64) bool {
			p := partyOf(poster)
			c := Confirmation{}.With(p, epoch)
			now := epoch.Add(time.Duration(delay+offset) * time.Second)
			d := EvaluateFeedback(FeedbackContext{
				TaskID: "T", Status: task.StatusInProgress, Confirmation: c, Viewer: p, Now: now,
			})
			if offset >= 0 {
				return d.Allowed && d.Basis == BasisTimeout && !d.HasProjection()
			}
			return !d.Allowed && d.UnlocksAt.Equal(epoch.Add(FeedbackUnlockDelay))
		},
		gen.Bool(),
		gen.Int64Range(-delay, delay),
	))

	properties.TestingRun(t)
}

// Property: completed tasks allow both parties regardless of timestamps.
func TestCompletedUniversality(t *testing.T) {
	properties := newProperties()

	properties.Property("completed status always allows", prop.ForAll(
		func(viewPoster bool, a, b, now int64) bool {
			c := Confirmation{}.
				With(PartyPoster, epoch.Add(time.Duration(a)*time.Second)).
				With(PartyWorker, epoch.Add(time.Duration(b)*time.Second))
			d := EvaluateFeedback(FeedbackContext{
				TaskID:       "T",
				Status:       task.StatusCompleted,
				Confirmation: c,
				Viewer:       partyOf(viewPoster),
				Now:          epoch.Add(time.Duration(now) * time.Second),
			})
			return d.Allowed && d.Basis == BasisCompleted
		},
		gen.Bool(),
		gen.Int64Range(0, 30*24*3600),
		gen.Int64Range(0, 30*24*3600),
		gen.Int64Range(-30*24*3600, 30*24*3600),
	))

	properties.TestingRun(t)
}

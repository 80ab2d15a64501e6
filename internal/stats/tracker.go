package stats

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/verte-zerg/stenotutor/internal/classify"
	"github.com/verte-zerg/stenotutor/internal/model"
)

// LogSource provides a consistent snapshot of the practice history.
type LogSource interface {
	Exercises(ctx context.Context) ([]model.LoggedExercise, error)
}

// Tracker publishes the latest statistics snapshot. Readers always see a
// complete snapshot; refreshes replace it atomically.
type Tracker struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	opts    []Option
}

// NewTracker returns a tracker whose snapshot starts out empty.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{opts: opts}
	t.current.Store(Empty())
	return t
}

// Snapshot returns the published snapshot.
func (t *Tracker) Snapshot() *Snapshot {
	return t.current.Load()
}

// Refresh reads the log and publishes a newly computed snapshot. On error or
// cancellation the previous snapshot stays in place.
func (t *Tracker) Refresh(ctx context.Context, src LogSource, ix *classify.Index) (*Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	exercises, err := src.Exercises(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := Compute(exercises, ix, t.opts...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.current.Store(snap)
	return snap, nil
}

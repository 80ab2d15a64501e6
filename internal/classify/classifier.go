package classify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/verte-zerg/stenotutor/internal/dictionary"
	"github.com/verte-zerg/stenotutor/internal/rules"
)

// Classifier caches the latest complete index. Readers never observe a
// partially built index; a failed or cancelled rebuild keeps the previous one.
type Classifier struct {
	mu      sync.Mutex
	current atomic.Pointer[Index]
	opts    []Option
}

// NewClassifier returns a classifier that passes opts to every rebuild.
func NewClassifier(opts ...Option) *Classifier {
	return &Classifier{opts: opts}
}

// Current returns the published index, or nil before the first rebuild.
func (c *Classifier) Current() *Index {
	return c.current.Load()
}

// Get returns the published index when it was built from the same dictionary
// and catalogue versions, and rebuilds otherwise. A reused index is rebound to
// dict and cat so that it always reports the values it was asked for.
func (c *Classifier) Get(ctx context.Context, dict *dictionary.Dictionary, cat *rules.Catalogue) (*Index, error) {
	ix := c.current.Load()
	if ix == nil || !sameVersions(ix, dict, cat) {
		return c.Rebuild(ctx, dict, cat)
	}
	if ix.dict == dict && ix.cat == cat {
		return ix, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rebound := *ix
	rebound.dict, rebound.cat = dict, cat
	c.current.CompareAndSwap(ix, &rebound)
	return &rebound, nil
}

// Rebuild classifies dict against cat and publishes the result.
func (c *Classifier) Rebuild(ctx context.Context, dict *dictionary.Dictionary, cat *rules.Catalogue) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ix, err := Classify(ctx, dict, cat, c.opts...)
	if err != nil {
		return nil, err
	}
	c.current.Store(ix)
	return ix, nil
}

func sameVersions(ix *Index, dict *dictionary.Dictionary, cat *rules.Catalogue) bool {
	return ix.dict.Version() == dict.Version() && ix.cat.Version() == cat.Version()
}

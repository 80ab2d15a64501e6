// Package classify tags every dictionary stroke with the rules that explain
// it and answers eligibility queries over the result.
package classify

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/stenotutor/internal/chord"
	"github.com/verte-zerg/stenotutor/internal/dictionary"
	"github.com/verte-zerg/stenotutor/internal/rules"
)

const (
	minChunk         = 64
	chunksPerWorker  = 4
	cancelCheckEvery = 256
)

// Option configures Classify.
type Option func(*options)

type options struct {
	workers int
	rules   []string
}

// WithWorkers bounds the number of goroutines classifying in parallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithRules evaluates only the given rules and their dependencies. The
// resulting index is partial: it reports only those rules and its
// UNCATEGORIZED bucket is empty. Requesting UNCATEGORIZED forces a full
// classification.
func WithRules(ids ...string) Option {
	return func(o *options) {
		o.rules = append([]string{}, ids...)
	}
}

// Index is an immutable classification of a dictionary against a catalogue.
type Index struct {
	dict     *dictionary.Dictionary
	cat      *rules.Catalogue
	byStroke [][]string
	byRule   map[string][]int
	faults   []rules.Fault
	partial  bool
}

// Classify evaluates every rule against every stroke. The result does not
// depend on the number of workers. When ctx is cancelled no index is returned.
func Classify(ctx context.Context, dict *dictionary.Dictionary, cat *rules.Catalogue, opts ...Option) (*Index, error) {
	o := options{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	var sel *rules.Selection
	partial := o.rules != nil && !slices.Contains(o.rules, rules.Uncategorized)
	if partial {
		var err error
		sel, err = cat.Select(o.rules...)
		if err != nil {
			return nil, err
		}
	}

	n := dict.Len()
	tags := make([][]string, n)
	faults := make([][]rules.Fault, n)

	chunk := max(minChunk, (n+o.workers*chunksPerWorker-1)/(o.workers*chunksPerWorker))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for start := 0; start < n; start += chunk {
		if gctx.Err() != nil {
			break
		}
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%cancelCheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				tags[i], faults[i] = cat.Evaluate(dict.Stroke(i), sel)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ix := &Index{
		dict:     dict,
		cat:      cat,
		byStroke: tags,
		byRule:   make(map[string][]int),
		partial:  partial,
	}
	for i, ids := range tags {
		if len(ids) == 0 && !partial {
			ids = []string{rules.Uncategorized}
			tags[i] = ids
		}
		for _, id := range ids {
			ix.byRule[id] = append(ix.byRule[id], i)
		}
		ix.faults = append(ix.faults, faults[i]...)
	}
	return ix, nil
}

// Dictionary returns the classified dictionary.
func (ix *Index) Dictionary() *dictionary.Dictionary {
	return ix.dict
}

// Catalogue returns the catalogue used for classification.
func (ix *Index) Catalogue() *rules.Catalogue {
	return ix.cat
}

// Partial reports whether only a subset of rules was evaluated.
func (ix *Index) Partial() bool {
	return ix.partial
}

// Len returns the number of classified strokes.
func (ix *Index) Len() int {
	return len(ix.byStroke)
}

// Stroke returns the stroke at dictionary position i.
func (ix *Index) Stroke(i int) chord.Stroke {
	return ix.dict.Stroke(i)
}

// Rules returns the rules tagging the stroke at position i, in catalogue
// order. A stroke no rule matched is tagged UNCATEGORIZED.
func (ix *Index) Rules(i int) []string {
	return slices.Clone(ix.byStroke[i])
}

// Strokes returns the ascending positions of strokes tagged with rule id.
func (ix *Index) Strokes(id string) []int {
	return slices.Clone(ix.byRule[id])
}

// Lookup finds a stroke and its rules by outline and word.
func (ix *Index) Lookup(outline, word string) (int, []string, bool) {
	i, ok := ix.dict.Lookup(outline, word)
	if !ok {
		return 0, nil, false
	}
	return i, ix.byStroke[i], true
}

// Counts returns the number of strokes per rule, including UNCATEGORIZED.
func (ix *Index) Counts() map[string]int {
	out := make(map[string]int, len(ix.byRule))
	for id, positions := range ix.byRule {
		out[id] = len(positions)
	}
	return out
}

// Faults returns the matcher faults recorded during classification.
func (ix *Index) Faults() []rules.Fault {
	return slices.Clone(ix.faults)
}

// Eligible returns the ascending positions of strokes tagged by at least one
// enabled rule. UNCATEGORIZED strokes are included only when that category is
// enabled.
func (ix *Index) Eligible(enabled map[string]bool) []int {
	marks := make([]bool, len(ix.byStroke))
	count := 0
	for id, on := range enabled {
		if !on {
			continue
		}
		for _, i := range ix.byRule[id] {
			if !marks[i] {
				marks[i] = true
				count++
			}
		}
	}
	out := make([]int, 0, count)
	for i, ok := range marks {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

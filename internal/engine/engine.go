// Package engine wires the classifier, performance tracker, selector and
// history log together for the application.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/verte-zerg/stenotutor/internal/chord"
	"github.com/verte-zerg/stenotutor/internal/classify"
	"github.com/verte-zerg/stenotutor/internal/dictionary"
	"github.com/verte-zerg/stenotutor/internal/logging"
	"github.com/verte-zerg/stenotutor/internal/metrics"
	"github.com/verte-zerg/stenotutor/internal/model"
	"github.com/verte-zerg/stenotutor/internal/rules"
	"github.com/verte-zerg/stenotutor/internal/selector"
	"github.com/verte-zerg/stenotutor/internal/stats"
)

// HistoryLog is the practice history collaborator. The engine reads it and
// appends completed exercises through it; it never rewrites entries.
type HistoryLog interface {
	Exercises(ctx context.Context) ([]model.LoggedExercise, error)
	RecentExercises(ctx context.Context, n int) ([]model.LoggedExercise, error)
	AppendExercise(ctx context.Context, ex model.LoggedExercise) (string, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records engine activity on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClassifyOptions passes options to every classification.
func WithClassifyOptions(opts ...classify.Option) Option {
	return func(e *Engine) {
		e.classifyOpts = append(e.classifyOpts, opts...)
	}
}

// WithStatsOptions passes options to every statistics refresh.
func WithStatsOptions(opts ...stats.Option) Option {
	return func(e *Engine) {
		e.statsOpts = append(e.statsOpts, opts...)
	}
}

// Engine is safe for concurrent use. Indexes and statistics are published
// as immutable snapshots, so generation never sees a half-built state.
type Engine struct {
	dict       *dictionary.Dictionary
	cat        atomic.Pointer[rules.Catalogue]
	classifier *classify.Classifier
	tracker    *stats.Tracker
	log        HistoryLog

	classifyOpts []classify.Option
	statsOpts    []stats.Option
	metrics      *metrics.Manager
	logger       *slog.Logger

	// swap orders catalogue switches against statistics refreshes.
	swap      sync.Mutex
	refreshes sync.WaitGroup
}

// New returns an engine for dict and cat. No work is done until the first
// Reclassify, RefreshStats or Next.
func New(cat *rules.Catalogue, dict *dictionary.Dictionary, log HistoryLog, opts ...Option) *Engine {
	e := &Engine{
		dict:   dict,
		log:    log,
		logger: logging.New("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cat.Store(cat)
	e.classifier = classify.NewClassifier(e.classifyOpts...)
	e.tracker = stats.NewTracker(e.statsOpts...)
	if skipped := cat.Skipped(); len(skipped) > 0 {
		e.metrics.RecordSkippedRules(len(skipped))
		for _, err := range skipped {
			e.logger.Warn("rule skipped", slog.String("error", err.Error()))
		}
	}
	return e
}

// Catalogue returns the active rule catalogue.
func (e *Engine) Catalogue() *rules.Catalogue {
	return e.cat.Load()
}

// Dictionary returns the dictionary.
func (e *Engine) Dictionary() *dictionary.Dictionary {
	return e.dict
}

// Index returns the published classification index, or nil before the
// first successful classification.
func (e *Engine) Index() *classify.Index {
	return e.classifier.Current()
}

// Stats returns the published statistics snapshot.
func (e *Engine) Stats() *stats.Snapshot {
	return e.tracker.Snapshot()
}

// Reclassify returns the index for the active catalogue, rebuilding it when
// the dictionary or catalogue changed. A cancelled rebuild leaves the last
// good index published.
func (e *Engine) Reclassify(ctx context.Context) (*classify.Index, error) {
	return e.classify(ctx, e.cat.Load())
}

func (e *Engine) classify(ctx context.Context, cat *rules.Catalogue) (*classify.Index, error) {
	if ix := e.classifier.Current(); ix != nil && ix.Catalogue() == cat && ix.Dictionary() == e.dict {
		return ix, nil
	}
	start := time.Now()
	ix, err := e.classifier.Get(ctx, e.dict, cat)
	e.metrics.RecordClassification(time.Since(start), e.dict.Len(), err)
	if err != nil {
		return nil, err
	}
	e.reportFaults(ix)
	e.logger.Debug("dictionary classified",
		slog.Int("strokes", ix.Len()),
		slog.Int("rules", cat.Len()),
		slog.Duration("took", time.Since(start)))
	return ix, nil
}

func (e *Engine) reportFaults(ix *classify.Index) {
	faults := ix.Faults()
	if len(faults) == 0 {
		return
	}
	perRule := map[string]int{}
	var order []string
	for _, f := range faults {
		e.metrics.RecordRuleFault(f.Rule)
		if perRule[f.Rule] == 0 {
			order = append(order, f.Rule)
			e.logger.Warn("rule faulted",
				slog.String("rule", f.Rule),
				slog.String("outline", f.Outline),
				slog.String("word", f.Word),
				slog.String("error", f.Err.Error()))
		}
		perRule[f.Rule]++
	}
	for _, rule := range order {
		if n := perRule[rule]; n > 1 {
			e.logger.Warn("rule faulted on more strokes", slog.String("rule", rule), slog.Int("strokes", n))
		}
	}
}

// SetCatalogue classifies the dictionary against cat, recomputes statistics
// with the new rule tags and then makes cat active. On failure the previous
// catalogue and statistics stay in effect.
func (e *Engine) SetCatalogue(ctx context.Context, cat *rules.Catalogue) error {
	e.swap.Lock()
	defer e.swap.Unlock()
	ix, err := e.classify(ctx, cat)
	if err != nil {
		return err
	}
	if _, err := e.refresh(ctx, ix); err != nil {
		return fmt.Errorf("failed to refresh statistics: %w", err)
	}
	e.cat.Store(cat)
	e.metrics.RecordSkippedRules(len(cat.Skipped()))
	return nil
}

// RefreshStats recomputes statistics from the history log.
func (e *Engine) RefreshStats(ctx context.Context) (*stats.Snapshot, error) {
	e.swap.Lock()
	defer e.swap.Unlock()
	ix, err := e.Reclassify(ctx)
	if err != nil {
		return nil, err
	}
	return e.refresh(ctx, ix)
}

func (e *Engine) refresh(ctx context.Context, ix *classify.Index) (*stats.Snapshot, error) {
	start := time.Now()
	snap, err := e.tracker.Refresh(ctx, e.log, ix)
	e.metrics.RecordStatsRefresh(time.Since(start), err)
	return snap, err
}

// RefreshStatsAsync refreshes statistics in the background. The returned
// channel receives the result and is then closed.
func (e *Engine) RefreshStatsAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	e.refreshes.Add(1)
	go func() {
		defer e.refreshes.Done()
		defer close(done)
		_, err := e.RefreshStats(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Warn("statistics refresh failed", slog.String("error", err.Error()))
		}
		done <- err
	}()
	return done
}

// Wait blocks until background refreshes have finished.
func (e *Engine) Wait() {
	e.refreshes.Wait()
}

// Next selects the strokes of the next exercise, deterministically for seed.
// It uses a single statistics snapshot for the whole selection.
func (e *Engine) Next(ctx context.Context, settings model.ExerciseSettings, seed int64) ([]chord.Stroke, error) {
	ix, err := e.Reclassify(ctx)
	if err != nil {
		return nil, err
	}
	var recent []model.LoggedExercise
	if settings.RecentWindow > 0 {
		recent, err = e.log.RecentExercises(ctx, settings.RecentWindow)
		if err != nil {
			return nil, err
		}
	}
	snap := e.tracker.Snapshot()
	strokes, err := selector.Next(ix, settings, snap, recent, seed)
	if err != nil {
		if errors.Is(err, selector.ErrNoEligibleEntries) {
			e.metrics.IncrementNoEligible()
		}
		return nil, err
	}
	e.metrics.IncrementExercisesGenerated()
	return strokes, nil
}

// Record appends a completed exercise to the history log and refreshes
// statistics. The stored exercise id is returned.
func (e *Engine) Record(ctx context.Context, ex model.LoggedExercise) (string, error) {
	id, err := e.log.AppendExercise(ctx, ex)
	if err != nil {
		return "", err
	}
	e.metrics.IncrementExercisesRecorded()
	if _, err := e.RefreshStats(ctx); err != nil {
		return id, err
	}
	return id, nil
}

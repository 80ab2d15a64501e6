// Package stats contains performance statistics calculations and reporting.
package stats

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/verte-zerg/stenotutor/internal/classify"
	"github.com/verte-zerg/stenotutor/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Mode selects how older exercises count towards statistics.
type Mode int

const (
	// ModeDecay weighs every exercise by 0.5^(age/half-life), age counted in
	// exercises before the most recent one.
	ModeDecay Mode = iota
	// ModeWindow counts only the most recent exercises, all equally.
	ModeWindow
)

const (
	defaultHalfLife = 20.0
	defaultWindow   = 20
)

// ParseMode converts a config value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "decay":
		return ModeDecay, true
	case "window":
		return ModeWindow, true
	default:
		return ModeDecay, false
	}
}

func (m Mode) String() string {
	if m == ModeWindow {
		return "window"
	}
	return "decay"
}

// Option configures Compute.
type Option func(*options)

type options struct {
	mode      Mode
	halfLife  float64
	window    int
	skipFirst bool
}

func defaultOptions() options {
	return options{mode: ModeDecay, halfLife: defaultHalfLife, window: defaultWindow, skipFirst: true}
}

// WithMode selects the recency mode.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithHalfLife sets the decay half-life in exercises.
func WithHalfLife(exercises float64) Option {
	return func(o *options) {
		if exercises > 0 {
			o.halfLife = exercises
		}
	}
}

// WithWindow sets the number of exercises counted in window mode.
func WithWindow(exercises int) Option {
	return func(o *options) {
		if exercises > 0 {
			o.window = exercises
		}
	}
}

// WithFirstStroke controls whether the first stroke of every exercise is
// counted. Its time includes reading the new exercise, so it is skipped by
// default.
func WithFirstStroke(include bool) Option {
	return func(o *options) {
		o.skipFirst = !include
	}
}

// PerformanceStat aggregates attempts of one rule or stroke. Weighted fields
// carry the recency weight of every attempt.
type PerformanceStat struct {
	ID          string
	Attempts    int
	Errors      int
	Weight      float64
	ErrorWeight float64
	CleanWeight float64
	DurationSum float64
	LastSeen    time.Time
}

// Known reports whether the stat has any attempts.
func (p PerformanceStat) Known() bool {
	return p.Attempts > 0
}

// ErrorRate is the weighted share of attempts with at least one mistake.
func (p PerformanceStat) ErrorRate() float64 {
	if p.Weight <= 0 {
		return 0
	}
	return p.ErrorWeight / p.Weight
}

// HasDuration reports whether an error-free attempt exists.
func (p PerformanceStat) HasDuration() bool {
	return p.CleanWeight > 0
}

// MeanDuration is the weighted mean time of error-free attempts.
func (p PerformanceStat) MeanDuration() time.Duration {
	if p.CleanWeight <= 0 {
		return 0
	}
	return time.Duration(p.DurationSum / p.CleanWeight)
}

func (p *PerformanceStat) add(st model.LoggedStroke, w float64, at time.Time) {
	p.Attempts++
	p.Weight += w
	if st.Errors > 0 {
		p.Errors += st.Errors
		p.ErrorWeight += w
	} else {
		p.CleanWeight += w
		p.DurationSum += w * float64(st.Duration)
	}
	if at.After(p.LastSeen) {
		p.LastSeen = at
	}
}

// Snapshot is an immutable view of performance at one point in time.
type Snapshot struct {
	rules     map[string]PerformanceStat
	strokes   map[string]PerformanceStat
	exercises int
	mode      Mode
}

// Empty returns a snapshot in which everything is unknown.
func Empty() *Snapshot {
	return &Snapshot{rules: map[string]PerformanceStat{}, strokes: map[string]PerformanceStat{}}
}

// Rule returns the stat of a rule; unknown rules have zero attempts.
func (s *Snapshot) Rule(id string) PerformanceStat {
	if s == nil {
		return PerformanceStat{ID: id}
	}
	if p, ok := s.rules[id]; ok {
		return p
	}
	return PerformanceStat{ID: id}
}

// Stroke returns the stat of a stroke identified by chord.Stroke.Key.
func (s *Snapshot) Stroke(key string) PerformanceStat {
	if s == nil {
		return PerformanceStat{ID: key}
	}
	if p, ok := s.strokes[key]; ok {
		return p
	}
	return PerformanceStat{ID: key}
}

// Rules returns the known rule stats ordered by id.
func (s *Snapshot) Rules() []PerformanceStat {
	return sortedStats(s.ruleMap())
}

// Strokes returns the known stroke stats ordered by key.
func (s *Snapshot) Strokes() []PerformanceStat {
	if s == nil {
		return nil
	}
	return sortedStats(s.strokes)
}

// Exercises returns the number of exercises that contributed.
func (s *Snapshot) Exercises() int {
	if s == nil {
		return 0
	}
	return s.exercises
}

// Mode returns the recency mode the snapshot was computed with.
func (s *Snapshot) Mode() Mode {
	if s == nil {
		return ModeDecay
	}
	return s.mode
}

func (s *Snapshot) ruleMap() map[string]PerformanceStat {
	if s == nil {
		return nil
	}
	return s.rules
}

func sortedStats(m map[string]PerformanceStat) []PerformanceStat {
	out := make([]PerformanceStat, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b PerformanceStat) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Compute builds a snapshot from logged exercises. Every attempt counts for
// its stroke and for each rule tagging that stroke in ix. Strokes missing from
// the classified dictionary are ignored.
func Compute(exercises []model.LoggedExercise, ix *classify.Index, opts ...Option) *Snapshot {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ordered := slices.Clone(exercises)
	slices.SortStableFunc(ordered, func(a, b model.LoggedExercise) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	if o.mode == ModeWindow && len(ordered) > o.window {
		ordered = ordered[len(ordered)-o.window:]
	}

	snap := Empty()
	snap.mode = o.mode
	snap.exercises = len(ordered)
	if ix == nil {
		return snap
	}
	last := len(ordered) - 1
	for k, ex := range ordered {
		w := 1.0
		if o.mode == ModeDecay {
			w = math.Pow(0.5, float64(last-k)/o.halfLife)
		}
		for j, st := range ex.Strokes {
			if j == 0 && o.skipFirst {
				continue
			}
			pos, ids, ok := ix.Lookup(st.Outline, st.Word)
			if !ok {
				continue
			}
			at := st.StartedAt
			if at.IsZero() {
				at = ex.StartedAt
			}
			key := ix.Stroke(pos).Key()
			sp := snap.strokes[key]
			sp.ID = key
			sp.add(st, w, at)
			snap.strokes[key] = sp
			for _, id := range ids {
				rp := snap.rules[id]
				rp.ID = id
				rp.add(st, w, at)
				snap.rules[id] = rp
			}
		}
	}
	return snap
}

// ExerciseMetrics computes strokes per minute and accuracy for an exercise.
func ExerciseMetrics(ex model.LoggedExercise) (spm, accuracy float64) {
	if len(ex.Strokes) == 0 {
		return 0, 0
	}
	clean := 0
	for _, st := range ex.Strokes {
		if st.Clean() {
			clean++
		}
	}
	accuracy = float64(clean) / float64(len(ex.Strokes))
	minutes := ex.Duration().Minutes()
	if minutes > 0 {
		spm = float64(len(ex.Strokes)) / minutes
	}
	return spm, accuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		return slices.Clone(values)
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(min(i+1, window))
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := slices.Min(values), slices.Max(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

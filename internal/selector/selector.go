// Package selector picks the strokes of the next exercise, biased towards
// the rules and strokes the learner struggles with.
package selector

import (
	"cmp"
	"errors"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/verte-zerg/stenotutor/internal/chord"
	"github.com/verte-zerg/stenotutor/internal/classify"
	"github.com/verte-zerg/stenotutor/internal/model"
	"github.com/verte-zerg/stenotutor/internal/stats"
)

var (
	// ErrNoEligibleEntries is returned when no enabled rule tags any stroke.
	ErrNoEligibleEntries = errors.New("no eligible entries")
	// ErrInvalidLength is returned for a non-positive exercise length.
	ErrInvalidLength = errors.New("exercise length must be positive")
)

const (
	// ReferenceDuration is the stroke time scoring half of the time term.
	ReferenceDuration = 1500 * time.Millisecond
	minDifficulty     = 0.05
)

// Difficulty scores a stat in (0, 1]. Unknown stats score 1; known stats
// score below 1 and grow with mean duration and error rate.
func Difficulty(p stats.PerformanceStat) float64 {
	if !p.Known() {
		return 1
	}
	timeTerm := 0.0
	if p.HasDuration() {
		d := float64(p.MeanDuration())
		timeTerm = d / (d + float64(ReferenceDuration))
	} else {
		// Never written cleanly: only the error rate says anything.
		timeTerm = p.ErrorRate()
	}
	return minDifficulty + (1-minDifficulty)*(0.5*timeTerm+0.5*p.ErrorRate())
}

// Weight combines the difficulty of every rule tagging the stroke at pos
// with the difficulty of the stroke itself.
func Weight(ix *classify.Index, snap *stats.Snapshot, pos int) float64 {
	ids := ix.Rules(pos)
	ruleScore := 1.0
	if len(ids) > 0 {
		sum := 0.0
		for _, id := range ids {
			sum += Difficulty(snap.Rule(id))
		}
		ruleScore = sum / float64(len(ids))
	}
	return ruleScore * Difficulty(snap.Stroke(ix.Stroke(pos).Key()))
}

// Selector draws exercises from a seeded random source.
type Selector struct {
	rnd *rand.Rand
}

// New returns a selector seeded with seed.
func New(seed int64) *Selector {
	return &Selector{rnd: rand.New(rand.NewSource(seed))}
}

// Next is a convenience for New(seed).Next.
func Next(ix *classify.Index, settings model.ExerciseSettings, snap *stats.Snapshot, recent []model.LoggedExercise, seed int64) ([]chord.Stroke, error) {
	return New(seed).Next(ix, settings, snap, recent)
}

// Next samples settings.Length strokes without replacement from the eligible
// set, weighted by Weight. Strokes shown in the last settings.RecentWindow
// recent exercises are held back unless the pool would otherwise be smaller
// than the exercise. When the whole eligible set is smaller than the
// exercise, further passes fill it without repeating a stroke back to back.
func (s *Selector) Next(ix *classify.Index, settings model.ExerciseSettings, snap *stats.Snapshot, recent []model.LoggedExercise) ([]chord.Stroke, error) {
	if settings.Length <= 0 {
		return nil, ErrInvalidLength
	}
	eligible := ix.Eligible(settings.Enabled)
	if len(eligible) == 0 {
		return nil, ErrNoEligibleEntries
	}
	pool := admit(ix, eligible, recent, settings.RecentWindow, settings.Length)

	weights := make(map[int]float64, len(pool))
	for _, pos := range pool {
		weights[pos] = Weight(ix, snap, pos)
	}

	picked := make([]int, 0, settings.Length)
	for len(picked) < settings.Length {
		pass := s.sample(pool, weights)
		if n := len(picked); n > 0 && len(pass) > 1 && pass[0] == picked[n-1] {
			pass[0], pass[1] = pass[1], pass[0]
		}
		picked = append(picked, pass[:min(len(pass), settings.Length-len(picked))]...)
	}

	out := make([]chord.Stroke, len(picked))
	for i, pos := range picked {
		out[i] = ix.Stroke(pos)
	}
	return out, nil
}

// sample orders pool by Efraimidis-Spirakis keys ln(u)/w, largest first.
// Equal keys keep dictionary order.
func (s *Selector) sample(pool []int, weights map[int]float64) []int {
	type keyed struct {
		pos int
		key float64
	}
	keys := make([]keyed, len(pool))
	for i, pos := range pool {
		u := 1 - s.rnd.Float64()
		keys[i] = keyed{pos: pos, key: math.Log(u) / weights[pos]}
	}
	slices.SortStableFunc(keys, func(a, b keyed) int {
		if c := cmp.Compare(b.key, a.key); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = k.pos
	}
	return out
}

// admit removes strokes of the last window recent exercises from eligible,
// re-admitting them oldest exercise first while the pool is smaller than
// length. The result is in dictionary order.
func admit(ix *classify.Index, eligible []int, recent []model.LoggedExercise, window, length int) []int {
	if window <= 0 || len(recent) == 0 {
		return eligible
	}
	ordered := slices.Clone(recent)
	slices.SortStableFunc(ordered, func(a, b model.LoggedExercise) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	if len(ordered) > window {
		ordered = ordered[len(ordered)-window:]
	}

	lastSeen := map[int]int{}
	for k, ex := range ordered {
		for _, st := range ex.Strokes {
			if pos, _, ok := ix.Lookup(st.Outline, st.Word); ok {
				lastSeen[pos] = k
			}
		}
	}

	pool := make([]int, 0, len(eligible))
	held := make([][]int, len(ordered))
	for _, pos := range eligible {
		if k, ok := lastSeen[pos]; ok {
			held[k] = append(held[k], pos)
			continue
		}
		pool = append(pool, pos)
	}
	for k := 0; k < len(held) && len(pool) < length; k++ {
		pool = append(pool, held[k]...)
	}
	slices.Sort(pool)
	return pool
}

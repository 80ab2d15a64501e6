package selector

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/stenotutor/internal/chord"
	"github.com/verte-zerg/stenotutor/internal/classify"
	"github.com/verte-zerg/stenotutor/internal/dictionary"
	"github.com/verte-zerg/stenotutor/internal/model"
	"github.com/verte-zerg/stenotutor/internal/rules"
	"github.com/verte-zerg/stenotutor/internal/stats"
)

const scenarioRules = `
version: 1
rules:
  - id: BRIEF
    max-chords: 1
    when: letters > 4
  - id: PHONETIC
    min-chords: 2
    when: chords == syllables
`

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func buildIndex(t *testing.T, doc string, entries []dictionary.Entry) *classify.Index {
	t.Helper()
	cat, err := rules.LoadYAML([]byte(doc))
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	dict, err := dictionary.Load(slices.Values(entries))
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	ix, err := classify.Classify(context.Background(), dict, cat)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	return ix
}

func words(strokes []chord.Stroke) []string {
	out := make([]string, len(strokes))
	for i, s := range strokes {
		out[i] = s.Word()
	}
	return out
}

func settings(length, window int, enabled ...string) model.ExerciseSettings {
	m := map[string]bool{}
	for _, id := range enabled {
		m[id] = true
	}
	return model.ExerciseSettings{Enabled: m, Length: length, RecentWindow: window}
}

// shortWords is a dictionary of single-chord words all tagged SHORT.
func shortWords(t *testing.T, n int) *classify.Index {
	t.Helper()
	outlines := []string{"KAT", "TKOG", "PWAT", "HAT", "PHAT", "RAT", "SAT", "PAT", "TAT", "WAT", "KOT", "HOT"}
	var entries []dictionary.Entry
	for i := 0; i < n; i++ {
		entries = append(entries, dictionary.Entry{Outline: outlines[i], Word: fmt.Sprintf("w%02d", i)})
	}
	return buildIndex(t, "version: 1\nrules:\n  - id: SHORT\n    max-chords: 1\n    when: chords == 1\n", entries)
}

func logOf(start time.Time, strokes []chord.Stroke, ms ...int) model.LoggedExercise {
	ex := model.LoggedExercise{StartedAt: start, EndedAt: start.Add(time.Minute)}
	for i, s := range strokes {
		d := time.Second
		if i < len(ms) {
			d = time.Duration(ms[i]) * time.Millisecond
		}
		ex.Strokes = append(ex.Strokes, model.LoggedStroke{Outline: s.Outline(), Word: s.Word(), Duration: d})
	}
	return ex
}

func TestNextScenario(t *testing.T) {
	ix := buildIndex(t, scenarioRules, []dictionary.Entry{
		{Outline: "STKPWR", Word: "stamp"},
		{Outline: "ST", Word: "the"},
	})
	got, err := Next(ix, settings(1, 0, "BRIEF"), stats.Empty(), nil, 1)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if diff := cmp.Diff([]string{"stamp"}, words(got)); diff != "" {
		t.Fatalf("exercise mismatch (-want +got):\n%s", diff)
	}

	disabled := model.ExerciseSettings{
		Enabled: map[string]bool{"BRIEF": false, "PHONETIC": false, rules.Uncategorized: false},
		Length:  1,
	}
	got, err = Next(ix, disabled, stats.Empty(), nil, 1)
	if !errors.Is(err, ErrNoEligibleEntries) {
		t.Fatalf("expected ErrNoEligibleEntries, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected no exercise, got %v", got)
	}
}

func TestNextRejectsInvalidLength(t *testing.T) {
	ix := shortWords(t, 3)
	if _, err := Next(ix, settings(0, 0, "SHORT"), nil, nil, 1); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestDifficultyDirection(t *testing.T) {
	slow := stats.PerformanceStat{Attempts: 4, Weight: 4, CleanWeight: 4, DurationSum: 4 * float64(800*time.Millisecond)}
	fast := stats.PerformanceStat{Attempts: 4, Weight: 4, CleanWeight: 4, DurationSum: 4 * float64(400*time.Millisecond)}
	if Difficulty(slow) <= Difficulty(fast) {
		t.Fatalf("slower stat must be harder: %v <= %v", Difficulty(slow), Difficulty(fast))
	}
	sloppy := fast
	sloppy.ErrorWeight = 1
	sloppy.Weight = 5
	sloppy.Attempts = 5
	if Difficulty(sloppy) <= Difficulty(fast) {
		t.Fatalf("error-prone stat must be harder: %v <= %v", Difficulty(sloppy), Difficulty(fast))
	}
	for _, p := range []stats.PerformanceStat{slow, fast, sloppy} {
		if d := Difficulty(p); d >= 1 || d <= 0 {
			t.Fatalf("known difficulty out of range: %v", d)
		}
	}
	if Difficulty(stats.PerformanceStat{}) != 1 {
		t.Fatalf("unknown stat must be maximally difficult")
	}
}

func TestWeightDirection(t *testing.T) {
	ix := shortWords(t, 3)
	a, b := ix.Stroke(0), ix.Stroke(1)
	warmup := ix.Stroke(2)
	log := []model.LoggedExercise{
		logOf(base, []chord.Stroke{warmup, a, b}, 100, 900, 300),
		logOf(base.Add(time.Minute), []chord.Stroke{warmup, b, a}, 100, 300, 900),
	}
	snap := stats.Compute(log, ix)
	if wa, wb := Weight(ix, snap, 0), Weight(ix, snap, 1); wa <= wb {
		t.Fatalf("slower stroke must weigh more: %v <= %v", wa, wb)
	}
	if wc := Weight(ix, snap, 2); wc < Weight(ix, snap, 0) {
		t.Fatalf("unpractised stroke must weigh at least as much as practised ones")
	}
}

func TestUnknownRuleFirst(t *testing.T) {
	ix := buildIndex(t, `
version: 1
rules:
  - id: ONE
    max-chords: 1
    when: chords == 1
  - id: TWO
    min-chords: 2
    when: chords == 2
`, []dictionary.Entry{
		{Outline: "KAT", Word: "cat"},
		{Outline: "TKOG", Word: "dog"},
		{Outline: "KAT/-S", Word: "cats"},
	})
	log := []model.LoggedExercise{logOf(base, []chord.Stroke{ix.Stroke(1), ix.Stroke(0)}, 100, 200)}
	snap := stats.Compute(log, ix)
	if !snap.Rule("ONE").Known() || snap.Rule("TWO").Known() {
		t.Fatalf("unexpected knowledge state")
	}
	if Weight(ix, snap, 2) < Weight(ix, snap, 1) {
		t.Fatalf("stroke of an unknown rule must weigh at least as much as a known one")
	}
}

func TestNextDeterministic(t *testing.T) {
	ix := shortWords(t, 12)
	s := settings(6, 0, "SHORT")
	first, err := Next(ix, s, stats.Empty(), nil, 42)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Next(ix, s, stats.Empty(), nil, 42)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if diff := cmp.Diff(words(first), words(again)); diff != "" {
			t.Fatalf("same seed produced different exercise (-want +got):\n%s", diff)
		}
	}
	seen := map[string]bool{}
	for _, w := range words(first) {
		if seen[w] {
			t.Fatalf("stroke %s drawn twice from a large enough pool", w)
		}
		seen[w] = true
	}
}

func TestNextNoRepeatWithinRecentWindow(t *testing.T) {
	ix := shortWords(t, 12)
	const window = 3
	s := settings(3, window, "SHORT")
	var history []model.LoggedExercise
	sel := New(7)
	for round := 0; round < 20; round++ {
		got, err := sel.Next(ix, s, stats.Empty(), history)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		history = append(history, logOf(base.Add(time.Duration(round)*time.Minute), got))
	}
	for end := window + 1; end <= len(history); end++ {
		seen := map[string]bool{}
		for _, ex := range history[end-window-1 : end] {
			for _, st := range ex.Strokes {
				if seen[st.Word] {
					t.Fatalf("stroke %s repeated within window ending at %d", st.Word, end)
				}
				seen[st.Word] = true
			}
		}
	}
}

func TestNextRelaxesRecentExclusion(t *testing.T) {
	ix := shortWords(t, 3)
	older := logOf(base, []chord.Stroke{ix.Stroke(0)})
	newer := logOf(base.Add(time.Minute), []chord.Stroke{ix.Stroke(1)})
	got, err := Next(ix, settings(2, 5, "SHORT"), stats.Empty(), []model.LoggedExercise{newer, older}, 3)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	w := words(got)
	slices.Sort(w)
	if diff := cmp.Diff([]string{"w00", "w02"}, w); diff != "" {
		t.Fatalf("expected oldest recent stroke to be re-admitted (-want +got):\n%s", diff)
	}
}

func TestNextFillsSmallPoolWithoutBackToBackRepeats(t *testing.T) {
	ix := shortWords(t, 2)
	for seed := int64(0); seed < 50; seed++ {
		got, err := Next(ix, settings(7, 0, "SHORT"), stats.Empty(), nil, seed)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if len(got) != 7 {
			t.Fatalf("expected 7 strokes, got %d", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Equal(got[i-1]) {
				t.Fatalf("seed %d: stroke repeated back to back: %v", seed, words(got))
			}
		}
	}

	single := shortWords(t, 1)
	got, err := Next(single, settings(3, 0, "SHORT"), stats.Empty(), nil, 1)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if diff := cmp.Diff([]string{"w00", "w00", "w00"}, words(got)); diff != "" {
		t.Fatalf("single stroke must be repeated (-want +got):\n%s", diff)
	}
}

func TestNextFavoursWeakStrokes(t *testing.T) {
	ix := shortWords(t, 3)
	strong, weak := ix.Stroke(0), ix.Stroke(1)
	var log []model.LoggedExercise
	for i := 0; i < 5; i++ {
		log = append(log, logOf(base.Add(time.Duration(i)*time.Minute),
			[]chord.Stroke{ix.Stroke(2), strong, weak}, 100, 150, 2500))
	}
	snap := stats.Compute(log, ix)
	counts := map[string]int{}
	s := settings(1, 0, "SHORT")
	s.Enabled = map[string]bool{"SHORT": true}
	for seed := int64(0); seed < 400; seed++ {
		got, err := Next(ix, s, snap, nil, seed)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		counts[got[0].Word()]++
	}
	if counts[weak.Word()] <= counts[strong.Word()] {
		t.Fatalf("expected weak stroke to be drawn more often: %v", counts)
	}
}

package stats

import (
	"cmp"
	"slices"
	"strings"
)

// WeakestStrokes returns the n known strokes with the highest error rate,
// slowest first among equal rates.
func WeakestStrokes(snap *Snapshot, n int) []PerformanceStat {
	if n <= 0 || snap == nil {
		return nil
	}
	candidates := snap.Strokes()
	slices.SortFunc(candidates, func(a, b PerformanceStat) int {
		if c := cmp.Compare(b.ErrorRate(), a.ErrorRate()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.MeanDuration(), a.MeanDuration()); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return candidates[:min(n, len(candidates))]
}

// MostPractised returns the ids of the n rules with the most attempts.
func MostPractised(snap *Snapshot, n int) []string {
	if n <= 0 || snap == nil {
		return nil
	}
	rules := snap.Rules()
	slices.SortStableFunc(rules, func(a, b PerformanceStat) int {
		return cmp.Compare(b.Attempts, a.Attempts)
	})
	out := make([]string, 0, min(n, len(rules)))
	for _, r := range rules[:min(n, len(rules))] {
		out = append(out, r.ID)
	}
	return out
}

// SplitStrokeKey splits a stroke key into outline and word.
func SplitStrokeKey(key string) (outline, word string) {
	outline, word, _ = strings.Cut(key, "\t")
	return outline, word
}

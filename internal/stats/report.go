package stats

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/stenotutor/internal/classify"
	"github.com/verte-zerg/stenotutor/internal/model"
	"github.com/verte-zerg/stenotutor/internal/rules"
)

const (
	defaultTermWidth = 80
	trendPoints      = 24
	weakestShown     = 10
)

// HistorySource lists logged exercises for reporting.
type HistorySource interface {
	ListExercises(ctx context.Context, cfg model.StatsConfig) ([]model.LoggedExercise, error)
}

// RuleRow is one line of the per-rule report.
type RuleRow struct {
	ID      string
	Strokes int
	Stat    PerformanceStat
	Trend   []float64
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Exercises []model.LoggedExercise
	Snapshot  *Snapshot
	Rules     []RuleRow
	Weakest   []PerformanceStat
}

// BuildReport loads the history selected by cfg and prepares per-rule rows.
func BuildReport(ctx context.Context, src HistorySource, ix *classify.Index, cfg model.StatsConfig, opts ...Option) (Report, error) {
	exercises, err := src.ListExercises(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	snap := Compute(exercises, ix, opts...)

	ids := append(ix.Catalogue().IDs(), rules.Uncategorized)
	if len(cfg.Rules) > 0 {
		ids = slices.DeleteFunc(ids, func(id string) bool {
			return !slices.Contains(cfg.Rules, id)
		})
	}
	trends := ruleTrends(exercises, ix)
	rows := make([]RuleRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, RuleRow{
			ID:      id,
			Strokes: len(ix.Strokes(id)),
			Stat:    snap.Rule(id),
			Trend:   trends[id],
		})
	}
	return Report{
		Exercises: exercises,
		Snapshot:  snap,
		Rules:     rows,
		Weakest:   WeakestStrokes(snap, weakestShown),
	}, nil
}

// ruleTrends returns, per rule, the mean error-free stroke time in
// milliseconds of every exercise that practised it.
func ruleTrends(exercises []model.LoggedExercise, ix *classify.Index) map[string][]float64 {
	trends := map[string][]float64{}
	for _, ex := range exercises {
		sums := map[string]float64{}
		counts := map[string]int{}
		for _, st := range ex.Strokes {
			if !st.Clean() {
				continue
			}
			_, ids, ok := ix.Lookup(st.Outline, st.Word)
			if !ok {
				continue
			}
			for _, id := range ids {
				sums[id] += float64(st.Duration.Milliseconds())
				counts[id]++
			}
		}
		for id, n := range counts {
			trends[id] = append(trends[id], sums[id]/float64(n))
		}
	}
	return trends
}

// RenderReport prints the summary, rule table and weakest strokes.
func RenderReport(w io.Writer, rep Report, width int) error {
	if err := RenderSummary(w, rep.Exercises, rep.Snapshot); err != nil {
		return err
	}
	if len(rep.Exercises) == 0 {
		return nil
	}
	if err := RenderRuleTable(w, rep.Rules, width); err != nil {
		return err
	}
	return RenderWeakStrokes(w, rep.Weakest)
}

// RenderSummary prints a summary of the exercises.
func RenderSummary(w io.Writer, exercises []model.LoggedExercise, snap *Snapshot) error {
	if len(exercises) == 0 {
		_, err := fmt.Fprintln(w, "No exercises found.")
		return err
	}
	var totalSPM, totalAcc, bestSPM float64
	strokes := 0
	for _, ex := range exercises {
		spm, acc := ExerciseMetrics(ex)
		totalSPM += spm
		totalAcc += acc
		bestSPM = max(bestSPM, spm)
		strokes += len(ex.Strokes)
	}
	count := float64(len(exercises))
	lines := []string{
		"Summary",
		fmt.Sprintf("Exercises: %d", len(exercises)),
		fmt.Sprintf("Strokes: %d", strokes),
		fmt.Sprintf("Avg words/min: %.2f", totalSPM/count),
		fmt.Sprintf("Best words/min: %.2f", bestSPM),
		fmt.Sprintf("Avg accuracy: %.2f%%", (totalAcc/count)*100),
	}
	if top := MostPractised(snap, 3); len(top) > 0 {
		lines = append(lines, "Most practised: "+strings.Join(top, ", "))
	}
	lines = append(lines, "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderRuleTable prints per-rule statistics. Columns are dropped from the
// right when the table would not fit in width; width <= 0 means unlimited.
func RenderRuleTable(w io.Writer, rows []RuleRow, width int) error {
	headers := []string{"Rule", "Strokes", "Attempts", "Errors", "Error rate", "Mean (ms)", "Trend"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		mean := "-"
		if r.Stat.HasDuration() {
			mean = fmt.Sprintf("%d", r.Stat.MeanDuration().Milliseconds())
		}
		rate := "-"
		if r.Stat.Known() {
			rate = fmt.Sprintf("%.2f%%", r.Stat.ErrorRate()*100)
		}
		trend := r.Trend
		if len(trend) > trendPoints {
			trend = trend[len(trend)-trendPoints:]
		}
		tableRows = append(tableRows, []string{
			r.ID,
			fmt.Sprintf("%d", r.Strokes),
			fmt.Sprintf("%d", r.Stat.Attempts),
			fmt.Sprintf("%d", r.Stat.Errors),
			rate,
			mean,
			Sparkline(MovingAverage(trend, 3)),
		})
	}
	for width > 0 && len(headers) > 2 && tableWidth(headers, tableRows) > width {
		headers = headers[:len(headers)-1]
		for i := range tableRows {
			tableRows[i] = tableRows[i][:len(headers)]
		}
	}

	if _, err := fmt.Fprintln(w, "Per-Rule"); err != nil {
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderWeakStrokes prints the weakest strokes.
func RenderWeakStrokes(w io.Writer, weakest []PerformanceStat) error {
	if len(weakest) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Weakest strokes"); err != nil {
		return err
	}
	headers := []string{"Outline", "Word", "Attempts", "Error rate", "Mean (ms)"}
	rows := make([][]string, 0, len(weakest))
	for _, p := range weakest {
		outline, word := SplitStrokeKey(p.ID)
		mean := "-"
		if p.HasDuration() {
			mean = fmt.Sprintf("%d", p.MeanDuration().Milliseconds())
		}
		rows = append(rows, []string{
			outline,
			word,
			fmt.Sprintf("%d", p.Attempts),
			fmt.Sprintf("%.2f%%", p.ErrorRate()*100),
			mean,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}

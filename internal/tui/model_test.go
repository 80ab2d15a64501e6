package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/stenotutor/internal/chord"
	"github.com/verte-zerg/stenotutor/internal/model"
)

type fakeEngine struct {
	next     []chord.Stroke
	recorded []model.LoggedExercise
}

func (f *fakeEngine) Next(ctx context.Context, settings model.ExerciseSettings, seed int64) ([]chord.Stroke, error) {
	return f.next, nil
}

func (f *fakeEngine) Record(ctx context.Context, ex model.LoggedExercise) (string, error) {
	f.recorded = append(f.recorded, ex)
	return "id", nil
}

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(100 * time.Millisecond)
	return c.t
}

func typeText(m *Model, chunks ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, chunk := range chunks {
		_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(chunk)})
	}
	return cmd
}

func TestPracticeRecordsStrokes(t *testing.T) {
	eng := &fakeEngine{next: []chord.Stroke{
		chord.MustStroke("KAT", "cat"),
		chord.MustStroke("TKOG", "dog"),
	}}
	m := NewModel(eng, model.ExerciseSettings{Length: 2})
	clock := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.now = clock.now

	msg := m.Init()()
	m.Update(msg)
	if string(m.targetRunes) != "cat dog" {
		t.Fatalf("unexpected target %q", string(m.targetRunes))
	}

	if cmd := typeText(m, "cat", " dg"); cmd != nil {
		t.Fatalf("exercise should not finish early")
	}
	if m.completed != 1 || !m.flagged[1] {
		t.Fatalf("expected first word completed and second flagged")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	cmd := typeText(m, "og")
	if cmd == nil {
		t.Fatalf("expected record command when the exercise completes")
	}
	if _, ok := cmd().(recordedMsg); !ok {
		t.Fatalf("expected recordedMsg")
	}
	if len(eng.recorded) != 1 {
		t.Fatalf("expected 1 recorded exercise, got %d", len(eng.recorded))
	}
	ex := eng.recorded[0]
	got := make([][2]any, len(ex.Strokes))
	for i, st := range ex.Strokes {
		got[i] = [2]any{st.Word, st.Errors}
	}
	want := [][2]any{{"cat", 0}, {"dog", 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("strokes mismatch (-want +got):\n%s", diff)
	}
	if ex.Strokes[1].Duration <= 0 {
		t.Fatalf("expected positive duration for the second word: %+v", ex.Strokes[1])
	}
	if !ex.Strokes[1].StartedAt.Equal(ex.Strokes[0].StartedAt.Add(ex.Strokes[0].Duration)) {
		t.Fatalf("expected second word to start when the first completed")
	}
	if len(ex.Strokes[1].KeyPresses) == 0 {
		t.Fatalf("expected key presses on the second stroke")
	}
	if !m.hasLast {
		t.Fatalf("expected last exercise metrics")
	}
}

func TestHintToggle(t *testing.T) {
	m := NewModel(&fakeEngine{}, model.ExerciseSettings{})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !m.showHint {
		t.Fatalf("expected hint to be shown")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.showHint {
		t.Fatalf("expected hint to be hidden")
	}
}

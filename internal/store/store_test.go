package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/stenotutor/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "stenotutor.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func exercise(start time.Time, words ...string) model.LoggedExercise {
	ex := model.LoggedExercise{StartedAt: start}
	at := start
	for i, w := range words {
		st := model.LoggedStroke{
			Outline:   "KAT",
			Word:      w,
			StartedAt: at,
			Duration:  time.Duration(400+i*100) * time.Millisecond,
			Errors:    i % 2,
			KeyPresses: []model.LoggedKeyPress{
				{Text: w[:1], At: at.Add(100 * time.Millisecond)},
				{Text: w, At: at.Add(200 * time.Millisecond)},
			},
		}
		ex.Strokes = append(ex.Strokes, st)
		at = at.Add(st.Duration)
	}
	ex.EndedAt = at
	return ex
}

func TestAppendAndReadBack(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	want := exercise(base, "cat", "dog", "stamp")
	id, err := st.AppendExercise(ctx, want)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}
	want.ID = id

	got, err := st.Exercises(ctx)
	if err != nil {
		t.Fatalf("exercises: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 exercise, got %d", len(got))
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Fatalf("exercise mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentExercisesOrder(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	offsets := []time.Duration{2 * time.Minute, 0, 500 * time.Millisecond, time.Minute}
	for i, off := range offsets {
		ex := exercise(base.Add(off), "cat")
		ex.ID = string(rune('a' + i))
		if _, err := st.AppendExercise(ctx, ex); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := st.Exercises(ctx)
	if err != nil {
		t.Fatalf("exercises: %v", err)
	}
	var ids []string
	for _, ex := range all {
		ids = append(ids, ex.ID)
	}
	if diff := cmp.Diff([]string{"b", "c", "d", "a"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	recent, err := st.RecentExercises(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "d" || recent[1].ID != "a" {
		t.Fatalf("unexpected recent exercises: %+v", recent)
	}

	since := base.Add(30 * time.Second)
	filtered, err := st.ListExercises(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 exercises since %v, got %d", since, len(filtered))
	}
}

func TestClear(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	if _, err := st.AppendExercise(ctx, exercise(time.Now(), "cat", "dog")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	n, err := st.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty history, got %d", n)
	}
	if _, err := st.AppendExercise(ctx, exercise(time.Now(), "cat")); err != nil {
		t.Fatalf("append after clear: %v", err)
	}
}

func TestAppendDuplicateIDRollsBack(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	ex := exercise(time.Now(), "cat")
	ex.ID = "fixed"
	if _, err := st.AppendExercise(ctx, ex); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := st.AppendExercise(ctx, ex); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
	all, err := st.Exercises(ctx)
	if err != nil {
		t.Fatalf("exercises: %v", err)
	}
	if len(all) != 1 || len(all[0].Strokes) != 1 {
		t.Fatalf("expected a single stored exercise, got %+v", all)
	}
}

// Package model defines shared data structures.
package model

import (
	"slices"
	"time"
)

// Config defines practice settings.
type Config struct {
	Dictionary   string
	WordList     string
	RulesPath    string
	Lang         string
	Length       int
	Enabled      []string
	RecentWindow int
	UniqueWords  bool
	Workers      int
	StatsMode    string
	HalfLife     float64
	StatsWindow  int
	SkipFirst    bool
}

// Settings returns the exercise settings derived from the config.
func (c Config) Settings() ExerciseSettings {
	enabled := make(map[string]bool, len(c.Enabled))
	for _, id := range c.Enabled {
		enabled[id] = true
	}
	return ExerciseSettings{
		Enabled:      enabled,
		Length:       c.Length,
		RecentWindow: c.RecentWindow,
	}
}

// ExerciseSettings selects which rule categories are practised and how long
// an exercise is. Enabled may include UNCATEGORIZED.
type ExerciseSettings struct {
	Enabled      map[string]bool
	Length       int
	RecentWindow int
}

// EnabledIDs returns the enabled rule ids in sorted order.
func (s ExerciseSettings) EnabledIDs() []string {
	ids := make([]string, 0, len(s.Enabled))
	for id, on := range s.Enabled {
		if on {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Since *time.Time
	Last  int
	Rules []string
}

// LoggedKeyPress is one piece of text the steno engine emitted while a
// stroke was being practised.
type LoggedKeyPress struct {
	Text string
	At   time.Time
}

// LoggedStroke records one practised stroke within an exercise.
type LoggedStroke struct {
	Outline    string
	Word       string
	StartedAt  time.Time
	Duration   time.Duration
	Errors     int
	KeyPresses []LoggedKeyPress
}

// Clean reports whether the stroke was written without mistakes.
func (s LoggedStroke) Clean() bool {
	return s.Errors == 0
}

// LoggedExercise is a completed exercise as stored in the history log.
type LoggedExercise struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
	Strokes   []LoggedStroke
}

// Duration returns the wall time spent on the exercise.
func (e LoggedExercise) Duration() time.Duration {
	return e.EndedAt.Sub(e.StartedAt)
}

// Errors returns the total number of mistakes in the exercise.
func (e LoggedExercise) Errors() int {
	n := 0
	for _, s := range e.Strokes {
		n += s.Errors
	}
	return n
}

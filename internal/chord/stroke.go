package chord

import (
	"fmt"
	"strings"
)

// Stroke is an ordered, non-empty sequence of chords together with the word it
// writes. Strokes are immutable.
type Stroke struct {
	chords  []Chord
	outline string
	word    string
}

// NewStroke builds a stroke from chords and the written word.
func NewStroke(chords []Chord, word string) (Stroke, error) {
	if len(chords) == 0 {
		return Stroke{}, fmt.Errorf("%w: stroke for %q has no chords", ErrInvalidOutline, word)
	}
	parts := make([]string, len(chords))
	for i, c := range chords {
		if c == 0 {
			return Stroke{}, fmt.Errorf("%w: chord %d of %q", ErrEmptyChord, i, word)
		}
		parts[i] = c.String()
	}
	owned := make([]Chord, len(chords))
	copy(owned, chords)
	return Stroke{
		chords:  owned,
		outline: strings.Join(parts, "/"),
		word:    word,
	}, nil
}

// ParseStroke parses a "/"-separated outline such as "KAT/-S".
func ParseStroke(outline, word string) (Stroke, error) {
	chords, err := ParseOutline(outline)
	if err != nil {
		return Stroke{}, err
	}
	return NewStroke(chords, word)
}

// MustStroke is like ParseStroke but panics on error.
func MustStroke(outline, word string) Stroke {
	s, err := ParseStroke(outline, word)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseOutline parses a "/"-separated sequence of chords.
func ParseOutline(outline string) ([]Chord, error) {
	outline = strings.TrimSpace(outline)
	if outline == "" {
		return nil, fmt.Errorf("%w: empty outline", ErrInvalidOutline)
	}
	parts := strings.Split(outline, "/")
	chords := make([]Chord, 0, len(parts))
	for _, part := range parts {
		c, err := ParseChord(part)
		if err != nil {
			return nil, fmt.Errorf("failed to parse outline %q: %w", outline, err)
		}
		chords = append(chords, c)
	}
	return chords, nil
}

// Len returns the number of chords.
func (s Stroke) Len() int {
	return len(s.chords)
}

// Chord returns the i-th chord. Negative indices count from the end.
func (s Stroke) Chord(i int) (Chord, bool) {
	if i < 0 {
		i += len(s.chords)
	}
	if i < 0 || i >= len(s.chords) {
		return 0, false
	}
	return s.chords[i], true
}

// Chords returns a copy of the chord sequence.
func (s Stroke) Chords() []Chord {
	out := make([]Chord, len(s.chords))
	copy(out, s.chords)
	return out
}

// Word returns the written word.
func (s Stroke) Word() string {
	return s.word
}

// Outline returns the stroke in "/"-separated steno notation.
func (s Stroke) Outline() string {
	return s.outline
}

// Key identifies the stroke by outline and word.
func (s Stroke) Key() string {
	return StrokeKey(s.outline, s.word)
}

// IsZero reports whether s is the zero Stroke.
func (s Stroke) IsZero() bool {
	return len(s.chords) == 0
}

// Equal reports whether both strokes have the same chords and word.
func (s Stroke) Equal(o Stroke) bool {
	if s.word != o.word || len(s.chords) != len(o.chords) {
		return false
	}
	for i := range s.chords {
		if s.chords[i] != o.chords[i] {
			return false
		}
	}
	return true
}

// String renders the stroke as "OUTLINE word".
func (s Stroke) String() string {
	return s.outline + " " + s.word
}

// StrokeKey builds the identity key used for strokes in logs and statistics.
func StrokeKey(outline, word string) string {
	return outline + "\t" + word
}

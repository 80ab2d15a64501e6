package chord

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

var (
	// ErrEmptyChord is returned when a chord has no keys.
	ErrEmptyChord = errors.New("empty chord")
	// ErrInvalidOutline is returned when an outline cannot be parsed in steno order.
	ErrInvalidOutline = errors.New("invalid outline")
)

// Chord is a set of keys pressed together. Two chords are equal iff their key
// sets are equal.
type Chord uint32

// NewChord builds a chord from keys. Duplicate keys collapse.
func NewChord(keys ...Key) (Chord, error) {
	var c Chord
	for _, k := range keys {
		if !k.Valid() {
			return 0, fmt.Errorf("%w: unknown key %d", ErrInvalidOutline, k)
		}
		c |= 1 << k
	}
	if c == 0 {
		return 0, ErrEmptyChord
	}
	return c, nil
}

// MustChord is like NewChord but panics on error. Intended for tables and tests.
func MustChord(keys ...Key) Chord {
	c, err := NewChord(keys...)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseChord parses a single chord in steno order, e.g. "STKPWR" or "-G".
// A hyphen forces the following letters onto the right bank.
func ParseChord(s string) (Chord, error) {
	if s == "" {
		return 0, ErrEmptyChord
	}
	minOrder := -1
	var c Chord
	for i := 0; i < len(s); i++ {
		letter := s[i]
		if letter == '-' {
			minOrder = KeyStar.Order()
			continue
		}
		match, ok := nextKey(letter, minOrder)
		if !ok {
			return 0, fmt.Errorf("%w: %q at position %d of %q", ErrInvalidOutline, letter, i, s)
		}
		minOrder = match.Order()
		c |= 1 << match
	}
	if c == 0 {
		return 0, ErrEmptyChord
	}
	return c, nil
}

func nextKey(letter byte, minOrder int) (Key, bool) {
	best := Key(0)
	found := false
	for k := Key(0); k < numKeys; k++ {
		if k.Letter() != letter || k.Order() <= minOrder {
			continue
		}
		if !found || k.Order() < best.Order() {
			best = k
			found = true
		}
	}
	return best, found
}

// Has reports whether the chord contains k.
func (c Chord) Has(k Key) bool {
	return k.Valid() && c&(1<<k) != 0
}

// Contains reports whether every key of o is in c.
func (c Chord) Contains(o Chord) bool {
	return c&o == o
}

// Len returns the number of keys in the chord.
func (c Chord) Len() int {
	return bits.OnesCount32(uint32(c))
}

// Keys returns the chord's keys in steno order.
func (c Chord) Keys() []Key {
	keys := make([]Key, 0, c.Len())
	for k := Key(0); k < numKeys; k++ {
		if c.Has(k) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Order() < keys[j].Order()
	})
	return keys
}

// LeftOnly reports whether all keys are on the left bank.
func (c Chord) LeftOnly() bool {
	for _, k := range c.Keys() {
		if !k.Left() {
			return false
		}
	}
	return c != 0
}

// RightOnly reports whether all keys are on the right bank.
func (c Chord) RightOnly() bool {
	for _, k := range c.Keys() {
		if !k.Right() {
			return false
		}
	}
	return c != 0
}

// String renders the chord in steno notation. A hyphen separates the banks
// when no vowel or asterisk does.
func (c Chord) String() string {
	var b strings.Builder
	middle := false
	for _, k := range c.Keys() {
		if !k.Left() && !k.Right() {
			middle = true
		}
		if k.Right() && !middle {
			b.WriteByte('-')
			middle = true
		}
		b.WriteByte(k.Letter())
	}
	return b.String()
}

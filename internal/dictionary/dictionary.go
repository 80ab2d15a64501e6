// Package dictionary loads the ordered set of practicable strokes.
package dictionary

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"

	"github.com/verte-zerg/stenotutor/internal/chord"
)

// ErrEmptyDictionary is returned when no usable stroke remains after loading.
var ErrEmptyDictionary = errors.New("dictionary contains no usable strokes")

// Entry is one raw dictionary mapping from outline to written word.
type Entry struct {
	Outline string
	Word    string
}

// SkipError records why an entry was left out of the dictionary.
type SkipError struct {
	Entry Entry
	Err   error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped %s %q: %v", e.Entry.Outline, e.Entry.Word, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

var (
	errDuplicate = errors.New("duplicate entry")
	errFiltered  = errors.New("filtered")
	errWordTaken = errors.New("word already has an outline")
)

// Option configures Load.
type Option func(*options)

type options struct {
	filter      FilterFunc
	uniqueWords bool
}

// WithFilter drops entries the filter rejects.
func WithFilter(f FilterFunc) Option {
	return func(o *options) {
		o.filter = f
	}
}

// UniqueWords keeps only the first outline of every word.
func UniqueWords() Option {
	return func(o *options) {
		o.uniqueWords = true
	}
}

// Dictionary is an immutable, ordered list of strokes. Positions are stable
// and define the dictionary order used for tie-breaking.
type Dictionary struct {
	strokes []chord.Stroke
	index   map[string]int
	version string
	skipped []error
}

// Load builds a dictionary from entries in iteration order.
func Load(entries iter.Seq[Entry], opts ...Option) (*Dictionary, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	d := &Dictionary{index: make(map[string]int)}
	words := make(map[string]bool)
	h := sha256.New()
	for e := range entries {
		skip := func(err error) {
			d.skipped = append(d.skipped, &SkipError{Entry: e, Err: err})
		}
		if o.filter != nil && !o.filter(e) {
			skip(errFiltered)
			continue
		}
		s, err := chord.ParseStroke(e.Outline, e.Word)
		if err != nil {
			skip(err)
			continue
		}
		key := s.Key()
		if _, ok := d.index[key]; ok {
			skip(errDuplicate)
			continue
		}
		if o.uniqueWords {
			if words[s.Word()] {
				skip(errWordTaken)
				continue
			}
			words[s.Word()] = true
		}
		d.index[key] = len(d.strokes)
		d.strokes = append(d.strokes, s)
		h.Write([]byte(key))
		h.Write([]byte{'\n'})
	}
	if len(d.strokes) == 0 {
		return nil, ErrEmptyDictionary
	}
	d.version = hex.EncodeToString(h.Sum(nil))
	return d, nil
}

// LoadFile reads a Plover JSON dictionary from path.
func LoadFile(path string, opts ...Option) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	entries, err := ReadPloverJSON(file)
	if err != nil {
		return nil, err
	}
	return Load(slices.Values(entries), opts...)
}

// Len returns the number of strokes.
func (d *Dictionary) Len() int {
	return len(d.strokes)
}

// Stroke returns the stroke at position i.
func (d *Dictionary) Stroke(i int) chord.Stroke {
	return d.strokes[i]
}

// Strokes iterates strokes with their positions in dictionary order.
func (d *Dictionary) Strokes() iter.Seq2[int, chord.Stroke] {
	return func(yield func(int, chord.Stroke) bool) {
		for i, s := range d.strokes {
			if !yield(i, s) {
				return
			}
		}
	}
}

// Lookup returns the position of the stroke identified by outline and word.
// The outline need not be in canonical notation.
func (d *Dictionary) Lookup(outline, word string) (int, bool) {
	if i, ok := d.index[chord.StrokeKey(outline, word)]; ok {
		return i, true
	}
	s, err := chord.ParseStroke(outline, word)
	if err != nil {
		return 0, false
	}
	i, ok := d.index[s.Key()]
	return i, ok
}

// Version identifies the dictionary content.
func (d *Dictionary) Version() string {
	return d.version
}

// Skipped returns the entries left out while loading, as SkipErrors.
func (d *Dictionary) Skipped() []error {
	return slices.Clone(d.skipped)
}

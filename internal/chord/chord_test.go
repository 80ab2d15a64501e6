package chord

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseChordStenoOrder(t *testing.T) {
	cases := []struct {
		in   string
		want []Key
		str  string
	}{
		{in: "STKPWR", want: []Key{KeySL, KeyTL, KeyKL, KeyPL, KeyWL, KeyRL}, str: "STKPWR"},
		{in: "-G", want: []Key{KeyGR}, str: "-G"},
		{in: "KAT", want: []Key{KeyKL, KeyA, KeyTR}, str: "KAT"},
		{in: "TK-S", want: []Key{KeyTL, KeyKL, KeySR}, str: "TK-S"},
		{in: "SS", want: []Key{KeySL, KeySR}, str: "S-S"},
		{in: "PH*EUPB", want: []Key{KeyPL, KeyHL, KeyStar, KeyE, KeyU, KeyPR, KeyBR}, str: "PH*EUPB"},
	}
	for _, tc := range cases {
		c, err := ParseChord(tc.in)
		if err != nil {
			t.Fatalf("ParseChord(%q): %v", tc.in, err)
		}
		if diff := cmp.Diff(tc.want, c.Keys()); diff != "" {
			t.Fatalf("ParseChord(%q) keys mismatch (-want +got):\n%s", tc.in, diff)
		}
		if c.String() != tc.str {
			t.Fatalf("ParseChord(%q).String() = %q, want %q", tc.in, c.String(), tc.str)
		}
	}
}

func TestParseChordRejectsUnknown(t *testing.T) {
	for _, in := range []string{"1", "#S", "KATX", "ZS"} {
		if _, err := ParseChord(in); !errors.Is(err, ErrInvalidOutline) {
			t.Fatalf("ParseChord(%q): expected ErrInvalidOutline, got %v", in, err)
		}
	}
	if _, err := ParseChord(""); !errors.Is(err, ErrEmptyChord) {
		t.Fatalf("expected ErrEmptyChord, got %v", err)
	}
}

func TestChordEqualityIgnoresOrder(t *testing.T) {
	a := MustChord(KeySL, KeyTL, KeyA)
	b := MustChord(KeyA, KeyTL, KeySL, KeySL)
	if a != b {
		t.Fatalf("expected chords to be equal: %s vs %s", a, b)
	}
	if _, err := NewChord(); !errors.Is(err, ErrEmptyChord) {
		t.Fatalf("expected ErrEmptyChord, got %v", err)
	}
}

func TestKeyPositions(t *testing.T) {
	cases := []struct {
		key      Key
		row, col int
	}{
		{KeySL, 0, 0},
		{KeyKL, 1, 1},
		{KeyA, 2, 4},
		{KeyStar, 0, 6},
		{KeyU, 2, 8},
		{KeyFR, 0, 9},
		{KeyZR, 1, 13},
	}
	for _, tc := range cases {
		if tc.key.Row() != tc.row || tc.key.Column() != tc.col {
			t.Fatalf("%s at (%d,%d), want (%d,%d)", tc.key, tc.key.Row(), tc.key.Column(), tc.row, tc.col)
		}
	}
	if KeyStar.Order() != 9 || KeyE.Order() != 10 || KeyZR.Order() != 21 {
		t.Fatalf("unexpected steno order")
	}
}

func TestParseStroke(t *testing.T) {
	s, err := ParseStroke("RE/TKPWUL/-R", "regular")
	if err != nil {
		t.Fatalf("ParseStroke: %v", err)
	}
	if s.Len() != 3 || s.Outline() != "RE/TKPWUL/-R" || s.Word() != "regular" {
		t.Fatalf("unexpected stroke: %v", s)
	}
	last, ok := s.Chord(-1)
	if !ok || last.String() != "-R" {
		t.Fatalf("unexpected last chord: %v", last)
	}
	if _, err := ParseStroke("", "x"); !errors.Is(err, ErrInvalidOutline) {
		t.Fatalf("expected ErrInvalidOutline, got %v", err)
	}
	if _, err := ParseStroke("KAT//-S", "cats"); err == nil {
		t.Fatalf("expected error for empty chord")
	}
}

func TestStrokeImmutable(t *testing.T) {
	chords := []Chord{MustChord(KeyKL, KeyA, KeyTR)}
	s, err := NewStroke(chords, "cat")
	if err != nil {
		t.Fatalf("NewStroke: %v", err)
	}
	chords[0] = MustChord(KeySL)
	got := s.Chords()
	got[0] = MustChord(KeyZR)
	if s.Outline() != "KAT" {
		t.Fatalf("stroke mutated through caller slice: %s", s.Outline())
	}
	if c, _ := s.Chord(0); c.String() != "KAT" {
		t.Fatalf("stroke mutated through Chords(): %s", c)
	}
}

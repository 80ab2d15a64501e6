package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/verte-zerg/stenotutor/internal/chord"
)

// Matcher decides whether a rule explains how a stroke writes its word.
// Matchers must be pure functions of the stroke and the results of the rules
// they depend on.
type Matcher interface {
	Match(s chord.Stroke, sc *Scope) (bool, error)
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(s chord.Stroke, sc *Scope) (bool, error)

// Match implements Matcher.
func (f MatcherFunc) Match(s chord.Stroke, sc *Scope) (bool, error) {
	return f(s, sc)
}

var ruleCallPattern = regexp.MustCompile(`\brule\(\s*"([^"]*)"\s*\)`)

// definitionMatcher evaluates a Definition: cheap structural checks first,
// then word membership, then the expression.
type definitionMatcher struct {
	minChords int
	maxChords int
	words     map[string]struct{}
	program   *vm.Program
}

func compileDefinition(def Definition) (*definitionMatcher, error) {
	if def.MaxChords > 0 && def.MinChords > def.MaxChords {
		return nil, fmt.Errorf("min-chords %d exceeds max-chords %d", def.MinChords, def.MaxChords)
	}
	m := &definitionMatcher{minChords: def.MinChords, maxChords: def.MaxChords}
	if len(def.Words) > 0 {
		m.words = make(map[string]struct{}, len(def.Words))
		for _, w := range def.Words {
			m.words[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
	}
	if strings.TrimSpace(def.When) != "" {
		declared := make(map[string]bool, len(def.Requires))
		for _, id := range def.Requires {
			declared[id] = true
		}
		for _, call := range ruleCallPattern.FindAllStringSubmatch(def.When, -1) {
			if !declared[call[1]] {
				return nil, fmt.Errorf("expression calls rule(%q) without listing it in requires", call[1])
			}
		}
		program, err := expr.Compile(def.When, expr.Env(envSpec()), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression: %w", err)
		}
		m.program = program
	}
	return m, nil
}

func (m *definitionMatcher) Match(s chord.Stroke, sc *Scope) (bool, error) {
	if m.minChords > 0 && s.Len() < m.minChords {
		return false, nil
	}
	if m.maxChords > 0 && s.Len() > m.maxChords {
		return false, nil
	}
	if m.words != nil {
		if _, ok := m.words[strings.ToLower(s.Word())]; !ok {
			return false, nil
		}
	}
	if m.program == nil {
		return true, nil
	}
	out, err := expr.Run(m.program, sc.exprEnv())
	if err != nil {
		return false, err
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out)
	}
	return matched, nil
}

// envSpec describes the expression environment for type checking.
func envSpec() map[string]any {
	return map[string]any{
		"word":        "",
		"outline":     "",
		"chords":      0,
		"letters":     0,
		"syllables":   0,
		"first_chord": "",
		"last_chord":  "",
		"starred":     false,
		"left_only":   false,
		"right_only":  false,
		"chord":       func(int) string { return "" },
		"has":         func(int, string) bool { return false },
		"rule":        func(string) bool { return false },
	}
}

func buildEnv(s chord.Stroke, sc *Scope) map[string]any {
	first, _ := s.Chord(0)
	last, _ := s.Chord(-1)
	starred := false
	leftOnly := true
	rightOnly := true
	for _, c := range s.Chords() {
		if c.Has(chord.KeyStar) {
			starred = true
		}
		leftOnly = leftOnly && c.LeftOnly()
		rightOnly = rightOnly && c.RightOnly()
	}
	return map[string]any{
		"word":        s.Word(),
		"outline":     s.Outline(),
		"chords":      s.Len(),
		"letters":     CountLetters(s.Word()),
		"syllables":   CountSyllables(s.Word()),
		"first_chord": first.String(),
		"last_chord":  last.String(),
		"starred":     starred,
		"left_only":   leftOnly,
		"right_only":  rightOnly,
		"chord": func(i int) string {
			c, ok := s.Chord(i)
			if !ok {
				return ""
			}
			return c.String()
		},
		"has": func(i int, keys string) bool {
			want, err := chord.ParseChord(keys)
			if err != nil {
				panic(err)
			}
			c, ok := s.Chord(i)
			return ok && c.Contains(want)
		},
		"rule": func(id string) bool {
			ok, err := sc.Matched(id)
			if err != nil {
				panic(err)
			}
			return ok
		},
	}
}

// CountLetters returns the number of letters in word.
func CountLetters(word string) int {
	n := 0
	for _, r := range word {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// CountSyllables estimates English syllables by counting vowel groups and
// dropping a silent final e.
func CountSyllables(word string) int {
	w := strings.ToLower(word)
	count := 0
	inVowel := false
	letters := 0
	for _, r := range w {
		if !unicode.IsLetter(r) {
			inVowel = false
			continue
		}
		letters++
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !inVowel {
			count++
		}
		inVowel = vowel
	}
	if count > 1 && strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && !strings.HasSuffix(w, "ee") {
		count--
	}
	if count == 0 && letters > 0 {
		count = 1
	}
	return count
}

package rules

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/stenotutor/internal/chord"
)

const scenarioRules = `
version: 1
rules:
  - id: BRIEF
    max-chords: 1
    when: letters > 4
  - id: PHONETIC
    min-chords: 2
    when: chords == syllables
`

func mustLoad(t *testing.T, doc string) *Catalogue {
	t.Helper()
	cat, err := LoadYAML([]byte(doc))
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	return cat
}

func TestEvaluateScenario(t *testing.T) {
	cat := mustLoad(t, scenarioRules)
	if len(cat.Skipped()) != 0 {
		t.Fatalf("unexpected skipped rules: %v", cat.Skipped())
	}

	cases := []struct {
		outline, word string
		want          []string
	}{
		{"STKPWR", "stamp", []string{"BRIEF"}},
		{"ST", "the", nil},
		{"RE/TKPWUL/-R", "regular", []string{"PHONETIC"}},
		{"KAT", "cat", nil},
	}
	for _, tc := range cases {
		got, faults := cat.Evaluate(chord.MustStroke(tc.outline, tc.word), nil)
		if len(faults) != 0 {
			t.Fatalf("%s: unexpected faults %v", tc.word, faults)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%s: rules mismatch (-want +got):\n%s", tc.word, diff)
		}
	}
}

func TestLoadSkipsInvalidDefinitions(t *testing.T) {
	cat := mustLoad(t, `
version: 1
rules:
  - id: GOOD
    when: chords == 1
  - id: bad_id
    when: chords == 1
  - id: NO_CONDITION
  - id: BROKEN
    when: chords ==
  - id: GOOD
    when: chords == 2
  - id: UNCATEGORIZED
    when: "true"
  - id: ORPHAN
    requires: [MISSING]
    when: rule("MISSING")
  - id: UNDECLARED
    when: rule("GOOD")
  - id: EXTRA
    when: chords == 1
    colour: red
`)
	if diff := cmp.Diff([]string{"GOOD"}, cat.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	skipped := cat.Skipped()
	if len(skipped) != 8 {
		t.Fatalf("expected 8 skipped definitions, got %d: %v", len(skipped), skipped)
	}
	for _, err := range skipped {
		if !errors.Is(err, ErrInvalidRuleDefinition) {
			t.Fatalf("expected ErrInvalidRuleDefinition, got %v", err)
		}
		var defErr *DefinitionError
		if !errors.As(err, &defErr) {
			t.Fatalf("expected DefinitionError, got %T", err)
		}
	}
}

func TestLoadOrphanChain(t *testing.T) {
	cat := mustLoad(t, `
version: 1
rules:
  - id: BASE
    when: chords == 1
  - id: MIDDLE
    requires: [BROKEN]
    when: rule("BROKEN")
  - id: TOP
    requires: [MIDDLE]
    when: rule("MIDDLE")
  - id: BROKEN
    when: chords >
`)
	if diff := cmp.Diff([]string{"BASE"}, cat.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got := len(cat.Skipped()); got != 3 {
		t.Fatalf("expected 3 skipped, got %d", got)
	}
}

func TestLoadDetectsCycle(t *testing.T) {
	_, err := LoadYAML([]byte(`
version: 1
rules:
  - id: A
    requires: [B]
    when: rule("B")
  - id: B
    requires: [C]
    when: rule("C")
  - id: C
    requires: [A]
    when: rule("A")
  - id: D
    when: chords == 1
`))
	if !errors.Is(err, ErrCyclicRuleDependency) {
		t.Fatalf("expected ErrCyclicRuleDependency, got %v", err)
	}
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %T", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, cycle.Rules); diff != "" {
		t.Fatalf("cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDetectsCycleThroughInvalidRule(t *testing.T) {
	_, err := LoadYAML([]byte(`
version: 1
rules:
  - id: A
    requires: [B]
    when: rule("B")
  - id: B
    requires: [A]
    when: rule("A") &&
  - id: C
    when: chords == 1
`))
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B"}, cycle.Rules); diff != "" {
		t.Fatalf("cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestNewDetectsSelfCycle(t *testing.T) {
	_, err := New(Rule{ID: "SELF", Requires: []string{"SELF"}})
	if !errors.Is(err, ErrCyclicRuleDependency) {
		t.Fatalf("expected ErrCyclicRuleDependency, got %v", err)
	}
}

func TestStructuralOnlyRules(t *testing.T) {
	cat := mustLoad(t, `
version: 1
rules:
  - id: MULTI
    min-chords: 2
  - id: SINGLE
    max-chords: 1
  - id: NOTHING
    min-chords: 0
`)
	if diff := cmp.Diff([]string{"MULTI", "SINGLE"}, cat.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got := len(cat.Skipped()); got != 1 {
		t.Fatalf("expected the empty NOTHING rule to be skipped, got %v", cat.Skipped())
	}
	cases := map[string][]string{
		"regular": {"MULTI"},
		"cat":     {"SINGLE"},
	}
	strokes := map[string]chord.Stroke{
		"regular": chord.MustStroke("RE/TKPWUL/-R", "regular"),
		"cat":     chord.MustStroke("KAT", "cat"),
	}
	for word, want := range cases {
		got, _ := cat.Evaluate(strokes[word], nil)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s: rules mismatch (-want +got):\n%s", word, diff)
		}
	}
}

func TestLoadEmptyCatalogue(t *testing.T) {
	_, err := LoadYAML([]byte("version: 1\nrules:\n  - id: lower\n    when: \"true\"\n"))
	if !errors.Is(err, ErrEmptyCatalogue) {
		t.Fatalf("expected ErrEmptyCatalogue, got %v", err)
	}
}

func TestCompositeRules(t *testing.T) {
	cat := mustLoad(t, `
version: 1
rules:
  - id: ANY_SUFFIX
    requires: [ING, ED]
    when: rule("ING") || rule("ED")
  - id: ING
    when: lower(word) endsWith "ing" && has(-1, "-G")
  - id: ED
    when: lower(word) endsWith "ed" && has(-1, "-D")
`)
	got, faults := cat.Evaluate(chord.MustStroke("SEUPBG", "sing"), nil)
	if len(faults) != 0 {
		t.Fatalf("unexpected faults: %v", faults)
	}
	if diff := cmp.Diff([]string{"ANY_SUFFIX", "ING"}, got); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateIsolatesFaults(t *testing.T) {
	cat, err := New(
		Rule{ID: "PANICS", Matcher: MatcherFunc(func(chord.Stroke, *Scope) (bool, error) {
			panic("boom")
		})},
		Rule{ID: "FAILS", Matcher: MatcherFunc(func(chord.Stroke, *Scope) (bool, error) {
			return true, errors.New("broken matcher")
		})},
		Rule{ID: "ALWAYS", Matcher: MatcherFunc(func(chord.Stroke, *Scope) (bool, error) {
			return true, nil
		})},
	)
	if err != nil {
		t.Fatalf("new catalogue: %v", err)
	}
	got, faults := cat.Evaluate(chord.MustStroke("KAT", "cat"), nil)
	if diff := cmp.Diff([]string{"ALWAYS"}, got); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if len(faults) != 2 {
		t.Fatalf("expected 2 faults, got %d", len(faults))
	}
	for _, f := range faults {
		if !errors.Is(f, ErrRuleMatchFault) {
			t.Fatalf("expected ErrRuleMatchFault, got %v", f)
		}
		if f.Word != "cat" || f.Outline != "KAT" {
			t.Fatalf("fault missing stroke context: %+v", f)
		}
	}
}

func TestScopeRejectsUndeclaredDependency(t *testing.T) {
	cat, err := New(
		Rule{ID: "BASE", Matcher: MatcherFunc(func(chord.Stroke, *Scope) (bool, error) {
			return true, nil
		})},
		Rule{ID: "SNEAKY", Matcher: MatcherFunc(func(_ chord.Stroke, sc *Scope) (bool, error) {
			return sc.Matched("BASE")
		})},
	)
	if err != nil {
		t.Fatalf("new catalogue: %v", err)
	}
	got, faults := cat.Evaluate(chord.MustStroke("KAT", "cat"), nil)
	if diff := cmp.Diff([]string{"BASE"}, got); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if len(faults) != 1 || faults[0].Rule != "SNEAKY" {
		t.Fatalf("expected fault for SNEAKY, got %v", faults)
	}
}

func TestSelectEvaluatesDependencies(t *testing.T) {
	var calls []string
	track := func(id string, result bool) Matcher {
		return MatcherFunc(func(chord.Stroke, *Scope) (bool, error) {
			calls = append(calls, id)
			return result, nil
		})
	}
	cat, err := New(
		Rule{ID: "A", Matcher: track("A", true)},
		Rule{ID: "B", Matcher: track("B", true)},
		Rule{ID: "C", Requires: []string{"A"}, Matcher: MatcherFunc(func(_ chord.Stroke, sc *Scope) (bool, error) {
			calls = append(calls, "C")
			return sc.Matched("A")
		})},
	)
	if err != nil {
		t.Fatalf("new catalogue: %v", err)
	}
	sel, err := cat.Select("C")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	got, _ := cat.Evaluate(chord.MustStroke("KAT", "cat"), sel)
	if diff := cmp.Diff([]string{"C"}, got); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "C"}, calls); diff != "" {
		t.Fatalf("evaluation mismatch (-want +got):\n%s", diff)
	}
	if _, err := cat.Select("NOPE"); err == nil {
		t.Fatalf("expected error for unknown rule")
	}
}

func TestVersionTracksContent(t *testing.T) {
	a := mustLoad(t, scenarioRules)
	b := mustLoad(t, scenarioRules)
	if a.Version() != b.Version() {
		t.Fatalf("expected identical versions for identical rules")
	}
	c := mustLoad(t, "version: 1\nrules:\n  - id: BRIEF\n    max-chords: 1\n    when: letters > 5\n")
	if a.Version() == c.Version() {
		t.Fatalf("expected version to change with rule content")
	}
}

func TestNewVersionsAreUnique(t *testing.T) {
	always := MatcherFunc(func(chord.Stroke, *Scope) (bool, error) { return true, nil })
	a, err := New(Rule{ID: "X", Matcher: always})
	if err != nil {
		t.Fatalf("new catalogue: %v", err)
	}
	b, err := New(Rule{ID: "X", Matcher: always})
	if err != nil {
		t.Fatalf("new catalogue: %v", err)
	}
	if a.Version() == b.Version() {
		t.Fatalf("expected distinct versions for separately built catalogues")
	}
}

func TestDefaultCatalogue(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}
	if cat.Len() == 0 {
		t.Fatalf("expected default rules")
	}
	got, faults := cat.Evaluate(chord.MustStroke("SEUPBG", "sing"), nil)
	if len(faults) != 0 {
		t.Fatalf("unexpected faults: %v", faults)
	}
	want := map[string]bool{"ONE_SYLLABLE": true, "SUFFIX_ING": true, "INFLECTED": true}
	for _, id := range got {
		delete(want, id)
	}
	if len(want) != 0 {
		t.Fatalf("missing rules %v in %v", want, got)
	}
}

func TestCountSyllables(t *testing.T) {
	cases := map[string]int{
		"the":     1,
		"stamp":   1,
		"make":    1,
		"table":   2,
		"regular": 3,
		"free":    1,
		"rhythm":  1,
	}
	for word, want := range cases {
		if got := CountSyllables(word); got != want {
			t.Fatalf("CountSyllables(%q) = %d, want %d", word, got, want)
		}
	}
}

// Package rules implements the word-formation rule catalogue: rule
// definitions, matchers, dependency validation and per-stroke evaluation.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/verte-zerg/stenotutor/internal/chord"
)

// Uncategorized is the reserved category for strokes no rule explains.
const Uncategorized = "UNCATEGORIZED"

var idPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Rule is a named word-formation rule.
type Rule struct {
	ID          string
	Description string
	Requires    []string
	Matcher     Matcher
}

// Catalogue is an ordered, validated set of rules. It is read-only after
// construction and safe for concurrent use.
type Catalogue struct {
	rules    []Rule
	byID     map[string]int
	requires []map[int]bool
	order    []int
	version  string
	skipped  []error
}

// Selection restricts evaluation to a subset of rules.
type Selection struct {
	eval   []bool
	report []bool
}

// programmatic numbers catalogues built by New. Matchers are opaque, so two
// such catalogues never share a version.
var programmatic atomic.Uint64

// New builds a catalogue from rules in the given order. Invalid rules are
// skipped and reported by Skipped; a dependency cycle or an empty result is
// an error.
func New(rules ...Rule) (*Catalogue, error) {
	ids := make([]string, len(rules))
	requires := make([][]string, len(rules))
	for i, r := range rules {
		ids[i], requires[i] = r.ID, r.Requires
	}
	if err := checkCycles(ids, requires); err != nil {
		return nil, err
	}
	h := sha256.New()
	fmt.Fprintf(h, "programmatic\x00%d\n", programmatic.Add(1))
	for _, r := range rules {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%T\n", r.ID, r.Description, strings.Join(r.Requires, ","), r.Matcher)
	}
	return build(rules, hex.EncodeToString(h.Sum(nil)))
}

// Load compiles definitions into a catalogue. Definitions that fail
// validation or compilation are skipped with a DefinitionError.
func Load(defs []Definition) (*Catalogue, error) {
	ids := make([]string, len(defs))
	requires := make([][]string, len(defs))
	for i, def := range defs {
		ids[i], requires[i] = def.ID, def.Requires
	}
	if err := checkCycles(ids, requires); err != nil {
		return nil, err
	}
	h := sha256.New()
	rules := make([]Rule, 0, len(defs))
	var skipped []error
	for i, def := range defs {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%d\x00%d\n",
			def.ID, def.Description, def.When, strings.Join(def.Words, ","), strings.Join(def.Requires, ","), def.MinChords, def.MaxChords)
		if err := validateDefinition(def); err != nil {
			skipped = append(skipped, &DefinitionError{Index: i, Rule: def.ID, Err: err})
			continue
		}
		m, err := compileDefinition(def)
		if err != nil {
			skipped = append(skipped, &DefinitionError{Index: i, Rule: def.ID, Err: err})
			continue
		}
		rules = append(rules, Rule{
			ID:          def.ID,
			Description: def.Description,
			Requires:    append([]string(nil), def.Requires...),
			Matcher:     m,
		})
	}
	cat, err := build(rules, hex.EncodeToString(h.Sum(nil)))
	if err != nil {
		return nil, err
	}
	cat.skipped = append(skipped, cat.skipped...)
	return cat, nil
}

func build(rules []Rule, version string) (*Catalogue, error) {
	var skipped []error
	kept := make([]Rule, 0, len(rules))
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		var err error
		switch {
		case r.ID == Uncategorized:
			err = fmt.Errorf("id %s is reserved", Uncategorized)
		case !idPattern.MatchString(r.ID):
			err = fmt.Errorf("id must match %s", idPattern)
		case seen[r.ID]:
			err = fmt.Errorf("duplicate rule id")
		case r.Matcher == nil:
			err = fmt.Errorf("rule has no matcher")
		}
		if err != nil {
			skipped = append(skipped, &DefinitionError{Index: i, Rule: r.ID, Err: err})
			continue
		}
		seen[r.ID] = true
		kept = append(kept, r)
	}

	// Drop rules whose dependencies are missing until nothing changes; removing
	// one rule can orphan the rules that require it.
	for changed := true; changed; {
		changed = false
		present := make(map[string]bool, len(kept))
		for _, r := range kept {
			present[r.ID] = true
		}
		next := kept[:0:0]
		for _, r := range kept {
			missing := ""
			for _, dep := range r.Requires {
				if !present[dep] {
					missing = dep
					break
				}
			}
			if missing != "" {
				skipped = append(skipped, &DefinitionError{Index: -1, Rule: r.ID, Err: fmt.Errorf("requires unknown rule %q", missing)})
				changed = true
				continue
			}
			next = append(next, r)
		}
		kept = next
	}

	if len(kept) == 0 {
		return nil, ErrEmptyCatalogue
	}

	c := &Catalogue{
		rules:    kept,
		byID:     make(map[string]int, len(kept)),
		requires: make([]map[int]bool, len(kept)),
		version:  version,
		skipped:  skipped,
	}
	for i, r := range kept {
		c.byID[r.ID] = i
	}
	for i, r := range kept {
		c.requires[i] = make(map[int]bool, len(r.Requires))
		for _, dep := range r.Requires {
			c.requires[i][c.byID[dep]] = true
		}
	}
	order, err := topoOrder(c)
	if err != nil {
		return nil, err
	}
	c.order = order
	return c, nil
}

// checkCycles looks for a cycle in the declared requires graph before any
// rule is dropped, so a cycle through an invalid rule still fails the load.
// Requirements naming unknown rules are ignored here.
func checkCycles(ids []string, requires [][]string) error {
	node := make(map[string]int, len(ids))
	var names []string
	for _, id := range ids {
		if _, ok := node[id]; !ok {
			node[id] = len(names)
			names = append(names, id)
		}
	}
	deps := make([]map[int]bool, len(names))
	for i := range deps {
		deps[i] = map[int]bool{}
	}
	for i, id := range ids {
		for _, dep := range requires[i] {
			if d, ok := node[dep]; ok {
				deps[node[id]][d] = true
			}
		}
	}
	inDegree := make([]int, len(names))
	dependents := make([][]int, len(names))
	var queue []int
	for n := range names {
		inDegree[n] = len(deps[n])
		for d := range deps[n] {
			dependents[d] = append(dependents[d], n)
		}
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range dependents[n] {
			inDegree[m]--
			if inDegree[m] == 0 {
				queue = append(queue, m)
			}
		}
	}
	var cycle []string
	for n, name := range names {
		if inDegree[n] > 0 {
			cycle = append(cycle, name)
		}
	}
	if len(cycle) > 0 {
		return &CycleError{Rules: cycle}
	}
	return nil
}

// topoOrder sorts rules so dependencies come first (Kahn's algorithm).
func topoOrder(c *Catalogue) ([]int, error) {
	n := len(c.rules)
	inDegree := make([]int, n)
	dependents := make([][]int, n)
	for i := range c.rules {
		inDegree[i] = len(c.requires[i])
		for dep := range c.requires[i] {
			dependents[dep] = append(dependents[dep], i)
		}
	}
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]int, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		deps := dependents[i]
		slices.Sort(deps)
		for _, d := range deps {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}
	if len(order) < n {
		var cycle []string
		for i := 0; i < n; i++ {
			if inDegree[i] > 0 {
				cycle = append(cycle, c.rules[i].ID)
			}
		}
		return nil, &CycleError{Rules: cycle}
	}
	return order, nil
}

// Len returns the number of rules.
func (c *Catalogue) Len() int {
	return len(c.rules)
}

// Rules returns the rules in declaration order.
func (c *Catalogue) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// IDs returns rule identifiers in declaration order.
func (c *Catalogue) IDs() []string {
	ids := make([]string, len(c.rules))
	for i, r := range c.rules {
		ids[i] = r.ID
	}
	return ids
}

// Rule looks up a rule by id.
func (c *Catalogue) Rule(id string) (Rule, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Version identifies the catalogue content. Classification results are only
// reusable for an identical version.
func (c *Catalogue) Version() string {
	return c.version
}

// Skipped returns the definitions dropped while loading, as DefinitionErrors.
func (c *Catalogue) Skipped() []error {
	return append([]error(nil), c.skipped...)
}

// Select builds a Selection evaluating only ids and what they depend on.
// Uncategorized is accepted and ignored.
func (c *Catalogue) Select(ids ...string) (*Selection, error) {
	sel := &Selection{
		eval:   make([]bool, len(c.rules)),
		report: make([]bool, len(c.rules)),
	}
	var stack []int
	for _, id := range ids {
		if id == Uncategorized {
			continue
		}
		i, ok := c.byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		sel.report[i] = true
		stack = append(stack, i)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if sel.eval[i] {
			continue
		}
		sel.eval[i] = true
		for dep := range c.requires[i] {
			stack = append(stack, dep)
		}
	}
	return sel, nil
}

// Reports reports whether id is part of the selection's output.
func (s *Selection) Reports(c *Catalogue, id string) bool {
	if s == nil {
		_, ok := c.byID[id]
		return ok
	}
	i, ok := c.byID[id]
	return ok && s.report[i]
}

// Evaluate returns the ids of rules matching s in declaration order, plus the
// faults raised by matchers. A nil selection evaluates every rule.
func (c *Catalogue) Evaluate(s chord.Stroke, sel *Selection) ([]string, []Fault) {
	sc := &Scope{
		cat:     c,
		stroke:  s,
		current: -1,
		results: make([]int8, len(c.rules)),
	}
	for i := range sc.results {
		sc.results[i] = resultPending
	}
	var faults []Fault
	for _, i := range c.order {
		if sel != nil && !sel.eval[i] {
			continue
		}
		sc.current = i
		ok, err := c.safeMatch(i, s, sc)
		if err != nil {
			faults = append(faults, Fault{Rule: c.rules[i].ID, Outline: s.Outline(), Word: s.Word(), Err: err})
			ok = false
		}
		if ok {
			sc.results[i] = resultMatch
		} else {
			sc.results[i] = resultMiss
		}
	}
	var matched []string
	for i, r := range c.rules {
		if sel != nil && !sel.report[i] {
			continue
		}
		if sc.results[i] == resultMatch {
			matched = append(matched, r.ID)
		}
	}
	return matched, faults
}

func (c *Catalogue) safeMatch(i int, s chord.Stroke, sc *Scope) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("matcher panic: %v", r)
		}
	}()
	return c.rules[i].Matcher.Match(s, sc)
}

const (
	resultPending int8 = iota - 1
	resultMiss
	resultMatch
)

// Scope gives a matcher access to the results of the rules it requires for
// the stroke being evaluated.
type Scope struct {
	cat     *Catalogue
	stroke  chord.Stroke
	current int
	results []int8
	env     map[string]any
}

// Matched reports whether the required rule id matched the current stroke.
// Only rules listed in the calling rule's Requires may be queried.
func (sc *Scope) Matched(id string) (bool, error) {
	i, ok := sc.cat.byID[id]
	if !ok {
		return false, fmt.Errorf("unknown rule %q", id)
	}
	if sc.current < 0 || !sc.cat.requires[sc.current][i] {
		return false, fmt.Errorf("rule %q is not listed in requires", id)
	}
	switch sc.results[i] {
	case resultMatch:
		return true, nil
	case resultMiss:
		return false, nil
	default:
		return false, fmt.Errorf("rule %q was not evaluated", id)
	}
}

func (sc *Scope) exprEnv() map[string]any {
	if sc.env == nil {
		sc.env = buildEnv(sc.stroke, sc)
	}
	return sc.env
}

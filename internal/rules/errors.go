package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds for rule loading and evaluation.
var (
	ErrInvalidRuleDefinition = errors.New("invalid rule definition")
	ErrCyclicRuleDependency  = errors.New("cyclic rule dependency")
	ErrRuleMatchFault        = errors.New("rule match fault")
	ErrEmptyCatalogue        = errors.New("empty rule catalogue")
)

// DefinitionError describes a rule that was skipped while loading a catalogue.
type DefinitionError struct {
	Index int
	Rule  string
	Err   error
}

func (e *DefinitionError) Error() string {
	name := e.Rule
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("invalid rule definition %s: %v", name, e.Err)
}

func (e *DefinitionError) Unwrap() []error {
	return []error{ErrInvalidRuleDefinition, e.Err}
}

// CycleError is returned when composite rules depend on each other in a loop.
type CycleError struct {
	Rules []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic rule dependency involving rules: %s", strings.Join(e.Rules, ", "))
}

func (e *CycleError) Unwrap() error {
	return ErrCyclicRuleDependency
}

// Fault records a matcher that failed on a specific stroke. The stroke is
// treated as not matching that rule.
type Fault struct {
	Rule    string
	Outline string
	Word    string
	Err     error
}

func (f Fault) Error() string {
	return fmt.Sprintf("rule %s faulted on %s %q: %v", f.Rule, f.Outline, f.Word, f.Err)
}

func (f Fault) Unwrap() []error {
	return []error{ErrRuleMatchFault, f.Err}
}

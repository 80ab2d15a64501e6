package rules

import (
	_ "embed"
	"fmt"
	"sync"
)

//go:embed rules.yaml
var defaultRules []byte

var defaultCatalogue = sync.OnceValues(func() (*Catalogue, error) {
	cat, err := LoadYAML(defaultRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load default rules: %w", err)
	}
	if skipped := cat.Skipped(); len(skipped) > 0 {
		return nil, fmt.Errorf("default rules: %w", skipped[0])
	}
	return cat, nil
})

// Default returns the built-in rule catalogue.
func Default() (*Catalogue, error) {
	return defaultCatalogue()
}

// DefaultYAML returns the source of the built-in rule catalogue, suitable as
// a starting point for a user rule file.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultRules...)
}

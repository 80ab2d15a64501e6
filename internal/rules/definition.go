package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://rule-definition.json"

// Definition is the declarative form of a rule as written in a rule file.
type Definition struct {
	ID          string   `yaml:"id" json:"id"`
	Description string   `yaml:"description" json:"description,omitempty"`
	When        string   `yaml:"when" json:"when,omitempty"`
	Words       []string `yaml:"words" json:"words,omitempty"`
	Requires    []string `yaml:"requires" json:"requires,omitempty"`
	MinChords   int      `yaml:"min-chords" json:"min-chords,omitempty"`
	MaxChords   int      `yaml:"max-chords" json:"max-chords,omitempty"`
}

type ruleFile struct {
	Version int         `yaml:"version"`
	Rules   []yaml.Node `yaml:"rules"`
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse rule schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add rule schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// ParseDefinitions decodes a YAML rule file. Rules failing validation are
// returned as DefinitionErrors and left out; a malformed document is an error.
func ParseDefinitions(data []byte) ([]Definition, []error, error) {
	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode rule file: %w", err)
	}
	defs := make([]Definition, 0, len(doc.Rules))
	var invalid []error
	for i := range doc.Rules {
		node := &doc.Rules[i]
		var raw any
		if err := node.Decode(&raw); err != nil {
			invalid = append(invalid, &DefinitionError{Index: i, Err: err})
			continue
		}
		if err := validateValue(raw); err != nil {
			invalid = append(invalid, &DefinitionError{Index: i, Rule: rawID(raw), Err: err})
			continue
		}
		var def Definition
		if err := node.Decode(&def); err != nil {
			invalid = append(invalid, &DefinitionError{Index: i, Rule: rawID(raw), Err: err})
			continue
		}
		defs = append(defs, def)
	}
	return defs, invalid, nil
}

// LoadFile reads, validates and loads a YAML rule file.
func LoadFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return LoadYAML(data)
}

// LoadYAML parses and loads a YAML rule document.
func LoadYAML(data []byte) (*Catalogue, error) {
	defs, invalid, err := ParseDefinitions(data)
	if err != nil {
		return nil, err
	}
	cat, err := Load(defs)
	if err != nil {
		return nil, err
	}
	cat.skipped = append(invalid, cat.skipped...)
	return cat, nil
}

func validateDefinition(def Definition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return validateInstance(inst)
}

func validateValue(raw any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("rule is not a mapping of string keys: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return validateInstance(inst)
}

func validateInstance(inst any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func rawID(raw any) string {
	m, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["id"].(string)
	return id
}

package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
)

// ReadPloverJSON decodes a Plover JSON dictionary ({"OUTLINE": "word", ...})
// keeping the entries in file order.
func ReadPloverJSON(r io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to read dictionary: expected JSON object")
	}
	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read dictionary key: %w", err)
		}
		outline, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("failed to read dictionary: unexpected token %v", tok)
		}
		var word string
		if err := dec.Decode(&word); err != nil {
			return nil, fmt.Errorf("failed to read translation for %s: %w", outline, err)
		}
		entries = append(entries, Entry{Outline: outline, Word: word})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	return entries, nil
}

package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadWordList reads one word per line from path. Blank lines and lines
// starting with # are ignored.
func LoadWordList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}

// InWords keeps entries whose word, compared case-insensitively, is in words.
func InWords(words []string) FilterFunc {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return func(e Entry) bool {
		_, ok := set[strings.ToLower(e.Word)]
		return ok
	}
}

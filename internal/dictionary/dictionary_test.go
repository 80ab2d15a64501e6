package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func outlines(d *Dictionary) []string {
	var out []string
	for _, s := range d.Strokes() {
		out = append(out, s.Outline()+" "+s.Word())
	}
	return out
}

func TestLoadPreservesOrderAndSkips(t *testing.T) {
	entries := []Entry{
		{Outline: "STKPWR", Word: "stamp"},
		{Outline: "-T", Word: "the"},
		{Outline: "1-9", Word: "19"},
		{Outline: "KAT", Word: "cat"},
		{Outline: "-T", Word: "the"},
		{Outline: "KATX", Word: "bad"},
		{Outline: "TK-S", Word: "does"},
	}
	d, err := Load(slices.Values(entries))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"STKPWR stamp", "-T the", "KAT cat", "TK-S does"}
	if diff := cmp.Diff(want, outlines(d)); diff != "" {
		t.Fatalf("strokes mismatch (-want +got):\n%s", diff)
	}
	if got := len(d.Skipped()); got != 3 {
		t.Fatalf("expected 3 skipped entries, got %d", got)
	}
	var skip *SkipError
	if !errors.As(d.Skipped()[1], &skip) || !errors.Is(skip, errDuplicate) {
		t.Fatalf("expected duplicate skip, got %v", d.Skipped()[1])
	}
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(slices.Values([]Entry{{Outline: "1", Word: "one"}}))
	if !errors.Is(err, ErrEmptyDictionary) {
		t.Fatalf("expected ErrEmptyDictionary, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	d, err := Load(slices.Values([]Entry{
		{Outline: "KAT", Word: "cat"},
		{Outline: "TK-S", Word: "does"},
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if i, ok := d.Lookup("TK-S", "does"); !ok || i != 1 {
		t.Fatalf("expected does at 1, got %d %v", i, ok)
	}
	if _, ok := d.Lookup("KAT", "dog"); ok {
		t.Fatalf("expected miss for unknown word")
	}
}

func TestUniqueWords(t *testing.T) {
	d, err := Load(slices.Values([]Entry{
		{Outline: "KAT", Word: "cat"},
		{Outline: "KA*T", Word: "cat"},
		{Outline: "TKOG", Word: "dog"},
	}), UniqueWords())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"KAT cat", "TKOG dog"}, outlines(d)); diff != "" {
		t.Fatalf("strokes mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionChangesWithContent(t *testing.T) {
	a, _ := Load(slices.Values([]Entry{{Outline: "KAT", Word: "cat"}}))
	b, _ := Load(slices.Values([]Entry{{Outline: "KAT", Word: "cat"}}))
	c, _ := Load(slices.Values([]Entry{{Outline: "KAT", Word: "cat"}, {Outline: "TKOG", Word: "dog"}}))
	if a.Version() != b.Version() {
		t.Fatalf("expected equal versions")
	}
	if a.Version() == c.Version() {
		t.Fatalf("expected versions to differ")
	}
}

func TestReadPloverJSON(t *testing.T) {
	doc := `{"TKOG": "dog", "KAT": "cat", "TP-PL": "{.}", "A": "a"}`
	entries, err := ReadPloverJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []Entry{
		{Outline: "TKOG", Word: "dog"},
		{Outline: "KAT", Word: "cat"},
		{Outline: "TP-PL", Word: "{.}"},
		{Outline: "A", Word: "a"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if _, err := ReadPloverJSON(strings.NewReader(`["KAT"]`)); err == nil {
		t.Fatalf("expected error for non-object document")
	}
}

func TestLoadFileWithPracticeFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.json")
	doc := `{"TKOG": "dog", "TP-PL": "{.}", "KAT": "cat", "SKWR": "  "}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := LoadFile(path, WithFilter(PracticeFilter))
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if diff := cmp.Diff([]string{"TKOG dog", "KAT cat"}, outlines(d)); diff != "" {
		t.Fatalf("strokes mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterForLang(t *testing.T) {
	filter := FilterForLang("en")
	for _, word := range []string{"hello", "Don't"} {
		if !filter(Entry{Word: word}) {
			t.Fatalf("expected %q to pass english filter", word)
		}
	}
	for _, word := range []string{"résumé", "co-op", "two words", ""} {
		if filter(Entry{Word: word}) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
	combined := All(PracticeFilter, filter)
	if combined(Entry{Word: "{^ing}"}) {
		t.Fatalf("expected command translation to be rejected")
	}
}

func TestLoadWordListFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesson.txt")
	if err := os.WriteFile(path, []byte("# lesson one\nCat\n\n  dog \n"), 0o600); err != nil {
		t.Fatalf("write word list: %v", err)
	}
	words, err := LoadWordList(path)
	if err != nil {
		t.Fatalf("load word list: %v", err)
	}
	if diff := cmp.Diff([]string{"Cat", "dog"}, words); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
	d, err := Load(slices.Values([]Entry{
		{Outline: "KAT", Word: "cat"},
		{Outline: "TKOG", Word: "dog"},
		{Outline: "-T", Word: "the"},
	}), WithFilter(InWords(words)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"KAT cat", "TKOG dog"}, outlines(d)); diff != "" {
		t.Fatalf("strokes mismatch (-want +got):\n%s", diff)
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0o600); err != nil {
		t.Fatalf("write word list: %v", err)
	}
	if _, err := LoadWordList(empty); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty word list error, got %v", err)
	}
}

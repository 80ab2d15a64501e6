package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const wrongSpace = '·'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// wordRange is the half-open rune range of one exercise word.
type wordRange struct {
	start int
	end   int
}

// buildStyledRunes styles the exercise text. Completed words that needed
// corrections are flagged; the word under the cursor is highlighted.
func buildStyledRunes(target, input []rune, words []wordRange, flagged []bool, cursor int) []styledRune {
	current := wordAt(words, cursor)
	out := make([]styledRune, 0, len(target))
	for i, r := range target {
		displayed := r
		style := pendingStyle
		w := wordAt(words, i)
		switch {
		case i < len(input) && r == ' ' && input[i] != ' ':
			displayed = wrongSpace
			style = incorrectStyle
		case i < len(input) && input[i] != r:
			style = incorrectStyle
		case i < len(input) && w >= 0 && w < len(flagged) && flagged[w] && w != current:
			style = correctedStyle
		case i < len(input):
			style = correctStyle
		case r != ' ' && w == current:
			style = currentWordStyle
		}
		if i == cursor && i >= len(input) {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: r == ' ',
		})
	}
	return out
}

// wordAt returns the index of the word containing pos. A space belongs to the
// word after it; positions past the text belong to the last word.
func wordAt(words []wordRange, pos int) int {
	if len(words) == 0 {
		return -1
	}
	if pos < 0 {
		return 0
	}
	for i, w := range words {
		if pos < w.end {
			return i
		}
	}
	return len(words) - 1
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks the text at spaces so no line exceeds width cells.
// A word longer than width is split.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var lines []string
	var line []styledRune
	lineWidth := 0
	lastSpace := -1
	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				lines = append(lines, renderStyledRunes(line[:lastSpace]))
				line = append([]styledRune(nil), line[lastSpace+1:]...)
			} else {
				lines = append(lines, renderStyledRunes(line))
				line = line[:0]
			}
			lineWidth, lastSpace = 0, -1
			for j, r := range line {
				lineWidth += r.width
				if r.isSpace {
					lastSpace = j
				}
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	lines = append(lines, renderStyledRunes(line))
	return strings.Join(lines, "\n")
}

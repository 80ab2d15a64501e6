package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/stenotutor/internal/chord"
)

const (
	keyboardRows    = 3
	keyboardColumns = 14
)

var (
	keyIdleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	keyPressedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// renderKeyboard draws the steno layout with the keys of c highlighted.
func renderKeyboard(c chord.Chord) string {
	var grid [keyboardRows][keyboardColumns]string
	for _, k := range chord.AllKeys() {
		style := keyIdleStyle
		if c.Has(k) {
			style = keyPressedStyle
		}
		grid[k.Row()][k.Column()] = style.Render(string(k.Letter()))
	}
	rows := make([]string, keyboardRows)
	for r := range grid {
		cells := make([]string, keyboardColumns)
		for col, cell := range grid[r] {
			if cell == "" {
				cell = " "
			}
			cells[col] = cell
		}
		rows[r] = strings.Join(cells, " ")
	}
	return strings.Join(rows, "\n")
}

// renderStrokeHint draws one keyboard per chord of s, side by side, above
// the outline.
func renderStrokeHint(s chord.Stroke) string {
	boards := make([]string, 0, s.Len()*2)
	for i, c := range s.Chords() {
		if i > 0 {
			boards = append(boards, "   ")
		}
		boards = append(boards, renderKeyboard(c))
	}
	keyboards := lipgloss.JoinHorizontal(lipgloss.Top, boards...)
	return lipgloss.JoinVertical(lipgloss.Center, keyboards, footerStyle.Render(s.Outline()))
}

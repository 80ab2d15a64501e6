// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/stenotutor/internal/chord"
	"github.com/verte-zerg/stenotutor/internal/logging"
	"github.com/verte-zerg/stenotutor/internal/model"
	"github.com/verte-zerg/stenotutor/internal/stats"
)

// Engine is what the practice screen needs from the application engine.
type Engine interface {
	Next(ctx context.Context, settings model.ExerciseSettings, seed int64) ([]chord.Stroke, error)
	Record(ctx context.Context, ex model.LoggedExercise) (string, error)
}

type keyMap struct {
	Quit key.Binding
	Hint key.Binding
	Skip key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hint, k.Skip, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Hint: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "chord hint")),
		Skip: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "new exercise")),
	}
}

type exerciseMsg struct {
	strokes []chord.Stroke
	err     error
}

type recordedMsg struct {
	err error
}

// Model implements the Bubble Tea practice UI. Each exercise is shown as the
// words of its strokes separated by spaces; the output of the steno engine is
// compared rune by rune.
type Model struct {
	eng      Engine
	settings model.ExerciseSettings
	now      func() time.Time
	seed     func() int64
	logger   *slog.Logger

	keys     keyMap
	help     help.Model
	showHint bool

	width  int
	height int

	strokes     []chord.Stroke
	targetRunes []rune
	inputRunes  []rune
	words       []wordRange
	logged      []model.LoggedStroke
	flagged     []bool
	started     bool
	startedAt   time.Time
	wordStart   time.Time
	completed   int
	err         error

	lastWPM float64
	lastAcc float64
	hasLast bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	correctedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D08770"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs a practice model. The first exercise is requested by
// Init.
func NewModel(eng Engine, settings model.ExerciseSettings) *Model {
	return &Model{
		eng:      eng,
		settings: settings,
		now:      time.Now,
		seed:     func() int64 { return time.Now().UnixNano() },
		logger:   logging.New("tui"),
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.nextExercise()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case exerciseMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.startExercise(msg.strokes)
		return m, nil
	case recordedMsg:
		if msg.err != nil {
			m.logger.Error("failed to record exercise", slog.String("error", msg.err.Error()))
		}
		return m, m.nextExercise()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Hint):
			m.showHint = !m.showHint
			return m, nil
		case key.Matches(msg, m.keys.Skip):
			return m, m.nextExercise()
		}
		switch msg.Type {
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
			return m, nil
		case tea.KeySpace:
			return m, m.handleRunes([]rune{' '})
		case tea.KeyRunes:
			return m, m.handleRunes(msg.Runes)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return errorStyle.Render(m.err.Error()) + "\n" + footerStyle.Render("ctrl+c to quit")
	}
	if len(m.targetRunes) == 0 {
		return ""
	}
	cursor := -1
	if len(m.inputRunes) < len(m.targetRunes) {
		cursor = len(m.inputRunes)
	}
	styled := buildStyledRunes(m.targetRunes, m.inputRunes, m.words, m.flagged, cursor)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styled)
	}
	contentWidth := max(1, int(float64(m.width)*0.70))
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapStyledRunes(styled, contentWidth))
	if m.showHint && m.completed < len(m.strokes) {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", renderStrokeHint(m.strokes[m.completed]))
	}
	footer := m.renderFooter()
	if m.height < 4 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	helpLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.help.View(m.keys))
	return body + "\n" + footerLine + "\n" + helpLine
}

func (m *Model) nextExercise() tea.Cmd {
	eng, settings, seed := m.eng, m.settings, m.seed()
	return func() tea.Msg {
		strokes, err := eng.Next(context.Background(), settings, seed)
		return exerciseMsg{strokes: strokes, err: err}
	}
}

func (m *Model) startExercise(strokes []chord.Stroke) {
	m.strokes = strokes
	m.targetRunes = nil
	m.words = make([]wordRange, len(strokes))
	for i, s := range strokes {
		if i > 0 {
			m.targetRunes = append(m.targetRunes, ' ')
		}
		start := len(m.targetRunes)
		m.targetRunes = append(m.targetRunes, []rune(s.Word())...)
		m.words[i] = wordRange{start: start, end: len(m.targetRunes)}
	}
	m.inputRunes = nil
	m.flagged = make([]bool, len(m.words))
	m.logged = make([]model.LoggedStroke, len(strokes))
	for i, s := range strokes {
		m.logged[i] = model.LoggedStroke{Outline: s.Outline(), Word: s.Word()}
	}
	m.started = false
	m.completed = 0
}

func (m *Model) handleBackspace() {
	if len(m.inputRunes) == 0 {
		return
	}
	m.recordPress("\b")
	m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
}

// handleRunes consumes one chunk of steno output. A chunk that contains a
// mistake counts as one error against the word it lands in.
func (m *Model) handleRunes(runes []rune) tea.Cmd {
	if len(m.targetRunes) == 0 || len(m.inputRunes) >= len(m.targetRunes) {
		return nil
	}
	now := m.now()
	if !m.started {
		m.started = true
		m.startedAt = now
		m.wordStart = now
	}
	m.recordPress(string(runes))
	mistake := -1
	for _, r := range runes {
		pos := len(m.inputRunes)
		if pos >= len(m.targetRunes) {
			break
		}
		if r != m.targetRunes[pos] && mistake < 0 {
			mistake = wordAt(m.words, pos)
		}
		m.inputRunes = append(m.inputRunes, r)
		m.completeWords(now)
	}
	if mistake >= 0 && mistake < len(m.logged) {
		m.logged[mistake].Errors++
		m.flagged[mistake] = true
	}
	if len(m.inputRunes) == len(m.targetRunes) {
		return m.finishExercise(now)
	}
	return nil
}

// completeWords closes every word whose runes are all typed correctly.
func (m *Model) completeWords(now time.Time) {
	for m.completed < len(m.words) {
		w := m.words[m.completed]
		if len(m.inputRunes) < w.end || string(m.inputRunes[w.start:w.end]) != string(m.targetRunes[w.start:w.end]) {
			return
		}
		st := &m.logged[m.completed]
		st.StartedAt = m.wordStart
		st.Duration = now.Sub(m.wordStart)
		m.wordStart = now
		m.completed++
	}
}

func (m *Model) recordPress(text string) {
	i := min(m.completed, len(m.logged)-1)
	if i < 0 {
		return
	}
	m.logged[i].KeyPresses = append(m.logged[i].KeyPresses, model.LoggedKeyPress{Text: text, At: m.now()})
}

func (m *Model) finishExercise(now time.Time) tea.Cmd {
	for ; m.completed < len(m.logged); m.completed++ {
		st := &m.logged[m.completed]
		st.StartedAt = m.wordStart
		st.Duration = now.Sub(m.wordStart)
		m.wordStart = now
	}
	ex := model.LoggedExercise{
		StartedAt: m.startedAt,
		EndedAt:   now,
		Strokes:   m.logged,
	}
	m.targetRunes = nil
	m.lastWPM, m.lastAcc = stats.ExerciseMetrics(ex)
	m.hasLast = true
	eng := m.eng
	return func() tea.Msg {
		_, err := eng.Record(context.Background(), ex)
		return recordedMsg{err: err}
	}
}

func (m *Model) renderFooter() string {
	if len(m.targetRunes) == 0 {
		return ""
	}
	progress := int(float64(len(m.inputRunes)) / float64(len(m.targetRunes)) * 100)
	segments := []string{fmt.Sprintf("Progress %d%%", progress)}
	segments = append(segments, fmt.Sprintf("Word %d/%d", min(m.completed+1, len(m.strokes)), len(m.strokes)))
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastWPM, m.lastAcc*100))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/stenotutor/internal/classify"
	"github.com/verte-zerg/stenotutor/internal/config"
	"github.com/verte-zerg/stenotutor/internal/model"
	"github.com/verte-zerg/stenotutor/internal/rules"
	"github.com/verte-zerg/stenotutor/internal/stats"
)

const (
	tabOverview = iota
	tabRules
	tabWeak
)

const (
	filterSince = iota
	filterLast
	filterRules
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	src  stats.HistorySource
	ix   *classify.Index
	cfg  model.StatsConfig
	opts []stats.Option

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	ruleTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model over the history in src, classified
// by ix.
func NewModel(src stats.HistorySource, ix *classify.Index, cfg model.StatsConfig, opts ...stats.Option) *Model {
	m := &Model{
		src:  src,
		ix:   ix,
		cfg:  cfg,
		opts: opts,
		tabs: []string{"Overview", "Rules", "Weak Strokes"},
	}
	m.initInputs()
	m.ruleTable = table.New(
		table.WithColumns(ruleColumns()),
		table.WithHeight(1),
		table.WithStyles(ruleTableStyles()),
	)
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabRules {
				m.ruleTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRules {
				m.ruleTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabRules {
			m.ruleTable, cmd = m.ruleTable.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Rules: "),
	}
	m.filterInputs[filterRules].Placeholder = "BRIEF,PHONETIC"
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if m.cfg.Since != nil {
		m.filterInputs[filterSince].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[filterSince].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[filterLast].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[filterLast].SetValue("")
	}
	m.filterInputs[filterRules].SetValue(strings.Join(m.cfg.Rules, ","))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.ruleTable.SetWidth(m.width)
	m.ruleTable.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabRules {
		m.ruleTable.Focus()
	} else {
		m.ruleTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	ruleFilter := "all"
	if len(m.cfg.Rules) > 0 {
		ruleFilter = strings.Join(m.cfg.Rules, ",")
	}
	summary := fmt.Sprintf("Settings: since=%s  last=%s  rules=%s  mode=%s", since, last, ruleFilter, m.report.Snapshot.Mode())
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabRules {
		if len(m.report.Rules) == 0 {
			return fitLines("No rules selected.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.ruleTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.src, m.ix, m.cfg, m.opts...)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{Snapshot: stats.Empty()}
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.report = report
	m.ruleTable.SetRows(ruleRows(report.Rules))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabWeak].SetContent(renderWeak(m.report.Weakest))
}

func renderOverview(rep stats.Report, width int) string {
	if len(rep.Exercises) == 0 {
		return "No exercises found."
	}
	var strokes int
	var totalWPM, totalAcc, bestWPM float64
	for _, ex := range rep.Exercises {
		wpm, acc := stats.ExerciseMetrics(ex)
		totalWPM += wpm
		totalAcc += acc
		bestWPM = max(bestWPM, wpm)
		strokes += len(ex.Strokes)
	}
	count := float64(len(rep.Exercises))
	cards := []string{
		metricCard("Exercises", strconv.Itoa(len(rep.Exercises))),
		metricCard("Strokes", strconv.Itoa(strokes)),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", totalWPM/count)),
		metricCard("Best WPM", fmt.Sprintf("%.1f", bestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", (totalAcc/count)*100)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	var buf bytes.Buffer
	if err := stats.RenderRuleTable(&buf, rep.Rules, width); err != nil {
		return summary
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderWeak(weakest []stats.PerformanceStat) string {
	if len(weakest) == 0 {
		return "No strokes practised yet."
	}
	var buf bytes.Buffer
	if err := stats.RenderWeakStrokes(&buf, weakest); err != nil {
		return fmt.Sprintf("Failed to render weak strokes: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func ruleColumns() []table.Column {
	return []table.Column{
		{Title: "Rule", Width: 16},
		{Title: "Strokes", Width: 8},
		{Title: "Attempts", Width: 9},
		{Title: "Error rate", Width: 10},
		{Title: "Mean (ms)", Width: 10},
		{Title: "Trend", Width: 24},
	}
}

func ruleRows(rows []stats.RuleRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		rate, mean := "-", "-"
		if r.Stat.Known() {
			rate = fmt.Sprintf("%.2f%%", r.Stat.ErrorRate()*100)
		}
		if r.Stat.HasDuration() {
			mean = strconv.FormatInt(r.Stat.MeanDuration().Milliseconds(), 10)
		}
		trend := r.Trend
		if len(trend) > 24 {
			trend = trend[len(trend)-24:]
		}
		out = append(out, table.Row{
			r.ID,
			strconv.Itoa(r.Strokes),
			strconv.Itoa(r.Stat.Attempts),
			rate,
			mean,
			stats.Sparkline(stats.MovingAverage(trend, 3)),
		})
	}
	return out
}

func ruleTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		cfg, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) parseFilter() (model.StatsConfig, error) {
	var cfg model.StatsConfig
	if in := strings.TrimSpace(m.filterInputs[filterSince].Value()); in != "" {
		parsed, err := time.ParseInLocation("2006-01-02", in, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}
	if in := strings.TrimSpace(m.filterInputs[filterLast].Value()); in != "" {
		parsed, err := strconv.Atoi(in)
		if err != nil || parsed < 0 {
			return cfg, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = parsed
	}
	if in := m.filterInputs[filterRules].Value(); strings.TrimSpace(in) != "" {
		cfg.Rules = config.ParseRuleList(in)
		for _, id := range cfg.Rules {
			if _, ok := m.ix.Catalogue().Rule(id); !ok && id != rules.Uncategorized {
				return cfg, fmt.Errorf("unknown rule %q", id)
			}
		}
	}
	return cfg, nil
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

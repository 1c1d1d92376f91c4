// Package reportui provides the Bubble Tea report browser.
package reportui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/stats"
)

type tab int

const (
	tabEvents tab = iota
	tabChoices
	tabCount
)

func (t tab) String() string {
	if t == tabChoices {
		return "Choices"
	}
	return "Events"
}

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true)
	activeTabStyle   = tabStyle.Foreground(lipgloss.Color("#F0F0F0")).Bold(true).BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveTabStyle = tabStyle.Foreground(lipgloss.Color("#B0B0B0")).BorderForeground(lipgloss.Color("#4A4A4A"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle        = tabStyle.BorderForeground(lipgloss.Color("#4A4A4A"))
	cardLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Loader fetches a report for a filter.
type Loader func(ctx context.Context, f model.ReportFilter) (stats.Report, error)

// Model implements the Bubble Tea report UI.
type Model struct {
	load   Loader
	filter model.ReportFilter
	window int
	report stats.Report
	errMsg string

	keys    keyMap
	help    help.Model
	form    filterForm
	active  tab
	events  table.Model
	choices viewport.Model

	width  int
	height int
}

// NewModel constructs a report UI model and loads the first report.
func NewModel(load Loader, filter model.ReportFilter, window int) *Model {
	m := &Model{
		load:    load,
		filter:  filter,
		window:  max(1, window),
		keys:    defaultKeyMap(),
		help:    help.New(),
		form:    newFilterForm(),
		choices: viewport.New(0, 0),
	}
	m.events = table.New(
		table.WithColumns([]table.Column{
			{Title: "Table", Width: 11},
			{Title: "Task", Width: 24},
			{Title: "Context", Width: 7},
			{Title: "Events", Width: 6},
			{Title: "Accuracy", Width: 9},
			{Title: "RT correct (s)", Width: 14},
		}),
		table.WithHeight(1),
		table.WithFocused(true),
		table.WithStyles(eventTableStyles()),
	)
	m.reload()
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
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.form.active {
			return m, m.updateForm(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(m.active + tabCount - 1)
		return tea.ClearScreen
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(m.active + 1)
		return tea.ClearScreen
	case key.Matches(msg, m.keys.Wider):
		m.window = nextWindow(m.window)
		m.renderChoices()
		return nil
	case key.Matches(msg, m.keys.Narrower):
		m.window = prevWindow(m.window)
		m.renderChoices()
		return nil
	case key.Matches(msg, m.keys.Filter):
		cmd := m.form.open(m.filter, m.window)
		m.resize()
		return cmd
	case key.Matches(msg, m.keys.Top):
		if m.active == tabEvents {
			m.events.GotoTop()
		} else {
			m.choices.GotoTop()
		}
		return nil
	case key.Matches(msg, m.keys.Bottom):
		if m.active == tabEvents {
			m.events.GotoBottom()
		} else {
			m.choices.GotoBottom()
		}
		return nil
	}
	var cmd tea.Cmd
	if m.active == tabEvents {
		m.events, cmd = m.events.Update(msg)
	} else {
		m.choices, cmd = m.choices.Update(msg)
	}
	return cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	result, cmd := m.form.update(msg)
	switch result {
	case formApplied:
		filter, window, _ := m.form.values()
		m.filter = filter
		if window > 0 {
			m.window = window
		}
		m.reload()
		m.resize()
	case formCancelled:
		m.resize()
	}
	return cmd
}

func (m *Model) switchTab(t tab) {
	m.active = t % tabCount
	if m.active == tabEvents {
		m.events.Focus()
	} else {
		m.events.Blur()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header, footer := m.header(), m.footer()
	bodyHeight := m.bodyHeight()
	return strings.Join([]string{
		fitLines(header, m.width, lipgloss.Height(header)),
		fitLines(m.body(), m.width, bodyHeight),
		fitLines(footer, m.width, lipgloss.Height(footer)),
	}, "\n")
}

func (m *Model) bodyHeight() int {
	return max(1, m.height-lipgloss.Height(m.header())-lipgloss.Height(m.footer()))
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	body := m.bodyHeight()
	m.help.Width = m.width
	m.form.setWidth(m.width)
	m.choices.Width = m.width
	m.choices.Height = body
	m.events.SetWidth(m.width)
	// Header row plus its border.
	m.events.SetHeight(max(1, body-2))
	m.renderChoices()
}

func (m *Model) header() string {
	tabs := make([]string, 0, tabCount)
	for t := tabEvents; t < tabCount; t++ {
		style := inactiveTabStyle
		if t == m.active {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(t.String()))
	}
	summary := fmt.Sprintf("Filter: subject=%s  task=%s  window=%d",
		orAny(m.filter.Subject), orAny(m.filter.Task), m.window)
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" +
		mutedStyle.Render(runewidth.Truncate(summary, max(m.width, 4), "..."))
}

func (m *Model) footer() string {
	if m.form.active {
		return m.help.View(m.form.keys)
	}
	footer := m.help.View(m.keys)
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

func (m *Model) body() string {
	switch {
	case m.form.active:
		return m.form.view()
	case m.active == tabChoices:
		return m.choices.View()
	case len(m.report.Events) == 0:
		return "No response events found."
	default:
		return m.events.View()
	}
}

func (m *Model) reload() {
	report, err := m.load(context.Background(), m.filter)
	m.report, m.errMsg = report, ""
	if err != nil {
		m.report, m.errMsg = stats.Report{}, err.Error()
	}
	m.events.SetRows(eventRows(m.report.Events))
	m.events.GotoTop()
	m.renderChoices()
}

func (m *Model) renderChoices() {
	if m.errMsg != "" {
		m.choices.SetContent("Failed to load report.")
		return
	}
	var buf bytes.Buffer
	buf.WriteString(summaryCards(m.report.Choices))
	buf.WriteString("\n\n")
	if err := stats.RenderChoices(&buf, m.report.Choices, m.window); err != nil {
		m.choices.SetContent(err.Error())
		return
	}
	m.choices.SetContent(buf.String())
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func summaryCards(choices []model.TrialChoice) string {
	right, asked := 0, 0
	tasks := map[string]struct{}{}
	for _, c := range choices {
		tasks[c.Task] = struct{}{}
		for _, acc := range []model.Opt[model.Accuracy]{c.Dot, c.Number, c.BeepCount} {
			if v, ok := acc.Get(); ok {
				asked++
				if v == model.Correct {
					right++
				}
			}
		}
	}
	accuracy := model.NA
	if asked > 0 {
		accuracy = fmt.Sprintf("%.1f%%", float64(right)/float64(asked)*100)
	}
	cards := make([]string, 0, 3)
	for _, c := range [][2]string{
		{"Trials", strconv.Itoa(len(choices))},
		{"Tasks", strconv.Itoa(len(tasks))},
		{"Choice accuracy", accuracy},
	} {
		cards = append(cards, cardStyle.Render(cardLabelStyle.Render(c[0])+"\n"+cardValueStyle.Render(c[1])))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func eventRows(aggs []model.EventAggregate) []table.Row {
	rows := make([]table.Row, 0, len(aggs))
	for _, a := range aggs {
		acc := model.NA
		if a.Total > 0 {
			acc = fmt.Sprintf("%.2f%%", float64(a.Correct)/float64(a.Total)*100)
		}
		rows = append(rows, table.Row{
			a.Table,
			a.Task,
			string(a.Context),
			strconv.Itoa(a.Total),
			acc,
			a.MeanRTCorrect.String(),
		})
	}
	return rows
}

func eventTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1, 0, 0)
	styles.Cell = styles.Cell.Padding(0, 1, 0, 0).Foreground(lipgloss.Color("#B8B8B8"))
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	return styles
}

// nextWindow and prevWindow step the trend window through 1, 5, 10, 15...
func nextWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevWindow(n int) int {
	switch {
	case n <= 5:
		return 1
	case n%5 == 0:
		return n - 5
	default:
		return n / 5 * 5
	}
}

// fitLines pads every line to width and clips or pads to height lines.
func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(lines, "\n")
}

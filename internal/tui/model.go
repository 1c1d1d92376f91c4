// Package tui provides the Bubble Tea display and keyboard of the trial engine.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dualtask/internal/model"
)

type frameMsg struct {
	frame model.Frame
}

// Model implements the Bubble Tea screen. It draws the last presented frame
// and forwards response keys to the owning Terminal.
type Model struct {
	keys  keyMap
	input *inputBuffer

	width  int
	height int

	frame model.Frame
}

func newModel(input *inputBuffer) *Model {
	return &Model{keys: defaultKeyMap(), input: input}
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
		return m, nil
	case frameMsg:
		m.frame = msg.frame
		return m, nil
	case tea.KeyMsg:
		if name, ok := m.keys.name(msg); ok {
			m.input.push(name)
			return m, nil
		}
		if key.Matches(msg, m.keys.Quit) {
			m.input.abort()
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return renderFrame(m.frame, 0)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	content := renderFrame(m.frame, contentWidth)
	footer := renderFooter(m.frame)
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

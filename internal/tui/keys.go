package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap holds the response keys. The help key of each binding is the name
// reported to the engine.
type keyMap struct {
	Responses []key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Responses: []key.Binding{
			key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "respond")),
			key.NewBinding(key.WithKeys("a", "A"), key.WithHelp("a", "left hand")),
			key.NewBinding(key.WithKeys("l", "L"), key.WithHelp("l", "right hand")),
			key.NewBinding(key.WithKeys("right"), key.WithHelp("right", "0°")),
			key.NewBinding(key.WithKeys("up"), key.WithHelp("up", "90°")),
			key.NewBinding(key.WithKeys("left"), key.WithHelp("left", "180°")),
			key.NewBinding(key.WithKeys("down"), key.WithHelp("down", "270°")),
		},
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "abort")),
	}
}

// name maps a key message to its response name.
func (k keyMap) name(msg tea.KeyMsg) (string, bool) {
	for _, b := range k.Responses {
		if key.Matches(msg, b) {
			return b.Help().Key, true
		}
	}
	return "", false
}

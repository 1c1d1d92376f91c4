package reportui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevTab  key.Binding
	NextTab  key.Binding
	Narrower key.Binding
	Wider    key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Filter   key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevTab:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev tab")),
		NextTab:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next tab")),
		Narrower: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "shorter trend")),
		Wider:    key.NewBinding(key.WithKeys("="), key.WithHelp("=", "longer trend")),
		Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevTab, k.NextTab, k.Narrower, k.Wider, k.Filter, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Top, k.Bottom}}
}

type formKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Apply  key.Binding
	Cancel key.Binding
}

func defaultFormKeyMap() formKeyMap {
	return formKeyMap{
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Apply:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp implements help.KeyMap.
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Apply, k.Cancel}
}

// FullHelp implements help.KeyMap.
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

package reportui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dualtask/internal/model"
)

const (
	fieldSubject = iota
	fieldTask
	fieldWindow
)

var errBadWindow = errors.New("invalid trend window (use integer >= 1)")

// filterForm edits the report filter and the trend window.
type filterForm struct {
	keys   formKeyMap
	inputs []textinput.Model
	focus  int
	active bool
	err    string
}

type formResult int

const (
	formEditing formResult = iota
	formApplied
	formCancelled
)

func newFilterForm() filterForm {
	f := filterForm{keys: defaultFormKeyMap()}
	for _, prompt := range []string{"Subject: ", "Task: ", "Trend window: "} {
		input := textinput.New()
		input.Prompt = prompt
		input.Cursor.SetMode(cursor.CursorBlink)
		f.inputs = append(f.inputs, input)
	}
	return f
}

func (f *filterForm) open(filter model.ReportFilter, window int) tea.Cmd {
	f.active = true
	f.err = ""
	f.inputs[fieldSubject].SetValue(filter.Subject)
	f.inputs[fieldTask].SetValue(filter.Task)
	f.inputs[fieldWindow].SetValue(strconv.Itoa(window))
	return f.focusField(fieldSubject)
}

func (f *filterForm) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(10, width-len(f.inputs[i].Prompt)-2)
	}
}

func (f *filterForm) focusField(idx int) tea.Cmd {
	n := len(f.inputs)
	f.focus = (idx%n + n) % n
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *filterForm) update(msg tea.KeyMsg) (formResult, tea.Cmd) {
	switch {
	case key.Matches(msg, f.keys.Cancel):
		f.active = false
		f.err = ""
		return formCancelled, nil
	case key.Matches(msg, f.keys.Apply):
		if _, _, err := f.values(); err != nil {
			f.err = err.Error()
			return formEditing, nil
		}
		f.active = false
		f.err = ""
		return formApplied, nil
	case key.Matches(msg, f.keys.Next):
		return formEditing, f.focusField(f.focus + 1)
	case key.Matches(msg, f.keys.Prev):
		return formEditing, f.focusField(f.focus - 1)
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return formEditing, cmd
}

// values parses the inputs. An empty window keeps zero, meaning unchanged.
func (f *filterForm) values() (model.ReportFilter, int, error) {
	window := 0
	if raw := strings.TrimSpace(f.inputs[fieldWindow].Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return model.ReportFilter{}, 0, errBadWindow
		}
		window = n
	}
	return model.ReportFilter{
		Subject: strings.TrimSpace(f.inputs[fieldSubject].Value()),
		Task:    strings.TrimSpace(f.inputs[fieldTask].Value()),
	}, window, nil
}

func (f *filterForm) view() string {
	lines := []string{"Filter"}
	for _, input := range f.inputs {
		lines = append(lines, input.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

package reportui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dualtask/internal/model"
	"github.com/verte-zerg/dualtask/internal/stats"
)

func fixedReport() stats.Report {
	return stats.Report{
		Events: []model.EventAggregate{
			{Table: model.TableFlanker, Task: "test_flanker", Context: model.ContextSingle, Total: 4, Correct: 3, MeanRTCorrect: model.Some(0.5)},
			{Table: model.TableNBack, Task: "test_nback", Context: model.ContextDual, Total: 0},
		},
		Choices: []model.TrialChoice{
			{Task: "test_number_dots", Trial: 1, Dot: model.Some(model.Correct), Number: model.Some(model.Correct)},
			{Task: "test_number_dots", Trial: 2, Dot: model.Some(model.Incorrect), Number: model.Some(model.Correct)},
		},
	}
}

type recordingLoader struct {
	filters []model.ReportFilter
	err     error
}

func (l *recordingLoader) load(_ context.Context, f model.ReportFilter) (stats.Report, error) {
	l.filters = append(l.filters, f)
	if l.err != nil {
		return stats.Report{}, l.err
	}
	return fixedReport(), nil
}

func sized(m *Model) *Model {
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestEventRows(t *testing.T) {
	rows := eventRows(fixedReport().Events)
	require.Len(t, rows, 2)
	assert.Equal(t, "75.00%", rows[0][4])
	assert.Equal(t, "0.500", rows[0][5])
	assert.Equal(t, model.NA, rows[1][4])
}

func TestViewShowsTabs(t *testing.T) {
	l := &recordingLoader{}
	m := sized(NewModel(l.load, model.ReportFilter{Subject: "p01"}, 5))
	view := m.View()
	assert.Contains(t, view, "Events")
	assert.Contains(t, view, "subject=p01")
	assert.Contains(t, view, "test_flanker")
	assert.Len(t, strings.Split(view, "\n"), 30)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view = m.View()
	assert.Contains(t, view, "Choice Accuracy")
	assert.Contains(t, view, "75.0%")
}

func TestFilterAppliesAndReloads(t *testing.T) {
	l := &recordingLoader{}
	m := sized(NewModel(l.load, model.ReportFilter{}, 5))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	require.True(t, m.form.active)

	m.form.inputs[1].SetValue("test_nback")
	m.form.inputs[2].SetValue("10")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.form.active)
	assert.Equal(t, 10, m.window)
	require.Len(t, l.filters, 2)
	assert.Equal(t, model.ReportFilter{Task: "test_nback"}, l.filters[1])
}

func TestFilterRejectsBadWindow(t *testing.T) {
	l := &recordingLoader{}
	m := sized(NewModel(l.load, model.ReportFilter{}, 5))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.form.inputs[2].SetValue("0")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.form.active)
	assert.Contains(t, m.form.err, "trend window")
	assert.Len(t, l.filters, 1)
}

func TestLoadErrorShownInFooter(t *testing.T) {
	l := &recordingLoader{err: errors.New("database is locked")}
	m := sized(NewModel(l.load, model.ReportFilter{}, 5))
	assert.Contains(t, m.View(), "database is locked")
}

func TestWindowSteps(t *testing.T) {
	assert.Equal(t, 5, nextWindow(1))
	assert.Equal(t, 10, nextWindow(5))
	assert.Equal(t, 10, nextWindow(7))
	assert.Equal(t, 1, prevWindow(5))
	assert.Equal(t, 5, prevWindow(7))
	assert.Equal(t, 5, prevWindow(10))
}

func TestQuit(t *testing.T) {
	l := &recordingLoader{}
	m := NewModel(l.load, model.ReportFilter{}, 5)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestFormTabCyclesFields(t *testing.T) {
	f := newFilterForm()
	f.open(model.ReportFilter{Subject: "p01"}, 5)
	assert.Equal(t, fieldSubject, f.focus)
	f.update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, fieldWindow, f.focus)
	f.update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldSubject, f.focus)

	result, _ := f.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, formCancelled, result)
	assert.False(t, f.active)
}

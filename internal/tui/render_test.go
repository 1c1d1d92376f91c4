package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dualtask/internal/engine"
	"github.com/verte-zerg/dualtask/internal/model"
)

func TestRenderFrameStreams(t *testing.T) {
	tests := []struct {
		name  string
		frame model.Frame
		want  []string
	}{
		{
			name:  "cue",
			frame: model.Frame{Active: []model.Stream{model.StreamCue}, Text: engine.CueText},
			want:  []string{"Wer kommt?"},
		},
		{
			name:  "primary with shape",
			frame: model.Frame{Active: []model.Stream{model.StreamPrimary, model.StreamShape}, Text: "Die Katze", Symbol: "▲"},
			want:  []string{"Die Katze", "▲"},
		},
		{
			name: "choice",
			frame: model.Frame{
				Active:  []model.Stream{model.StreamChoice},
				Prompt:  engine.NumberPrompt,
				Options: []string{"412", "118", "907", "350"},
			},
			want: []string{"Welche Zahl", "→  412", "↓  350"},
		},
		{
			name:  "feedback",
			frame: model.Frame{Active: []model.Stream{model.StreamFeedback}, Feedback: engine.IncorrectText},
			want:  []string{"Inkorrekt!"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderFrame(tt.frame, 60)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Fatalf("missing %q in:\n%s", w, out)
				}
			}
		})
	}
}

func TestDirectionOptionsNotDoubled(t *testing.T) {
	out := optionRow(engine.DirectionArrows)
	if strings.Count(out, "→") != 1 {
		t.Fatalf("expected a single right arrow, got:\n%s", out)
	}
}

func TestDotFieldMoves(t *testing.T) {
	first := dotField(0, 0)
	if first != dotField(dotStep-1, 0) {
		t.Fatalf("dots moved before a full step")
	}
	if first == dotField(dotStep, 0) {
		t.Fatalf("dots did not move after a step")
	}
	if strings.Count(first, "•") != len(dotSeeds) {
		t.Fatalf("expected %d dots, got:\n%s", len(dotSeeds), first)
	}
}

func TestModelForwardsResponseKeys(t *testing.T) {
	input := newInputBuffer()
	m := newModel(input)
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'z'}})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})

	got := input.drain([]string{"space", "left", "z"})
	if len(got) != 2 || got[0].Key != "space" || got[1].Key != "left" {
		t.Fatalf("unexpected presses: %+v", got)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	select {
	case <-input.done:
	default:
		t.Fatalf("expected abort to be signalled")
	}
}

func TestModelViewCentersFrame(t *testing.T) {
	m := newModel(newInputBuffer())
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	m.Update(frameMsg{frame: model.Frame{Task: "test_single", Trial: 3, Active: []model.Stream{model.StreamFixation}, Text: "+"}})
	view := m.View()
	lines := strings.Split(view, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[9], "test_single · Trial 3") {
		t.Fatalf("footer missing: %q", lines[9])
	}
}

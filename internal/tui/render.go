package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dualtask/internal/engine"
	"github.com/verte-zerg/dualtask/internal/model"
)

var (
	textStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	cueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	numberStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	symbolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true).Padding(0, 2)
	dotStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	optionStyle    = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("#4A4A4A"))
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Dot field size in cells.
const (
	fieldWidth  = 21
	fieldHeight = 7
	// dotStep is the number of frames per one-cell move.
	dotStep = 6
)

// dotSeeds are the dot positions at frame zero.
var dotSeeds = [][2]int{{1, 1}, {5, 4}, {9, 0}, {13, 5}, {17, 2}, {3, 6}, {11, 3}, {19, 6}, {7, 2}, {15, 0}}

// dotField draws the dot cloud displaced along degrees, wrapping at the edges.
func dotField(index, degrees int) string {
	dx, dy := 0, 0
	switch degrees {
	case 0:
		dx = 1
	case 90:
		dy = -1
	case 180:
		dx = -1
	case 270:
		dy = 1
	}
	step := index / dotStep
	grid := make([][]rune, fieldHeight)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", fieldWidth))
	}
	for _, p := range dotSeeds {
		x := mod(p[0]+dx*step, fieldWidth)
		y := mod(p[1]+dy*step, fieldHeight)
		grid[y][x] = '•'
	}
	lines := make([]string, fieldHeight)
	for y, row := range grid {
		lines[y] = string(row)
	}
	return dotStyle.Render(strings.Join(lines, "\n"))
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// optionRow labels each option with the arrow key that selects it.
func optionRow(options []string) string {
	cells := make([]string, 0, len(options))
	for i, opt := range options {
		label := opt
		if i < len(engine.DirectionArrows) && opt != engine.DirectionArrows[i] {
			label = fmt.Sprintf("%s  %s", engine.DirectionArrows[i], opt)
		}
		cells = append(cells, optionStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, cells...)
}

// renderFrame draws the content block of f for a body of the given width.
func renderFrame(f model.Frame, width int) string {
	var parts []string
	switch {
	case f.Has(model.StreamCue):
		parts = append(parts, cueStyle.Render(f.Text))
	case f.Has(model.StreamFixation):
		parts = append(parts, textStyle.Render(f.Text))
	case f.Has(model.StreamNumber):
		parts = append(parts, numberStyle.Render(f.Text))
	case f.Has(model.StreamChoice):
		parts = append(parts,
			promptStyle.Render(wrapText(f.Prompt, width)),
			"",
			optionRow(f.Options))
	}
	if f.Has(model.StreamPrimary) {
		parts = append(parts, textStyle.Render(wrapText(f.Text, width)))
	}
	if f.Has(model.StreamDots) {
		parts = append(parts, "", dotField(f.Index, f.Degrees))
	}
	if f.Has(model.StreamShape) || f.Has(model.StreamFlanker) {
		parts = append(parts, "", symbolStyle.Render(f.Symbol))
	}
	if f.Has(model.StreamFeedback) {
		style := incorrectStyle
		if f.Feedback == engine.CorrectText {
			style = correctStyle
		}
		parts = append(parts, "", style.Render(f.Feedback))
	}
	return lipgloss.JoinVertical(lipgloss.Center, parts...)
}

func renderFooter(f model.Frame) string {
	if f.Task == "" {
		return ""
	}
	return footerStyle.Render(fmt.Sprintf("%s · Trial %d", f.Task, f.Trial))
}

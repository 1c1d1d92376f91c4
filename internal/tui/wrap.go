package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks text into lines of at most width cells, at spaces where
// possible. Existing line breaks are kept.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		out = append(out, wrapLine(strings.TrimSpace(p), width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if line == "" {
		return []string{""}
	}
	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, word := range strings.Fields(line) {
		w := runewidth.StringWidth(word)
		if curWidth > 0 && curWidth+1+w > width {
			lines = append(lines, cur.String())
			cur.Reset()
			curWidth = 0
		}
		for w > width {
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				break
			}
			if curWidth > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
				curWidth = 0
			}
			lines = append(lines, head)
			word = strings.TrimPrefix(word, head)
			w = runewidth.StringWidth(word)
		}
		if word == "" {
			continue
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += w
	}
	if curWidth > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

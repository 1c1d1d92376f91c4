package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Task", "Accuracy", "Events"}
	rows := [][]string{
		{"nback", "97.50%", "12"},
		{"test_flanker", "8.00%", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Task         Accuracy Events" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "nback          97.50%     12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "test_flanker    8.00%      3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Shape", "N"}, [][]string{{"★", "1"}, {"ab", "2"}}, nil)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Shape N" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[2] != "ab    2" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

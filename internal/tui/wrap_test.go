package tui

import "testing"

func TestWrapTextBreaksAtSpaces(t *testing.T) {
	got := wrapText("Wer kommt heute zum Essen", 10)
	want := "Wer kommt\nheute zum\nEssen"
	if got != want {
		t.Fatalf("unexpected wrap:\n%q\nwant\n%q", got, want)
	}
}

func TestWrapTextKeepsLineBreaks(t *testing.T) {
	got := wrapText("Welche Zahl?\n Drücken Sie", 40)
	want := "Welche Zahl?\nDrücken Sie"
	if got != want {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	got := wrapText("abcdefgh", 3)
	want := "abc\ndef\ngh"
	if got != want {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextCountsWideRunes(t *testing.T) {
	got := wrapText("日本 語", 4)
	want := "日本\n語"
	if got != want {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextNoWidth(t *testing.T) {
	if got := wrapText("a b", 0); got != "a b" {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}

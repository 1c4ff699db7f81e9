package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/vizier/internal/model"
)

func TestBuildAnswerRunesCursor(t *testing.T) {
	target := []model.Direction{model.DirectionUp, model.DirectionLeft}
	answers := []model.Direction{model.DirectionUp}

	runes := buildAnswerRunes(target, answers, false)
	if len(runes) != 3 {
		t.Fatalf("expected 3 runes, got %d", len(runes))
	}
	if runes[0].s != answerStyle.Render("↑") {
		t.Fatalf("expected neutral style for entered answer")
	}
	if !runes[1].isSpace {
		t.Fatalf("expected separator between slots")
	}
	if runes[2].s != cursorStyle.Render(string(emptySlot)) {
		t.Fatalf("expected cursor style for next slot")
	}
}

func TestBuildAnswerRunesReveal(t *testing.T) {
	target := []model.Direction{model.DirectionUp, model.DirectionLeft, model.DirectionDown}
	answers := []model.Direction{model.DirectionUp, model.DirectionRight, model.DirectionDown}

	runes := buildAnswerRunes(target, answers, true)
	if runes[0].s != correctStyle.Render("↑") {
		t.Fatalf("expected correct style for matching answer")
	}
	if runes[2].s != incorrectStyle.Render("→") {
		t.Fatalf("expected incorrect style for wrong answer")
	}
	if runes[4].s != correctStyle.Render("↓") {
		t.Fatalf("expected correct style for matching answer")
	}
}

func TestBuildAnswerRunesPendingSlots(t *testing.T) {
	target := []model.Direction{model.DirectionUp, model.DirectionUp, model.DirectionUp}
	runes := buildAnswerRunes(target, nil, false)
	if runes[0].s != cursorStyle.Render(string(emptySlot)) {
		t.Fatalf("expected cursor on first slot")
	}
	if runes[4].s != pendingStyle.Render(string(emptySlot)) {
		t.Fatalf("expected pending style for later slots")
	}
}

func TestWrapTextBreaksOnSpaces(t *testing.T) {
	plain := func(s string) string { return s }
	got := wrapText("queue is empty after advance", 12, plain)
	lines := strings.Split(got, "\n")
	want := []string{"queue is", "empty after", "advance"}
	if len(lines) != len(want) {
		t.Fatalf("expected %v, got %q", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("expected %v, got %q", want, lines)
		}
	}
}

func TestWrapTextLongWord(t *testing.T) {
	plain := func(s string) string { return s }
	got := wrapText("abcdefgh", 3, plain)
	if got != "abc\ndef\ngh" {
		t.Fatalf("unexpected wrap %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("anaglyph", 5); got != "anag…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("depth", 10); got != "depth" {
		t.Fatalf("expected untouched string, got %q", got)
	}
}

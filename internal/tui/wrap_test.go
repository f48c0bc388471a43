package tui

import "testing"

func TestBuildStyledRunesCursor(t *testing.T) {
	target := []rune("ab")

	runes := buildStyledRunes(target, 1, false)
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for accepted rune")
	}
	if runes[1].s != cursorStyle.Render("b") {
		t.Fatalf("expected cursor style at the cursor")
	}
}

func TestBuildStyledRunesErrorFlash(t *testing.T) {
	target := []rune("ab")

	runes := buildStyledRunes(target, 1, true)
	if runes[1].s != incorrectStyle.Underline(true).Render("b") {
		t.Fatalf("expected error flash at the cursor")
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected accepted rune unchanged by flash")
	}
}

func TestBuildStyledRunesWordHighlighting(t *testing.T) {
	target := []rune("one two")

	runes := buildStyledRunes(target, 1, false)
	if runes[0].s != correctStyle.Render("o") {
		t.Fatalf("expected correct style for accepted rune")
	}
	if runes[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for untyped in current word")
	}
	if runes[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestBuildStyledRunesComplete(t *testing.T) {
	target := []rune("ab")

	runes := buildStyledRunes(target, 2, false)
	for i, item := range runes {
		if item.s != correctStyle.Render(string(target[i])) {
			t.Fatalf("expected all accepted at completion, rune %d differs", i)
		}
	}
}

func TestWrapStyledRunesBreaksAtSpaces(t *testing.T) {
	runes := buildStyledRunes([]rune("alpha beta gamma"), 0, false)
	out := wrapStyledRunes(runes, 11)
	lines := 1
	for _, r := range out {
		if r == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", lines, out)
	}
}

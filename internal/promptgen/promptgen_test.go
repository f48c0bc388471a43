package promptgen

import (
	"math/rand"
	"strings"
	"testing"
)

func TestSentenceWordCount(t *testing.T) {
	g := NewWithSource(rand.NewSource(1), []string{"one", "two", "three"})
	s := g.Sentence(5, false)
	if got := len(strings.Fields(s)); got != 5 {
		t.Fatalf("expected 5 words, got %d in %q", got, s)
	}
}

func TestSentencePunctuation(t *testing.T) {
	g := NewWithSource(rand.NewSource(1), []string{"word"})
	s := g.Sentence(3, true)
	if !strings.HasSuffix(s, ".") {
		t.Fatalf("expected trailing period in %q", s)
	}
	if s[0] != 'W' {
		t.Fatalf("expected capitalized first letter in %q", s)
	}
}

func TestSentenceEmpty(t *testing.T) {
	g := NewWithSource(rand.NewSource(1), nil)
	if s := g.Sentence(0, true); s != "" {
		t.Fatalf("expected empty sentence, got %q", s)
	}
}

func TestSentencesCount(t *testing.T) {
	g := NewWithSource(rand.NewSource(7), nil)
	out := g.Sentences(4, 6, true)
	if len(out) != 4 {
		t.Fatalf("expected 4 sentences, got %d", len(out))
	}
	for _, s := range out {
		if got := len(strings.Fields(s)); got != 6 {
			t.Fatalf("expected 6 words, got %d in %q", got, s)
		}
	}
}

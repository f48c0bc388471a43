// Package promptgen builds practice prompts for seeding contests.
package promptgen

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Default word pool for seeded practice contests.
var defaultWords = []string{
	"time", "year", "people", "way", "day", "man", "thing", "woman",
	"life", "child", "world", "school", "state", "family", "student",
	"group", "country", "problem", "hand", "part", "place", "case",
	"week", "company", "system", "program", "question", "work",
	"government", "number", "night", "point", "home", "water", "room",
	"mother", "area", "money", "story", "fact", "month", "lot", "right",
	"study", "book", "eye", "job", "word", "business", "issue",
}

// Generator produces randomized prompt text.
type Generator struct {
	rnd   *rand.Rand
	words []string
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		words: defaultWords,
	}
}

// NewWithSource returns a Generator with an explicit source and word
// pool, for tests.
func NewWithSource(src rand.Source, words []string) *Generator {
	if len(words) == 0 {
		words = defaultWords
	}
	return &Generator{rnd: rand.New(src), words: words}
}

// Sentence builds one prompt of the given word count, optionally
// capitalizing the first word and ending with a period.
func (g *Generator) Sentence(count int, punctuate bool) string {
	if count <= 0 {
		return ""
	}
	picked := make([]string, 0, count)
	for i := 0; i < count; i++ {
		picked = append(picked, g.words[g.rnd.Intn(len(g.words))])
	}
	text := strings.Join(picked, " ")
	if punctuate {
		runes := []rune(text)
		runes[0] = unicode.ToUpper(runes[0])
		text = string(runes) + "."
	}
	return text
}

// Sentences builds n distinct prompt texts.
func (g *Generator) Sentences(n, wordsPer int, punctuate bool) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Sentence(wordsPer, punctuate))
	}
	return out
}

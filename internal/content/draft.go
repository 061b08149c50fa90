package content

import (
	"strings"

	"github.com/robalobadob/motmystere/internal/grammar"
)

// NewDraft starts a poem from a raw verse: words tokenized with suggested
// classes, nothing selected yet, and the mystery word pre-filled with
// defaultTarget.
func NewDraft(verse, defaultTarget string) *grammar.Poem {
	return &grammar.Poem{
		Verse:                    strings.TrimSpace(verse),
		Words:                    grammar.Tokenize(verse),
		Groups:                   []grammar.WordGroup{},
		ParticipatingWordIndices: []int{},
		TargetWord:               strings.ToUpper(defaultTarget),
	}
}

// Retokenize replaces the words of p after the verse changed. Groups,
// selections and color overrides refer to old indices and are dropped.
func Retokenize(p *grammar.Poem, verse string) {
	p.Verse = strings.TrimSpace(verse)
	p.Words = grammar.Tokenize(verse)
	p.Groups = []grammar.WordGroup{}
	p.ParticipatingWordIndices = []int{}
	p.WordColors = nil
}

package mystery

import (
	"fmt"
	"strings"

	"github.com/robalobadob/motmystere/internal/grammar"
)

// PoemError reports an authoring mistake on one field.
type PoemError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *PoemError) Error() string { return e.Field + ": " + e.Message }

func invalid(field, format string, args ...any) error {
	return &PoemError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidatePoem runs every save-time check on p and returns the first
// failure. It is shared by all authoring surfaces (HTTP and CLI).
//
// The mystery word checks come last and return the same typed errors as
// Validate, so callers can surface counts and conflicting letters.
func ValidatePoem(p *grammar.Poem, m grammar.Model) error {
	if strings.TrimSpace(p.Verse) == "" {
		return invalid("verseText", "verse is empty")
	}
	if len(p.Words) == 0 {
		return invalid("words", "verse has no words")
	}
	for i, w := range p.Words {
		if w.Class != "" && !grammar.IsClass(w.Class) {
			return invalid("words", "word %d (%q) has unknown class %q", i, w.Text, w.Class)
		}
	}

	member := make(map[int]string)
	groupIDs := make(map[string]bool)
	for _, g := range p.Groups {
		if g.ID == "" {
			return invalid("wordGroups", "group %q has no id", g.Name)
		}
		if groupIDs[g.ID] {
			return invalid("wordGroups", "group id %q is used twice", g.ID)
		}
		groupIDs[g.ID] = true
		if !g.Color.Normalize().IsHex() {
			return invalid("wordGroups", "group %q color %q is not a hex color", g.ID, g.Color)
		}
		if len(g.WordIndices) == 0 {
			return invalid("wordGroups", "group %q has no words", g.ID)
		}
		for _, wi := range g.WordIndices {
			if wi < 0 || wi >= len(p.Words) {
				return invalid("wordGroups", "group %q references word %d out of range", g.ID, wi)
			}
			if other, ok := member[wi]; ok && other != g.ID {
				return invalid("wordGroups", "word %d belongs to groups %q and %q", wi, other, g.ID)
			}
			member[wi] = g.ID
		}
	}
	for i, w := range p.Words {
		if w.GroupID != "" && member[i] != w.GroupID {
			return invalid("words", "word %d claims group %q but is not a member", i, w.GroupID)
		}
	}

	seen := make(map[int]bool)
	for _, idx := range p.ParticipatingWordIndices {
		if idx < 0 || idx >= len(p.Words) {
			return invalid("participatingWordIndices", "index %d out of range", idx)
		}
		if seen[idx] {
			return invalid("participatingWordIndices", "index %d listed twice", idx)
		}
		if p.Words[idx].Class == "" {
			return invalid("words", "participating word %d (%q) has no class", idx, p.Words[idx].Text)
		}
		seen[idx] = true
	}
	for idx, c := range p.WordColors {
		if idx < 0 || idx >= len(p.Words) {
			return invalid("wordColors", "index %d out of range", idx)
		}
		if !c.Normalize().IsHex() {
			return invalid("wordColors", "word %d color %q is not a hex color", idx, c)
		}
	}

	if p.TargetGender != grammar.Masculine && p.TargetGender != grammar.Feminine {
		return invalid("targetWordGender", "gender must be masculine or feminine")
	}
	target := strings.ToUpper(strings.TrimSpace(p.TargetWord))
	if target == "" {
		return invalid("targetWord", "mystery word is empty")
	}
	for _, r := range target {
		if r < 'A' || r > 'Z' {
			return invalid("targetWord", "letter %q is not in A-Z", r)
		}
	}
	return Validate(target, BuildUnits(p, m))
}

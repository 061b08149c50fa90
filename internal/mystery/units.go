// internal/mystery/units.go
//
// Participating units: the ordered list of words and word groups that each
// contribute one letter to the mystery word.
//
// Color precedence for a unit:
//   1. an author-set hex override in poem.WordColors for the word index
//   2. the group's hex color when the word belongs to a group
//   3. the class's symbolic color
//   4. the neutral sentinel

package mystery

import (
	"github.com/robalobadob/motmystere/internal/grammar"
)

// Unit is one participating word or coalesced group.
type Unit struct {
	Color   grammar.ColorToken `json:"color"`
	Label   string             `json:"label"`
	IsGroup bool               `json:"isGroup"`
	Indices []int              `json:"indices"`
}

// ResolveColor returns the color of word idx under the precedence above.
func ResolveColor(p *grammar.Poem, m grammar.Model, idx int) grammar.ColorToken {
	if idx < 0 || idx >= len(p.Words) {
		return m.Neutral
	}
	if c, ok := p.WordColors[idx]; ok && c.Normalize().IsHex() {
		return c.Normalize()
	}
	w := p.Words[idx]
	if w.GroupID == "" {
		if g := p.GroupOfIndex(idx); g != nil {
			w.GroupID = g.ID
		}
	}
	c := m.ColorAndLetterFor(w, p).Color
	if c.IsHex() {
		return c.Normalize()
	}
	return c
}

// BuildUnits walks p.ParticipatingWordIndices in order. Indices of the same
// group collapse into one unit placed at the first occurrence and colored
// by that first participating member; later members are skipped.
func BuildUnits(p *grammar.Poem, m grammar.Model) []Unit {
	units := make([]Unit, 0, len(p.ParticipatingWordIndices))
	groupAt := make(map[string]int)
	for _, idx := range p.ParticipatingWordIndices {
		if idx < 0 || idx >= len(p.Words) {
			continue
		}
		if g := p.GroupOfIndex(idx); g != nil {
			if at, seen := groupAt[g.ID]; seen {
				units[at].Indices = append(units[at].Indices, idx)
				continue
			}
			groupAt[g.ID] = len(units)
			units = append(units, Unit{
				Color:   ResolveColor(p, m, idx),
				Label:   p.GroupLabel(g),
				IsGroup: true,
				Indices: []int{idx},
			})
			continue
		}
		units = append(units, Unit{
			Color:   ResolveColor(p, m, idx),
			Label:   p.Words[idx].Text,
			Indices: []int{idx},
		})
	}
	return units
}

package grammar

import "strings"

// Swatch is the color and derived letter of a word.
type Swatch struct {
	Color  ColorToken `json:"color"`
	Letter string     `json:"letter"`
}

// Model resolves words to swatches. Neutral and Unknown are the sentinels
// used when nothing resolves.
type Model struct {
	Neutral ColorToken
	Unknown string
}

// NewModel builds a Model from configured sentinels.
func NewModel(neutral, unknown string) Model {
	return Model{Neutral: ColorToken(neutral), Unknown: strings.ToUpper(unknown)}
}

// ColorAndLetterFor classifies w within p.
//
//   - grouped word: the group's color, the class letter (or Unknown)
//   - known class:  the class color and letter
//   - otherwise:    Neutral and Unknown
//
// It never fails; unresolved inputs degrade to the sentinel pair.
func (m Model) ColorAndLetterFor(w Word, p *Poem) Swatch {
	cls, known := LookupClass(w.Class)
	if g := p.Group(w.GroupID); g != nil {
		letter := m.Unknown
		if known {
			letter = cls.Letter
		}
		return Swatch{Color: g.Color, Letter: letter}
	}
	if known {
		return Swatch{Color: cls.Color, Letter: cls.Letter}
	}
	return Swatch{Color: m.Neutral, Letter: m.Unknown}
}

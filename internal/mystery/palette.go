package mystery

import (
	"strings"

	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/ids"
)

// PaletteEntry is one placeable letter. ID is unique per instance so the
// same letter can be dropped several times.
type PaletteEntry struct {
	ID     string             `json:"id"`
	Letter string             `json:"letter"`
	Color  grammar.ColorToken `json:"color"`
}

// LetterColors maps each letter of the target word to its color.
// A write wins unless it would put a symbolic color over a hex one.
func LetterColors(p *grammar.Poem, m grammar.Model) map[rune]grammar.ColorToken {
	units := BuildUnits(p, m)
	out := make(map[rune]grammar.ColorToken)
	for i, r := range []rune(strings.ToUpper(p.TargetWord)) {
		if i >= len(units) {
			break
		}
		c := units[i].Color
		if prev, ok := out[r]; ok && prev.IsHex() && !c.IsHex() {
			continue
		}
		out[r] = c
	}
	return out
}

// BuildPalette returns the 26 letters A-Z, colored through LetterColors and
// neutral otherwise, each with a fresh instance id.
func BuildPalette(p *grammar.Poem, m grammar.Model, gen ids.Generator) []PaletteEntry {
	colors := LetterColors(p, m)
	out := make([]PaletteEntry, 0, 26)
	for r := 'A'; r <= 'Z'; r++ {
		c, ok := colors[r]
		if !ok {
			c = m.Neutral
		}
		out = append(out, PaletteEntry{ID: gen.NewID(), Letter: string(r), Color: c})
	}
	return out
}

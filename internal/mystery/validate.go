package mystery

import (
	"fmt"
	"strings"

	"github.com/robalobadob/motmystere/internal/grammar"
)

// LengthMismatchError: the target word and the unit list differ in length.
type LengthMismatchError struct {
	Expected int `json:"expected"`
	Got      int `json:"got"`
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("mystery word has %d letters, %d participating units selected", e.Got, e.Expected)
}

// ColorConflictError: the same letter is reached through two different colors.
type ColorConflictError struct {
	Letter      string             `json:"letter"`
	First       grammar.ColorToken `json:"first"`
	Conflicting grammar.ColorToken `json:"conflicting"`
}

func (e *ColorConflictError) Error() string {
	return fmt.Sprintf("letter %s is both %s and %s", e.Letter, e.First, e.Conflicting)
}

// Validate checks a candidate target word against the participating units.
// It returns nil, a *LengthMismatchError or a *ColorConflictError.
func Validate(target string, units []Unit) error {
	letters := []rune(strings.ToUpper(target))
	if len(letters) != len(units) {
		return &LengthMismatchError{Expected: len(units), Got: len(letters)}
	}
	seen := make(map[rune]grammar.ColorToken, len(letters))
	for i, r := range letters {
		c := units[i].Color.Normalize()
		first, ok := seen[r]
		if !ok {
			seen[r] = c
			continue
		}
		if first != c {
			return &ColorConflictError{Letter: string(r), First: first, Conflicting: c}
		}
	}
	return nil
}

// PreviewEntry describes one letter of the mystery word as the author sees it.
type PreviewEntry struct {
	Letter      string             `json:"letter"`
	Color       grammar.ColorToken `json:"color"`
	SourceLabel string             `json:"sourceLabel"`
	IsGroup     bool               `json:"isGroup"`
	IsValid     bool               `json:"isValid"`
}

// Preview pairs every letter of the uppercased target with its unit.
// Letters past the end of units are invalid, neutral and unlabeled.
func Preview(target string, units []Unit, neutral grammar.ColorToken) []PreviewEntry {
	letters := []rune(strings.ToUpper(target))
	out := make([]PreviewEntry, len(letters))
	for i, r := range letters {
		if i >= len(units) {
			out[i] = PreviewEntry{Letter: string(r), Color: neutral}
			continue
		}
		u := units[i]
		out[i] = PreviewEntry{
			Letter:      string(r),
			Color:       u.Color,
			SourceLabel: u.Label,
			IsGroup:     u.IsGroup,
			IsValid:     true,
		}
	}
	return out
}

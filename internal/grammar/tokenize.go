package grammar

import (
	"strings"
	"unicode"
)

// Tokenize splits a raw verse into words. Surrounding punctuation is
// stripped, hyphenated words stay whole, and elisions are split after the
// apostrophe ("l'oiseau" gives "l'" and "oiseau"). Every word starts
// unselected with the suggested class pre-filled.
func Tokenize(verse string) []Word {
	var out []Word
	for _, field := range strings.Fields(verse) {
		for _, tok := range splitElision(field) {
			tok = strings.TrimFunc(tok, isEdgePunct)
			if tok == "" || tok == "'" {
				continue
			}
			out = append(out, Word{Text: tok, Class: Suggest(tok)})
		}
	}
	return out
}

var elided = map[string]bool{
	"l": true, "d": true, "j": true, "m": true, "n": true, "s": true, "t": true, "c": true,
	"qu": true, "jusqu": true, "lorsqu": true, "puisqu": true,
}

// splitElision breaks "qu'il" into "qu'" and "il". "aujourd'hui" stays whole.
func splitElision(field string) []string {
	field = strings.ReplaceAll(field, "’", "'")
	var parts []string
	for {
		i := strings.IndexByte(field, '\'')
		if i <= 0 || i == len(field)-1 {
			break
		}
		head := strings.TrimLeftFunc(field[:i], isEdgePunct)
		if !elided[strings.ToLower(head)] {
			break
		}
		parts = append(parts, head+"'")
		field = field[i+1:]
	}
	return append(parts, field)
}

// isEdgePunct matches characters stripped from token edges. The apostrophe
// is kept at the end so elided articles read naturally.
func isEdgePunct(r rune) bool {
	if r == '\'' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// internal/grammar/lexicon.go
//
// Class suggestions for freshly tokenized verses.
//
// Initialization behavior (Init):
//   1. If a path is given (LEXICON_FILE), load "mot;Classe" lines from it.
//   2. Otherwise fall back to the embedded assets/lexicon.txt.
//
// Lookups are case-insensitive. Unknown words get a suffix-based guess or
// stay unassigned; authors always have the last word.

package grammar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/motmystere/assets"
)

var (
	initOnce   sync.Once
	lexicon    map[string]string
	initialErr error
)

// Init loads the lexicon exactly once. An empty path selects the embedded list.
func Init(path string) error {
	initOnce.Do(func() {
		var r io.ReadCloser
		if path != "" {
			f, err := os.Open(path)
			if err != nil {
				initialErr = err
				return
			}
			r = f
		} else {
			f, err := assets.Lexicon()
			if err != nil {
				initialErr = err
				return
			}
			r = f
		}
		defer r.Close()
		lexicon, initialErr = readLexicon(r)
	})
	return initialErr
}

func readLexicon(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		word, class, ok := strings.Cut(s, ";")
		word, class = strings.ToLower(strings.TrimSpace(word)), strings.TrimSpace(class)
		if !ok || word == "" {
			return nil, fmt.Errorf("lexicon line %d: want \"mot;Classe\"", line)
		}
		if !IsClass(class) {
			return nil, fmt.Errorf("lexicon line %d: unknown class %q", line, class)
		}
		out[word] = class
	}
	return out, sc.Err()
}

// Suggest proposes a class for a token, or "" when it has no idea.
func Suggest(token string) string {
	_ = Init("")
	w := strings.ToLower(strings.Trim(token, "'"))
	if c, ok := lexicon[w]; ok {
		return c
	}
	if c, ok := lexicon[strings.ToLower(token)]; ok {
		return c
	}
	return suffixGuess(w)
}

var suffixRules = []struct {
	suffix string
	class  string
}{
	{"ment", "Adverbe"},
	{"tion", "Nom"},
	{"eur", "Nom"},
	{"euse", "Adjectif"},
	{"eux", "Adjectif"},
	{"able", "Adjectif"},
	{"ible", "Adjectif"},
	{"aient", "Verbe"},
	{"ait", "Verbe"},
	{"ent", "Verbe"},
	{"er", "Verbe"},
	{"ir", "Verbe"},
}

func suffixGuess(w string) string {
	if len([]rune(w)) < 4 {
		return ""
	}
	for _, r := range suffixRules {
		if strings.HasSuffix(w, r.suffix) {
			return r.class
		}
	}
	return ""
}

// Stats reports how many entries the lexicon holds.
func Stats() int {
	_ = Init("")
	return len(lexicon)
}

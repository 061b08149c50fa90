package grammar

import (
	"strings"
	"time"
)

// Gender of the mystery word.
type Gender string

const (
	Masculine Gender = "masculine"
	Feminine  Gender = "feminine"
)

// ParseGender accepts the English and French spellings.
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "masculine", "masculin", "m":
		return Masculine, true
	case "feminine", "féminin", "feminin", "f":
		return Feminine, true
	}
	return "", false
}

// Word is one token of a verse.
type Word struct {
	Text       string `json:"text"`
	Class      string `json:"grammaticalClass"`
	IsSelected bool   `json:"isSelected"`
	GroupID    string `json:"groupId,omitempty"`
}

// WordGroup treats several words as a single unit for color and letter.
type WordGroup struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Color       ColorToken `json:"color"`
	WordIndices []int      `json:"wordIndices"`
}

// Poem is one authored content unit.
type Poem struct {
	ID                       string             `json:"id"`
	OwnerID                  string             `json:"ownerId,omitempty"`
	Image                    string             `json:"image,omitempty"`
	Verse                    string             `json:"verseText"`
	Words                    []Word             `json:"words"`
	Groups                   []WordGroup        `json:"wordGroups"`
	ParticipatingWordIndices []int              `json:"participatingWordIndices"`
	WordColors               map[int]ColorToken `json:"wordColors,omitempty"`
	TargetWord               string             `json:"targetWord"`
	TargetGender             Gender             `json:"targetWordGender"`
	CreatedAt                time.Time          `json:"createdAt"`
}

// Group resolves a group by id, or nil.
func (p *Poem) Group(id string) *WordGroup {
	if p == nil || id == "" {
		return nil
	}
	for i := range p.Groups {
		if p.Groups[i].ID == id {
			return &p.Groups[i]
		}
	}
	return nil
}

// GroupOfIndex returns the group containing word idx, or nil.
// The word's own GroupID is consulted first, then group memberships.
func (p *Poem) GroupOfIndex(idx int) *WordGroup {
	if p == nil || idx < 0 || idx >= len(p.Words) {
		return nil
	}
	if g := p.Group(p.Words[idx].GroupID); g != nil {
		return g
	}
	for i := range p.Groups {
		for _, wi := range p.Groups[i].WordIndices {
			if wi == idx {
				return &p.Groups[i]
			}
		}
	}
	return nil
}

// GroupLabel is the group's name, or its member texts joined by spaces.
func (p *Poem) GroupLabel(g *WordGroup) string {
	if g.Name != "" {
		return g.Name
	}
	parts := make([]string, 0, len(g.WordIndices))
	for _, wi := range g.WordIndices {
		if wi >= 0 && wi < len(p.Words) {
			parts = append(parts, p.Words[wi].Text)
		}
	}
	return strings.Join(parts, " ")
}

// Label is a short human label for the poem (first words of the verse).
func (p *Poem) Label() string {
	v := strings.Join(strings.Fields(p.Verse), " ")
	r := []rune(v)
	if len(r) > 40 {
		return string(r[:40]) + "…"
	}
	return v
}

// Clone returns a deep copy safe to mutate.
func (p *Poem) Clone() *Poem {
	if p == nil {
		return nil
	}
	c := *p
	c.Words = append([]Word(nil), p.Words...)
	c.Groups = make([]WordGroup, len(p.Groups))
	for i, g := range p.Groups {
		g.WordIndices = append([]int(nil), g.WordIndices...)
		c.Groups[i] = g
	}
	c.ParticipatingWordIndices = append([]int(nil), p.ParticipatingWordIndices...)
	if p.WordColors != nil {
		c.WordColors = make(map[int]ColorToken, len(p.WordColors))
		for k, v := range p.WordColors {
			c.WordColors[k] = v
		}
	}
	return &c
}

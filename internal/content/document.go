package content

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/robalobadob/motmystere/internal/grammar"
)

// WordDoc is a word in the external content shape.
type WordDoc struct {
	Text       string `json:"text"`
	Class      string `json:"grammatical_class"`
	IsSelected bool   `json:"is_selected"`
	GroupID    string `json:"group_id,omitempty"`
}

// GroupDoc is a word group in the external content shape.
type GroupDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	WordIndices []int  `json:"word_indices"`
}

// Document is a poem as stored and exchanged with the content API.
type Document struct {
	ID            string            `json:"id"`
	OwnerID       string            `json:"owner_id,omitempty"`
	Image         string            `json:"image,omitempty"`
	Verse         string            `json:"verse_text"`
	Words         []WordDoc         `json:"words"`
	Groups        []GroupDoc        `json:"word_groups"`
	Participating []int             `json:"participating_word_indices"`
	WordColors    map[string]string `json:"word_colors,omitempty"`
	TargetWord    string            `json:"target_word"`
	TargetGender  string            `json:"target_word_gender"`
	CreatedAt     time.Time         `json:"created_at"`
}

// FromPoem converts the in-core poem to its external shape.
func FromPoem(p *grammar.Poem) Document {
	d := Document{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		Image:         p.Image,
		Verse:         p.Verse,
		Words:         make([]WordDoc, len(p.Words)),
		Groups:        make([]GroupDoc, len(p.Groups)),
		Participating: append([]int{}, p.ParticipatingWordIndices...),
		TargetWord:    p.TargetWord,
		TargetGender:  string(p.TargetGender),
		CreatedAt:     p.CreatedAt,
	}
	for i, w := range p.Words {
		d.Words[i] = WordDoc{Text: w.Text, Class: w.Class, IsSelected: w.IsSelected, GroupID: w.GroupID}
	}
	for i, g := range p.Groups {
		d.Groups[i] = GroupDoc{ID: g.ID, Name: g.Name, Color: string(g.Color), WordIndices: append([]int{}, g.WordIndices...)}
	}
	if len(p.WordColors) > 0 {
		d.WordColors = make(map[string]string, len(p.WordColors))
		for idx, c := range p.WordColors {
			d.WordColors[strconv.Itoa(idx)] = string(c)
		}
	}
	return d
}

// Poem converts the external shape back to the in-core poem.
func (d Document) Poem() (*grammar.Poem, error) {
	p := &grammar.Poem{
		ID:                       d.ID,
		OwnerID:                  d.OwnerID,
		Image:                    d.Image,
		Verse:                    d.Verse,
		Words:                    make([]grammar.Word, len(d.Words)),
		Groups:                   make([]grammar.WordGroup, len(d.Groups)),
		ParticipatingWordIndices: append([]int{}, d.Participating...),
		TargetWord:               d.TargetWord,
		TargetGender:             grammar.Gender(d.TargetGender),
		CreatedAt:                d.CreatedAt,
	}
	if g, ok := grammar.ParseGender(d.TargetGender); ok {
		p.TargetGender = g
	}
	for i, w := range d.Words {
		p.Words[i] = grammar.Word{Text: w.Text, Class: w.Class, IsSelected: w.IsSelected, GroupID: w.GroupID}
	}
	for i, g := range d.Groups {
		p.Groups[i] = grammar.WordGroup{ID: g.ID, Name: g.Name, Color: grammar.ColorToken(g.Color), WordIndices: append([]int{}, g.WordIndices...)}
	}
	if len(d.WordColors) > 0 {
		p.WordColors = make(map[int]grammar.ColorToken, len(d.WordColors))
		keys := make([]string, 0, len(d.WordColors))
		for k := range d.WordColors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			idx, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("word_colors key %q is not an index", k)
			}
			p.WordColors[idx] = grammar.ColorToken(d.WordColors[k])
		}
	}
	return p, nil
}

// internal/grammar/class.go
//
// Static table of French grammatical classes.
// Each class carries a symbolic color (the name shown to children) and a
// one-letter abbreviation. Names are unique; a word's class is either one of
// these names or empty (unassigned).

package grammar

import (
	"strings"
)

// ColorToken is either a symbolic class color ("rouge") or an explicit
// hex color ("#ff8800"). Hex always wins over symbolic in the letter map.
type ColorToken string

// IsHex reports whether c is a #rgb or #rrggbb literal.
func (c ColorToken) IsHex() bool {
	s := string(c)
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F') {
			return false
		}
	}
	return true
}

// Normalize trims and lowercases so "#FF0000" and "#ff0000" compare equal.
func (c ColorToken) Normalize() ColorToken {
	return ColorToken(strings.ToLower(strings.TrimSpace(string(c))))
}

// Class is one row of the grammatical class table.
type Class struct {
	Name   string     `json:"name"`
	Color  ColorToken `json:"color"`
	Letter string     `json:"letter"`
}

// Classes is the canonical table, in the order authors see it.
var Classes = []Class{
	{Name: "Nom", Color: "rouge", Letter: "N"},
	{Name: "Verbe", Color: "bleu", Letter: "V"},
	{Name: "Adjectif", Color: "vert", Letter: "A"},
	{Name: "Déterminant", Color: "jaune", Letter: "D"},
	{Name: "Pronom", Color: "violet", Letter: "P"},
	{Name: "Adverbe", Color: "orange", Letter: "R"},
	{Name: "Préposition", Color: "rose", Letter: "E"},
	{Name: "Conjonction", Color: "marron", Letter: "C"},
	{Name: "Interjection", Color: "turquoise", Letter: "I"},
}

var classByName = func() map[string]Class {
	m := make(map[string]Class, len(Classes))
	for _, c := range Classes {
		m[c.Name] = c
	}
	return m
}()

// LookupClass finds a class by its exact name.
func LookupClass(name string) (Class, bool) {
	c, ok := classByName[name]
	return c, ok
}

// IsClass reports whether name is a known class.
func IsClass(name string) bool {
	_, ok := classByName[name]
	return ok
}

// terminalHex maps symbolic colors to display hex values for renderers that
// need a concrete color (the CLI preview).
var terminalHex = map[ColorToken]string{
	"rouge":     "#e53935",
	"bleu":      "#1e88e5",
	"vert":      "#43a047",
	"jaune":     "#fdd835",
	"violet":    "#8e24aa",
	"orange":    "#fb8c00",
	"rose":      "#ec407a",
	"marron":    "#6d4c41",
	"turquoise": "#00acc1",
	"gris":      "#9e9e9e",
}

// DisplayHex returns a hex value for c: itself when already hex, the
// symbolic mapping otherwise, or fallback when unknown.
func (c ColorToken) DisplayHex(fallback string) string {
	n := c.Normalize()
	if n.IsHex() {
		return string(n)
	}
	if h, ok := terminalHex[n]; ok {
		return h
	}
	return fallback
}

// Package assets embeds the files the server ships with: the French class
// lexicon and the SQL migrations for every supported dialect.
package assets

import (
	"embed"
	"io"
	"io/fs"
	"sort"
	"strings"
)

//go:embed lexicon.txt migrations
var FS embed.FS

// Lexicon opens the embedded "mot;Classe" list.
func Lexicon() (io.ReadCloser, error) {
	return FS.Open("lexicon.txt")
}

// Migrations lists the *.sql files for a dialect subdirectory in lexical order.
func Migrations(dialect string) ([]string, error) {
	dir := "migrations/" + dialect
	entries, err := fs.ReadDir(FS, dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		out = append(out, dir+"/"+e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// ReadMigration returns the text of one file listed by Migrations.
func ReadMigration(name string) (string, error) {
	b, err := fs.ReadFile(FS, name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

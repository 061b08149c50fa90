// internal/content/store.go
//
// SQL-backed poem library.
// Responsibilities:
//   - List / Get / Create / Update / Delete poems.
//   - Keep words, groups and overrides as JSON in their external shape.
//   - Assign ids and timestamps on create.
//
// Ownership is checked by the caller (HTTP layer); the store only filters
// List by owner when asked.

package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/motmystere/internal/database"
	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/ids"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store persists poems.
type Store struct {
	db  *database.DB
	ids ids.Generator
	now func() time.Time
}

// NewStore wires a poem store. gen defaults to UUIDs.
func NewStore(db *database.DB, gen ids.Generator) *Store {
	if gen == nil {
		gen = ids.UUID{}
	}
	return &Store{db: db, ids: gen, now: time.Now}
}

const selectPoem = `
    SELECT id, owner_id, image, verse, words, word_groups, participating,
           word_colors, target_word, target_gender, created_at
    FROM poems`

type rowScanner interface {
	Scan(dest ...any) error
}

// List returns poems newest first. An empty ownerID lists every poem.
func (s *Store) List(ctx context.Context, ownerID string) ([]*grammar.Poem, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if ownerID == "" {
		rows, err = s.db.QueryContext(ctx, selectPoem+` ORDER BY created_at DESC, id`)
	} else {
		rows, err = s.db.QueryContext(ctx, selectPoem+` WHERE owner_id=? ORDER BY created_at DESC, id`, ownerID)
	}
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()

	out := []*grammar.Poem{}
	for rows.Next() {
		p, err := scanPoem(rows)
		if err != nil {
			return nil, storageErr("list", err)
		}
		out = append(out, p)
	}
	return out, storageErr("list", rows.Err())
}

// Get returns the poem with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*grammar.Poem, error) {
	p, err := scanPoem(s.db.QueryRowContext(ctx, selectPoem+` WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, storageErr("get", err)
}

// Create inserts p, assigning its id and creation time. p is updated in place.
func (s *Store) Create(ctx context.Context, p *grammar.Poem) error {
	if p.ID == "" {
		p.ID = s.ids.NewID()
	}
	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	cols, err := encodeColumns(p)
	if err != nil {
		return storageErr("create", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO poems
            (id, owner_id, image, verse, words, word_groups, participating,
             word_colors, target_word, target_gender, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Image, p.Verse, cols.words, cols.groups, cols.participating,
		cols.colors, p.TargetWord, string(p.TargetGender),
		p.CreatedAt.UTC().Format(timeLayout), now.Format(timeLayout),
	)
	return storageErr("create", err)
}

// Update overwrites every field of p except owner and creation time.
func (s *Store) Update(ctx context.Context, p *grammar.Poem) error {
	cols, err := encodeColumns(p)
	if err != nil {
		return storageErr("update", err)
	}
	res, err := s.db.ExecContext(ctx, `
        UPDATE poems SET
            image=?, verse=?, words=?, word_groups=?, participating=?,
            word_colors=?, target_word=?, target_gender=?, updated_at=?
        WHERE id=?`,
		p.Image, p.Verse, cols.words, cols.groups, cols.participating,
		cols.colors, p.TargetWord, string(p.TargetGender), s.now().UTC().Format(timeLayout),
		p.ID,
	)
	if err != nil {
		return storageErr("update", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the poem with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM poems WHERE id=?`, id)
	if err != nil {
		return storageErr("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type columns struct {
	words, groups, participating, colors string
}

func encodeColumns(p *grammar.Poem) (columns, error) {
	d := FromPoem(p)
	var c columns
	for _, f := range []struct {
		dst *string
		v   any
	}{
		{&c.words, d.Words},
		{&c.groups, d.Groups},
		{&c.participating, d.Participating},
		{&c.colors, d.WordColors},
	} {
		b, err := json.Marshal(f.v)
		if err != nil {
			return columns{}, err
		}
		*f.dst = string(b)
	}
	if c.colors == "null" {
		c.colors = "{}"
	}
	return c, nil
}

func scanPoem(row rowScanner) (*grammar.Poem, error) {
	var (
		d                                    Document
		words, groups, participating, colors string
		created                              string
	)
	if err := row.Scan(&d.ID, &d.OwnerID, &d.Image, &d.Verse, &words, &groups, &participating,
		&colors, &d.TargetWord, &d.TargetGender, &created); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		src  string
		dst  any
	}{
		{"words", words, &d.Words},
		{"word_groups", groups, &d.Groups},
		{"participating", participating, &d.Participating},
		{"word_colors", colors, &d.WordColors},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("decode %s of poem %s: %w", f.name, d.ID, err)
		}
	}
	d.CreatedAt, _ = time.Parse(timeLayout, created)
	return d.Poem()
}

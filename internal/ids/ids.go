// Package ids provides the identifier generators used across the server.
//
// Core packages depend on the Generator interface only, so tests can swap
// in a Sequence and get reproducible identities.
package ids

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator returns a fresh unique identifier on every call.
type Generator interface {
	NewID() string
}

// ULID yields lexically sortable ids (letter instances, progress records).
type ULID struct{}

func (ULID) NewID() string { return ulid.Make().String() }

// UUID yields random v4 ids (poems, image keys, guest devices).
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// Sequence is a deterministic generator: prefix-1, prefix-2, ...
type Sequence struct {
	Prefix string
	n      atomic.Int64
}

// NewSequence returns a Sequence starting at 1.
func NewSequence(prefix string) *Sequence { return &Sequence{Prefix: prefix} }

func (s *Sequence) NewID() string {
	return s.Prefix + "-" + strconv.FormatInt(s.n.Add(1), 10)
}

// Package daily picks the poem of the day.
//
// The pick is HMAC(salt, YYYY-MM-DD) over the library sorted by poem id,
// so every server with the same salt and library shows the same poem all
// day, and the choice moves at UTC midnight.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"time"

	"github.com/robalobadob/motmystere/internal/grammar"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Index returns a deterministic index in [0, n) for the day of t.
func Index(t time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Pick returns the poem of the day, or nil for an empty library.
func Pick(t time.Time, salt string, poems []*grammar.Poem) *grammar.Poem {
	if len(poems) == 0 {
		return nil
	}
	sorted := append([]*grammar.Poem(nil), poems...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted[Index(t, salt, len(sorted))]
}

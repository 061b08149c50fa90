package progress

import (
	"context"
	"errors"

	"github.com/robalobadob/motmystere/internal/game"
	"github.com/robalobadob/motmystere/internal/ids"
)

// Identity is who a round is recorded for: a signed-in user or a guest device.
type Identity struct {
	ID    string
	Guest bool
}

// ErrNoStore is returned when an authenticated path has no SQL store.
var ErrNoStore = errors.New("progress store not configured")

// Service routes completions to the guest or authenticated store.
type Service struct {
	guests *GuestStore
	users  *Store
	ids    ids.Generator
}

// NewService wires both paths. users may be nil when only guests play.
func NewService(guests *GuestStore, users *Store, gen ids.Generator) *Service {
	if gen == nil {
		gen = ids.ULID{}
	}
	return &Service{guests: guests, users: users, ids: gen}
}

// RecordCompletion appends one record for who and updates the aggregates.
func (s *Service) RecordCompletion(ctx context.Context, who Identity, c game.Completion) error {
	rec := Record{
		ID:               s.ids.NewID(),
		ContentID:        c.ContentID,
		VerseLabel:       c.VerseLabel,
		CompletedAt:      c.CompletedAt,
		TimeTakenSeconds: c.ElapsedSeconds,
		Score:            c.Score,
		LivesRemaining:   c.LivesRemaining,
	}
	if who.Guest {
		return s.guests.Append(ctx, who.ID, rec)
	}
	if s.users == nil {
		return ErrNoStore
	}
	return s.users.Append(ctx, who.ID, rec)
}

// For binds the service to one identity as a round Recorder.
func (s *Service) For(who Identity) game.Recorder {
	return game.RecorderFunc(func(ctx context.Context, c game.Completion) error {
		return s.RecordCompletion(ctx, who, c)
	})
}

// Stats returns the aggregates for who; false when nothing was recorded yet.
func (s *Service) Stats(ctx context.Context, who Identity) (Stats, bool, error) {
	if who.Guest {
		return s.guests.Stats(ctx, who.ID)
	}
	if s.users == nil {
		return Stats{}, false, ErrNoStore
	}
	return s.users.Aggregate(ctx, who.ID)
}

// History returns who's records, newest first.
func (s *Service) History(ctx context.Context, who Identity, limit int) ([]Record, error) {
	if who.Guest {
		h, err := s.guests.History(ctx, who.ID)
		if err != nil {
			return nil, err
		}
		out := make([]Record, 0, len(h))
		for i := len(h) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
			out = append(out, h[i])
		}
		return out, nil
	}
	if s.users == nil {
		return nil, ErrNoStore
	}
	return s.users.History(ctx, who.ID, limit)
}

// Leaderboard returns the best authenticated completions of a poem.
func (s *Service) Leaderboard(ctx context.Context, contentID string, limit int) ([]LeaderboardRow, error) {
	if s.users == nil {
		return []LeaderboardRow{}, nil
	}
	return s.users.Leaderboard(ctx, contentID, limit)
}

// internal/progress/store.go
//
// SQL-backed progress for authenticated players.
// Responsibilities:
//   - Append a completed round and bump the running aggregates in one tx.
//   - Read aggregates (average derived from the running totals).
//   - Overwrite aggregates from a recomputed history (Rebuild).
//   - Per-poem leaderboard.

package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/motmystere/internal/database"
)

// timeLayout sorts lexically in every dialect.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// Store persists authenticated progress.
type Store struct {
	db  *database.DB
	now func() time.Time
}

func NewStore(db *database.DB) *Store { return &Store{db: db, now: time.Now} }

// Append stores rec and bumps the user's aggregates atomically, so two
// devices completing at once never lose an update.
func (s *Store) Append(ctx context.Context, userID string, rec Record) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("append progress: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO progress_records
            (id, user_id, content_id, verse_label, completed_at, time_taken, score, lives_remaining)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, userID, rec.ContentID, rec.VerseLabel, formatTime(rec.CompletedAt),
		rec.TimeTakenSeconds, rec.Score, rec.LivesRemaining,
	); err != nil {
		return fmt.Errorf("insert progress record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.GetDialect().UpsertStatsQuery(),
		userID, rec.TimeTakenSeconds, rec.Score, rec.Score, formatTime(s.now()),
	); err != nil {
		return fmt.Errorf("bump progress stats: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.GetDialect().InsertIgnoreContentQuery(), userID, rec.ContentID); err != nil {
		return fmt.Errorf("record progress content: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit progress: %w", err)
	}
	return nil
}

// Aggregate reads the user's stats; false when the user never completed a round.
func (s *Store) Aggregate(ctx context.Context, userID string) (Stats, bool, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
        SELECT total_rounds, total_time, total_score, best_score
        FROM progress_stats WHERE user_id=?`, userID,
	).Scan(&st.TotalRounds, &st.TotalTimePlayed, &st.TotalScore, &st.BestScore)
	if errors.Is(err, sql.ErrNoRows) {
		return Stats{}, false, nil
	}
	if err != nil {
		return Stats{}, false, fmt.Errorf("load progress stats: %w", err)
	}
	st.AverageScore = average(st.TotalScore, st.TotalRounds)

	rows, err := s.db.QueryContext(ctx,
		`SELECT content_id FROM progress_content WHERE user_id=? ORDER BY content_id`, userID)
	if err != nil {
		return Stats{}, false, fmt.Errorf("load progress content: %w", err)
	}
	defer rows.Close()
	st.DistinctContent = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Stats{}, false, err
		}
		st.DistinctContent = append(st.DistinctContent, id)
	}
	return st, true, rows.Err()
}

// SetAggregate overwrites the user's stats and distinct content.
func (s *Store) SetAggregate(ctx context.Context, userID string, st Stats) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM progress_stats WHERE user_id=?`,
		`DELETE FROM progress_content WHERE user_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return fmt.Errorf("clear progress stats: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO progress_stats (user_id, total_rounds, total_time, total_score, best_score, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		userID, st.TotalRounds, st.TotalTimePlayed, st.TotalScore, st.BestScore, formatTime(s.now()),
	); err != nil {
		return fmt.Errorf("set progress stats: %w", err)
	}
	for _, id := range st.DistinctContent {
		if _, err := tx.ExecContext(ctx, tx.GetDialect().InsertIgnoreContentQuery(), userID, id); err != nil {
			return fmt.Errorf("set progress content: %w", err)
		}
	}
	return tx.Commit()
}

// History returns the user's records, newest first. limit <= 0 means all.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]Record, error) {
	q := `SELECT id, content_id, verse_label, completed_at, time_taken, score, lives_remaining
          FROM progress_records WHERE user_id=? ORDER BY completed_at DESC`
	args := []any{userID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("load progress history: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var r Record
		var at string
		if err := rows.Scan(&r.ID, &r.ContentID, &r.VerseLabel, &at, &r.TimeTakenSeconds, &r.Score, &r.LivesRemaining); err != nil {
			return nil, err
		}
		r.CompletedAt = parseTime(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Rebuild recomputes the user's aggregates from the full history.
func (s *Store) Rebuild(ctx context.Context, userID string) (Stats, error) {
	history, err := s.History(ctx, userID, 0)
	if err != nil {
		return Stats{}, err
	}
	st := Recompute(history)
	if err := s.SetAggregate(ctx, userID, st); err != nil {
		return Stats{}, err
	}
	return st, nil
}

// LeaderboardRow is one entry of a poem's leaderboard.
type LeaderboardRow struct {
	UserID           string    `json:"userId"`
	Score            int       `json:"score"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	LivesRemaining   int       `json:"livesRemaining"`
	CompletedAt      time.Time `json:"completedAt"`
}

// Leaderboard fetches the best completions of a poem.
//
// - Ordered by score DESC, then time ASC, then completion ASC.
// - Default limit is 20 if not specified.
func (s *Store) Leaderboard(ctx context.Context, contentID string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT user_id, score, time_taken, lives_remaining, completed_at
        FROM progress_records
        WHERE content_id=?
        ORDER BY score DESC, time_taken ASC, completed_at ASC
        LIMIT ?`, contentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var r LeaderboardRow
		var at string
		if err := rows.Scan(&r.UserID, &r.Score, &r.TimeTakenSeconds, &r.LivesRemaining, &at); err != nil {
			return nil, err
		}
		r.CompletedAt = parseTime(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

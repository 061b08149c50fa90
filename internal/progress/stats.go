// Package progress records completed rounds and derives aggregate stats.
//
// Guests keep their history in a device-scoped key/value store and have
// their aggregates recomputed from it. Authenticated players append to the
// SQL store, whose aggregates are bumped atomically per completion. Both
// paths agree on any fully replayed history.
package progress

import (
	"math"
	"sort"
	"time"
)

// Record is one successful round.
type Record struct {
	ID               string    `json:"id"`
	ContentID        string    `json:"contentId"`
	VerseLabel       string    `json:"verseLabel"`
	CompletedAt      time.Time `json:"completedAt"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	Score            int       `json:"score"`
	LivesRemaining   int       `json:"livesRemaining"`
}

// Stats are the aggregates over a player's records.
type Stats struct {
	TotalRounds     int      `json:"totalRounds"`
	TotalTimePlayed int      `json:"totalTimePlayed"`
	TotalScore      int      `json:"totalScore"`
	AverageScore    float64  `json:"averageScore"`
	BestScore       int      `json:"bestScore"`
	DistinctContent []string `json:"distinctContentCompleted"`
}

// Recompute derives stats from a full history.
func Recompute(records []Record) Stats {
	s := Stats{DistinctContent: []string{}}
	set := make(map[string]bool)
	for i, r := range records {
		s.TotalRounds++
		s.TotalTimePlayed += r.TimeTakenSeconds
		s.TotalScore += r.Score
		if i == 0 || r.Score > s.BestScore {
			s.BestScore = r.Score
		}
		if !set[r.ContentID] {
			set[r.ContentID] = true
			s.DistinctContent = append(s.DistinctContent, r.ContentID)
		}
	}
	sort.Strings(s.DistinctContent)
	s.AverageScore = average(s.TotalScore, s.TotalRounds)
	return s
}

// Accumulate folds one more record into s without the history.
func Accumulate(s Stats, r Record) Stats {
	out := s
	if s.TotalRounds == 0 || r.Score > s.BestScore {
		out.BestScore = r.Score
	}
	out.TotalRounds++
	out.TotalTimePlayed += r.TimeTakenSeconds
	out.TotalScore += r.Score
	out.DistinctContent = insertSorted(s.DistinctContent, r.ContentID)
	out.AverageScore = average(out.TotalScore, out.TotalRounds)
	return out
}

// average is the mean rounded to two decimals.
func average(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(n)*100) / 100
}

func insertSorted(set []string, v string) []string {
	i := sort.SearchStrings(set, v)
	if i < len(set) && set[i] == v {
		return append([]string{}, set...)
	}
	out := make([]string, 0, len(set)+1)
	out = append(out, set[:i]...)
	out = append(out, v)
	return append(out, set[i:]...)
}

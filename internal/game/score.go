package game

// Score is the final score of a won round: 1000, plus 200 per remaining
// life, plus one point per second under five minutes. It is 0 when no time
// has elapsed.
func Score(livesRemaining, elapsedSeconds int) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	return 1000 + 200*livesRemaining + max(0, 300-elapsedSeconds)
}

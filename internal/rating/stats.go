package rating

import (
	"time"

	"github.com/fiegsi/peladinha-bot/internal/domain"
)

// Outcome is one player's result in a finished game.
type Outcome int

const (
	Win Outcome = iota
	Loss
	Draw
)

// OutcomeFor derives a player's outcome from their team's score and
// the opponent's.
func OutcomeFor(teamScore, oppScore int) Outcome {
	switch {
	case teamScore > oppScore:
		return Win
	case teamScore < oppScore:
		return Loss
	default:
		return Draw
	}
}

// ApplyOutcome folds one finished game into a player's counters.
// A broken streak resets to exactly +1 or -1 rather than continuing
// the old slide: a player on -3 who wins is on +1, not -2.
func ApplyOutcome(rec *domain.PlayerRecord, out Outcome, wasCaptain, wasMVP bool, playedAt time.Time) {
	rec.GamesPlayed++
	switch out {
	case Win:
		rec.GamesWon++
		rec.CurrentStreak = max(1, rec.CurrentStreak+1)
	case Loss:
		rec.GamesLost++
		rec.CurrentStreak = min(-1, rec.CurrentStreak-1)
	case Draw:
		rec.GamesDrawn++
		rec.CurrentStreak = 0
	}
	rec.BestStreak = max(rec.BestStreak, rec.CurrentStreak)
	rec.WorstStreak = min(rec.WorstStreak, rec.CurrentStreak)
	if wasCaptain {
		rec.TimesCaptain++
	}
	if wasMVP {
		rec.TimesMVP++
	}
	rec.LastPlayed = playedAt
}

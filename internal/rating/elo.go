package rating

import (
	"math"

	"github.com/fiegsi/peladinha-bot/internal/domain"
)

// Experience-tiered K factors: new players move fast, veterans slow.
const (
	kNew      = 48 // under 10 games
	kSettling = 32 // under 20 games
	kVeteran  = 16
)

// goalDiffWeight scales rating movement per goal of margin, so a
// blowout moves ratings more than a one-goal win.
const goalDiffWeight = 0.25

// Player identifies one roster member for rating purposes.
type Player struct {
	ID       int64
	External bool
}

// Game is the flat summary of a finished, scored match.
type Game struct {
	TeamA  []Player
	TeamB  []Player
	ScoreA int
	ScoreB int
}

// NewRatings computes updated ratings for every registered player in
// the game. Each player's result depends only on their own current
// rating and experience, the team averages, and the outcome, so the
// map can be applied in any order. Players absent from the ratings map
// default to domain.DefaultRating; externals contribute the default to
// their team average and receive no entry.
func NewRatings(g Game, ratings map[int64]int, gamesPlayed map[int64]int) map[int64]int {
	nExternal := countExternals(g.TeamA) + countExternals(g.TeamB)

	avgA := teamAverage(g.TeamA, ratings)
	avgB := teamAverage(g.TeamB, ratings)

	expA := expectedScore(avgA, avgB)
	expB := 1 - expA
	actA, actB := actualScores(g.ScoreA, g.ScoreB)
	gd := goalDiffFactor(g.ScoreA, g.ScoreB)

	out := make(map[int64]int, len(g.TeamA)+len(g.TeamB))
	apply := func(team []Player, actual, expected float64) {
		for _, p := range team {
			if p.External {
				continue
			}
			k := baseK(gamesPlayed[p.ID]) * math.Pow(0.5, float64(nExternal))
			delta := int(math.Round(k * gd * (actual - expected)))
			out[p.ID] = ratingOf(p.ID, ratings) + delta
		}
	}
	apply(g.TeamA, actA, expA)
	apply(g.TeamB, actB, expB)
	return out
}

func expectedScore(ratingOwn, ratingOpp float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingOpp-ratingOwn)/400))
}

func actualScores(scoreA, scoreB int) (a, b float64) {
	switch {
	case scoreA > scoreB:
		return 1, 0
	case scoreA < scoreB:
		return 0, 1
	default:
		return 0.5, 0.5
	}
}

func goalDiffFactor(scoreA, scoreB int) float64 {
	diff := scoreA - scoreB
	if diff < 0 {
		diff = -diff
	}
	return 1 + float64(diff)*goalDiffWeight
}

// baseK picks the experience tier before the external-player discount.
func baseK(gamesPlayed int) float64 {
	switch {
	case gamesPlayed < 10:
		return kNew
	case gamesPlayed < 20:
		return kSettling
	default:
		return kVeteran
	}
}

func teamAverage(team []Player, ratings map[int64]int) float64 {
	if len(team) == 0 {
		return domain.DefaultRating
	}
	sum := 0
	for _, p := range team {
		if p.External {
			sum += domain.DefaultRating
			continue
		}
		sum += ratingOf(p.ID, ratings)
	}
	return float64(sum) / float64(len(team))
}

func ratingOf(id int64, ratings map[int64]int) int {
	if r, ok := ratings[id]; ok {
		return r
	}
	return domain.DefaultRating
}

func countExternals(team []Player) int {
	n := 0
	for _, p := range team {
		if p.External {
			n++
		}
	}
	return n
}

package rating

import (
	"testing"
	"time"

	"github.com/fiegsi/peladinha-bot/internal/domain"
)

func p(id int64) Player { return Player{ID: id} }

func ext() Player { return Player{ID: -1, External: true} }

func single(a, b Player) Game { return Game{TeamA: []Player{a}, TeamB: []Player{b}} }

func TestDrawBetweenEqualVeteransMovesNothing(t *testing.T) {
	g := single(p(1), p(2))
	g.ScoreA, g.ScoreB = 2, 2
	out := NewRatings(g,
		map[int64]int{1: 1200, 2: 1200},
		map[int64]int{1: 25, 2: 25},
	)
	if out[1] != 1200 || out[2] != 1200 {
		t.Fatalf("draw moved ratings: %v", out)
	}
}

func TestUnderdogBlowoutWin(t *testing.T) {
	// New player at 1200 beats a 1400 player 3-0: K=48, goal factor
	// 1.75, expected 0.2403 → +64.
	g := single(p(1), p(2))
	g.ScoreA, g.ScoreB = 3, 0
	out := NewRatings(g,
		map[int64]int{1: 1200, 2: 1400},
		map[int64]int{1: 5, 2: 5},
	)
	if out[1] != 1264 {
		t.Fatalf("winner rating = %d, want 1264", out[1])
	}
	if out[2] != 1336 {
		t.Fatalf("loser rating = %d, want 1336", out[2])
	}
}

func TestMissingRatingsDefaultTo1200(t *testing.T) {
	g := single(p(1), p(2))
	g.ScoreA, g.ScoreB = 1, 0
	out := NewRatings(g, map[int64]int{}, map[int64]int{})
	// equal defaults, K=48, gd=1.25, expected 0.5 → ±30
	if out[1] != 1230 || out[2] != 1170 {
		t.Fatalf("got %v, want 1230/1170", out)
	}
}

func TestKFactorTiers(t *testing.T) {
	cases := []struct {
		games int
		want  int // delta for a 1-0 win between equals: round(K*1.25*0.5)
	}{
		{0, 30},
		{9, 30},
		{10, 20},
		{19, 20},
		{20, 10},
		{100, 10},
	}
	for _, tc := range cases {
		g := single(p(1), p(2))
		g.ScoreA, g.ScoreB = 1, 0
		out := NewRatings(g,
			map[int64]int{1: 1200, 2: 1200},
			map[int64]int{1: tc.games, 2: 20},
		)
		if got := out[1] - 1200; got != tc.want {
			t.Fatalf("games=%d: delta=%d, want %d", tc.games, got, tc.want)
		}
	}
}

func TestExternalsHalveKAndGetNoEntry(t *testing.T) {
	g := Game{
		TeamA:  []Player{p(1), ext()},
		TeamB:  []Player{p(2), p(3)},
		ScoreA: 1,
		ScoreB: 0,
	}
	out := NewRatings(g,
		map[int64]int{1: 1200, 2: 1200, 3: 1200},
		map[int64]int{1: 25, 2: 25, 3: 25},
	)
	if len(out) != 3 {
		t.Fatalf("entries = %d, want 3 (externals excluded)", len(out))
	}
	// one external: K = 16 * 0.5 = 8, gd = 1.25, expected 0.5 → +5
	if out[1] != 1205 {
		t.Fatalf("winner = %d, want 1205", out[1])
	}
	if out[2] != 1195 || out[3] != 1195 {
		t.Fatalf("losers = %d/%d, want 1195", out[2], out[3])
	}
}

func TestTeamAverageDrivesExpectation(t *testing.T) {
	// Strong pair vs weak pair: the favorites gain little from a
	// narrow win.
	g := Game{
		TeamA:  []Player{p(1), p(2)},
		TeamB:  []Player{p(3), p(4)},
		ScoreA: 1,
		ScoreB: 0,
	}
	out := NewRatings(g,
		map[int64]int{1: 1500, 2: 1500, 3: 1100, 4: 1100},
		map[int64]int{1: 25, 2: 25, 3: 25, 4: 25},
	)
	favGain := out[1] - 1500
	dogLoss := 1100 - out[3]
	if favGain <= 0 || favGain >= 10 {
		t.Fatalf("favorite gain = %d, want small positive", favGain)
	}
	if favGain != dogLoss {
		t.Fatalf("asymmetric deltas with equal K: +%d vs -%d", favGain, dogLoss)
	}
}

func TestZeroSumWithEqualK(t *testing.T) {
	g := single(p(1), p(2))
	g.ScoreA, g.ScoreB = 2, 1
	out := NewRatings(g,
		map[int64]int{1: 1340, 2: 1180},
		map[int64]int{1: 25, 2: 25},
	)
	if (out[1]-1340)+(out[2]-1180) != 0 {
		t.Fatalf("deltas not zero-sum: %v", out)
	}
}

func TestOutcomeFor(t *testing.T) {
	if OutcomeFor(2, 1) != Win || OutcomeFor(0, 3) != Loss || OutcomeFor(1, 1) != Draw {
		t.Fatal("outcome mapping wrong")
	}
}

func TestApplyOutcomeStreaks(t *testing.T) {
	now := time.Now()
	rec := &domain.PlayerRecord{ID: 1, CurrentStreak: -3, WorstStreak: -3}

	ApplyOutcome(rec, Win, false, false, now)
	if rec.CurrentStreak != 1 {
		t.Fatalf("losing streak broken by win: streak=%d, want 1", rec.CurrentStreak)
	}
	if rec.BestStreak != 1 || rec.WorstStreak != -3 {
		t.Fatalf("best/worst = %d/%d", rec.BestStreak, rec.WorstStreak)
	}

	ApplyOutcome(rec, Win, false, false, now)
	if rec.CurrentStreak != 2 || rec.BestStreak != 2 {
		t.Fatalf("streak=%d best=%d after second win", rec.CurrentStreak, rec.BestStreak)
	}

	ApplyOutcome(rec, Draw, false, false, now)
	if rec.CurrentStreak != 0 {
		t.Fatalf("draw streak = %d, want 0", rec.CurrentStreak)
	}

	ApplyOutcome(rec, Loss, false, false, now)
	if rec.CurrentStreak != -1 {
		t.Fatalf("loss after draw: streak=%d, want -1", rec.CurrentStreak)
	}
	if rec.GamesPlayed != 4 || rec.GamesWon != 2 || rec.GamesDrawn != 1 || rec.GamesLost != 1 {
		t.Fatalf("counters: %+v", rec)
	}
}

func TestApplyOutcomeCaptainMVPAndStamp(t *testing.T) {
	at := time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)
	rec := domain.NewPlayerRecord(7, "Ana")
	ApplyOutcome(rec, Win, true, true, at)
	if rec.TimesCaptain != 1 || rec.TimesMVP != 1 {
		t.Fatalf("captain/mvp = %d/%d", rec.TimesCaptain, rec.TimesMVP)
	}
	if !rec.LastPlayed.Equal(at) {
		t.Fatalf("last played = %v", rec.LastPlayed)
	}
}

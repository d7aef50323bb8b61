package domain

import "time"

// DefaultRating is the starting Elo-style rating for a new player.
const DefaultRating = 1200

// PlayerRecord is the durable per-player row. One exists per registered
// user; external match participants (negative ids) never get one.
type PlayerRecord struct {
	ID            int64
	DisplayName   string
	Rating        int
	GamesPlayed   int
	GamesWon      int
	GamesLost     int
	GamesDrawn    int
	CurrentStreak int
	BestStreak    int
	WorstStreak   int
	TimesCaptain  int
	TimesMVP      int
	LastPlayed    time.Time
}

// NewPlayerRecord returns a fresh record for a first-time registration.
func NewPlayerRecord(id int64, displayName string) *PlayerRecord {
	return &PlayerRecord{ID: id, DisplayName: displayName, Rating: DefaultRating}
}

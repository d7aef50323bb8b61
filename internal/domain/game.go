package domain

import "time"

// GamePlayer is one registered participant's row in a saved game.
type GamePlayer struct {
	PlayerID   int64
	Team       string // "A" or "B"
	WasCaptain bool
	WasMVP     bool
}

// GameRecord is a saved match. The score is written in a second pass
// once the operator submits it; external participants are stored only
// as per-team counts.
type GameRecord struct {
	ID             int64
	ChatID         int64
	SessionUUID    string
	ScoreA         *int
	ScoreB         *int
	TeamAExternals int
	TeamBExternals int
	PlayedAt       time.Time
	Players        []GamePlayer
}

package playerstore

import (
	"context"

	"github.com/fiegsi/peladinha-bot/internal/domain"
)

// Repository is the durable player/game store. Lookup returns
// (nil, nil) for an unknown player so callers can distinguish absence
// from failure.
type Repository interface {
	Lookup(ctx context.Context, id int64) (*domain.PlayerRecord, error)
	Upsert(ctx context.Context, rec *domain.PlayerRecord) error
	SaveGame(ctx context.Context, g *domain.GameRecord) (int64, error)
	UpdateScore(ctx context.Context, gameID int64, scoreA, scoreB int) error
	MarkMVP(ctx context.Context, gameID int64, playerIDs []int64) error
	Leaderboard(ctx context.Context, minGames int) ([]*domain.PlayerRecord, error)
}

const leaderboardLimit = 10

package playerstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/fiegsi/peladinha-bot/internal/domain"
)

type pgRepository struct {
	db *sql.DB
}

// NewPostgres opens a pooled connection and verifies it.
func NewPostgres(databaseURL string) (Repository, func() error, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}
	return &pgRepository{db: db}, db.Close, nil
}

func (r *pgRepository) Lookup(ctx context.Context, id int64) (*domain.PlayerRecord, error) {
	const query = `
		SELECT
			id,
			display_name,
			elo_rating,
			games_played,
			games_won,
			games_lost,
			games_drawn,
			current_streak,
			best_streak,
			worst_streak,
			times_captain,
			times_mvp,
			last_played
		FROM players
		WHERE id = $1`

	var (
		rec        domain.PlayerRecord
		lastPlayed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.DisplayName,
		&rec.Rating,
		&rec.GamesPlayed,
		&rec.GamesWon,
		&rec.GamesLost,
		&rec.GamesDrawn,
		&rec.CurrentStreak,
		&rec.BestStreak,
		&rec.WorstStreak,
		&rec.TimesCaptain,
		&rec.TimesMVP,
		&lastPlayed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select player: %w", err)
	}
	if lastPlayed.Valid {
		rec.LastPlayed = lastPlayed.Time
	}
	return &rec, nil
}

func (r *pgRepository) Upsert(ctx context.Context, rec *domain.PlayerRecord) error {
	if rec == nil {
		return fmt.Errorf("nil player record payload")
	}
	const query = `
		INSERT INTO players (
			id,
			display_name,
			elo_rating,
			games_played,
			games_won,
			games_lost,
			games_drawn,
			current_streak,
			best_streak,
			worst_streak,
			times_captain,
			times_mvp,
			last_played
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			elo_rating = EXCLUDED.elo_rating,
			games_played = EXCLUDED.games_played,
			games_won = EXCLUDED.games_won,
			games_lost = EXCLUDED.games_lost,
			games_drawn = EXCLUDED.games_drawn,
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			worst_streak = EXCLUDED.worst_streak,
			times_captain = EXCLUDED.times_captain,
			times_mvp = EXCLUDED.times_mvp,
			last_played = EXCLUDED.last_played`

	var lastPlayed sql.NullTime
	if !rec.LastPlayed.IsZero() {
		lastPlayed = sql.NullTime{Time: rec.LastPlayed, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.DisplayName,
		rec.Rating,
		rec.GamesPlayed,
		rec.GamesWon,
		rec.GamesLost,
		rec.GamesDrawn,
		rec.CurrentStreak,
		rec.BestStreak,
		rec.WorstStreak,
		rec.TimesCaptain,
		rec.TimesMVP,
		lastPlayed,
	)
	if err != nil {
		return fmt.Errorf("upsert player: %w", err)
	}
	return nil
}

func (r *pgRepository) SaveGame(ctx context.Context, g *domain.GameRecord) (int64, error) {
	if g == nil {
		return 0, fmt.Errorf("nil game record payload")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save game: %w", err)
	}
	defer tx.Rollback()

	const insertGame = `
		INSERT INTO games (
			chat_id,
			session_uuid,
			score_team_a,
			score_team_b,
			team_a_externals,
			team_b_externals,
			played_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err = tx.QueryRowContext(ctx, insertGame,
		g.ChatID,
		g.SessionUUID,
		nullableInt(g.ScoreA),
		nullableInt(g.ScoreB),
		g.TeamAExternals,
		g.TeamBExternals,
		g.PlayedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}

	const insertPlayer = `
		INSERT INTO game_players (game_id, player_id, team, was_captain, was_mvp)
		VALUES ($1, $2, $3, $4, $5)`
	for _, p := range g.Players {
		if _, err := tx.ExecContext(ctx, insertPlayer, id, p.PlayerID, p.Team, p.WasCaptain, p.WasMVP); err != nil {
			return 0, fmt.Errorf("insert game player: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save game: %w", err)
	}
	return id, nil
}

func (r *pgRepository) UpdateScore(ctx context.Context, gameID int64, scoreA, scoreB int) error {
	const query = `
		UPDATE games
		SET score_team_a = $2, score_team_b = $3
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, gameID, scoreA, scoreB); err != nil {
		return fmt.Errorf("update game score: %w", err)
	}
	return nil
}

func (r *pgRepository) MarkMVP(ctx context.Context, gameID int64, playerIDs []int64) error {
	const query = `
		UPDATE game_players
		SET was_mvp = TRUE
		WHERE game_id = $1 AND player_id = $2`
	for _, id := range playerIDs {
		if id < 0 {
			continue
		}
		if _, err := r.db.ExecContext(ctx, query, gameID, id); err != nil {
			return fmt.Errorf("mark mvp: %w", err)
		}
	}
	return nil
}

func (r *pgRepository) Leaderboard(ctx context.Context, minGames int) ([]*domain.PlayerRecord, error) {
	const query = `
		SELECT
			id,
			display_name,
			elo_rating,
			games_played,
			games_won,
			games_lost,
			games_drawn,
			current_streak,
			best_streak,
			worst_streak,
			times_captain,
			times_mvp,
			last_played
		FROM players
		WHERE games_played >= $1
		ORDER BY elo_rating DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, minGames, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.PlayerRecord, 0, leaderboardLimit)
	for rows.Next() {
		var (
			rec        domain.PlayerRecord
			lastPlayed sql.NullTime
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.DisplayName,
			&rec.Rating,
			&rec.GamesPlayed,
			&rec.GamesWon,
			&rec.GamesLost,
			&rec.GamesDrawn,
			&rec.CurrentStreak,
			&rec.BestStreak,
			&rec.WorstStreak,
			&rec.TimesCaptain,
			&rec.TimesMVP,
			&lastPlayed,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		if lastPlayed.Valid {
			rec.LastPlayed = lastPlayed.Time
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

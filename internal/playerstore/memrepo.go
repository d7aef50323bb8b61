package playerstore

import (
	"context"
	"sort"
	"sync"

	"github.com/fiegsi/peladinha-bot/internal/domain"
)

// memrepo is an in-memory repository for tests and DB-less development.
type memrepo struct {
	mu sync.RWMutex

	nextGameID int64
	players    map[int64]*domain.PlayerRecord
	games      map[int64]*domain.GameRecord
}

func NewMemoryRepository() Repository {
	return &memrepo{
		players: make(map[int64]*domain.PlayerRecord),
		games:   make(map[int64]*domain.GameRecord),
	}
}

func (m *memrepo) Lookup(ctx context.Context, id int64) (*domain.PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.players[id]
	if !ok {
		return nil, nil
	}
	copy := *rec
	return &copy, nil
}

func (m *memrepo) Upsert(ctx context.Context, rec *domain.PlayerRecord) error {
	if rec == nil {
		return nil
	}
	copy := *rec
	m.mu.Lock()
	m.players[rec.ID] = &copy
	m.mu.Unlock()
	return nil
}

func (m *memrepo) SaveGame(ctx context.Context, g *domain.GameRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextGameID++
	copy := *g
	copy.ID = m.nextGameID
	copy.Players = append([]domain.GamePlayer(nil), g.Players...)
	m.games[copy.ID] = &copy
	return copy.ID, nil
}

func (m *memrepo) UpdateScore(ctx context.Context, gameID int64, scoreA, scoreB int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil
	}
	a, b := scoreA, scoreB
	g.ScoreA, g.ScoreB = &a, &b
	return nil
}

func (m *memrepo) MarkMVP(ctx context.Context, gameID int64, playerIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil
	}
	for _, id := range playerIDs {
		for i := range g.Players {
			if g.Players[i].PlayerID == id {
				g.Players[i].WasMVP = true
			}
		}
	}
	return nil
}

func (m *memrepo) Leaderboard(ctx context.Context, minGames int) ([]*domain.PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PlayerRecord
	for _, rec := range m.players {
		if rec.GamesPlayed < minGames {
			continue
		}
		copy := *rec
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > leaderboardLimit {
		out = out[:leaderboardLimit]
	}
	return out, nil
}

// Game exposes a stored game for tests.
func (m *memrepo) Game(id int64) *domain.GameRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		copy := *g
		copy.Players = append([]domain.GamePlayer(nil), g.Players...)
		return &copy
	}
	return nil
}

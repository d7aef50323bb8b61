package match

import "context"

// Notifier delivers outbound chat messages. Announce posts to the
// group chat; Direct sends a private message to one user.
type Notifier interface {
	Announce(ctx context.Context, chatID int64, text string) error
	Direct(ctx context.Context, userID int64, text string) error
}

// RosterStore persists open rosters so a restart during sign-up does
// not lose the joined players. Only WAITING sessions are stored.
type RosterStore interface {
	Save(ctx context.Context, snap *RosterSnapshot) error
	Clear(ctx context.Context, chatID int64) error
	LoadAll(ctx context.Context) ([]*RosterSnapshot, error)
}

// RosterSnapshot is the persisted form of an open roster.
type RosterSnapshot struct {
	ChatID    int64          `json:"chat_id"`
	SessionID string         `json:"session_id"`
	Max       int            `json:"max"`
	KitChoice bool           `json:"kit_choice"`
	Players   []RosterPlayer `json:"players"`
}

type RosterPlayer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

package match

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rosters stay around long enough to survive a restart plus a slow
// sign-up day, then expire on their own.
const ttlRoster = 48 * time.Hour

// RedisRosterStore keeps one JSON snapshot per chat plus an index set
// so recovery can enumerate open rosters without a key scan.
type RedisRosterStore struct{ rdb *redis.Client }

func NewRedisRosterStore(rdb *redis.Client) *RedisRosterStore {
	return &RedisRosterStore{rdb: rdb}
}

func (s *RedisRosterStore) keyRoster(chatID int64) string {
	return fmt.Sprintf("match:roster:%d", chatID)
}

func (s *RedisRosterStore) keyIndex() string { return "match:roster:index" }

func (s *RedisRosterStore) Save(ctx context.Context, snap *RosterSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.keyRoster(snap.ChatID), raw, ttlRoster).Err(); err != nil {
		return err
	}
	if err := s.rdb.SAdd(ctx, s.keyIndex(), snap.ChatID).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyIndex(), ttlRoster).Err()
}

func (s *RedisRosterStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.rdb.Del(ctx, s.keyRoster(chatID)).Err(); err != nil {
		return err
	}
	return s.rdb.SRem(ctx, s.keyIndex(), chatID).Err()
}

func (s *RedisRosterStore) LoadAll(ctx context.Context) ([]*RosterSnapshot, error) {
	chatIDs, err := s.rdb.SMembers(ctx, s.keyIndex()).Result()
	if err != nil {
		return nil, err
	}
	var out []*RosterSnapshot
	for _, id := range chatIDs {
		raw, err := s.rdb.Get(ctx, "match:roster:"+id).Bytes()
		if err == redis.Nil {
			// snapshot expired, drop the stale index entry
			_ = s.rdb.SRem(ctx, s.keyIndex(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		var snap RosterSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, err
		}
		out = append(out, &snap)
	}
	return out, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/obichijioke/eventapp/internal/domain"
)

const sessionPrefix = "session:"

// SessionCache keeps authenticated sessions keyed by token hash so that
// requests skip the sessions table on the hot path.
type SessionCache struct {
	rdb goredis.Cmdable
}

func NewSessionCache(rdb goredis.Cmdable) *SessionCache {
	return &SessionCache{rdb: rdb}
}

type cachedSession struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	IsAdmin    bool      `json:"is_admin"`
}

// Get returns false on a cache miss.
func (c *SessionCache) Get(ctx context.Context, tokenHash string) (domain.Session, domain.Actor, bool, error) {
	data, err := c.rdb.Get(ctx, sessionPrefix+tokenHash).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Session{}, domain.Actor{}, false, nil
	}
	if err != nil {
		return domain.Session{}, domain.Actor{}, false, fmt.Errorf("get cached session: %w", err)
	}

	var cs cachedSession
	if err := json.Unmarshal(data, &cs); err != nil {
		return domain.Session{}, domain.Actor{}, false, fmt.Errorf("decode cached session: %w", err)
	}
	session := domain.Session{
		ID:         cs.ID,
		UserID:     cs.UserID,
		TokenHash:  tokenHash,
		ExpiresAt:  cs.ExpiresAt,
		LastSeenAt: cs.LastSeenAt,
	}
	return session, domain.Actor{UserID: cs.UserID, IsAdmin: cs.IsAdmin}, true, nil
}

func (c *SessionCache) Set(ctx context.Context, tokenHash string, s domain.Session, actor domain.Actor, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cachedSession{
		ID:         s.ID,
		UserID:     s.UserID,
		ExpiresAt:  s.ExpiresAt,
		LastSeenAt: s.LastSeenAt,
		IsAdmin:    actor.IsAdmin,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := c.rdb.Set(ctx, sessionPrefix+tokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache session: %w", err)
	}
	return nil
}

func (c *SessionCache) Delete(ctx context.Context, tokenHashes ...string) error {
	if len(tokenHashes) == 0 {
		return nil
	}
	keys := make([]string, len(tokenHashes))
	for i, h := range tokenHashes {
		keys[i] = sessionPrefix + h
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cached sessions: %w", err)
	}
	return nil
}

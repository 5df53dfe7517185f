package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// Key formats: sess:<jti> holds the JSON session record, sess_user:<user_id>
// is a set of that user's live jtis used for bulk revocation.
const (
	sessionKeyPrefix = "sess:"
	userIndexPrefix  = "sess_user:"
)

// SessionRegistry tracks live bearer tokens in Redis so they can be revoked
// before their natural expiry. Entries carry the token TTL and vanish on
// their own when the token would have expired anyway.
type SessionRegistry struct {
	client *redis.Client
}

func NewSessionRegistry(client *redis.Client) *SessionRegistry {
	return &SessionRegistry{client: client}
}

func (r *SessionRegistry) Register(ctx context.Context, s domain.Session) error {
	if s.ID == "" {
		return errors.New("session id cannot be empty")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is already expired")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// All tokens share one lifetime, so the newest registration always has
	// the latest expiry and may simply re-arm the index TTL.
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(s.ID), data, ttl)
	pipe.SAdd(ctx, userIndexKey(s.UserID), s.ID)
	pipe.Expire(ctx, userIndexKey(s.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	return nil
}

func (r *SessionRegistry) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}

	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("session get: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	// Redis TTL should have dropped it already, but re-check the expiry.
	if time.Now().After(s.ExpiresAt) {
		if err := r.Revoke(ctx, id); err != nil {
			return nil, fmt.Errorf("cleanup expired session: %w", err)
		}
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *SessionRegistry) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("session get: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, userIndexKey(s.UserID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *SessionRegistry) RevokeUser(ctx context.Context, userID string) (int64, error) {
	ids, err := r.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("load user sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}

	// The index may reference sessions Redis already expired; Del's return
	// value counts only the ones that were still live.
	revoked, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	if err := r.client.Del(ctx, userIndexKey(userID)).Err(); err != nil {
		return revoked, fmt.Errorf("drop user session index: %w", err)
	}
	return revoked, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func userIndexKey(userID string) string {
	return userIndexPrefix + userID
}

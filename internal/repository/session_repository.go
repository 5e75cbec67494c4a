package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound signals an unknown or revoked session.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository tracks active sessions so that logout and password
// changes can revoke tokens before they expire. Sessions are additionally
// indexed per user, which is what lets a credential change revoke every
// other session of the account in one call.
type SessionRepository interface {
	Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	// DeleteByUser revokes all sessions of the user except the one named
	// by exceptSessionID. Pass an empty string to revoke all of them.
	DeleteByUser(ctx context.Context, userID, exceptSessionID string) error
}

type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository returns a Redis-backed implementation.
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

func (r *sessionRepository) Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), userID, ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), sessionID)
	pipe.Expire(ctx, userSessionsKey(userID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (string, error) {
	userID, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	userID, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(userID), sessionID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID, exceptSessionID string) error {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := r.client.TxPipeline()
	for _, id := range ids {
		if id == exceptSessionID {
			continue
		}
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userSessionsKey(userID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const sessionsKey = "auth:sessions"

// Store persists sessions so a restarted instance can restore them.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
}

// RedisStore keeps sessions as JSON fields of one hash. Expired fields are
// pruned when listed.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.HSet(ctx, sessionsKey, session.ID, payload).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, sessionsKey, id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Session, error) {
	raw, err := s.client.HGetAll(ctx, sessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := s.now()
	sessions := make([]*Session, 0, len(raw))
	var expired []string
	for id, payload := range raw {
		var session Session
		if err := json.Unmarshal([]byte(payload), &session); err != nil {
			log.Warn().Err(err).Str("session_id", id).Msg("dropping unreadable session")
			expired = append(expired, id)
			continue
		}
		if session.Expired(now) {
			expired = append(expired, id)
			continue
		}
		sessions = append(sessions, &session)
	}

	if len(expired) > 0 {
		if err := s.client.HDel(ctx, sessionsKey, expired...).Err(); err != nil {
			log.Warn().Err(err).Int("count", len(expired)).Msg("failed to prune expired sessions")
		}
	}
	return sessions, nil
}

// MemoryStore is a Store for a single instance without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (s *MemoryStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		cp := *session
		out = append(out, &cp)
	}
	return out, nil
}

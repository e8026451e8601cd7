package session

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/model"
)

// Mirror is the persisted part of a session.  Keys match the ones the
// browser client used in local storage.
type Mirror struct {
    Role   model.Role
    UserID string
}

const (
    fieldRole   = "role"
    fieldUserID = "userId"
)

// ErrNotFound is returned by Load when no mirror exists for the id.
var ErrNotFound = errors.New("session mirror not found")

// Store persists session mirrors.
type Store interface {
    Save(ctx context.Context, id string, m Mirror) error
    Load(ctx context.Context, id string) (Mirror, error)
    Delete(ctx context.Context, id string) error
}

// RedisStore keeps each mirror in a hash at <prefix>:<id>.
type RedisStore struct {
    rdb    *redis.Client
    prefix string
    ttl    time.Duration
}

// NewRedisStore returns a store backed by rdb.  A ttl of zero keeps
// mirrors until they are deleted.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
    if prefix == "" {
        prefix = "session"
    }
    return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) Save(ctx context.Context, id string, m Mirror) error {
    key := s.key(id)
    pipe := s.rdb.TxPipeline()
    pipe.HSet(ctx, key, fieldRole, string(m.Role), fieldUserID, m.UserID)
    if s.ttl > 0 {
        pipe.Expire(ctx, key, s.ttl)
    }
    _, err := pipe.Exec(ctx)
    return err
}

func (s *RedisStore) Load(ctx context.Context, id string) (Mirror, error) {
    vals, err := s.rdb.HGetAll(ctx, s.key(id)).Result()
    if err != nil {
        return Mirror{}, err
    }
    if len(vals) == 0 {
        return Mirror{}, ErrNotFound
    }
    return Mirror{Role: model.Role(vals[fieldRole]), UserID: vals[fieldUserID]}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
    return s.rdb.Del(ctx, s.key(id)).Err()
}

// MemoryStore is the fallback used when Redis is not reachable.  Mirrors
// do not survive a restart.
type MemoryStore struct {
    mu sync.Mutex
    m  map[string]Mirror
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{m: map[string]Mirror{}} }

func (s *MemoryStore) Save(_ context.Context, id string, m Mirror) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.m[id] = m
    return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (Mirror, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    m, ok := s.m[id]
    if !ok {
        return Mirror{}, ErrNotFound
    }
    return m, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.m, id)
    return nil
}

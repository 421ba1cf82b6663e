package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// CheckpointStore persists the run state after every stage so an
// interrupted run can be inspected or resumed. Load returns (nil, nil)
// when no checkpoint exists.
type CheckpointStore interface {
	Save(ctx context.Context, sessionID string, st *RunState) error
	Load(ctx context.Context, sessionID string) (*RunState, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryCheckpointStore keeps checkpoints in process. It is the fallback
// when no Redis is configured; checkpoints then survive a turn but not a
// worker restart.
type MemoryCheckpointStore struct {
	c *gocache.Cache
}

func NewMemoryCheckpointStore(ttl time.Duration) *MemoryCheckpointStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryCheckpointStore{c: gocache.New(ttl, 10*time.Minute)}
}

func (m *MemoryCheckpointStore) Save(_ context.Context, sessionID string, st *RunState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	m.c.Set(sessionID, raw, gocache.DefaultExpiration)
	return nil
}

func (m *MemoryCheckpointStore) Load(_ context.Context, sessionID string) (*RunState, error) {
	v, ok := m.c.Get(sessionID)
	if !ok {
		return nil, nil
	}
	var st RunState
	if err := json.Unmarshal(v.([]byte), &st); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &st, nil
}

func (m *MemoryCheckpointStore) Delete(_ context.Context, sessionID string) error {
	m.c.Delete(sessionID)
	return nil
}

// RedisCheckpointStore keeps checkpoints in Redis so any worker can pick
// up a session.
type RedisCheckpointStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCheckpointStore(client *redis.Client, ttl time.Duration) *RedisCheckpointStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCheckpointStore{client: client, ttl: ttl}
}

func checkpointKey(sessionID string) string {
	return "checkpoint:" + sessionID
}

func (r *RedisCheckpointStore) Save(ctx context.Context, sessionID string, st *RunState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	return r.client.Set(ctx, checkpointKey(sessionID), raw, r.ttl).Err()
}

func (r *RedisCheckpointStore) Load(ctx context.Context, sessionID string) (*RunState, error) {
	raw, err := r.client.Get(ctx, checkpointKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st RunState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &st, nil
}

func (r *RedisCheckpointStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, checkpointKey(sessionID)).Err()
}

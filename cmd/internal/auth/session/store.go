package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"fenster/cmd/internal/fault"
)

// errMissing signals a key that is not present in the store. Callers map it
// to the fault kind appropriate for their operation.
var errMissing = errors.New("session: key not found")

// Store is the key-value backend for session state. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the value at key, or errMissing-wrapped errors when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a single key.
	Set(ctx context.Context, key, value string) error

	// SetMulti writes all pairs atomically: either every key is written or
	// none is.
	SetMulti(ctx context.Context, pairs map[string]string) error

	// Del removes a key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// AcquireLock takes the named advisory lock, returning an owner token
	// to pass to ReleaseLock. ok is false when the lock is held elsewhere.
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (owner string, ok bool, err error)

	// ReleaseLock releases the named lock if owner still holds it.
	ReleaseLock(ctx context.Context, name, owner string) error
}

// RedisStore implements Store on a Redis client.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errMissing
	}
	if err != nil {
		return "", fault.Internal(fault.SubsystemRedis, 1, "session.store.get", err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fault.Internal(fault.SubsystemRedis, 2, "session.store.set", err)
	}
	return nil
}

func (s *RedisStore) SetMulti(ctx context.Context, pairs map[string]string) error {
	args := make([]any, 0, len(pairs)*2)
	for k, v := range pairs {
		args = append(args, k, v)
	}
	if err := s.client.MSet(ctx, args...).Err(); err != nil {
		return fault.Internal(fault.SubsystemRedis, 3, "session.store.set_multi", err)
	}
	return nil
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fault.Internal(fault.SubsystemRedis, 4, "session.store.del", err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fault.Internal(fault.SubsystemRedis, 5, "session.store.exists", err)
	}
	return n > 0, nil
}

// releaseScript deletes the lock key only when the caller still owns it, so
// a lock that expired and was re-acquired elsewhere is never clobbered.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisStore) AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	owner, err := newLockOwner()
	if err != nil {
		return "", false, fault.Internal(fault.SubsystemGeneral, 1, "session.store.acquire_lock", err)
	}
	ok, err := s.client.SetNX(ctx, name, owner, ttl).Result()
	if err != nil {
		return "", false, fault.Internal(fault.SubsystemRedis, 6, "session.store.acquire_lock", err)
	}
	return owner, ok, nil
}

func (s *RedisStore) ReleaseLock(ctx context.Context, name, owner string) error {
	if err := releaseScript.Run(ctx, s.client, []string{name}, owner).Err(); err != nil {
		return fault.Internal(fault.SubsystemRedis, 7, "session.store.release_lock", err)
	}
	return nil
}

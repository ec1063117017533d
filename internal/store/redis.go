package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisLockTTL  = 30 * time.Second
	redisLockPoll = 50 * time.Millisecond
)

// releaseScript deletes the lock key only if we still hold it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisOptions parameterize the Redis store backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisStore keeps the same JSON document the file backend uses in a
// single Redis key. The single-writer invariant is held with a SET NX
// lock key; acquisition blocks (polling) with no overall timeout, same
// as the file backend's advisory lock.
type RedisStore struct {
	client  *redis.Client
	key     string
	lockKey string
}

func NewRedisStore(opts RedisOptions) *RedisStore {
	key := opts.Key
	if key == "" {
		key = "keypulse:credentials"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})
	return &RedisStore{
		client:  client,
		key:     key,
		lockKey: key + ":lock",
	}
}

func (s *RedisStore) List(ctx context.Context, provider string) ([]Record, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	records, err := recordsFromDoc(data, provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	return records, nil
}

func (s *RedisStore) Disable(ctx context.Context, id string, d time.Duration) error {
	return s.update(ctx, func(doc []byte) ([]byte, bool, error) {
		out, err := disableDoc(doc, id, time.Now(), d)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	})
}

func (s *RedisStore) Reenable(ctx context.Context, id string) error {
	return s.update(ctx, func(doc []byte) ([]byte, bool, error) {
		return reenableDoc(doc, id)
	})
}

func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *RedisStore) update(ctx context.Context, mutate func([]byte) ([]byte, bool, error)) error {
	token, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = releaseScript.Run(context.WithoutCancel(ctx), s.client, []string{s.lockKey}, token).Result()
	}()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreRead, err)
	}

	out, changed, err := mutate(data)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := s.client.Set(ctx, s.key, out, 0).Err(); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

func (s *RedisStore) acquireLock(ctx context.Context) (string, error) {
	token := uuid.NewString()
	for {
		ok, err := s.client.SetNX(ctx, s.lockKey, token, redisLockTTL).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("lock store: %w", err)
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(redisLockPoll):
		}
	}
}

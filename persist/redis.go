package persist

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// DefaultPrefix namespaces snapshot keys when no prefix is configured.
const DefaultPrefix = "simstore"

// RedisStore keeps snapshots in Redis. Each snapshot is a plain string key, and a set
// indexes the names.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	logger zerolog.Logger
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix namespaces the store's keys.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger zerolog.Logger) RedisOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

// NewRedisStore wraps a Redis client.
func NewRedisStore(client redis.Cmdable, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultPrefix,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) snapshotKey(name string) string {
	return s.prefix + ":snapshot:" + name
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":snapshots"
}

func (s *RedisStore) Save(ctx context.Context, name string, snapshot []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.snapshotKey(name), snapshot, 0)
		pipe.SAdd(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return eris.Wrapf(err, "failed to save snapshot %q", name)
	}
	s.logger.Debug().Str("snapshot", name).Int("bytes", len(snapshot)).Msg("snapshot saved to redis")
	return nil
}

func (s *RedisStore) Load(ctx context.Context, name string) ([]byte, error) {
	bz, err := s.client.Get(ctx, s.snapshotKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, eris.Wrapf(ErrSnapshotNotFound, "%q", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load snapshot %q", name)
	}
	return bz, nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, eris.Wrap(err, "failed to list snapshots")
	}
	return names, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.snapshotKey(name))
		pipe.SRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return eris.Wrapf(err, "failed to delete snapshot %q", name)
	}
	return nil
}

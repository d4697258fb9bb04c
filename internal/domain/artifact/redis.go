package artifact

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	platformerrors "adventure-server-go/internal/platform/errors"
)

// Records live under <prefix>rec:<name>; <prefix>expiry is a sorted set of
// names scored by expiry in unix milliseconds, so the sweeper can find files
// whose record keys have already been evicted.
type redisStore struct {
	client *redis.Client
	prefix string
}

// keyGrace keeps record keys around a little past expiry so the sweeper can
// still resolve them.
const keyGrace = time.Hour

// NewRedis constructs a redis-backed artifact store.
func NewRedis(cfg Config) (Store, error) {
	const op = "artifact.redis.new"
	if cfg.Redis == nil || cfg.Redis.Addr == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, op, "redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "redis ping failed", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "artifact:"
	}
	return &redisStore{client: client, prefix: prefix}, nil
}

func (s *redisStore) recordKey(name string) string {
	return s.prefix + "rec:" + name
}

func (s *redisStore) expiryKey() string {
	return s.prefix + "expiry"
}

func (s *redisStore) Put(ctx context.Context, rec Record) error {
	const op = "artifact.redis.put"
	if rec.Name == "" {
		return platformerrors.New(platformerrors.KindStorage, op, "artifact name required")
	}
	data, err := sonic.Marshal(rec)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, op, "failed to encode artifact", err)
	}

	var ttl time.Duration
	score := float64(1<<53 - 1)
	if !rec.ExpiresAt.IsZero() {
		ttl = max(time.Until(rec.ExpiresAt)+keyGrace, time.Second)
		score = float64(rec.ExpiresAt.UnixMilli())
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(rec.Name), data, ttl)
		pipe.ZAdd(ctx, s.expiryKey(), redis.Z{Score: score, Member: rec.Name})
		return nil
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, op, "failed to save artifact", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, name string) (Record, error) {
	const op = "artifact.redis.get"
	raw, err := s.client.Get(ctx, s.recordKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, notFound(op, name)
	}
	if err != nil {
		return Record{}, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to load artifact", err)
	}

	var rec Record
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		return Record{}, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to decode artifact", err)
	}
	if rec.Expired(time.Now()) {
		return Record{}, notFound(op, name)
	}
	return rec, nil
}

func (s *redisStore) Remove(ctx context.Context, name string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(name))
		pipe.ZRem(ctx, s.expiryKey(), name)
		return nil
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "artifact.redis.remove", "failed to delete artifact", err)
	}
	return nil
}

func (s *redisStore) List(ctx context.Context) ([]Record, error) {
	const op = "artifact.redis.list"
	names, err := s.client.ZRangeByScore(ctx, s.expiryKey(), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(time.Now().UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, op, "failed to list artifacts", err)
	}

	out := make([]Record, 0, len(names))
	for _, name := range names {
		rec, err := s.Get(ctx, name)
		if platformerrors.IsKind(err, platformerrors.KindNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *redisStore) Expired(ctx context.Context, now time.Time) ([]string, error) {
	names, err := s.client.ZRangeByScore(ctx, s.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.redis.expired", "failed to query expired artifacts", err)
	}
	return names, nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	total, err := s.client.ZCard(ctx, s.expiryKey()).Result()
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.redis.stats", "failed to count artifacts", err)
	}
	active, err := s.client.ZCount(ctx, s.expiryKey(), "("+strconv.FormatInt(time.Now().UnixMilli(), 10), "+inf").Result()
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "artifact.redis.stats", "failed to count artifacts", err)
	}
	return map[string]any{
		"type":   DriverRedis,
		"total":  total,
		"active": active,
		"prefix": strings.TrimSuffix(s.prefix, ":"),
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}

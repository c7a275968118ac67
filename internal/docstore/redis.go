package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xxxsen/docqa/internal/config"
)

const defaultRedisPrefix = "docqa:doc:"

type redisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

type redisStore struct {
	client *redis.Client
	prefix string
}

func init() {
	Register("redis", createRedisStore)
}

func createRedisStore(args interface{}) (Store, error) {
	cfg := &redisConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis store addr is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRedisPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: config.Resolve(cfg.Password),
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable("ping", err)
	}
	return &redisStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *redisStore) key(identifier string) string {
	return s.prefix + identifier
}

func (s *redisStore) Put(ctx context.Context, identifier, text string) error {
	if err := s.client.Set(ctx, s.key(identifier), text, 0).Err(); err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, identifier string) (string, bool, error) {
	text, err := s.client.Get(ctx, s.key(identifier)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, unavailable("get", err)
	}
	return text, true, nil
}

// Count walks the prefix with SCAN. SCAN may yield a key more than once, so keys are deduplicated.
func (s *redisStore) Count(ctx context.Context) (int, error) {
	count, err := countDistinct(ctx, s.client.Scan(ctx, 0, s.prefix+"*", 256).Iterator())
	if err != nil {
		return 0, unavailable("count", err)
	}
	return count, nil
}

type keyIterator interface {
	Next(ctx context.Context) bool
	Val() string
	Err() error
}

func countDistinct(ctx context.Context, iter keyIterator) (int, error) {
	seen := make(map[string]struct{})
	for iter.Next(ctx) {
		seen[iter.Val()] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return len(seen), nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisMaxRetries = 5

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisStore keeps each document as a JSON string under prefix+path and
// tracks the children of every parent in a set.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Client exposes the underlying connection for locks and health checks.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func (s *RedisStore) docKey(path string) string {
	return s.prefix + "doc:" + path
}

func (s *RedisStore) childrenKey(parent string) string {
	return s.prefix + "children:" + parent
}

func (s *RedisStore) Get(ctx context.Context, path string) (Document, error) {
	data, err := s.client.Get(ctx, s.docKey(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get", path, err)
	}
	return decodeRaw(data)
}

func (s *RedisStore) Set(ctx context.Context, path string, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	parent, id := Split(path)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(path), data, 0)
		pipe.SAdd(ctx, s.childrenKey(parent), id)
		return nil
	})
	if err != nil {
		return unavailable("set", path, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, path string, fields Document) error {
	return s.CompareAndUpdate(ctx, path, nil, fields)
}

// CompareAndUpdate runs an optimistic WATCH/MULTI cycle, re-reading and
// re-checking the expectation when another writer wins the race.
func (s *RedisStore) CompareAndUpdate(ctx context.Context, path string, expect, fields Document) error {
	key := s.docKey(path)
	patch, err := normalize(fields)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		doc, err := decodeRaw(data)
		if err != nil {
			return err
		}
		if len(expect) > 0 {
			ok, err := matches(doc, expect)
			if err != nil {
				return err
			}
			if !ok {
				return ErrConditionFailed
			}
		}
		out, err := json.Marshal(merge(doc, patch))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrConditionFailed):
			return err
		default:
			return unavailable("update", path, err)
		}
	}
	return ErrConditionFailed
}

func (s *RedisStore) Remove(ctx context.Context, path string) error {
	parent, id := Split(path)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(path))
		pipe.SRem(ctx, s.childrenKey(parent), id)
		return nil
	})
	if err != nil {
		return unavailable("remove", path, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, parent string) (map[string]Document, error) {
	ids, err := s.client.SMembers(ctx, s.childrenKey(parent)).Result()
	if err != nil {
		return nil, unavailable("list", parent, err)
	}
	out := make(map[string]Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(Join(parent, id))
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("list", parent, err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// removed between SMEMBERS and MGET
			continue
		}
		doc, err := decodeRaw([]byte(raw))
		if err != nil {
			return nil, err
		}
		out[ids[i]] = doc
	}
	return out, nil
}

// HealthCheck pings the server.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeRaw(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

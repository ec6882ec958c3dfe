package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"kowaiquest/internal/config"
)

// maxWatchRetries bounds optimistic transaction retries in Update
const maxWatchRetries = 5

// RedisGateway stores each document as a JSON string under
// {prefix}:{collection}:{id} and indexes ids per collection in a sorted set
type RedisGateway struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisClient connects to the configured Redis server and checks it responds
func NewRedisClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedisGateway wraps a connected client
func NewRedisGateway(rdb *goredis.Client, prefix string) *RedisGateway {
	if prefix == "" {
		prefix = "kowaiquest"
	}
	return &RedisGateway{rdb: rdb, prefix: prefix}
}

func (g *RedisGateway) key(collection, id string) string {
	return g.prefix + ":" + collection + ":" + id
}

func (g *RedisGateway) indexKey(collection string) string {
	return g.prefix + ":index:" + collection
}

func (g *RedisGateway) Get(ctx context.Context, collection, id string) (Document, error) {
	raw, err := g.rdb.Get(ctx, g.key(collection, id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	return unmarshalDocument(raw)
}

func (g *RedisGateway) Set(ctx context.Context, collection, id string, data Document) error {
	raw, err := marshalDocument(data)
	if err != nil {
		return err
	}
	_, err = g.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, g.key(collection, id), raw, 0)
		p.ZAdd(ctx, g.indexKey(collection), goredis.Z{Score: 0, Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (g *RedisGateway) Update(ctx context.Context, collection, id string, patch Document) error {
	key := g.key(collection, id)
	update := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		doc, err := unmarshalDocument(raw)
		if err != nil {
			return err
		}
		if err := Merge(doc, patch); err != nil {
			return err
		}
		out, err := marshalDocument(doc)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := g.rdb.Watch(ctx, update, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
		}
		return err
	}
	return fmt.Errorf("failed to update document %s/%s: %w", collection, id, goredis.TxFailedErr)
}

func (g *RedisGateway) Delete(ctx context.Context, collection, id string) error {
	_, err := g.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, g.key(collection, id))
		p.ZRem(ctx, g.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (g *RedisGateway) List(ctx context.Context, collection string) ([]Entry, error) {
	// equal scores order members lexicographically
	ids, err := g.rdb.ZRange(ctx, g.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = g.key(collection, id)
	}
	values, err := g.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	entries := make([]Entry, 0, len(ids))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// index entry without a document
			continue
		}
		doc, err := unmarshalDocument([]byte(s))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{ID: ids[i], Data: doc})
	}
	return entries, nil
}

// Close closes the Redis client
func (g *RedisGateway) Close() error {
	return g.rdb.Close()
}

package risk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one JSON encoded State per symbol. Keys expire after two
// days since only today's state is ever read back.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "signaltrader:risk:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: 48 * time.Hour}, nil
}

func (r *RedisStore) key(symbol string) string {
	return r.prefix + symbol
}

func (r *RedisStore) Load(ctx context.Context, symbol string) (State, bool, error) {
	raw, err := r.client.Get(ctx, r.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("redis get %s: %w", r.key(symbol), err)
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, false, fmt.Errorf("decode risk state: %w", err)
	}
	return s, true, nil
}

func (r *RedisStore) Save(ctx context.Context, symbol string, s State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode risk state: %w", err)
	}
	if err := r.client.Set(ctx, r.key(symbol), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key(symbol), err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

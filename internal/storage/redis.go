package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// casWrite compares the stored version against the caller's token and, when
// they match, replaces the content and bumps the version in one atomic step.
// A missing version key only matches an empty token (create-new-file).
var casWrite = redis.NewScript(`
local ver = redis.call('GET', KEYS[2])
if (not ver and ARGV[2] == '') or (ver and ver == ARGV[2]) then
  redis.call('SET', KEYS[1], ARGV[1])
  redis.call('INCR', KEYS[2])
  return 1
end
return 0
`)

// Redis stores each collection as a content key plus a version-counter key.
// The counter is the version token, giving the same compare-and-swap
// semantics as the remote Git backend.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis creates the redis backend. keyPrefix namespaces the collection
// keys (e.g. "mcq:").
func NewRedis(rdb *redis.Client, keyPrefix string) *Redis {
	return &Redis{rdb: rdb, prefix: keyPrefix}
}

// NewRedisClient connects and pings a Redis client from a redis:// URL.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (r *Redis) dataKey(name string) string { return r.prefix + name }
func (r *Redis) verKey(name string) string  { return r.prefix + name + ":ver" }

func (r *Redis) Read(ctx context.Context, name string) ([]byte, string, error) {
	pipe := r.rdb.Pipeline()
	dataCmd := pipe.Get(ctx, r.dataKey(name))
	verCmd := pipe.Get(ctx, r.verKey(name))
	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return nil, "", fmt.Errorf("redis read %s: %w", name, err)
	}

	data, err := dataCmd.Bytes()
	if err == redis.Nil {
		return nil, "", ErrNotExist
	}
	if err != nil {
		return nil, "", fmt.Errorf("redis read %s: %w", name, err)
	}

	ver, err := verCmd.Result()
	if err == redis.Nil {
		ver = ""
	} else if err != nil {
		return nil, "", fmt.Errorf("redis read %s: %w", name, err)
	}
	return data, ver, nil
}

func (r *Redis) Write(ctx context.Context, name string, data []byte, token string) error {
	ok, err := casWrite.Run(ctx, r.rdb,
		[]string{r.dataKey(name), r.verKey(name)},
		string(data), token,
	).Int()
	if err != nil {
		return fmt.Errorf("redis write %s: %w", name, err)
	}
	if ok != 1 {
		return fmt.Errorf("redis write %s: %w", name, ErrConflict)
	}
	return nil
}

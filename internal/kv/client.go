package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis connection and exposes the atomic primitives the
// pipeline is built on. Every multi-caller mutation goes through a native
// single-key operation here rather than a read-modify-write pair.
type Client struct {
	rdb *redis.Client
}

func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewClientFromRedis wraps an existing connection. Used by tests.
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// IncrWithWindow increments key and, when the returned value is 1 (first hit
// in a fresh window), sets the window expiry. Increment-first avoids the
// read-then-write race between concurrent callers.
func (c *Client) IncrWithWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, fmt.Errorf("failed to set window on %s: %w", key, err)
		}
	}
	return n, nil
}

// SetJSON writes value and TTL in a single SET so an expired read can never
// observe a half-written record.
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// GetJSON returns false when the key does not exist (or has expired).
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return n > 0, nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

func (c *Client) HashSet(ctx context.Context, key string, fields map[string]interface{}) error {
	if err := c.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("failed to write hash %s: %w", key, err)
	}
	return nil
}

func (c *Client) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hash %s: %w", key, err)
	}
	return fields, nil
}

func (c *Client) HashDeleteFields(ctx context.Context, key string, fields ...string) error {
	if err := c.rdb.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("failed to clear fields on %s: %w", key, err)
	}
	return nil
}

func (c *Client) ListAppend(ctx context.Context, key, value string) error {
	if err := c.rdb.RPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("failed to append to %s: %w", key, err)
	}
	return nil
}

func (c *Client) ListPrepend(ctx context.Context, key, value string) error {
	if err := c.rdb.LPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("failed to prepend to %s: %w", key, err)
	}
	return nil
}

// ListRemove removes every occurrence of value. Removal is by value, not
// index, so concurrent removals of different ids never interfere.
func (c *Client) ListRemove(ctx context.Context, key, value string) (int64, error) {
	n, err := c.rdb.LRem(ctx, key, 0, value).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove from %s: %w", key, err)
	}
	return n, nil
}

func (c *Client) ListRange(ctx context.Context, key string) ([]string, error) {
	values, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read list %s: %w", key, err)
	}
	return values, nil
}

func (c *Client) SetAdd(ctx context.Context, key, member string) error {
	if err := c.rdb.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("failed to add to set %s: %w", key, err)
	}
	return nil
}

// SetRemove removes member and reports how many elements were actually
// removed, so callers can tell a real removal from a no-op.
func (c *Client) SetRemove(ctx context.Context, key, member string) (int64, error) {
	n, err := c.rdb.SRem(ctx, key, member).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove from set %s: %w", key, err)
	}
	return n, nil
}

func (c *Client) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read set %s: %w", key, err)
	}
	return members, nil
}

func (c *Client) SetCard(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.SCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count set %s: %w", key, err)
	}
	return n, nil
}

func (c *Client) CounterGet(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}
	return n, nil
}

func (c *Client) CounterAdd(ctx context.Context, key string, delta int64) error {
	if err := c.rdb.IncrBy(ctx, key, delta).Err(); err != nil {
		return fmt.Errorf("failed to adjust counter %s: %w", key, err)
	}
	return nil
}

func (c *Client) CounterSet(ctx context.Context, key string, value int64) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set counter %s: %w", key, err)
	}
	return nil
}

// guardedAdd inserts a member only while the set stays under capacity.
// Membership short-circuits to success so the caller's retry or a duplicate
// moderator click is a no-op. Runs server-side so two callers racing for the
// last slot can never both win.
var guardedAdd = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 1 then
	return 1
end
if redis.call("SCARD", KEYS[1]) < tonumber(ARGV[2]) then
	redis.call("SADD", KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// GuardedSetAdd is the hard capacity check: it reports false when the set is
// full and the member was not inserted.
func (c *Client) GuardedSetAdd(ctx context.Context, key, member string, capacity int) (bool, error) {
	res, err := guardedAdd.Run(ctx, c.rdb, []string{key}, member, capacity).Int64()
	if err != nil {
		return false, fmt.Errorf("failed guarded add to %s: %w", key, err)
	}
	return res == 1, nil
}

// ScanKeys collects every key matching pattern. Used only by the sweeper;
// request paths never enumerate the keyspace.
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", pattern, err)
	}
	return keys, nil
}

// ApprovedSetKeys returns the key of every farm's approved set.
func (c *Client) ApprovedSetKeys(ctx context.Context) ([]string, error) {
	return c.ScanKeys(ctx, approvedPattern)
}

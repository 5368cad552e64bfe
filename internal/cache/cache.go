// Package cache keeps short-lived balance snapshots in Redis so balance
// reads do not fold the whole ledger on every request.
package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// BalanceCache stores folded ledger balances. Every Invalidate bumps the
// user's version; Get reports the current version and Set only lands under
// the version it was given, so a fold that raced an invalidation is never
// served.
type BalanceCache interface {
	Get(ctx context.Context, userID uuid.UUID) (balance decimal.Decimal, version int64, ok bool, err error)
	Set(ctx context.Context, userID uuid.UUID, version int64, balance decimal.Decimal) error
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}

func ConnectRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// RedisBalanceCache is a BalanceCache backed by Redis strings with a TTL
type RedisBalanceCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisBalanceCache(c *redis.Client, ttl time.Duration) *RedisBalanceCache {
	return &RedisBalanceCache{Client: c, TTL: ttl}
}

func versionKey(userID uuid.UUID) string { return "balance:ver:" + userID.String() }

func key(userID uuid.UUID, version int64) string {
	return "balance:" + userID.String() + ":" + strconv.FormatInt(version, 10)
}

func (c *RedisBalanceCache) Get(ctx context.Context, userID uuid.UUID) (decimal.Decimal, int64, bool, error) {
	version, err := c.Client.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		version, err = 0, nil
	}
	if err != nil {
		return decimal.Zero, 0, false, err
	}

	raw, err := c.Client.Get(ctx, key(userID, version)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, version, false, nil
	}
	if err != nil {
		return decimal.Zero, version, false, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, version, false, err
	}
	return balance, version, true, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, userID uuid.UUID, version int64, balance decimal.Decimal) error {
	return c.Client.Set(ctx, key(userID, version), balance.StringFixed(2), c.TTL).Err()
}

// Invalidate bumps the version of every user. Version counters never
// expire; snapshots under older versions age out with their TTL.
func (c *RedisBalanceCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	pipe := c.Client.Pipeline()
	for _, id := range userIDs {
		pipe.Incr(ctx, versionKey(id))
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Noop is used when no Redis address is configured
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID) (decimal.Decimal, int64, bool, error) {
	return decimal.Zero, 0, false, nil
}

func (Noop) Set(context.Context, uuid.UUID, int64, decimal.Decimal) error { return nil }

func (Noop) Invalidate(context.Context, ...uuid.UUID) error { return nil }

// Memory is an in-process BalanceCache without expiry, for tests and
// single-instance local runs.
type Memory struct {
	mu       sync.Mutex
	versions map[uuid.UUID]int64
	entries  map[uuid.UUID]snapshot
}

type snapshot struct {
	version int64
	balance decimal.Decimal
}

func NewMemory() *Memory {
	return &Memory{
		versions: make(map[uuid.UUID]int64),
		entries:  make(map[uuid.UUID]snapshot),
	}
}

func (m *Memory) Get(_ context.Context, userID uuid.UUID) (decimal.Decimal, int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	version := m.versions[userID]
	e, ok := m.entries[userID]
	if !ok || e.version != version {
		return decimal.Zero, version, false, nil
	}
	return e.balance, version, true, nil
}

func (m *Memory) Set(_ context.Context, userID uuid.UUID, version int64, balance decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if version != m.versions[userID] {
		return nil
	}
	m.entries[userID] = snapshot{version: version, balance: balance}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, userIDs ...uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range userIDs {
		m.versions[id]++
		delete(m.entries, id)
	}
	return nil
}

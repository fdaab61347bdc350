package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiplogix/logistics-backend/pkg/config"
)

// Every key this service writes lives under lg:<purpose>:...
const (
	keyNamespace      = "lg"
	idempotencyPrefix = "idempotency"
	lockPrefix        = "lock"
)

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client backs the replay cache for shipment and ledger mutations and the
// cron worker's lease.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger is what /health/ready needs.
type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore is the slice of Client the mutation replay cache uses.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// New connects using LOGISTICS_REDIS_URL, or the discrete address settings
// when no URL is set, and fails fast if the server does not answer.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig lets values encoded in the URL win; config only fills
// what the URL left unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	default:
		return nil, errors.New("redis url or address is required")
	}

	opts.DB = orConfig(opts.DB, cfg.DB)
	opts.PoolSize = orConfig(opts.PoolSize, cfg.PoolSize)
	opts.MinIdleConns = orConfig(opts.MinIdleConns, cfg.MinIdleConns)
	opts.DialTimeout = orConfig(opts.DialTimeout, cfg.DialTimeout)
	opts.ReadTimeout = orConfig(opts.ReadTimeout, cfg.ReadTimeout)
	opts.WriteTimeout = orConfig(opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func orConfig[T comparable](current, configured T) T {
	var zero T
	if current == zero {
		return configured
	}
	return current
}

func (c *Client) cmd() (cmdable, error) {
	if c == nil || c.store == nil {
		return nil, errNotInitialized
	}
	return c.store, nil
}

// Get reads a stored replay record or lease token. A missing key yields an
// error for which IsNil is true.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	store, err := c.cmd()
	if err != nil {
		return "", err
	}
	return store.Get(ctx, key).Result()
}

// SetNX writes key only when absent; the first writer of a replay record or
// lease wins.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	store, err := c.cmd()
	if err != nil {
		return false, err
	}
	return store.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	store, err := c.cmd()
	if err != nil {
		return err
	}
	return store.Del(ctx, keys...).Err()
}

func (c *Client) Ping(ctx context.Context) error {
	store, err := c.cmd()
	if err != nil {
		return err
	}
	return store.Ping(ctx).Err()
}

// Close is a no-op on a client that never connected.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// IdempotencyKey scopes a caller's Idempotency-Key to one user and path, e.g.
// lg:idempotency:<user>|POST|/api/v1/shipments/<id>/archive:<key>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

// LockKey names a lease such as lg:lock:cron-worker:production.
func LockKey(name string) string {
	return buildKey(lockPrefix, name)
}

// IsNil reports whether err means the key was absent.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func buildKey(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, ":")
}

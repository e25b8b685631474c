package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a read-through response cache. Keys are versioned per namespace so a write can drop
// every cached page of that namespace with a single INCR. A nil *Cache, or one without a client,
// is a no-op.
type Cache struct {
	Conn *redis.Client
	TTL  time.Duration
}

// NewCache connects to Redis. An empty address disables caching.
func NewCache(ctx context.Context, addr, password string, ttl time.Duration) *Cache {
	if addr == "" {
		log.Println("REDIS_URL not set; response cache disabled")
		return &Cache{TTL: ttl}
	}

	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := conn.Ping(ctx).Err(); err != nil {
		log.Printf("Redis ping failed (%v); response cache disabled", err)
		conn.Close()
		return &Cache{TTL: ttl}
	}
	return &Cache{Conn: conn, TTL: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.Conn != nil
}

func genKey(namespace string) string {
	return "cache:" + namespace + ":gen"
}

func (c *Cache) key(ctx context.Context, namespace, key string) (string, error) {
	gen, err := c.Conn.Get(ctx, genKey(namespace)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("cache:%s:%d:%s", namespace, gen, key), nil
}

// Get returns the cached payload, or ok=false on a miss or any Redis failure.
func (c *Cache) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	k, err := c.key(ctx, namespace, key)
	if err != nil {
		log.Printf("Redis cache key error: %v", err)
		return nil, false
	}
	val, err := c.Conn.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Redis GET error for %s: %v", k, err)
		}
		return nil, false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, namespace, key string, val []byte) {
	if !c.enabled() {
		return
	}
	k, err := c.key(ctx, namespace, key)
	if err != nil {
		log.Printf("Redis cache key error: %v", err)
		return
	}
	if err := c.Conn.Set(ctx, k, val, c.TTL).Err(); err != nil {
		log.Printf("Redis SET error for %s: %v", k, err)
	}
}

// Remember returns the cached JSON for key, or builds the value, encodes it and caches it.
// Build errors are returned as is and nothing is cached.
func (c *Cache) Remember(ctx context.Context, namespace, key string, build func() (any, error)) ([]byte, error) {
	if val, ok := c.Get(ctx, namespace, key); ok {
		return val, nil
	}
	v, err := build()
	if err != nil {
		return nil, err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	c.Set(ctx, namespace, key, val)
	return val, nil
}

// Invalidate drops every cached entry in namespace.
func (c *Cache) Invalidate(ctx context.Context, namespace string) {
	if !c.enabled() {
		return
	}
	if err := c.Conn.Incr(ctx, genKey(namespace)).Err(); err != nil {
		log.Printf("Redis INCR error for %s: %v", namespace, err)
	}
}

func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.Conn.Close()
}

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pama-lee/ordo/pkg/container"
	"github.com/pama-lee/ordo/pkg/redis"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

// RulesetCache memoizes validated, bytecode-compiled rulesets behind a
// content checksum. The in-process LRU holds already-compiled *ruleset.RuleSet
// values (so a hit costs nothing beyond a map lookup); Redis, when
// configured, holds the packed .ordo bytes and backs every process sharing
// the same cache, at the cost of a re-validate/compile on the receiving end
// since compiled bytecode never leaves this process.
type RulesetCache struct {
	store redis.Redis // nil runs local-only
	local *LRUCache
	ttl   time.Duration
}

// RulesetCacheOptions configures a RulesetCache. Redis is optional; when
// nil, the cache runs as a plain in-process LRU.
type RulesetCacheOptions struct {
	Redis         redis.Redis
	LocalCapacity int
	TTL           time.Duration
}

// NewRulesetCache builds a RulesetCache from opts, applying defaults for a
// zero LocalCapacity (1000 entries) or TTL (1 hour).
func NewRulesetCache(opts RulesetCacheOptions) *RulesetCache {
	capacity := opts.LocalCapacity
	if capacity <= 0 {
		capacity = 1000
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RulesetCache{
		store: opts.Redis,
		local: NewLRUCache(WithCapacity(capacity), WithDefaultTTL(ttl)),
		ttl:   ttl,
	}
}

// Checksum returns the content address a ruleset is cached under: the
// hex-encoded SHA-256 of its canonical JSON. Two RuleSet values with the
// same checksum are semantically identical (spec.md §4.6's canonicalization
// rules), so it is safe to skip re-validating a cache hit.
func Checksum(r *ruleset.RuleSet) (string, error) {
	canon, err := container.CanonicalJSON(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

func redisKey(checksum string) string {
	return "ordo:ruleset:" + checksum
}

// Get returns the cached ruleset for checksum. It checks the local LRU
// first; on a miss it falls back to Redis (if configured), unpacking and
// repopulating the LRU so later lookups in this process stay local. A
// ruleset retrieved from Redis is re-validated by container.Load but not
// compiled; a local hit returns exactly the value that was passed to Put.
func (c *RulesetCache) Get(ctx context.Context, checksum string) (*ruleset.RuleSet, bool) {
	if v, ok := c.local.Get(redisKey(checksum)); ok {
		return v.(*ruleset.RuleSet), true
	}
	if c.store == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, redisKey(checksum))
	if err != nil {
		return nil, false
	}
	r, err := container.Load([]byte(raw), container.LoadOptions{})
	if err != nil {
		return nil, false
	}
	c.local.Set(redisKey(checksum), r, c.ttl)
	return r, true
}

// Put stores r under checksum in the local LRU and, if Redis is configured,
// as a compressed .ordo container so the shared cache never holds indented
// JSON.
func (c *RulesetCache) Put(ctx context.Context, checksum string, r *ruleset.RuleSet) error {
	c.local.Set(redisKey(checksum), r, c.ttl)
	if c.store == nil {
		return nil
	}
	packed, err := container.Save(r, container.SaveOptions{Compress: true})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, redisKey(checksum), packed, c.ttl)
}

// Delete evicts checksum from both cache layers.
func (c *RulesetCache) Delete(ctx context.Context, checksum string) error {
	c.local.Delete(redisKey(checksum))
	if c.store == nil {
		return nil
	}
	_, err := c.store.Del(ctx, redisKey(checksum))
	return err
}

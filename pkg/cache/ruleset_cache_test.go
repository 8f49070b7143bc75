package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pama-lee/ordo/pkg/redis"
	"github.com/pama-lee/ordo/pkg/ruleset"
)

// fakeRedis is a minimal in-memory stand-in for redis.Redis. Embedding the
// interface lets it satisfy redis.Redis while only implementing the string
// operations RulesetCache actually calls; anything else would panic on a
// nil embedded interface, which is fine since this cache never calls it.
type fakeRedis struct {
	redis.Redis
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func sampleCacheRuleSet() *ruleset.RuleSet {
	output := ruleset.ExprMap{}
	output.Set("discount", "0.2")
	return &ruleset.RuleSet{
		Config: ruleset.Config{Name: "vip-discount", Version: "1", EntryStep: "done", FieldMissing: "lenient"},
		Steps: map[string]ruleset.Step{
			"done": {
				ID:   "done",
				Kind: ruleset.KindTerminal,
				Result: &ruleset.TerminalResult{
					Code:   "OK",
					Output: output,
				},
			},
		},
	}
}

func TestRulesetCacheLocalOnlyRoundTrip(t *testing.T) {
	c := NewRulesetCache(RulesetCacheOptions{})
	r := sampleCacheRuleSet()
	sum, err := Checksum(r)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}

	if _, ok := c.Get(context.Background(), sum); ok {
		t.Fatal("expected cache miss before Put")
	}

	if err := c.Put(context.Background(), sum, r); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := c.Get(context.Background(), sum)
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if got.Config.Name != r.Config.Name {
		t.Fatalf("got %+v, want %+v", got.Config, r.Config)
	}
}

func TestRulesetCacheRedisFallback(t *testing.T) {
	fr := newFakeRedis()
	c := NewRulesetCache(RulesetCacheOptions{Redis: fr, LocalCapacity: 10})
	r := sampleCacheRuleSet()
	sum, err := Checksum(r)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}

	if err := c.Put(context.Background(), sum, r); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Force an LRU eviction of the local copy, then confirm Get still
	// succeeds by falling through to Redis.
	c.local.Delete(redisKey(sum))

	got, ok := c.Get(context.Background(), sum)
	if !ok {
		t.Fatal("expected cache hit via redis fallback")
	}
	if got.Config.Name != r.Config.Name {
		t.Fatalf("got %+v, want %+v", got.Config, r.Config)
	}
}

func TestRulesetCacheDelete(t *testing.T) {
	fr := newFakeRedis()
	c := NewRulesetCache(RulesetCacheOptions{Redis: fr})
	r := sampleCacheRuleSet()
	sum, _ := Checksum(r)

	if err := c.Put(context.Background(), sum, r); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Delete(context.Background(), sum); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := c.Get(context.Background(), sum); ok {
		t.Fatal("expected cache miss after Delete")
	}
}

func TestChecksumStableAcrossEquivalentRuleSets(t *testing.T) {
	a := sampleCacheRuleSet()
	b := sampleCacheRuleSet()
	sumA, err := Checksum(a)
	if err != nil {
		t.Fatalf("checksum a: %v", err)
	}
	sumB, err := Checksum(b)
	if err != nil {
		t.Fatalf("checksum b: %v", err)
	}
	if sumA != sumB {
		t.Fatalf("expected identical checksums for equivalent rulesets, got %s and %s", sumA, sumB)
	}

	b.Config.Name = "other-name"
	sumC, err := Checksum(b)
	if err != nil {
		t.Fatalf("checksum c: %v", err)
	}
	if sumA == sumC {
		t.Fatal("expected different checksums after changing ruleset content")
	}
}

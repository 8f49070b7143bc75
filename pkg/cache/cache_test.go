package cache

import (
	"sync"
	"testing"
	"time"
)

func TestLRUCache_SetGet(t *testing.T) {
	cache := NewLRUCache(WithCapacity(100))

	// Test basic set/get
	err := cache.Set("key1", "value1", 0)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok := cache.Get("key1")
	if !ok {
		t.Fatal("Get returned false for existing key")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	// Test missing key
	_, ok = cache.Get("nonexistent")
	if ok {
		t.Error("Get returned true for non-existent key")
	}
}

func TestLRUCache_Expiration(t *testing.T) {
	cache := NewLRUCache(WithCapacity(100))

	// Set with short TTL
	err := cache.Set("expiring", "value", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Should be available immediately
	_, ok := cache.Get("expiring")
	if !ok {
		t.Error("Key should exist before expiration")
	}

	// Wait for expiration
	time.Sleep(100 * time.Millisecond)

	// Should be gone
	_, ok = cache.Get("expiring")
	if ok {
		t.Error("Key should be expired")
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache(WithCapacity(3))

	// Fill cache
	cache.Set("key1", "value1", 0)
	cache.Set("key2", "value2", 0)
	cache.Set("key3", "value3", 0)

	// Access key1 to make it recently used
	cache.Get("key1")

	// Add another entry, should evict key2 (least recently used)
	cache.Set("key4", "value4", 0)

	// key2 should be gone
	_, ok := cache.Get("key2")
	if ok {
		t.Error("key2 should have been evicted")
	}

	// key1 should still exist
	_, ok = cache.Get("key1")
	if !ok {
		t.Error("key1 should still exist")
	}
}

func TestLRUCache_Delete(t *testing.T) {
	cache := NewLRUCache(WithCapacity(100))

	cache.Set("key1", "value1", 0)

	err := cache.Delete("key1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, ok := cache.Get("key1")
	if ok {
		t.Error("Key should be deleted")
	}
}

func TestLRUCache_Clear(t *testing.T) {
	cache := NewLRUCache(WithCapacity(100))

	cache.Set("key1", "value1", 0)
	cache.Set("key2", "value2", 0)
	cache.Set("key3", "value3", 0)

	err := cache.Clear()
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	stats := cache.Stats()
	if stats.EntryCount != 0 {
		t.Errorf("Expected 0 entries after clear, got %d", stats.EntryCount)
	}
}

func TestLRUCache_Stats(t *testing.T) {
	cache := NewLRUCache(WithCapacity(100))

	// Generate some hits and misses
	cache.Set("key1", "value1", 0)
	cache.Get("key1") // Hit
	cache.Get("key1") // Hit
	cache.Get("nonexistent") // Miss
	cache.Get("nonexistent") // Miss

	stats := cache.Stats()
	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("Expected 2 misses, got %d", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("Expected 1 set, got %d", stats.Sets)
	}
}

func TestLRUCache_Tags(t *testing.T) {
	cache := NewLRUCache(WithCapacity(100))

	// Set with tags
	cache.SetWithTags("user:1", "Alice", 0, []string{"users"})
	cache.SetWithTags("user:2", "Bob", 0, []string{"users"})
	cache.SetWithTags("post:1", "Hello", 0, []string{"posts"})

	// Delete by tag
	count := cache.DeleteByTag("users")
	if count != 2 {
		t.Errorf("Expected 2 deleted, got %d", count)
	}

	// Users should be gone
	_, ok := cache.Get("user:1")
	if ok {
		t.Error("user:1 should be deleted")
	}

	// Posts should remain
	_, ok = cache.Get("post:1")
	if !ok {
		t.Error("post:1 should still exist")
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	cache := NewLRUCache(WithCapacity(1000))
	var wg sync.WaitGroup

	// Concurrent writes
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := string(rune(n*100 + j))
				cache.Set(key, j, 0)
			}
		}(i)
	}

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := string(rune(n*100 + j))
				cache.Get(key)
			}
		}(i)
	}

	wg.Wait()
}

func TestKeyBuilder(t *testing.T) {
	tests := []struct {
		parts    []string
		expected string
	}{
		{[]string{"user", "123"}, "user:123"},
		{[]string{"api", "v1", "users"}, "api:v1:users"},
		{[]string{"cache"}, "cache"},
	}

	for _, tt := range tests {
		kb := NewKeyBuilder()
		for _, p := range tt.parts {
			kb.Add(p)
		}
		result := kb.Build()
		if result != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, result)
		}
	}
}

func TestGlobalCache(t *testing.T) {
	// Test global cache functions
	err := Set("global:key1", "value1", 0)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok := Get("global:key1")
	if !ok {
		t.Fatal("Get returned false")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	err = Delete("global:key1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, ok = Get("global:key1")
	if ok {
		t.Error("Key should be deleted")
	}
}

func TestInvalidateByPrefix(t *testing.T) {
	cache := NewLRUCache(WithCapacity(100))

	cache.Set("ruleset:vip-discount:v1", "compiled-1", 0)
	cache.Set("ruleset:vip-discount:v2", "compiled-2", 0)
	cache.Set("ruleset:tax-calc:v1", "compiled-3", 0)

	count := cache.InvalidateByPrefix("ruleset:vip-discount")
	if count != 2 {
		t.Errorf("Expected 2 invalidated, got %d", count)
	}

	if _, ok := cache.Get("ruleset:vip-discount:v1"); ok {
		t.Error("vip-discount:v1 should be invalidated")
	}
	if _, ok := cache.Get("ruleset:tax-calc:v1"); !ok {
		t.Error("tax-calc:v1 should still exist")
	}
}

func BenchmarkLRUCache_Set(b *testing.B) {
	cache := NewLRUCache(WithCapacity(10000))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cache.Set(string(rune(i)), i, 0)
	}
}

func BenchmarkLRUCache_Get(b *testing.B) {
	cache := NewLRUCache(WithCapacity(10000))
	for i := 0; i < 10000; i++ {
		cache.Set(string(rune(i)), i, 0)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		cache.Get(string(rune(i % 10000)))
	}
}

func BenchmarkLRUCache_Concurrent(b *testing.B) {
	cache := NewLRUCache(WithCapacity(10000))
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				cache.Set(string(rune(i)), i, 0)
			} else {
				cache.Get(string(rune(i)))
			}
			i++
		}
	})
}

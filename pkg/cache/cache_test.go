package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestGetOrSet(t *testing.T) {
	c := New[int]()
	calls := 0
	create := func() int { calls++; return 42 }

	v, existed := c.GetOrSet("k", time.Minute, create)
	if v != 42 || existed {
		t.Fatalf("expected fresh value, got %d existed=%v", v, existed)
	}
	v, existed = c.GetOrSet("k", time.Minute, create)
	if v != 42 || !existed || calls != 1 {
		t.Fatalf("expected cached value, got %d existed=%v calls=%d", v, existed, calls)
	}
}

func TestPurge(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[string]()
	c.now = func() time.Time { return clock }

	c.Set("old", "a", time.Minute)
	c.Set("new", "b", time.Hour)
	clock = clock.Add(2 * time.Minute)

	if n := c.Purge(); n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", c.Len())
	}
}

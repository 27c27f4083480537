package httpclient

import (
	"testing"
	"time"
)

func TestCache_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("http://h/api/universes", []byte(`[1]`))
	if got, ok := c.Get("http://h/api/universes"); !ok || string(got) != "[1]" {
		t.Fatalf("fresh entry missing: %q %v", got, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := c.Get("http://h/api/universes"); ok {
		t.Fatalf("stale entry returned")
	}
	if c.Len() != 0 {
		t.Fatalf("stale entry not evicted")
	}
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache(0)
	data := []byte("abc")
	c.Set("k", data)
	data[0] = 'x'
	got, _ := c.Get("k")
	got[1] = 'y'
	again, _ := c.Get("k")
	if string(again) != "abc" {
		t.Fatalf("cache entry mutated: %q", again)
	}
}

func TestCache_InvalidateIgnoresQuery(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("http://h/api/universes", []byte("a"))
	c.Set("http://h/api/universes?page=2", []byte("b"))
	c.Set("http://h/api/universes/7", []byte("c"))
	c.Set("http://h/api/scenes", []byte("d"))

	if n := c.Invalidate("http://h/api/universes", ""); n != 2 {
		t.Fatalf("Invalidate removed %d, want 2", n)
	}
	if _, ok := c.Get("http://h/api/universes/7"); !ok {
		t.Fatalf("child entry should survive")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Clear left %d entries", c.Len())
	}
}

package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key", "value", time.Minute)

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.(string) != "value" {
		t.Fatalf("got %v, want value", got)
	}
}

func TestGetMissing(t *testing.T) {
	c := New()
	if _, ok := c.Get("absent"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestExpiredEntryEvicted(t *testing.T) {
	c := New()
	c.Set("key", "value", -time.Second)

	if _, ok := c.Get("key"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestSetOverwrites(t *testing.T) {
	c := New()
	c.Set("key", 1, time.Minute)
	c.Set("key", 2, time.Minute)

	got, _ := c.Get("key")
	if got.(int) != 2 {
		t.Fatalf("got %v, want 2", got)
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New()
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("deleted entry should miss")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Fatal("cleared entry should miss")
	}
}

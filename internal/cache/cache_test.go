package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/geocoder89/todohub/internal/redisclient"
)

func TestCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := New(time.Minute)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set(ctx, "k", []byte("v"))
	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = %q,%v want v,true", got, ok)
	}

	c.Delete(ctx, "k", "other")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New(10 * time.Millisecond)

	c.Set(ctx, "k", []byte("v"))
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := New(0)

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	c.Clear()

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatalf("expected miss after Clear")
	}
}

func TestCache_Generation(t *testing.T) {
	ctx := context.Background()
	c := New(10 * time.Millisecond)

	if gen, ok := c.Generation(ctx, "g"); !ok || gen != 0 {
		t.Fatalf("Generation = %d,%v want 0,true", gen, ok)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := c.Bump(ctx, "g")
		if err != nil || got != want {
			t.Fatalf("Bump = %d,%v want %d", got, err, want)
		}
	}

	// counters outlive both the value ttl and Clear
	time.Sleep(25 * time.Millisecond)
	c.Clear()
	if gen, _ := c.Generation(ctx, "g"); gen != 3 {
		t.Fatalf("Generation after ttl and Clear = %d, want 3", gen)
	}
}

func newMiniRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redisclient.New(redisclient.Config{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniRedisStore(t, time.Minute)

	s.Set(ctx, "todos:list:v1:user=1", []byte(`{"ok":true}`))

	// keys are namespaced so replicas can share a redis with other apps
	if !mr.Exists("todohub:todos:list:v1:user=1") {
		t.Fatalf("expected prefixed key in redis, have %v", mr.Keys())
	}

	got, ok := s.Get(ctx, "todos:list:v1:user=1")
	if !ok || string(got) != `{"ok":true}` {
		t.Fatalf("Get = %q,%v", got, ok)
	}

	s.Delete(ctx, "todos:list:v1:user=1")
	if _, ok := s.Get(ctx, "todos:list:v1:user=1"); ok {
		t.Fatalf("expected miss after Delete")
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniRedisStore(t, 30*time.Second)

	s.Set(ctx, "k", []byte("v"))
	mr.FastForward(31 * time.Second)

	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after ttl")
	}
}

func TestRedisStore_Generation(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniRedisStore(t, 30*time.Second)

	if gen, ok := s.Generation(ctx, "todos:gen:v1:user=1"); !ok || gen != 0 {
		t.Fatalf("Generation = %d,%v want 0,true", gen, ok)
	}

	if gen, err := s.Bump(ctx, "todos:gen:v1:user=1"); err != nil || gen != 1 {
		t.Fatalf("Bump = %d,%v", gen, err)
	}
	if gen, err := s.Bump(ctx, "todos:gen:v1:user=1"); err != nil || gen != 2 {
		t.Fatalf("Bump = %d,%v", gen, err)
	}

	mr.FastForward(time.Hour)

	if gen, ok := s.Generation(ctx, "todos:gen:v1:user=1"); !ok || gen != 2 {
		t.Fatalf("Generation after an hour = %d,%v want 2,true", gen, ok)
	}
	if ttl := mr.TTL("todohub:todos:gen:v1:user=1"); ttl != 0 {
		t.Fatalf("generation key has ttl %v, want none", ttl)
	}
}

func TestRedisStore_BackendDownIsAMiss(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniRedisStore(t, time.Minute)

	s.Set(ctx, "k", []byte("v"))
	mr.Close()

	if _, ok := s.Get(ctx, "k"); ok {
		t.Fatalf("expected miss when redis is unreachable")
	}
	if _, ok := s.Generation(ctx, "g"); ok {
		t.Fatalf("Generation must report failure when redis is unreachable")
	}
	if _, err := s.Bump(ctx, "g"); err == nil {
		t.Fatalf("Bump must fail when redis is unreachable")
	}

	// must not panic or block
	s.Set(ctx, "k", []byte("v"))
	s.Delete(ctx, "k")
}

func TestRedisStore_RealServer(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redisclient.New(redisclient.Config{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	s := NewRedisStore(client, time.Minute)
	key := "test:roundtrip:" + time.Now().Format(time.RFC3339Nano)

	s.Set(ctx, key, []byte(`{"ok":true}`))
	got, ok := s.Get(ctx, key)
	if !ok || string(got) != `{"ok":true}` {
		t.Fatalf("Get = %q,%v", got, ok)
	}

	s.Delete(ctx, key)
	if _, ok := s.Get(ctx, key); ok {
		t.Fatalf("expected miss after Delete")
	}
}

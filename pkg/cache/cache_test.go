package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := c.Get(ctx, "k"); err != nil || ok {
		t.Errorf("Get = (_, %v, %v), want miss", ok, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestHash(t *testing.T) {
	a := Hash([]byte("abc"))
	if len(a) != 64 {
		t.Fatalf("len(Hash) = %d, want 64", len(a))
	}
	if a != Hash([]byte("abc")) {
		t.Error("Hash not deterministic")
	}
	if a == Hash([]byte("abd")) {
		t.Error("different inputs share a hash")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("store", "https://x/a"); got != "http:store:https://x/a" {
		t.Errorf("HTTPKey = %q", got)
	}

	m1 := k.MetadataKey("https://x/a.zarr", ".zattrs")
	m2 := k.MetadataKey("https://x/a.zarr", ".zarray")
	m3 := k.MetadataKey("https://x/b.zarr", ".zattrs")
	if !strings.HasPrefix(m1, "meta:") {
		t.Errorf("MetadataKey = %q, want meta: prefix", m1)
	}
	if m1 == m2 || m1 == m3 {
		t.Error("metadata keys collide")
	}
	if m1 != k.MetadataKey("https://x/a.zarr", ".zattrs") {
		t.Error("MetadataKey not deterministic")
	}

	base := ThumbnailKeyOpts{Size: 256, MaxSize: 1024}
	t1 := k.ThumbnailKey("https://x/a.zarr", base)
	if !strings.HasPrefix(t1, "thumb:") {
		t.Errorf("ThumbnailKey = %q, want thumb: prefix", t1)
	}
	variants := []ThumbnailKeyOpts{
		{Size: 128, MaxSize: 1024},
		{Size: 256, AutoBoost: true, MaxSize: 1024},
		{Size: 256, MaxSize: 2048},
	}
	for _, v := range variants {
		if k.ThumbnailKey("https://x/a.zarr", v) == t1 {
			t.Errorf("ThumbnailKey(%+v) collides with %+v", v, base)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	k := NewScopedKeyer(nil, "staging:")

	if got, want := k.HTTPKey("ns", "key"), "staging:"+inner.HTTPKey("ns", "key"); got != want {
		t.Errorf("HTTPKey = %q, want %q", got, want)
	}
	if got, want := k.MetadataKey("u", "zarr.json"), "staging:"+inner.MetadataKey("u", "zarr.json"); got != want {
		t.Errorf("MetadataKey = %q, want %q", got, want)
	}
	opts := ThumbnailKeyOpts{Size: 64}
	if got, want := k.ThumbnailKey("u", opts), "staging:"+inner.ThumbnailKey("u", opts); got != want {
		t.Errorf("ThumbnailKey = %q, want %q", got, want)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir = %q, want %q", c.Dir(), dir)
	}

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = (_, %v, %v)", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("hello"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(data) != "hello" {
		t.Fatalf("Get = (%q, %v, %v), want hello", data, ok, err)
	}

	n, size, err := c.Stats()
	if err != nil || n != 1 || size == 0 {
		t.Errorf("Stats = (%d, %d, %v), want one non-empty entry", n, size, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing): %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, err := c.Get(ctx, "k"); err != nil || ok {
		t.Errorf("expired Get = (_, %v, %v), want miss", ok, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Errorf("expired entry not removed: %v", err)
	}

	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "forever"); !ok {
		t.Error("zero ttl entry missing")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p := c.path("k")
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(ctx, "k"); err != nil || ok {
		t.Errorf("corrupt Get = (_, %v, %v), want miss", ok, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	n, _, err := c.Stats()
	if err != nil || n != 0 {
		t.Errorf("Stats after Clear = (%d, %v), want 0", n, err)
	}
	if err := c.Set(ctx, "d", []byte("d"), 0); err != nil {
		t.Errorf("Set after Clear: %v", err)
	}
}

func TestGetOrFetch(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("doc"), nil
	}

	for i := 0; i < 2; i++ {
		data, err := GetOrFetch(ctx, c, "metadata", "k", time.Hour, false, fetch)
		if err != nil || string(data) != "doc" {
			t.Fatalf("GetOrFetch #%d = (%q, %v)", i, data, err)
		}
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}

	if _, err := GetOrFetch(ctx, c, "metadata", "k", time.Hour, true, fetch); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("refresh did not refetch: calls = %d", calls)
	}

	boom := errors.New("boom")
	_, err = GetOrFetch(ctx, c, "metadata", "other", time.Hour, false, func() ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, err := Lookup(ctx, c, "other"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("failed fetch was cached: %v", err)
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Lookup(ctx, c, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Lookup(miss) err = %v, want ErrCacheMiss", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if data, err := Lookup(ctx, c, "k"); err != nil || string(data) != "v" {
		t.Errorf("Lookup = (%q, %v)", data, err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("ZARRLENS_TEST_REDIS")
	if addr == "" {
		t.Skip("ZARRLENS_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "zarrlens-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(data) != "v" {
		t.Errorf("Get = (%q, %v, %v)", data, ok, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry survived Delete")
	}
}

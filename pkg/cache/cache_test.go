package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/segraph/pkg/seggraph"
)

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	c := NewDisabled("--no-cache")
	defer c.Close()

	if err := c.Set(ctx, "leaf:abc", []byte("[0,2]"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "leaf:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Errorf("Get = %q, %v, want a miss", data, hit)
	}
	if err := c.Delete(ctx, "leaf:abc"); err != nil {
		t.Errorf("Delete error: %v", err)
	}

	if reason, ok := DisabledReason(c); !ok || reason != "--no-cache" {
		t.Errorf("DisabledReason = %q, %v, want --no-cache, true", reason, ok)
	}
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	if _, ok := DisabledReason(fc); ok {
		t.Error("DisabledReason should be false for a file cache")
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "leaf", []byte("[1,2]"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "leaf")
	if err != nil || !hit || string(data) != "[1,2]" {
		t.Fatalf("Get(leaf) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "leaf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "leaf"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "leaf"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiredAndCorrupt(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}

	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v, err %v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir still holds %d entries", len(entries))
	}
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "leaf"); hit || err != nil {
		t.Fatalf("Get before Set = hit %v, err %v", hit, err)
	}
	if err := c.Set(ctx, "leaf", []byte("[0]"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("segraph:leaf") {
		t.Error("key not stored under the segraph: prefix")
	}
	data, hit, err := c.Get(ctx, "leaf")
	if err != nil || !hit || string(data) != "[0]" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "leaf"); hit {
		t.Error("entry survived its TTL")
	}

	if err := c.Set(ctx, "other", []byte("1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, "other"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("segraph:other") {
		t.Error("entry survived Delete")
	}
}

func TestNewRedisCacheErrors(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	ctx := context.Background()
	if _, err := NewRedisCache(ctx, "http://localhost"); err == nil {
		t.Error("non-redis URL accepted")
	}

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisCache(ctx, "redis://"+addr); err == nil {
		t.Error("connected to a closed server")
	}
}

func TestFileCachePath(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	p := c.path("sample/NA12878:leaf:abc")
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		t.Fatalf("Rel error: %v", err)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 62+len(".json") {
		t.Errorf("path = %s, want <2 hex>/<62 hex>.json under the cache dir", rel)
	}
	if c.path("sample/NA12878:leaf:abc") != p {
		t.Error("path should be deterministic")
	}
	if c.path("leaf:abc") == p {
		t.Error("different keys should map to different files")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	edges := []seggraph.Edge{
		{Ind1: 0, Ind2: 1, Head2: true, Weight: 5},
		{Ind1: 1, Ind2: 2, Head2: true, Weight: 3, Provenance: seggraph.ProvenanceChimeric},
	}
	opts := LeafKeyOpts{ChimericFactor: 1}

	base := k.LeafKey([]int{0, 1, 2}, edges, opts)
	if !strings.HasPrefix(base, "leaf:") {
		t.Errorf("LeafKey = %s, want leaf: prefix", base)
	}
	if got := k.LeafKey([]int{2, 0, 1}, edges, opts); got != base {
		t.Error("node order should not change the key")
	}

	heavier := append([]seggraph.Edge(nil), edges...)
	heavier[0].Weight = 6
	swapped := []seggraph.Edge{edges[1], edges[0]}
	variants := map[string]string{
		"weight":    k.LeafKey([]int{0, 1, 2}, heavier, opts),
		"edge":      k.LeafKey([]int{0, 1, 2}, edges[:1], opts),
		"order":     k.LeafKey([]int{0, 1, 2}, swapped, opts),
		"nodes":     k.LeafKey([]int{0, 1, 2, 3}, edges, opts),
		"factor":    k.LeafKey([]int{0, 1, 2}, edges, LeafKeyOpts{ChimericFactor: 2}),
		"mandatory": k.LeafKey([]int{0, 1, 2}, edges, LeafKeyOpts{ChimericFactor: 1, MandatoryWeight: 4}),
	}
	for name, key := range variants {
		if key == base {
			t.Errorf("changing %s should change the key", name)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "sample:1:")
	key := scoped.LeafKey([]int{0}, nil, LeafKeyOpts{})
	if !strings.HasPrefix(key, "sample:1:leaf:") {
		t.Errorf("ScopedKeyer key should be prefixed: %s", key)
	}

	// Should use DefaultKeyer when inner is nil
	if got := NewScopedKeyer(nil, "sample:1:").LeafKey([]int{0}, nil, LeafKeyOpts{}); got != key {
		t.Errorf("nil inner: %s, want %s", got, key)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("first try: err %v, calls %d", err, calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return os.ErrNotExist
	})
	if err != os.ErrNotExist || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err %v, calls %d", err, calls)
	}

	// Gives up after three attempts
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

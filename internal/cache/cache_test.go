package cache

import (
	"testing"
	"time"

	"github.com/devchat-app/aidebug/internal/model"
)

func reportWith(title string) *model.Report {
	r := model.NewReport("javascript")
	r.Issues = append(r.Issues, model.Issue{Severity: model.SeverityInfo, Title: title, Location: "Line 1"})
	return r
}

func TestLRUCache(t *testing.T) {
	cache := NewLRUCache(2, time.Hour)

	if err := cache.Set("key1", reportWith("Use of var keyword")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, found, err := cache.Get("key1")
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v, want found", got, err)
	}
	if !got.HasIssue("Use of var keyword") {
		t.Errorf("Issues = %v, want Use of var keyword", got.Issues)
	}

	_, found, err = cache.Get("nonexistent")
	if err != nil {
		t.Errorf("Get(nonexistent) error = %v", err)
	}
	if found {
		t.Error("Get(nonexistent) found, want miss")
	}
}

func TestLRUEviction(t *testing.T) {
	cache := NewLRUCache(2, time.Hour)

	_ = cache.Set("key1", reportWith("1"))
	_ = cache.Set("key2", reportWith("2"))
	_, _, _ = cache.Get("key1") // key2 becomes least recently used
	_ = cache.Set("key3", reportWith("3"))

	if _, found, _ := cache.Get("key2"); found {
		t.Error("key2 should be evicted")
	}
	if _, found, _ := cache.Get("key1"); !found {
		t.Error("key1 should exist")
	}
}

func TestLRUExpiration(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewLRUCache(10, time.Minute)
	cache.now = func() time.Time { return now }

	_ = cache.Set("key1", reportWith("test"))
	now = now.Add(59 * time.Second)
	if _, found, _ := cache.Get("key1"); !found {
		t.Fatal("key1 should still be fresh")
	}

	now = now.Add(2 * time.Second)
	if _, found, _ := cache.Get("key1"); found {
		t.Error("key1 should be expired")
	}
	if got := cache.Stats().Entries; got != 0 {
		t.Errorf("Entries = %d, want expired entry dropped", got)
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	cache := NewLRUCache(10, 0)
	_ = cache.Set("key1", reportWith("test"))
	time.Sleep(5 * time.Millisecond)

	if _, found, _ := cache.Get("key1"); !found {
		t.Error("key1 should not expire without a TTL")
	}
}

func TestLRUClear(t *testing.T) {
	cache := NewLRUCache(10, time.Hour)
	_ = cache.Set("key1", reportWith("1"))
	_ = cache.Set("key2", reportWith("2"))

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if got := cache.Stats().Entries; got != 0 {
		t.Errorf("Entries = %d, want 0", got)
	}
}

func TestLRUStats(t *testing.T) {
	cache := NewLRUCache(10, time.Hour)
	_ = cache.Set("key1", reportWith("1"))

	cache.Get("key1")
	cache.Get("key1")
	cache.Get("missing")

	stats := cache.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, 1 entry", stats)
	}
	if rate := stats.HitRate(); rate < 66 || rate > 67 {
		t.Errorf("HitRate() = %v, want ~66.7", rate)
	}
}

func TestBadgerCache(t *testing.T) {
	cache, err := NewBadgerCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewBadgerCache() error = %v", err)
	}
	defer cache.Close()

	fixed := "let x = 1;"
	want := reportWith("Use of var keyword")
	want.FixedCode = &fixed

	if err := cache.Set("key1", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, found, err := cache.Get("key1")
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v, %v", got, found, err)
	}
	if got.FixedCode == nil || *got.FixedCode != fixed {
		t.Errorf("FixedCode = %v, want %q", got.FixedCode, fixed)
	}
	if got.Language != "javascript" || !got.HasIssue("Use of var keyword") {
		t.Errorf("Get() = %+v, want stored report", got)
	}

	if _, found, _ := cache.Get("missing"); found {
		t.Error("Get(missing) found, want miss")
	}

	stats := cache.Stats()
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v", stats)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, found, _ := cache.Get("key1"); found {
		t.Error("key1 should be gone after Clear()")
	}
}

func TestBadgerCacheInMemory(t *testing.T) {
	cache, err := NewBadgerCache("", 0)
	if err != nil {
		t.Fatalf("NewBadgerCache() error = %v", err)
	}
	defer cache.Close()

	_ = cache.Set("k", reportWith("x"))
	if _, found, _ := cache.Get("k"); !found {
		t.Error("in-memory badger cache lost entry")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{"memory", false},
		{"badger", false},
		{"redis", true},
	}

	for _, tt := range tests {
		c, err := New(Options{Backend: tt.backend, Dir: t.TempDir(), MaxEntries: 5, TTL: time.Minute})
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			continue
		}
		if c != nil {
			_ = c.Close()
		}
	}
}

func TestComputeKey(t *testing.T) {
	k1 := ComputeKey("fp1", "javascript", "var x = 1;")
	k2 := ComputeKey("fp1", "javascript", "var x = 1;")
	k3 := ComputeKey("fp1", "python", "var x = 1;")
	k4 := ComputeKey("fp1", "javascrip", "tvar x = 1;")
	k5 := ComputeKey("fp2", "javascript", "var x = 1;")

	if k1 != k2 {
		t.Error("same input should produce same key")
	}
	if k1 == k3 {
		t.Error("different language should produce different key")
	}
	if k1 == k4 {
		t.Error("language and code boundary must be unambiguous")
	}
	if k1 == k5 {
		t.Error("different catalog fingerprint should produce different key")
	}
	if len(k1) != 64 {
		t.Errorf("key length = %d, want 64", len(k1))
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestBadger(t *testing.T) *BadgerEngine {
	t.Helper()

	cfg := DefaultKVConfig(t.TempDir())
	cfg.Badger.GCInterval = 0 // Disable auto GC for tests
	cfg.Badger.SyncWrites = false

	engine, err := NewBadgerEngine(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestBadgerEngine_BasicOperations(t *testing.T) {
	engine := newTestBadger(t)
	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		key := []byte("test-key")
		value := []byte("test-value")

		if err := engine.Set(ctx, key, value); err != nil {
			t.Fatal(err)
		}

		got, err := engine.Get(ctx, key)
		if err != nil {
			t.Fatal(err)
		}

		if string(got) != string(value) {
			t.Errorf("expected %s, got %s", value, got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		_, err := engine.Get(ctx, []byte("non-existent"))
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		key := []byte("delete-key")

		if err := engine.Set(ctx, key, []byte("delete-value")); err != nil {
			t.Fatal(err)
		}
		if err := engine.Delete(ctx, key); err != nil {
			t.Fatal(err)
		}

		_, err := engine.Get(ctx, key)
		if !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
		}
	})

	t.Run("Delete missing key", func(t *testing.T) {
		if err := engine.Delete(ctx, []byte("never-set")); err != nil {
			t.Errorf("Delete() error = %v", err)
		}
	})

	t.Run("Empty key", func(t *testing.T) {
		if err := engine.Set(ctx, nil, []byte("v")); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("Set(nil) error = %v, want ErrEmptyKey", err)
		}
	})

	t.Run("Returned value is a copy", func(t *testing.T) {
		key := []byte("copy-key")
		if err := engine.Set(ctx, key, []byte("abc")); err != nil {
			t.Fatal(err)
		}
		got, _ := engine.Get(ctx, key)
		got[0] = 'z'
		again, _ := engine.Get(ctx, key)
		if string(again) != "abc" {
			t.Errorf("stored value mutated: %s", again)
		}
	})
}

func TestBadgerEngine_Scan(t *testing.T) {
	engine := newTestBadger(t)
	ctx := context.Background()

	for _, k := range []string{"game1/b", "game1/a", "game2/a", "other"} {
		if err := engine.Set(ctx, []byte(k), []byte("v-"+k)); err != nil {
			t.Fatal(err)
		}
	}

	var keys []string
	err := engine.Scan(ctx, []byte("game1/"), func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(keys) != 2 || keys[0] != "game1/a" || keys[1] != "game1/b" {
		t.Errorf("Scan() keys = %v, want [game1/a game1/b]", keys)
	}

	t.Run("Early stop", func(t *testing.T) {
		count := 0
		err := engine.Scan(ctx, nil, func(key, value []byte) bool {
			count++
			return count < 2
		})
		if err != nil {
			t.Fatal(err)
		}
		if count != 2 {
			t.Errorf("expected 2 callbacks, got %d", count)
		}
	})
}

func TestBadgerEngine_Apply(t *testing.T) {
	engine := newTestBadger(t)
	ctx := context.Background()

	if err := engine.Set(ctx, []byte("gone"), []byte("x")); err != nil {
		t.Fatal(err)
	}

	err := engine.Apply(ctx, []Mutation{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("gone"), Delete: true},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	for k, want := range map[string]string{"a": "1", "b": "2"} {
		got, err := engine.Get(ctx, []byte(k))
		if err != nil || string(got) != want {
			t.Errorf("Get(%s) = %s, %v; want %s", k, got, err, want)
		}
	}
	if _, err := engine.Get(ctx, []byte("gone")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get(gone) error = %v, want ErrKeyNotFound", err)
	}

	t.Run("Rejects whole batch on empty key", func(t *testing.T) {
		err := engine.Apply(ctx, []Mutation{
			{Key: []byte("c"), Value: []byte("3")},
			{Key: nil, Value: []byte("4")},
		})
		if !errors.Is(err, ErrEmptyKey) {
			t.Fatalf("Apply() error = %v, want ErrEmptyKey", err)
		}
		if _, err := engine.Get(ctx, []byte("c")); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("partial batch applied: %v", err)
		}
	})
}

func TestBadgerEngine_GC(t *testing.T) {
	engine := newTestBadger(t)
	ctx := context.Background()

	// Insert and delete data to create garbage
	for i := 0; i < 100; i++ {
		if err := engine.Set(ctx, []byte(fmt.Sprintf("k%03d", i)), make([]byte, 1000)); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 50; i++ {
		if err := engine.Delete(ctx, []byte(fmt.Sprintf("k%03d", i))); err != nil {
			t.Fatal(err)
		}
	}

	reclaimed, err := engine.GC(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("GC reclaimed ~%d bytes", reclaimed)

	stats, err := engine.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.LastGCTime == 0 {
		t.Error("LastGCTime not recorded")
	}
}

func TestBadgerEngine_Stats(t *testing.T) {
	ctx := context.Background()
	engine := newTestBadger(t)

	for i := 0; i < 3; i++ {
		if err := engine.Set(ctx, []byte(fmt.Sprintf("key%d", i)), []byte("v")); err != nil {
			t.Fatal(err)
		}
	}
	if err := engine.Delete(ctx, []byte("key1")); err != nil {
		t.Fatal(err)
	}

	stats, err := engine.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Engine != "badger" {
		t.Errorf("Engine = %q, want badger", stats.Engine)
	}
	if stats.TotalKeys != 2 {
		t.Errorf("TotalKeys = %d, want 2", stats.TotalKeys)
	}
	// Badger Size() may return 0 before the first flush.
	t.Logf("Stats: TotalSize=%d, LSMSize=%d, ValueLogSize=%d",
		stats.TotalSize, stats.LSMSize, stats.ValueLogSize)
}

func TestBadgerEngine_InMemory(t *testing.T) {
	cfg := DefaultKVConfig("")
	cfg.Badger.InMemory = true
	cfg.Badger.GCInterval = time.Hour

	engine, err := NewBadgerEngine(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	ctx := context.Background()
	if err := engine.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if got, err := engine.Get(ctx, []byte("k")); err != nil || string(got) != "v" {
		t.Errorf("Get() = %s, %v", got, err)
	}
	if n, err := engine.GC(ctx); err != nil || n != 0 {
		t.Errorf("GC() = %d, %v; want 0, nil", n, err)
	}
}

func TestBadgerEngine_RequiresDir(t *testing.T) {
	if _, err := NewBadgerEngine(DefaultKVConfig(""), nil); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestBadgerEngine_Close(t *testing.T) {
	cfg := DefaultKVConfig(t.TempDir())
	engine, err := NewBadgerEngine(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	ctx := context.Background()
	if _, err := engine.Get(ctx, []byte("k")); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after close error = %v, want ErrClosed", err)
	}
	if err := engine.Set(ctx, []byte("k"), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() after close error = %v, want ErrClosed", err)
	}
}

func TestBadgerEngine_RegisterMetrics(t *testing.T) {
	engine := newTestBadger(t)
	reg := prometheus.NewRegistry()

	if err := engine.RegisterMetrics(reg); err != nil {
		t.Fatalf("RegisterMetrics() error = %v", err)
	}

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("gathered %d metrics, want 5", n)
	}

	if err := engine.RegisterMetrics(reg); err == nil {
		t.Error("registering twice should fail")
	}
}

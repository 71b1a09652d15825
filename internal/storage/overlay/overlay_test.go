package overlay

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/yndnr/composable-go/internal/storage"
	"github.com/yndnr/composable-go/internal/storage/memory"
)

func seeded(t *testing.T, kv ...string) *memory.Store {
	t.Helper()
	s := memory.New()
	for i := 0; i+1 < len(kv); i += 2 {
		if err := s.Set(context.Background(), []byte(kv[i]), []byte(kv[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestOverlay_ReadsSeeBufferedWrites(t *testing.T) {
	base := seeded(t, "a", "1", "b", "2")
	o := New(base)
	ctx := context.Background()

	_ = o.Set(ctx, []byte("a"), []byte("10"))
	_ = o.Delete(ctx, []byte("b"))
	_ = o.Set(ctx, []byte("c"), []byte("3"))

	tests := []struct {
		key     string
		want    string
		missing bool
	}{
		{"a", "10", false},
		{"b", "", true},
		{"c", "3", false},
		{"d", "", true},
	}
	for _, tt := range tests {
		got, err := o.Get(ctx, []byte(tt.key))
		if tt.missing {
			if !errors.Is(err, storage.ErrKeyNotFound) {
				t.Errorf("Get(%s) error = %v, want ErrKeyNotFound", tt.key, err)
			}
			continue
		}
		if err != nil || string(got) != tt.want {
			t.Errorf("Get(%s) = %q, %v; want %q", tt.key, got, err, tt.want)
		}
	}

	// Backing store untouched.
	if got, _ := base.Get(ctx, []byte("a")); string(got) != "1" {
		t.Errorf("base a = %q, want 1", got)
	}
	if base.Len() != 2 {
		t.Errorf("base Len() = %d, want 2", base.Len())
	}
}

func TestOverlay_ScanMerges(t *testing.T) {
	o := New(seeded(t, "p/a", "1", "p/b", "2", "q", "x"))
	ctx := context.Background()

	_ = o.Delete(ctx, []byte("p/a"))
	_ = o.Set(ctx, []byte("p/c"), []byte("3"))
	_ = o.Set(ctx, []byte("p/b"), []byte("20"))

	var got []string
	err := o.Scan(ctx, []byte("p/"), func(key, value []byte) bool {
		got = append(got, fmt.Sprintf("%s=%s", key, value))
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "[p/b=20 p/c=3]"
	if fmt.Sprint(got) != want {
		t.Errorf("Scan() = %v, want %s", got, want)
	}
}

func TestOverlay_Commit(t *testing.T) {
	base := seeded(t, "a", "1", "b", "2")
	o := New(base)
	ctx := context.Background()

	_ = o.Set(ctx, []byte("a"), []byte("10"))
	_ = o.Delete(ctx, []byte("b"))

	muts := o.Mutations()
	if len(muts) != 2 || string(muts[0].Key) != "a" || !muts[1].Delete {
		t.Errorf("Mutations() = %+v", muts)
	}

	if err := o.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got, _ := base.Get(ctx, []byte("a")); string(got) != "10" {
		t.Errorf("base a = %q, want 10", got)
	}
	if _, err := base.Get(ctx, []byte("b")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("base b error = %v, want ErrKeyNotFound", err)
	}

	if err := o.Commit(ctx); !errors.Is(err, ErrFinished) {
		t.Errorf("second Commit() error = %v, want ErrFinished", err)
	}
	if err := o.Set(ctx, []byte("z"), nil); !errors.Is(err, ErrFinished) {
		t.Errorf("Set() after commit error = %v, want ErrFinished", err)
	}
}

func TestOverlay_Discard(t *testing.T) {
	base := seeded(t, "a", "1")
	o := New(base)
	ctx := context.Background()

	_ = o.Set(ctx, []byte("a"), []byte("2"))
	if o.Len() != 1 {
		t.Errorf("Len() = %d, want 1", o.Len())
	}
	o.Discard()

	if got, _ := base.Get(ctx, []byte("a")); string(got) != "1" {
		t.Errorf("base a = %q after discard", got)
	}
	if _, err := o.Get(ctx, []byte("a")); !errors.Is(err, ErrFinished) {
		t.Errorf("Get() after discard error = %v, want ErrFinished", err)
	}
}

func TestOverlay_EmptyKey(t *testing.T) {
	o := New(memory.New())
	if err := o.Set(context.Background(), nil, []byte("v")); !errors.Is(err, storage.ErrEmptyKey) {
		t.Errorf("Set() error = %v, want ErrEmptyKey", err)
	}
}

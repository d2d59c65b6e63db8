package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("get missing: found=%v err=%v", found, err)
	}

	if err := store.Set(ctx, "k", []byte(`{"a":1}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, found, err := store.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(value) != `{"a":1}` {
		t.Errorf("value = %q", value)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found, err := store.Get(ctx, "k"); err != nil || found {
		t.Fatalf("expired entry served: found=%v err=%v", found, err)
	}
}

func TestMemoryStoreBulkDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, key, []byte(key), time.Minute); err != nil {
			t.Fatalf("set %q: %v", key, err)
		}
	}

	if err := store.Delete(ctx, "a", "b", "never-existed"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, key := range []string{"a", "b"} {
		if _, found, _ := store.Get(ctx, key); found {
			t.Errorf("key %q survived delete", key)
		}
	}
	if _, found, _ := store.Get(ctx, "c"); !found {
		t.Error("unrelated key dropped by delete")
	}
}

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/relay/adapters/memory"
	"github.com/artpar/relay/domain/cache"
	"github.com/artpar/relay/domain/queue"
)

func TestCacheStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCacheStore()

	if _, found, _ := store.Get(ctx, "sig"); found {
		t.Error("Get() found entry in empty store")
	}

	entry := cache.Entry{
		Signature: "sig",
		Payload:   []byte(`{"ok":true}`),
		StoredAt:  time.Now(),
		TTL:       time.Minute,
	}
	if err := store.Set(ctx, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, found, err := store.Get(ctx, "sig")
	if err != nil || !found {
		t.Fatalf("Get() = found %v, err %v; want found", found, err)
	}
	if string(got.Payload) != `{"ok":true}` {
		t.Errorf("payload = %s, want stored payload", got.Payload)
	}

	if err := store.Delete(ctx, "sig"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := store.Get(ctx, "sig"); found {
		t.Error("Get() found entry after Delete")
	}
}

func TestCacheStore_SetReplaces(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCacheStore()

	store.Set(ctx, cache.Entry{Signature: "sig", Payload: []byte("v1")})
	store.Set(ctx, cache.Entry{Signature: "sig", Payload: []byte("v2")})

	got, _, _ := store.Get(ctx, "sig")
	if string(got.Payload) != "v2" {
		t.Errorf("payload = %s, want v2", got.Payload)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestQueueStore_FIFOOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQueueStore()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Enqueue(ctx, queue.Entry{ID: id, Contract: "X.Y"}); err != nil {
			t.Fatalf("Enqueue(%s) error = %v", id, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}
	for i, want := range []string{"a", "b", "c"} {
		if entries[i].ID != want {
			t.Errorf("entries[%d].ID = %s, want %s", i, entries[i].ID, want)
		}
	}
}

func TestQueueStore_RemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQueueStore()

	for _, id := range []string{"a", "b", "c"} {
		store.Enqueue(ctx, queue.Entry{ID: id})
	}
	if err := store.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	entries, _ := store.List(ctx)
	if len(entries) != 2 || entries[0].ID != "a" || entries[1].ID != "c" {
		t.Errorf("entries after remove = %v, want [a c]", entries)
	}

	if err := store.Remove(ctx, "missing"); err == nil {
		t.Error("Remove(missing) = nil error, want not found")
	}
}

func TestQueueStore_TouchIncrementsAttempts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQueueStore()

	store.Enqueue(ctx, queue.Entry{ID: "a"})
	store.Touch(ctx, "a")
	store.Touch(ctx, "a")

	entries, _ := store.List(ctx)
	if entries[0].Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", entries[0].Attempts)
	}

	if err := store.Touch(ctx, "missing"); err == nil {
		t.Error("Touch(missing) = nil error, want not found")
	}
}

func TestStores_Clear(t *testing.T) {
	ctx := context.Background()

	cs := memory.NewCacheStore()
	cs.Set(ctx, cache.Entry{Signature: "sig", Payload: []byte("{}")})
	cs.Clear()
	if cs.Len() != 0 {
		t.Errorf("cache store holds %d entries after Clear(), want 0", cs.Len())
	}

	qs := memory.NewQueueStore()
	qs.Enqueue(ctx, queue.Entry{ID: "a"})
	qs.Clear()
	if qs.Len() != 0 {
		t.Errorf("queue store holds %d entries after Clear(), want 0", qs.Len())
	}
}

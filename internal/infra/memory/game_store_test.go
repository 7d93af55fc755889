package memory

import "testing"

func TestGameStoreLifecycle(t *testing.T) {
	store := NewGameStore()

	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected no game initially")
	}

	store.Put("u1", nil)
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("expected game present after put")
	}

	store.Delete("u1")
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected game removed")
	}
}

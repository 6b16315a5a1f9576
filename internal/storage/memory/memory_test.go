package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmynk/splitchat/internal/session"
	"github.com/mmynk/splitchat/internal/storage"
)

func TestStore(t *testing.T) {
	store := New(time.Hour)
	defer store.Close()
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		s := session.New("abc", nil)
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		got, err := store.Get(ctx, "abc")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != s {
			t.Error("Expected the stored session to be returned")
		}
	})

	t.Run("Create rejects duplicate ID", func(t *testing.T) {
		err := store.Create(ctx, session.New("abc", nil))
		if !errors.Is(err, storage.ErrExists) {
			t.Errorf("Expected ErrExists, got %v", err)
		}
	})

	t.Run("Create rejects missing ID", func(t *testing.T) {
		if err := store.Create(ctx, session.New("", nil)); err == nil {
			t.Error("Expected error for empty ID")
		}
	})

	t.Run("Get unknown ID", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "abc"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "abc"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "abc"); err != nil {
			t.Errorf("Deleting twice should not fail: %v", err)
		}
	})
}

func TestStore_Sweep(t *testing.T) {
	store := New(time.Minute)
	ctx := context.Background()

	idle := session.New("idle", nil)
	busy := session.New("busy", nil)
	for _, s := range []*session.Session{idle, busy} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	ticket, _, err := busy.Flight().Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer busy.Flight().Finish(ticket, nil)

	removed, err := store.Sweep(ctx, time.Now())
	if err != nil || removed != 0 {
		t.Fatalf("Sweep() = %d, %v; want nothing removed yet", removed, err)
	}

	removed, err = store.Sweep(ctx, time.Now().Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 session removed, got %d", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Expected busy session to survive, have %d sessions", store.Len())
	}
	if _, err := store.Get(ctx, "busy"); err != nil {
		t.Errorf("Busy session should remain: %v", err)
	}
}

func TestStore_GetKeepsSessionAlive(t *testing.T) {
	store := New(time.Minute)
	ctx := context.Background()
	if err := store.Create(ctx, session.New("polled", nil)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	base := time.Now()
	store.now = func() time.Time { return base.Add(50 * time.Second) }
	if _, err := store.Get(ctx, "polled"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	removed, err := store.Sweep(ctx, base.Add(100*time.Second))
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected polled session to survive, %d removed", removed)
	}

	removed, _ = store.Sweep(ctx, base.Add(3*time.Minute))
	if removed != 1 {
		t.Errorf("Expected session to expire once polling stops, %d removed", removed)
	}
}

func TestStore_NoTTL(t *testing.T) {
	store := New(0)
	ctx := context.Background()
	if err := store.Create(ctx, session.New("s", nil)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	removed, _ := store.Sweep(ctx, time.Now().Add(24*time.Hour))
	if removed != 0 {
		t.Errorf("Expected no eviction without TTL, got %d", removed)
	}
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/motmystere/internal/game"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time { return c.t }

func TestMemoryStoreSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	r := game.New("r1", game.Options{})

	if err := st.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Get(ctx, "r1")
	if err != nil || got != r {
		t.Fatalf("Get = %v, %v; want saved round", got, err)
	}
	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
	if err := st.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := st.Delete(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStorePrune(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	old := game.New("old", game.Options{Clock: &stepClock{t: base}})
	fresh := game.New("fresh", game.Options{Clock: &stepClock{t: base.Add(time.Hour)}})
	_ = st.Save(ctx, old)
	_ = st.Save(ctx, fresh)

	if n := st.Prune(ctx, base.Add(30*time.Minute)); n != 1 {
		t.Fatalf("Prune = %d, want 1", n)
	}
	if _, err := st.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Error("old round survived prune")
	}
	if _, err := st.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh round pruned: %v", err)
	}
}

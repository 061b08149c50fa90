package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// GuestStore keeps a guest's history and stats under device-scoped keys.
type GuestStore struct {
	kv KV
	mu sync.Mutex // one read-modify-write at a time
}

func NewGuestStore(kv KV) *GuestStore { return &GuestStore{kv: kv} }

func historyKey(device string) string { return "progress:" + device + ":history" }
func statsKey(device string) string   { return "progress:" + device + ":stats" }

// Append adds rec to the device history and rewrites the stats from it.
func (g *GuestStore) Append(ctx context.Context, device string, rec Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	history, err := g.history(ctx, device)
	if err != nil {
		return err
	}
	history = append(history, rec)

	hb, err := json.Marshal(history)
	if err != nil {
		return err
	}
	if err := g.kv.Set(ctx, historyKey(device), hb); err != nil {
		return fmt.Errorf("save guest history: %w", err)
	}
	sb, err := json.Marshal(Recompute(history))
	if err != nil {
		return err
	}
	if err := g.kv.Set(ctx, statsKey(device), sb); err != nil {
		return fmt.Errorf("save guest stats: %w", err)
	}
	return nil
}

// Stats returns the stored aggregates, or false when the device has none.
func (g *GuestStore) Stats(ctx context.Context, device string) (Stats, bool, error) {
	b, ok, err := g.kv.Get(ctx, statsKey(device))
	if err != nil || !ok {
		return Stats{}, false, err
	}
	var s Stats
	if err := json.Unmarshal(b, &s); err != nil {
		return Stats{}, false, fmt.Errorf("decode guest stats: %w", err)
	}
	return s, true, nil
}

// History returns the device's records, oldest first.
func (g *GuestStore) History(ctx context.Context, device string) ([]Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history(ctx, device)
}

// Clear forgets everything recorded for the device.
func (g *GuestStore) Clear(ctx context.Context, device string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.kv.Clear(ctx, historyKey(device)); err != nil {
		return err
	}
	return g.kv.Clear(ctx, statsKey(device))
}

func (g *GuestStore) history(ctx context.Context, device string) ([]Record, error) {
	b, ok, err := g.kv.Get(ctx, historyKey(device))
	if err != nil {
		return nil, fmt.Errorf("load guest history: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var out []Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode guest history: %w", err)
	}
	return out, nil
}

// internal/store/memory.go
//
// In-memory registry of live rounds.
// Rounds are never persisted mid-play; only their terminal outcome reaches
// the progress store. This registry just lets HTTP requests find the round
// that belongs to a session.
//
// Characteristics:
//   - Stores *game.Round keyed by round ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Idle rounds are pruned (and their clocks stopped) by Prune.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/motmystere/internal/game"
)

// ErrNotFound is returned by Get for unknown round ids.
var ErrNotFound = errors.New("round not found")

// Store defines the registry interface for live rounds.
type Store interface {
	// Save adds or replaces a round.
	Save(ctx context.Context, r *game.Round) error

	// Get retrieves a round by ID.
	Get(ctx context.Context, id string) (*game.Round, error)

	// Delete removes a round and stops its clock.
	Delete(ctx context.Context, id string) error

	// Prune drops rounds idle since before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu     sync.RWMutex
	rounds map[string]*game.Round
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{rounds: make(map[string]*game.Round)}
}

func (m *memory) Save(ctx context.Context, r *game.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[r.ID()] = r
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rounds[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	r, ok := m.rounds[id]
	delete(m.rounds, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	r.Close()
	return nil
}

func (m *memory) Prune(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	var stale []*game.Round
	for id, r := range m.rounds {
		if r.LastActive().Before(cutoff) {
			stale = append(stale, r)
			delete(m.rounds, id)
		}
	}
	m.mu.Unlock()
	for _, r := range stale {
		r.Close()
	}
	return len(stale)
}

package progress

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/motmystere/internal/database"
)

// KV is the device-local key/value port backing guest progress.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}

// MemoryKV keeps values in a map. Used in tests and when no database is configured.
type MemoryKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryKV() *MemoryKV { return &MemoryKV{m: make(map[string][]byte)} }

func (k *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (k *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.m[key] = append([]byte(nil), value...)
	return nil
}

func (k *MemoryKV) Clear(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.m, key)
	return nil
}

// SQLKV stores guest values in the guest_kv table.
type SQLKV struct {
	db  *database.DB
	now func() time.Time
}

func NewSQLKV(db *database.DB) *SQLKV { return &SQLKV{db: db, now: time.Now} }

func (k *SQLKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v string
	err := k.db.QueryRowContext(ctx, `SELECT v FROM guest_kv WHERE k=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (k *SQLKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := k.db.ExecContext(ctx, k.db.Dialect.UpsertKVQuery(), key, string(value), formatTime(k.now()))
	return err
}

func (k *SQLKV) Clear(ctx context.Context, key string) error {
	_, err := k.db.ExecContext(ctx, `DELETE FROM guest_kv WHERE k=?`, key)
	return err
}

package revokedtokens

import (
	"context"
	"sync"
	"time"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]time.Time)}
}

func (r *MemoryRepository) Create(_ context.Context, jti string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[jti]; !ok {
		r.entries[jti] = expiresAt
	}
	return nil
}

func (r *MemoryRepository) Exists(_ context.Context, jti string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[jti]
	return ok, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for jti, exp := range r.entries {
		if !exp.After(now) {
			delete(r.entries, jti)
			n++
		}
	}
	return n, nil
}

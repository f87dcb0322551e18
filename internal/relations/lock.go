package relations

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Locker serializes work per remote identifier.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// advisoryLocker holds a session level Postgres advisory lock on one pooled
// connection for the duration of fn.
type advisoryLocker struct {
	db *gorm.DB
}

func (l *advisoryLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	return l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(hashtext(?))", key).Error; err != nil {
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		defer conn.Exec("SELECT pg_advisory_unlock(hashtext(?))", key)
		return fn()
	})
}

// keyedMutex is the single process fallback used with SQLite.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*refMutex{}}
}

func (k *keyedMutex) WithLock(ctx context.Context, key string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	defer func() {
		m.Unlock()
		k.mu.Lock()
		if m.refs--; m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}()

	return fn()
}

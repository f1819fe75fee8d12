package lock

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/internal/apperror"
)

// KeyedMutex is an in-process Locker with one mutex per key. Entries are removed
// when nobody holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	wait    time.Duration
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex returns a KeyedMutex whose Acquire gives up after wait. A zero wait
// means only the context bounds the attempt.
func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry), wait: wait}
}

func (k *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	var timeout <-chan time.Time
	if k.wait > 0 {
		timer := time.NewTimer(k.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.unref(key, e)
		return nil, apperror.Wrap(apperror.Conflict, ctx.Err(), "lock wait abandoned")
	case <-timeout:
		k.unref(key, e)
		return nil, apperror.New(apperror.Conflict, "timed out waiting for %s", key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.unref(key, e)
		})
	}, nil
}

func (k *KeyedMutex) unref(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

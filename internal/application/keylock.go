package application

import "sync"

// keyLocks hands out one mutex per cache key so two concurrent syncs for the
// same (provider, base) cannot double-fetch or race a merge against an
// eviction, while unrelated keys never block each other. Locks are created
// lazily and live for the process lifetime; the key space (providers x base
// currencies) is small.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: map[string]*sync.Mutex{}}
}

func (k *keyLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	return l
}

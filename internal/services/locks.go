package services

import "sync"

// keyedLocks hands out one mutex per entity key so read-modify-write
// sequences (balance computation, repayment validation) are serialized
// per business or per loan without a global lock. Entries are never
// evicted; the key space is bounded by the number of entities.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok := k.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	k.locks[key] = l
	return l
}

// Lock acquires the mutex for key and returns its unlock func.
func (k *keyedLocks) Lock(key string) func() {
	l := k.get(key)
	l.Lock()
	return l.Unlock
}

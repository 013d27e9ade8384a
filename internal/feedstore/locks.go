package feedstore

import "sync"

// keyedMutex serializes operations that target the same logical key (a period
// key, a natural dedup key, or a record id). SQLite transactions already
// serialize writes at the database level; the keyed mutex guarantees the
// read-modify-write sequences of this package never interleave for one key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// lock acquires the mutex for key and returns the matching unlock function.
// Lock entries are reference counted and removed when the last holder releases,
// so the map does not grow with the number of distinct keys seen.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

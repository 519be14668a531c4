package session

import "sync"

// Locks is the in-process single-flight guard. A held key is refused,
// never queued.
type Locks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocks() *Locks {
	return &Locks{held: make(map[string]struct{})}
}

// TryAcquire takes key and reports whether it was free.
func (l *Locks) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *Locks) Release(key string) {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
}

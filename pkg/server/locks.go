package server

import "sync"

// layoutLocks hands out one mutex per layout name.
type layoutLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLayoutLocks() *layoutLocks {
	return &layoutLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for layout and returns its unlock function.
func (l *layoutLocks) lock(layout string) func() {
	l.mu.Lock()
	m, ok := l.locks[layout]
	if !ok {
		m = &sync.Mutex{}
		l.locks[layout] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

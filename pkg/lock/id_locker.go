package lock

import (
	"sync"

	"github.com/apex/log"
)

// IdLocker hands out one mutex per id. Entries are dropped once no goroutine holds or waits
// on them, so the map doesn't grow with every id ever seen.
type IdLocker[K comparable] struct {
	mapMutex sync.Mutex
	idMap    map[K]*idMutex
}

type idMutex struct {
	mu   sync.Mutex
	refs int
}

func NewIdLocker[K comparable]() *IdLocker[K] {
	return &IdLocker[K]{
		idMap: make(map[K]*idMutex),
	}
}

func (l *IdLocker[K]) AcquireLock(id K) {
	l.mapMutex.Lock()
	m, ok := l.idMap[id]
	if !ok {
		m = &idMutex{}
		l.idMap[id] = m
	}
	m.refs++
	l.mapMutex.Unlock()

	m.mu.Lock()
}

func (l *IdLocker[K]) ReleaseLock(id K) {
	l.mapMutex.Lock()
	defer l.mapMutex.Unlock()

	m, ok := l.idMap[id]
	if !ok {
		log.Errorf("ReleaseLock called on id (%v) with no mutex", id)
		return
	}

	m.refs--
	if m.refs == 0 {
		delete(l.idMap, id)
	}
	m.mu.Unlock()
}

func (l *IdLocker[K]) WithLock(id K, f func() error) error {
	l.AcquireLock(id)
	defer l.ReleaseLock(id)
	return f()
}

// held is the number of ids with an active or waiting holder.
func (l *IdLocker[K]) held() int {
	l.mapMutex.Lock()
	defer l.mapMutex.Unlock()
	return len(l.idMap)
}

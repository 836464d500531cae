package patients

import (
	"context"
	"sync"
)

var defaultLocks = NewTableLocks()

// TableLocks serializes writers per key. Waiting honours ctx.
type TableLocks struct {
	mu     sync.Mutex
	tables map[string]*tableLock
}

type tableLock struct {
	ch   chan struct{}
	refs int
}

func NewTableLocks() *TableLocks {
	return &TableLocks{tables: make(map[string]*tableLock)}
}

// Lock blocks until key is free or ctx is done. The returned func releases it.
func (l *TableLocks) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	t, ok := l.tables[key]
	if !ok {
		t = &tableLock{ch: make(chan struct{}, 1)}
		l.tables[key] = t
	}
	t.refs++
	l.mu.Unlock()

	select {
	case t.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-t.ch
				l.release(key, t)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, t)
		return nil, ctx.Err()
	}
}

func (l *TableLocks) release(key string, t *tableLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t.refs--
	if t.refs == 0 {
		delete(l.tables, key)
	}
}

// Len reports how many keys are held or waited on.
func (l *TableLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tables)
}

package pumped

import (
	"reflect"
	"sync"
)

// journalEntry is one ctx.Run memoization slot: the thunk for a given
// key runs exactly once per ExecutionCtx, regardless of call count.
type journalEntry struct {
	once  sync.Once
	value any
	err   error
	typ   reflect.Type
}

// Run executes thunk the first time key is seen within ctx, caching its
// outcome; every later call with the same key in the same context
// returns the cached value or error without re-invoking thunk. The
// journal is private to ctx — it is never consulted by a parent, a
// sibling, or a sub-flow's own context. Reusing key with an
// incompatible result type fails with JournalKeyCollision instead of
// silently corrupting the cached value.
func Run[T any](ctx *ExecutionCtx, key string, thunk func() (T, error)) (T, error) {
	var zero T
	wantType := reflect.TypeOf(zero)

	ctx.journalMu.Lock()
	entry, exists := ctx.journal[key]
	if exists && wantType != nil && entry.typ != nil && entry.typ != wantType {
		ctx.journalMu.Unlock()
		return zero, JournalKeyCollisionError(key)
	}
	if !exists {
		entry = &journalEntry{typ: wantType}
		ctx.journal[key] = entry
	}
	ctx.journalMu.Unlock()

	entry.once.Do(func() {
		entry.value, entry.err = thunk()
	})

	if entry.err != nil {
		return zero, entry.err
	}
	tv, _ := entry.value.(T)
	return tv, nil
}

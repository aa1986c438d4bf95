package pumped

import "context"

// cleanupEntry is a single registered cleanup callback, run LIFO when its
// owning executor is released, updated away, or the scope is disposed.
type cleanupEntry struct {
	fn func() error
}

// ResolveCtx is handed to every factory. It carries the running scope, the
// identity of the executor currently being resolved (for self-reference
// checks and diagnostics), the Go context for cancellation, and the
// cleanup callbacks the factory registers via OnCleanup.
type ResolveCtx struct {
	scope      *Scope
	executorID AnyExecutor
	ctx        context.Context
	cleanups   []cleanupEntry
}

// Context returns the context.Context carrying cancellation and the
// resolution chain used for circular-dependency detection.
func (c *ResolveCtx) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Scope returns the scope this resolution is running against.
func (c *ResolveCtx) Scope() *Scope {
	return c.scope
}

// OnCleanup registers fn to run, in LIFO order alongside this executor's
// other cleanups, when the executor is released, reactively replaced, or
// the scope is disposed.
func (c *ResolveCtx) OnCleanup(fn func() error) {
	c.cleanups = append(c.cleanups, cleanupEntry{fn: fn})
}

// GetTag reads a raw tag value from the scope's metadata store. Prefer
// the package-level GetTag generic function for type-safe access.
func (c *ResolveCtx) GetTag(tag any) (any, bool) {
	return c.scope.GetTag(tag)
}

// GetTag reads a tag's value from the scope backing this resolution.
func GetTag[T any](c *ResolveCtx, tag Tag[T]) (T, bool) {
	return tag.Find(c.scope)
}

// GetTagOrDefault reads a tag's value, or def if absent.
func GetTagOrDefault[T any](c *ResolveCtx, tag Tag[T], def T) T {
	return tag.GetOrDefault(c.scope, def)
}

package pumped

import "context"

// Controller is the accessor handle for an executor: the value passed to
// a dependent's factory for every dependency view, and the handle
// returned by Scope.Accessor for top-level client access.
type Controller[T any] struct {
	executor *Executor[T]
	scope    *Scope
}

// Get resolves the executor (or returns its cached value) through the
// owning scope.
func (c *Controller[T]) Get() (T, error) {
	return Resolve(c.scope, c.executor)
}

// Peek returns the cached value without triggering resolution. The
// second return is false if the executor has not been resolved.
func (c *Controller[T]) Peek() (T, bool) {
	v, ok := c.scope.peek(c.executor)
	if !ok {
		var zero T
		return zero, false
	}
	tv, ok := v.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return tv, true
}

// Update replaces the executor's cached value, runs its existing cleanup
// callbacks, and cascades the change through its reactive dependents.
func (c *Controller[T]) Update(ctx context.Context, newVal T) error {
	return Update(c.scope, c.executor, newVal, ctx)
}

// UpdateFunc reads the current value and replaces it with fn's result in
// one call.
func (c *Controller[T]) UpdateFunc(ctx context.Context, fn func(T) T) error {
	cur, err := c.Get()
	if err != nil {
		return err
	}
	return c.Update(ctx, fn(cur))
}

// Release runs the executor's cleanup callbacks and evicts its cached
// value. A subsequent Get re-invokes the factory.
func (c *Controller[T]) Release() error {
	return c.scope.release(context.Background(), c.executor)
}

// Reload releases then immediately re-resolves the executor.
func (c *Controller[T]) Reload() (T, error) {
	if err := c.Release(); err != nil {
		var zero T
		return zero, err
	}
	return c.Get()
}

// IsCached reports whether the executor currently holds a resolved value.
func (c *Controller[T]) IsCached() bool {
	return c.scope.isCached(c.executor)
}

// Subscribe registers fn to run on every Update of this executor. The
// returned func unsubscribes.
func (c *Controller[T]) Subscribe(fn func(T)) func() {
	return c.scope.onUpdate(c.executor, func(v any) {
		if tv, ok := v.(T); ok {
			fn(tv)
		}
	})
}

package pumped

import (
	"context"
	"sync"
)

// Promised is the lazy thenable wrapper taken by the parallel
// combinators (All, AllSettled, Race, Parallel, ParallelSettled).
// Resolve, Update, Exec and Exec1 return plain Go results, not a
// Promised. The wrapped thunk, and every chained transform,
// runs only when Await is called — composing Map/Switch/Catch before
// that point never touches the underlying computation.
type Promised[T any] struct {
	run func(context.Context) (T, error)
}

// Create wraps a computation expressed as a thunk taking a context. The
// thunk does not run until Await is called.
func Create[T any](run func(context.Context) (T, error)) Promised[T] {
	return Promised[T]{run: run}
}

// Try wraps a plain thunk with no cancellation awareness.
func Try[T any](thunk func() (T, error)) Promised[T] {
	return Promised[T]{run: func(context.Context) (T, error) { return thunk() }}
}

// Resolved returns a Promised that, when awaited, immediately yields v.
func Resolved[T any](v T) Promised[T] {
	return Promised[T]{run: func(context.Context) (T, error) { return v, nil }}
}

// Rejected returns a Promised that, when awaited, immediately fails
// with err.
func Rejected[T any](err error) Promised[T] {
	return Promised[T]{run: func(context.Context) (T, error) {
		var zero T
		return zero, err
	}}
}

// Await runs the Promised's thunk (and every transform chained onto it)
// to completion.
func (p Promised[T]) Await(ctx context.Context) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return p.run(ctx)
}

// Catch recovers from a failure, producing a value instead.
func (p Promised[T]) Catch(fn func(error) T) Promised[T] {
	return Promised[T]{run: func(ctx context.Context) (T, error) {
		v, err := p.run(ctx)
		if err != nil {
			return fn(err), nil
		}
		return v, nil
	}}
}

// MapError transforms a failure without touching a successful value.
func (p Promised[T]) MapError(fn func(error) error) Promised[T] {
	return Promised[T]{run: func(ctx context.Context) (T, error) {
		v, err := p.run(ctx)
		if err != nil {
			return v, fn(err)
		}
		return v, nil
	}}
}

// SwitchError recovers from a failure by switching to another Promised.
func (p Promised[T]) SwitchError(fn func(error) Promised[T]) Promised[T] {
	return Promised[T]{run: func(ctx context.Context) (T, error) {
		v, err := p.run(ctx)
		if err != nil {
			return fn(err).Await(ctx)
		}
		return v, nil
	}}
}

// Map transforms a successful value. A Go method cannot introduce a new
// type parameter, so this is a package-level function rather than
// Promised[T].Map.
func Map[T, U any](p Promised[T], fn func(T) U) Promised[U] {
	return Promised[U]{run: func(ctx context.Context) (U, error) {
		v, err := p.Await(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	}}
}

// Switch chains into another Promised on success.
func Switch[T, U any](p Promised[T], fn func(T) Promised[U]) Promised[U] {
	return Promised[U]{run: func(ctx context.Context) (U, error) {
		v, err := p.Await(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v).Await(ctx)
	}}
}

// All awaits every item and fails fast on the first error.
func All[T any](ctx context.Context, items []Promised[T]) ([]T, error) {
	type indexed struct {
		i   int
		v   T
		err error
	}
	ch := make(chan indexed, len(items))
	for i, p := range items {
		go func(i int, p Promised[T]) {
			v, err := p.Await(ctx)
			ch <- indexed{i, v, err}
		}(i, p)
	}

	results := make([]T, len(items))
	for range items {
		it := <-ch
		if it.err != nil {
			return nil, it.err
		}
		results[it.i] = it.v
	}
	return results, nil
}

// Settled is one AllSettled outcome: either a value or an error, never
// both.
type Settled[T any] struct {
	Value T
	Err   error
}

// AllSettled awaits every item and never fails; each outcome reports its
// own success or failure.
func AllSettled[T any](ctx context.Context, items []Promised[T]) []Settled[T] {
	results := make([]Settled[T], len(items))

	var wg sync.WaitGroup
	for i, p := range items {
		wg.Add(1)
		go func(i int, p Promised[T]) {
			defer wg.Done()
			v, err := p.Await(ctx)
			results[i] = Settled[T]{Value: v, Err: err}
		}(i, p)
	}
	wg.Wait()

	return results
}

// Race returns the first item to settle, success or failure.
func Race[T any](ctx context.Context, items []Promised[T]) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, len(items))
	for _, p := range items {
		go func(p Promised[T]) {
			v, err := p.Await(ctx)
			ch <- outcome{v, err}
		}(p)
	}
	first := <-ch
	return first.v, first.err
}

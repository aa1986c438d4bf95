package pumped

import "context"

// OK wraps a successful Execute/ExecuteParallel outcome.
type OK[T any] struct{ Value T }

// KO wraps a failed Execute/ExecuteParallel outcome.
type KO struct{ Err error }

// ParallelOutcome is one item's result from Parallel/ParallelSettled: a
// value, or an error, never both.
type ParallelOutcome[T any] struct {
	Value T
	Err   error
}

// IsOK reports whether the item succeeded.
func (o ParallelOutcome[T]) IsOK() bool { return o.Err == nil }

// ParallelKind classifies a Parallel/ParallelSettled call's aggregate
// outcome.
type ParallelKind string

const (
	AllOK   ParallelKind = "all-ok"
	Partial ParallelKind = "partial"
	AllKO   ParallelKind = "all-ko"
)

// ParallelStats summarizes how many of a parallel batch succeeded.
type ParallelStats struct {
	Total     int
	Succeeded int
	Failed    int
}

// ParallelResult is ctx.Parallel/ctx.ParallelSettled's return value:
// per-item outcomes in input order, plus the aggregate classification.
type ParallelResult[T any] struct {
	Kind    ParallelKind
	Results []ParallelOutcome[T]
	Stats   ParallelStats
}

func classify(stats ParallelStats) ParallelKind {
	switch {
	case stats.Total > 0 && stats.Failed == stats.Total:
		return AllKO
	case stats.Failed > 0:
		return Partial
	default:
		return AllOK
	}
}

// ErrorMode governs whether a ParallelExecutor stops at the first
// failure or waits for every item.
type ErrorMode int

const (
	ErrorModeFailFast ErrorMode = iota
	ErrorModeCollectErrors
)

// ParallelExecutor carries the error-mode configuration for a batch of
// pending flows, built by ExecutionCtx.Parallel.
type ParallelExecutor struct {
	ctx       *ExecutionCtx
	errorMode ErrorMode
}

// ParallelOption configures a ParallelExecutor.
type ParallelOption func(*ParallelExecutor)

// WithFailFast cancels the context passed to the remaining items as soon
// as any item fails, then still waits for every item to settle; an item
// that ignores cancellation runs to completion.
func WithFailFast() ParallelOption {
	return func(pe *ParallelExecutor) { pe.errorMode = ErrorModeFailFast }
}

// WithCollectErrors waits for every item regardless of failures.
func WithCollectErrors() ParallelOption {
	return func(pe *ParallelExecutor) { pe.errorMode = ErrorModeCollectErrors }
}

// Parallel awaits every item via the executor's ParallelExecutor,
// honoring WithFailFast (cancel the rest once one item fails) or
// WithCollectErrors (always wait for all, the default behavior of
// ParallelSettled).
func Parallel[T any](pe *ParallelExecutor, items []Promised[T]) ParallelResult[T] {
	ctx := pe.ctx.Context()
	results := make([]ParallelOutcome[T], len(items))

	if pe.errorMode == ErrorModeFailFast {
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		type indexed struct {
			i   int
			out ParallelOutcome[T]
		}
		ch := make(chan indexed, len(items))
		for i, p := range items {
			go func(i int, p Promised[T]) {
				v, err := p.Await(runCtx)
				ch <- indexed{i, ParallelOutcome[T]{Value: v, Err: err}}
			}(i, p)
		}

		remaining := len(items)
		for remaining > 0 {
			it := <-ch
			results[it.i] = it.out
			remaining--
			if it.out.Err != nil {
				cancel()
			}
		}
	} else {
		settled := AllSettled(ctx, items)
		for i, s := range settled {
			results[i] = ParallelOutcome[T]{Value: s.Value, Err: s.Err}
		}
	}

	stats := ParallelStats{Total: len(items)}
	for _, r := range results {
		if r.IsOK() {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}

	return ParallelResult[T]{Kind: classify(stats), Results: results, Stats: stats}
}

// ParallelSettled awaits every item and never fails the batch itself,
// regardless of the executor's error mode.
func ParallelSettled[T any](ctx *ExecutionCtx, items []Promised[T]) ParallelResult[T] {
	settled := AllSettled(ctx.Context(), items)
	results := make([]ParallelOutcome[T], len(items))
	stats := ParallelStats{Total: len(items)}
	for i, s := range settled {
		results[i] = ParallelOutcome[T]{Value: s.Value, Err: s.Err}
		if s.Err == nil {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	return ParallelResult[T]{Kind: classify(stats), Results: results, Stats: stats}
}

// Execute lifts a plain function into the OK|KO world, applying
// errorMapper (if given) to a thrown error before wrapping it.
func Execute[T any](ctx *ExecutionCtx, fn func() (T, error), errorMapper ...func(error) error) ParallelOutcome[T] {
	v, err := fn()
	if err != nil && len(errorMapper) > 0 && errorMapper[0] != nil {
		err = errorMapper[0](err)
	}
	return ParallelOutcome[T]{Value: v, Err: err}
}

// ExecuteParallel lifts a batch of plain functions into the OK|KO world,
// running them concurrently.
func ExecuteParallel[T any](ctx *ExecutionCtx, fns []func() (T, error)) ParallelResult[T] {
	items := make([]Promised[T], len(fns))
	for i, fn := range fns {
		items[i] = Try(fn)
	}
	return ParallelSettled(ctx, items)
}

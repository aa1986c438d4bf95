package pumped

import (
	"context"
	"fmt"
)

// Extension provides hooks into the resolution and flow-execution
// lifecycle. Extensions compose onion-style: the first one registered on
// a scope is outermost and sees every other extension's effects.
type Extension interface {
	// Name returns the extension's name.
	Name() string

	// Init is called once when the extension is registered to a scope.
	Init(scope *Scope) error

	// Wrap intercepts a resolve or update operation. Implementations must
	// call next() exactly once to continue the chain.
	Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error)

	// OnError observes an error surfaced by a resolve or update.
	OnError(err error, op *Operation, scope *Scope)

	// OnCleanupError observes a cleanup callback failure. Returning true
	// marks the error handled, suppressing the scope's default
	// aggregate-and-report behavior for it.
	OnCleanupError(err *CleanupError) bool

	// Flow execution hooks.
	OnFlowStart(execCtx *ExecutionCtx, flow AnyFlow) error
	OnFlowEnd(execCtx *ExecutionCtx, result any, err error) error
	OnFlowPanic(execCtx *ExecutionCtx, recovered any, stack []byte) error

	// Dispose is called once when the owning scope is disposed, in
	// reverse registration order.
	Dispose(scope *Scope) error
}

// CleanupError describes a cleanup callback failure, offered to every
// extension's OnCleanupError in registration order.
type CleanupError struct {
	ExecutorID AnyExecutor
	Err        error
	Context    string // "update", "reactive", "release", or "dispose"
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup error during %s: %v", e.Context, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// BaseExtension provides no-op defaults; embed it to implement only the
// hooks an extension cares about.
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a base extension carrying the given name.
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string { return e.name }

func (e *BaseExtension) Init(scope *Scope) error { return nil }

func (e *BaseExtension) Wrap(ctx context.Context, next func() (any, error), op *Operation) (any, error) {
	return next()
}

func (e *BaseExtension) OnError(err error, op *Operation, scope *Scope) {}

func (e *BaseExtension) OnCleanupError(err *CleanupError) bool { return false }

func (e *BaseExtension) OnFlowStart(execCtx *ExecutionCtx, flow AnyFlow) error { return nil }

func (e *BaseExtension) OnFlowEnd(execCtx *ExecutionCtx, result any, err error) error { return nil }

func (e *BaseExtension) OnFlowPanic(execCtx *ExecutionCtx, recovered any, stack []byte) error {
	return nil
}

func (e *BaseExtension) Dispose(scope *Scope) error { return nil }

// Operation describes the operation an extension's Wrap is intercepting.
type Operation struct {
	Kind     OperationKind
	Executor AnyExecutor
	Scope    *Scope
}

// OperationKind distinguishes resolve from update within Wrap/OnError.
type OperationKind string

const (
	OpResolve OperationKind = "resolve"
	OpUpdate  OperationKind = "update"
)

// composedWrap is the onion handler a scope invokes for every
// resolve/update. The extension list is captured when UseExtension
// runs; each call still builds the chain of next closures over it.
type composedWrap func(ctx context.Context, op *Operation, final func() (any, error)) (any, error)

// composeExtensions builds the single handler a scope invokes for every
// resolve/update. extensions[0] is outermost: it runs first and wraps
// every other extension's effect, matching registration order.
func composeExtensions(extensions []Extension) composedWrap {
	if len(extensions) == 0 {
		return func(ctx context.Context, op *Operation, final func() (any, error)) (any, error) {
			return final()
		}
	}

	return func(ctx context.Context, op *Operation, final func() (any, error)) (any, error) {
		chain := final
		for i := len(extensions) - 1; i >= 0; i-- {
			ext := extensions[i]
			next := chain
			chain = func() (any, error) {
				return ext.Wrap(ctx, next, op)
			}
		}
		return chain()
	}
}

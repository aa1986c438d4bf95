package pumped

// Executor is the immutable description of a factory: its dependency
// spec, its metadata, and its resolution mode. Executors carry no state
// themselves — all resolved values live in a Scope's cache.
type Executor[T any] struct {
	factory func(*ResolveCtx) (T, error)
	deps    []Dependency
	tags    map[any]any
}

// AnyExecutor is the type-erased handle the cache, graph and extension
// pipeline operate on.
type AnyExecutor interface {
	ResolveAny(ctx *ResolveCtx) (any, error)
	GetDeps() []Dependency
	GetTag(tag any) (any, bool)
	SetTag(tag any, val any)
	Name() string
}

func (e *Executor[T]) GetDeps() []Dependency {
	return e.deps
}

func (e *Executor[T]) GetTag(tag any) (any, bool) {
	val, ok := e.tags[tag]
	return val, ok
}

func (e *Executor[T]) SetTag(tag any, val any) {
	e.tags[tag] = val
}

// Name returns the executor's debug name, set via WithName, or
// "<anonymous>" when no name was set.
func (e *Executor[T]) Name() string {
	if v, ok := nameTag.Find(e); ok {
		return v
	}
	return "<anonymous>"
}

// ResolveAny invokes the factory with a fresh resolution context. Callers
// that need caching go through Scope.Resolve instead; this exists for
// the cache's internal use and for Flow's ad hoc resolves.
func (e *Executor[T]) ResolveAny(ctx *ResolveCtx) (any, error) {
	return e.factory(ctx)
}

// DependencyMode selects one of the four executor views from spec §4.1:
// eager (default) forces resolution and registers no reactive edge;
// reactive forces resolution and registers a reactive edge; lazy defers
// resolution to the factory; static forces resolution, hands back an
// accessor handle, and registers no reactive edge.
type DependencyMode string

const (
	ModeEager    DependencyMode = "eager"
	ModeReactive DependencyMode = "reactive"
	ModeLazy     DependencyMode = "lazy"
	ModeStatic   DependencyMode = "static"
)

// Dependency pairs an executor with the view it was declared under.
type Dependency interface {
	GetExecutor() AnyExecutor
	GetMode() DependencyMode
}

type dependencyWrapper struct {
	executor AnyExecutor
	mode     DependencyMode
}

func (d *dependencyWrapper) GetExecutor() AnyExecutor {
	return d.executor
}

func (d *dependencyWrapper) GetMode() DependencyMode {
	return d.mode
}

// GetExecutor/GetMode let an *Executor[T] be used directly as a
// Dependency — the implicit eager view.
func (e *Executor[T]) GetExecutor() AnyExecutor {
	return e
}

func (e *Executor[T]) GetMode() DependencyMode {
	return ModeEager
}

// Reactive returns the reactive view: the dependent is registered in the
// reactive edge index, so scope.Update/Reset of this executor cascades
// into the dependent's re-resolution.
func (e *Executor[T]) Reactive() Dependency {
	return &dependencyWrapper{executor: e, mode: ModeReactive}
}

// Lazy returns the lazy view: the dependency is not force-resolved before
// the factory runs; the factory calls ctrl.Get() itself when (and if)
// it needs the value.
func (e *Executor[T]) Lazy() Dependency {
	return &dependencyWrapper{executor: e, mode: ModeLazy}
}

// Static returns the static view: the dependency is force-resolved but no
// reactive edge is registered — for factories that want to imperatively
// Update/Subscribe a dependency without subscribing to its changes.
func (e *Executor[T]) Static() Dependency {
	return &dependencyWrapper{executor: e, mode: ModeStatic}
}

// ExecutorOption configures tags/metadata at construction time.
type ExecutorOption func(AnyExecutor)

// WithTag returns an option that sets a validated tag on an executor.
func WithTag[T any](tag Tag[T], val T) ExecutorOption {
	return func(exec AnyExecutor) {
		_ = tag.Set(exec, val)
	}
}

// nameTag carries an executor's debug name, set via WithName.
var nameTag = NewTag[string]("pumped.executor.name")

// WithName attaches a debug name, surfaced in error contexts and the
// graph-debug extension's rendered tree.
func WithName(name string) ExecutorOption {
	return WithTag(nameTag, name)
}

// Provide creates an executor with no dependencies.
func Provide[T any](factory func(*ResolveCtx) (T, error), opts ...ExecutorOption) *Executor[T] {
	exec := &Executor[T]{
		factory: factory,
		deps:    nil,
		tags:    make(map[any]any),
	}

	for _, opt := range opts {
		opt(exec)
	}

	return exec
}

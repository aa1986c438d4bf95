package pumped

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// cacheState tracks a single executor's position in the resolution cache
// state machine: pending (resolving) -> resolved -> removed, or
// resolved -> updating -> resolved.
type cacheState int

const (
	stateResolving cacheState = iota
	stateResolved
	stateUpdating
)

type cacheEntry struct {
	mu    sync.Mutex
	state cacheState
	value any
	err   error
	ready chan struct{}
}

type preset struct {
	value    any
	executor AnyExecutor
	isValue  bool
}

// Scope owns the resolution cache, the reactive edge index, the
// registered extensions, and the cleanup/listener registries for one
// dependency graph instance.
type Scope struct {
	mu         sync.RWMutex
	cache      map[AnyExecutor]*cacheEntry
	tags       sync.Map
	graph      *ReactiveGraph
	extensions []Extension
	composed   composedWrap
	presets    map[AnyExecutor]preset
	disposed   bool

	// resolutionOrder records executors in the order they last finished
	// resolving successfully, so Dispose can clean up in strict reverse
	// order (dependents before their dependencies) instead of Go's
	// randomized map iteration order.
	resolutionOrder []AnyExecutor

	cleanupMu       sync.RWMutex
	cleanupRegistry map[AnyExecutor][]cleanupEntry

	listenersMu     sync.RWMutex
	updateListeners map[AnyExecutor][]func(any)
	errorListeners  []func(error)

	execTree *ExecutionTree
}

// ScopeOption configures a Scope at construction.
type ScopeOption func(*Scope)

// WithScopeTag returns an option that sets a validated tag on the scope's
// own metadata store.
func WithScopeTag[T any](tag Tag[T], val T) ScopeOption {
	return func(s *Scope) {
		_ = tag.SetOnScope(s, val)
	}
}

// WithExtension returns an option that registers an extension on
// construction. Extensions are applied in the order passed.
func WithExtension(ext Extension) ScopeOption {
	return func(s *Scope) {
		if err := s.UseExtension(ext); err != nil {
			panic(err)
		}
	}
}

// WithPreset returns an option that short-circuits resolution of
// original with either a fixed value or a replacement executor — for
// tests that need to substitute a collaborator.
func WithPreset[T any](original *Executor[T], replacement any) ScopeOption {
	return func(s *Scope) {
		switch r := replacement.(type) {
		case T:
			s.presets[original] = preset{value: r, isValue: true}
		case *Executor[T]:
			s.presets[original] = preset{executor: r, isValue: false}
		default:
			panic(fmt.Sprintf("preset must be value of type %T or *Executor[%T]", *new(T), *new(T)))
		}
	}
}

// NewScope creates an empty scope.
func NewScope(opts ...ScopeOption) *Scope {
	s := &Scope{
		cache:           make(map[AnyExecutor]*cacheEntry),
		graph:           NewReactiveGraph(),
		presets:         make(map[AnyExecutor]preset),
		cleanupRegistry: make(map[AnyExecutor][]cleanupEntry),
		updateListeners: make(map[AnyExecutor][]func(any)),
		execTree:        newExecutionTree(1000),
	}
	s.composed = composeExtensions(nil)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Accessor creates the public handle for an executor without forcing
// resolution.
func Accessor[T any](s *Scope, exec *Executor[T]) *Controller[T] {
	return &Controller[T]{executor: exec, scope: s}
}

type chainKey struct{}

func withChainEntry(ctx context.Context, exec AnyExecutor) (context.Context, error) {
	chain, _ := ctx.Value(chainKey{}).([]AnyExecutor)
	for _, seen := range chain {
		if seen == exec {
			names := make([]string, 0, len(chain)+1)
			for _, c := range chain {
				names = append(names, c.Name())
			}
			names = append(names, exec.Name())
			return ctx, CircularDependencyError(exec.Name(), names)
		}
	}
	next := make([]AnyExecutor, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, exec)
	return context.WithValue(ctx, chainKey{}, next), nil
}

// Resolve resolves exec's value, memoizing it in s's cache. Concurrent
// callers resolving the same executor share one factory invocation.
func Resolve[T any](s *Scope, exec *Executor[T], ctx ...context.Context) (T, error) {
	var zero T
	c := context.Background()
	if len(ctx) > 0 && ctx[0] != nil {
		c = ctx[0]
	}

	chained, err := withChainEntry(c, exec)
	if err != nil {
		return zero, err
	}

	val, err := s.resolveAny(chained, exec)
	if err != nil {
		return zero, err
	}
	tv, ok := val.(T)
	if !ok {
		return zero, FactoryExecutionError(exec.Name(), fmt.Errorf("resolved value has unexpected type %T", val))
	}
	return tv, nil
}

func (s *Scope) resolveAny(ctx context.Context, exec AnyExecutor) (any, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ScopeDisposedError(exec.Name())
	}

	if entry, exists := s.cache[exec]; exists {
		switch entry.state {
		case stateResolved:
			s.mu.Unlock()
			entry.mu.Lock()
			val, err := entry.value, entry.err
			entry.mu.Unlock()
			return val, err
		default: // resolving or updating: wait for the in-flight attempt
			ready := entry.ready
			s.mu.Unlock()
			select {
			case <-ready:
			case <-ctx.Done():
				return nil, CancelledError(ctx.Err())
			}
			entry.mu.Lock()
			val, err := entry.value, entry.err
			entry.mu.Unlock()
			return val, err
		}
	}

	entry := &cacheEntry{state: stateResolving, ready: make(chan struct{})}
	s.cache[exec] = entry
	s.mu.Unlock()

	return s.doResolve(ctx, exec, entry)
}

func (s *Scope) doResolve(ctx context.Context, exec AnyExecutor, entry *cacheEntry) (any, error) {
	finish := func(val any, err error) (any, error) {
		entry.mu.Lock()
		entry.value, entry.err = val, err
		entry.state = stateResolved
		entry.mu.Unlock()
		close(entry.ready)

		s.mu.Lock()
		if err != nil {
			if s.cache[exec] == entry {
				delete(s.cache, exec)
			}
		} else {
			s.resolutionOrder = append(s.resolutionOrder, exec)
		}
		s.mu.Unlock()
		return val, err
	}

	s.mu.RLock()
	p, hasPreset := s.presets[exec]
	exts := s.extensions
	composed := s.composed
	s.mu.RUnlock()

	if hasPreset {
		if p.isValue {
			return finish(p.value, nil)
		}
		val, err := s.resolveAny(ctx, p.executor)
		if err != nil {
			return finish(nil, err)
		}
		return finish(val, nil)
	}

	reactiveDeps := make([]AnyExecutor, 0, len(exec.GetDeps()))
	for _, dep := range exec.GetDeps() {
		mode := dep.GetMode()
		if mode == ModeLazy {
			continue
		}
		depCtx, err := withChainEntry(ctx, dep.GetExecutor())
		if err != nil {
			return finish(nil, err)
		}
		if _, err := s.resolveAny(depCtx, dep.GetExecutor()); err != nil {
			return finish(nil, DependencyResolutionError(exec.Name(), []string{dep.GetExecutor().Name()}, err))
		}
		if mode == ModeReactive {
			reactiveDeps = append(reactiveDeps, dep.GetExecutor())
		}
	}
	for _, dep := range reactiveDeps {
		s.graph.AddDependency(exec, dep)
	}

	op := &Operation{Kind: OpResolve, Executor: exec, Scope: s}
	rctx := globalPoolManager.AcquireResolveCtx(s, exec)
	rctx.ctx = ctx

	result, err := composed(ctx, op, func() (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = capturePanic(exec.Name(), r)
			}
		}()
		return exec.ResolveAny(rctx)
	})
	if err != nil {
		for _, ext := range exts {
			ext.OnError(err, op, s)
		}
		globalPoolManager.ReleaseResolveCtx(rctx)
		return finish(nil, err)
	}

	s.registerCleanups(exec, rctx.cleanups)
	globalPoolManager.ReleaseResolveCtx(rctx)

	return finish(result, nil)
}

// Update replaces exec's cached value, runs its existing cleanups, and
// cascades through reactive dependents breadth-first before returning.
func Update[T any](s *Scope, exec *Executor[T], newVal T, ctx ...context.Context) error {
	c := context.Background()
	if len(ctx) > 0 && ctx[0] != nil {
		c = ctx[0]
	}
	if s.isDisposed() {
		return ScopeDisposedError(exec.Name())
	}
	if err := c.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	entry, exists := s.cache[exec]
	if !exists {
		s.mu.Unlock()
		return UnresolvedError(exec.Name())
	}
	if entry.state != stateResolved {
		s.mu.Unlock()
		return ResolutionInProgressError(exec.Name())
	}
	entry.state = stateUpdating
	entry.ready = make(chan struct{})
	exts := s.extensions
	composed := s.composed
	s.mu.Unlock()

	op := &Operation{Kind: OpUpdate, Executor: exec, Scope: s}

	// The new value must be committed and entry.ready closed before the
	// cascade runs: cascadeReactive re-resolves dependents, and a
	// dependent's doResolve eagerly resolves exec as one of its own
	// dependencies, which would otherwise block on this same channel
	// until the cascade it is part of returns.
	_, err := composed(c, op, func() (any, error) {
		s.cleanupExecutor(exec, "update")

		entry.mu.Lock()
		entry.value, entry.err = newVal, nil
		entry.mu.Unlock()

		s.mu.Lock()
		entry.state = stateResolved
		s.mu.Unlock()
		close(entry.ready)

		s.fireUpdateListeners(exec, newVal)
		return nil, s.cascadeReactive(c, exec)
	})

	// An extension that returns without calling next leaves the entry
	// untouched; put it back in the resolved state with its old value.
	s.mu.Lock()
	if entry.state == stateUpdating {
		entry.state = stateResolved
		close(entry.ready)
	}
	s.mu.Unlock()

	if err != nil {
		for _, ext := range exts {
			ext.OnError(err, op, s)
		}
	}
	return err
}

// cascadeReactive walks the reactive edge index breadth-first from
// start, cleaning up then re-resolving each level's dependents
// concurrently before moving to the next level.
func (s *Scope) cascadeReactive(ctx context.Context, start AnyExecutor) error {
	visited := map[AnyExecutor]bool{start: true}
	level := s.graph.GetDirectDependents(start)

	for len(level) > 0 {
		var wg sync.WaitGroup
		errs := make([]error, len(level))
		nextLevels := make([][]AnyExecutor, len(level))

		for i, dependent := range level {
			if visited[dependent] {
				continue
			}
			visited[dependent] = true
			wg.Add(1)
			go func(i int, dep AnyExecutor) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						errs[i] = capturePanic(dep.Name(), r)
					}
				}()

				s.cleanupExecutor(dep, "reactive")
				s.mu.Lock()
				delete(s.cache, dep)
				s.mu.Unlock()

				val, err := s.resolveAny(ctx, dep)
				if err != nil {
					errs[i] = err
					return
				}
				s.fireUpdateListeners(dep, val)
				nextLevels[i] = s.graph.GetDirectDependents(dep)
			}(i, dependent)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}

		var flattened []AnyExecutor
		for _, n := range nextLevels {
			flattened = append(flattened, n...)
		}
		level = flattened
	}
	return nil
}

func (s *Scope) registerCleanups(exec AnyExecutor, entries []cleanupEntry) {
	if len(entries) == 0 {
		return
	}
	// entries may back a pooled ResolveCtx slated for reuse; copy before
	// storing so a later Acquire/Release cycle can't alias it.
	owned := make([]cleanupEntry, len(entries))
	copy(owned, entries)
	s.cleanupMu.Lock()
	s.cleanupRegistry[exec] = owned
	s.cleanupMu.Unlock()
}

func (s *Scope) cleanupExecutor(exec AnyExecutor, cleanupContext string) {
	s.cleanupMu.Lock()
	entries := s.cleanupRegistry[exec]
	delete(s.cleanupRegistry, exec)
	s.cleanupMu.Unlock()

	if len(entries) == 0 {
		return
	}
	s.runCleanups(entries, exec, cleanupContext)
}

// runCleanups runs entries LIFO, offering each failure to every
// extension's OnCleanupError. Failures no extension claims are
// aggregated and surfaced once via the scope's error listeners.
func (s *Scope) runCleanups(entries []cleanupEntry, exec AnyExecutor, cleanupContext string) {
	s.mu.RLock()
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.mu.RUnlock()

	var unhandled []error
	for i := len(entries) - 1; i >= 0; i-- {
		if err := entries[i].fn(); err != nil {
			cerr := &CleanupError{ExecutorID: exec, Err: err, Context: cleanupContext}
			handled := false
			for _, ext := range exts {
				if ext.OnCleanupError(cerr) {
					handled = true
					break
				}
			}
			if !handled {
				unhandled = append(unhandled, err)
			}
		}
	}

	if len(unhandled) > 0 {
		werr := CleanupErrorOf(exec.Name(), errors.Join(unhandled...))
		op := &Operation{Kind: OpUpdate, Executor: exec, Scope: s}
		for _, ext := range exts {
			ext.OnError(werr, op, s)
		}
		s.fireErrorListeners(werr)
	}
}

func (s *Scope) release(ctx context.Context, exec AnyExecutor) error {
	if s.isDisposed() {
		return ScopeDisposedError(exec.Name())
	}
	s.cleanupExecutor(exec, "release")
	s.mu.Lock()
	delete(s.cache, exec)
	s.mu.Unlock()
	return nil
}

// Reset evicts exec and every transitive reactive dependent, running
// their cleanups. The next access re-resolves from scratch.
func (s *Scope) Reset(exec AnyExecutor) error {
	if s.isDisposed() {
		return ScopeDisposedError(exec.Name())
	}
	for _, dependent := range s.graph.FindDependents(exec) {
		s.cleanupExecutor(dependent, "release")
		s.mu.Lock()
		delete(s.cache, dependent)
		s.mu.Unlock()
	}
	return s.release(context.Background(), exec)
}

func (s *Scope) peek(exec AnyExecutor) (any, bool) {
	s.mu.RLock()
	entry, ok := s.cache[exec]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.state != stateResolved || entry.err != nil {
		return nil, false
	}
	return entry.value, true
}

func (s *Scope) isCached(exec AnyExecutor) bool {
	_, ok := s.peek(exec)
	return ok
}

func (s *Scope) onUpdate(exec AnyExecutor, fn func(any)) func() {
	s.listenersMu.Lock()
	idx := len(s.updateListeners[exec])
	s.updateListeners[exec] = append(s.updateListeners[exec], fn)
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		if list := s.updateListeners[exec]; idx < len(list) {
			list[idx] = nil
		}
	}
}

func (s *Scope) fireUpdateListeners(exec AnyExecutor, val any) {
	s.listenersMu.RLock()
	list := append([]func(any){}, s.updateListeners[exec]...)
	s.listenersMu.RUnlock()
	for _, fn := range list {
		if fn != nil {
			fn(val)
		}
	}
}

// OnUpdate registers fn to run every time exec's value changes via
// Update or a reactive cascade. The returned func unsubscribes.
func OnUpdate[T any](s *Scope, exec *Executor[T], fn func(T)) func() {
	return s.onUpdate(exec, func(v any) {
		if tv, ok := v.(T); ok {
			fn(tv)
		}
	})
}

// On subscribes fn to exec's value, invoking it immediately with the
// current cached value (if any) and then on every subsequent update.
func On[T any](s *Scope, exec *Executor[T], fn func(T)) func() {
	if v, ok := Accessor(s, exec).Peek(); ok {
		fn(v)
	}
	return OnUpdate(s, exec, fn)
}

// OnError registers a scope-wide error listener, fired for cleanup
// failures that no extension's OnCleanupError handled. Resolve and
// Update errors are returned to the caller and passed to extensions'
// OnError hooks; they do not reach these listeners.
func (s *Scope) OnError(fn func(error)) func() {
	s.listenersMu.Lock()
	idx := len(s.errorListeners)
	s.errorListeners = append(s.errorListeners, fn)
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		if idx < len(s.errorListeners) {
			s.errorListeners[idx] = nil
		}
	}
}

func (s *Scope) fireErrorListeners(err error) {
	s.listenersMu.RLock()
	list := append([]func(error){}, s.errorListeners...)
	s.listenersMu.RUnlock()
	for _, fn := range list {
		if fn != nil {
			fn(err)
		}
	}
}

// UseExtension registers ext and recomposes the scope's onion handler
// over the updated extension list.
func (s *Scope) UseExtension(ext Extension) error {
	s.mu.Lock()
	s.extensions = append(s.extensions, ext)
	s.composed = composeExtensions(s.extensions)
	s.mu.Unlock()

	return ext.Init(s)
}

// Dispose runs every registered cleanup (LIFO within each executor),
// then disposes extensions in reverse registration order. Once disposed,
// a scope refuses further Resolve/Update calls.
func (s *Scope) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true

	remaining := make(map[AnyExecutor]bool, len(s.cache))
	for exec := range s.cache {
		remaining[exec] = true
	}
	order := s.resolutionOrder
	s.cache = make(map[AnyExecutor]*cacheEntry)
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	s.mu.Unlock()

	// Walk resolutionOrder in reverse so dependents (resolved later)
	// clean up before the dependencies (resolved earlier) they hold a
	// reference to, deduping since a reactively-updated executor may
	// appear more than once.
	seen := make(map[AnyExecutor]bool, len(remaining))
	execs := make([]AnyExecutor, 0, len(remaining))
	for i := len(order) - 1; i >= 0; i-- {
		exec := order[i]
		if !remaining[exec] || seen[exec] {
			continue
		}
		seen[exec] = true
		execs = append(execs, exec)
	}

	for _, exec := range execs {
		s.cleanupExecutor(exec, "dispose")
	}

	var firstErr error
	for i := len(exts) - 1; i >= 0; i-- {
		if err := exts[i].Dispose(s); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("disposing extension %s: %w", exts[i].Name(), err)
		}
	}
	return firstErr
}

func (s *Scope) isDisposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

// GetTag retrieves a tag value from the scope's own metadata store.
func (s *Scope) GetTag(tag any) (any, bool) {
	return s.tags.Load(tag)
}

// SetTag stores a tag value on the scope's own metadata store.
func (s *Scope) SetTag(tag any, val any) {
	s.tags.Store(tag, val)
}

// GetExecutionTree returns the scope's journaled flow-execution history.
func (s *Scope) GetExecutionTree() *ExecutionTree {
	return s.execTree
}

// ExportDependencyGraph returns a snapshot of the reactive dependency
// graph, for diagnostics extensions such as graph-debug rendering.
func (s *Scope) ExportDependencyGraph() map[AnyExecutor][]AnyExecutor {
	return s.graph.ExportDependencyGraph()
}

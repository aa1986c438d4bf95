package pumped

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AnyFlow is the type-erased handle the scope's Exec entrypoint and the
// execution-tree bookkeeping operate on.
type AnyFlow interface {
	GetDeps() []Dependency
	GetTag(tag any) (any, bool)
	SetTag(tag any, val any)
}

// Flow is a journaled, cancellable, short-span operation: a
// resolve-plus-handler pair that reuses the owning scope's resolution
// cache while keeping its own per-execution data store.
type Flow[R any] struct {
	deps    []Dependency
	factory func(*ExecutionCtx, *ResolveCtx) (R, error)
	tags    map[any]any
}

func (f *Flow[R]) GetDeps() []Dependency {
	return f.deps
}

func (f *Flow[R]) GetTag(tag any) (any, bool) {
	val, ok := f.tags[tag]
	return val, ok
}

func (f *Flow[R]) SetTag(tag any, val any) {
	f.tags[tag] = val
}

// flowConfig accumulates tags for a Flow under construction, before the
// dependency-typed factory wrapper is known.
type flowConfig struct {
	tags map[any]any
}

func (cfg *flowConfig) GetTag(tag any) (any, bool) {
	val, ok := cfg.tags[tag]
	return val, ok
}

func (cfg *flowConfig) SetTag(tag any, val any) {
	cfg.tags[tag] = val
}

// FlowOption configures a Flow's metadata at construction.
type FlowOption func(*flowConfig)

// WithFlowTag sets a validated tag on a flow.
func WithFlowTag[T any](tag Tag[T], val T) FlowOption {
	return func(cfg *flowConfig) { _ = tag.Set(cfg, val) }
}

// NewFlow builds a root flow with no dependencies.
func NewFlow[R any](factory func(*ExecutionCtx, *ResolveCtx) (R, error), opts ...FlowOption) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Flow[R]{factory: factory, tags: cfg.tags}
}

// ExecutionCtx is the per-execution tree node: a hierarchical data store
// (own data, parent chain, owning scope's tags), a private journal, and
// the cancellation context for this branch of execution.
type ExecutionCtx struct {
	id     string
	parent *ExecutionCtx
	scope  *Scope
	data   map[any]any
	ctx    context.Context

	journalMu sync.Mutex
	journal   map[string]*journalEntry
}

// Set stores a value in this context's own data store.
func (e *ExecutionCtx) Set(tag any, value any) {
	e.data[tag] = value
}

// Get reads from this context's own data store only.
func (e *ExecutionCtx) Get(tag any) (any, bool) {
	v, ok := e.data[tag]
	return v, ok
}

// GetFromParent walks up the parent chain, skipping this context's own
// data store.
func (e *ExecutionCtx) GetFromParent(tag any) (any, bool) {
	current := e.parent
	for current != nil {
		if v, ok := current.data[tag]; ok {
			return v, true
		}
		current = current.parent
	}
	return nil, false
}

// GetFromScope reads from the owning scope's metadata store.
func (e *ExecutionCtx) GetFromScope(tag any) (any, bool) {
	return e.scope.GetTag(tag)
}

// Lookup checks this context, then its ancestors, then the owning
// scope, in that order.
func (e *ExecutionCtx) Lookup(tag any) (any, bool) {
	if v, ok := e.Get(tag); ok {
		return v, true
	}
	if v, ok := e.GetFromParent(tag); ok {
		return v, true
	}
	return e.GetFromScope(tag)
}

// Context returns the context.Context carrying this execution's
// cancellation.
func (e *ExecutionCtx) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// Scope returns the owning scope.
func (e *ExecutionCtx) Scope() *Scope {
	return e.scope
}

// Parallel builds a ParallelExecutor bound to this context.
func (e *ExecutionCtx) Parallel(opts ...ParallelOption) *ParallelExecutor {
	pe := &ParallelExecutor{ctx: e, errorMode: ErrorModeFailFast}
	for _, opt := range opts {
		opt(pe)
	}
	return pe
}

func (e *ExecutionCtx) finalize() *ExecutionNode {
	parentID := ""
	if e.parent != nil {
		parentID = e.parent.id
	}

	node := &ExecutionNode{ID: e.id, ParentID: parentID, Tags: make(map[any]any, len(e.data))}
	for k, v := range e.data {
		node.Tags[k] = v
	}
	return node
}

func newExecutionCtx(id string, parent *ExecutionCtx, scope *Scope, ctx context.Context) *ExecutionCtx {
	return &ExecutionCtx{
		id:      id,
		parent:  parent,
		scope:   scope,
		data:    make(map[any]any),
		ctx:     ctx,
		journal: make(map[string]*journalEntry),
	}
}

// ExecutionNode is a finalized, immutable snapshot of one ExecutionCtx,
// retained in the owning scope's ExecutionTree for replay/inspection.
type ExecutionNode struct {
	ID       string
	ParentID string
	Tags     map[any]any
}

func (n *ExecutionNode) GetTag(tag any) (any, bool) {
	v, ok := n.Tags[tag]
	return v, ok
}

func (n *ExecutionNode) GetAllTags() map[any]any {
	return n.Tags
}

// ExecutionTree journals the tree of flow executions for a scope,
// bounded to a node-count limit with oldest-root eviction.
type ExecutionTree struct {
	mu       sync.RWMutex
	nodes    *TypeSafeCache[*ExecutionNode]
	byParent map[string][]string
	roots    []string
	limit    int
}

func newExecutionTree(limit int) *ExecutionTree {
	return &ExecutionTree{
		nodes:    NewTypeSafeCache[*ExecutionNode](limit),
		byParent: make(map[string][]string),
		roots:    []string{},
		limit:    limit,
	}
}

func (t *ExecutionTree) addNode(node *ExecutionNode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nodes.Store(node.ID, node)

	if node.ParentID == "" {
		t.roots = append(t.roots, node.ID)
	} else {
		t.byParent[node.ParentID] = append(t.byParent[node.ParentID], node.ID)
	}

	if t.nodes.Size() > t.limit {
		t.evictOldest()
	}
}

func (t *ExecutionTree) evictOldest() {
	if len(t.roots) == 0 {
		return
	}
	oldest := t.roots[0]
	t.roots = t.roots[1:]
	t.removeSubtree(oldest)
}

func (t *ExecutionTree) removeSubtree(nodeID string) {
	t.nodes.Delete(nodeID)
	children := t.byParent[nodeID]
	delete(t.byParent, nodeID)
	for _, childID := range children {
		t.removeSubtree(childID)
	}
}

// GetNode returns the finalized node for id, or nil if absent/evicted.
func (t *ExecutionTree) GetNode(id string) *ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	node, _ := t.nodes.Load(id)
	return node
}

// GetChildren returns the direct sub-flow nodes of id.
func (t *ExecutionTree) GetChildren(id string) []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	childIDs := t.byParent[id]
	children := make([]*ExecutionNode, 0, len(childIDs))
	for _, childID := range childIDs {
		if node, ok := t.nodes.Load(childID); ok {
			children = append(children, node)
		}
	}
	return children
}

// GetRoots returns every top-level (non-sub-flow) execution still
// retained.
func (t *ExecutionTree) GetRoots() []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	roots := make([]*ExecutionNode, 0, len(t.roots))
	for _, id := range t.roots {
		if node, ok := t.nodes.Load(id); ok {
			roots = append(roots, node)
		}
	}
	return roots
}

// Filter returns every retained node matching predicate.
func (t *ExecutionTree) Filter(predicate func(*ExecutionNode) bool) []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []*ExecutionNode
	t.nodes.Range(func(_ CacheKey, node *ExecutionNode) bool {
		if predicate(node) {
			result = append(result, node)
		}
		return true
	})
	return result
}

// Walk visits rootID and its descendants depth-first until visitor
// returns false.
func (t *ExecutionTree) Walk(rootID string, visitor func(*ExecutionNode) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.walkUnlocked(rootID, visitor)
}

func (t *ExecutionTree) walkUnlocked(nodeID string, visitor func(*ExecutionNode) bool) {
	node, ok := t.nodes.Load(nodeID)
	if !ok {
		return
	}
	if !visitor(node) {
		return
	}
	for _, childID := range t.byParent[nodeID] {
		t.walkUnlocked(childID, visitor)
	}
}

// FlowError wraps one item's failure within a parallel or journaled
// batch, carrying its position and flow name for diagnostics.
type FlowError struct {
	Index    int
	FlowName string
	Err      error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("flow %q (index %d): %v", e.FlowName, e.Index, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// ExecutionStatus records the terminal (or running) state of an
// ExecutionCtx, surfaced via its status tag.
type ExecutionStatus int

const (
	ExecutionStatusRunning ExecutionStatus = iota
	ExecutionStatusSuccess
	ExecutionStatusFailed
	ExecutionStatusCancelled
)

var (
	flowNameTag   = NewTag[string]("flow.name")
	timeoutTag    = NewTag[time.Duration]("flow.timeout")
	retryTag      = NewTag[int]("flow.retry")
	startTimeTag  = NewTag[time.Time]("exec.start_time")
	endTimeTag    = NewTag[time.Time]("exec.end_time")
	statusTag     = NewTag[ExecutionStatus]("exec.status")
	errorTag      = NewTag[error]("exec.error")
	inputTag      = NewTag[any]("exec.input")
	outputTag     = NewTag[any]("exec.output")
	resumedTag    = NewTag[bool]("exec.resumed")
	cachedTag     = NewTag[any]("exec.cached_output")
	skipExecTag   = NewTag[bool]("exec.skip")
	panicStackTag = NewTag[[]byte]("exec.panic_stack")
)

func FlowName() Tag[string]        { return flowNameTag }
func Timeout() Tag[time.Duration]  { return timeoutTag }
func Retry() Tag[int]              { return retryTag }
func StartTime() Tag[time.Time]    { return startTimeTag }
func EndTime() Tag[time.Time]      { return endTimeTag }
func Status() Tag[ExecutionStatus] { return statusTag }
func ErrorTag() Tag[error]         { return errorTag }
func Input() Tag[any]              { return inputTag }
func Output() Tag[any]             { return outputTag }
func Resumed() Tag[bool]           { return resumedTag }
func CachedOutput() Tag[any]       { return cachedTag }
func SkipExecution() Tag[bool]     { return skipExecTag }
func PanicStack() Tag[[]byte]      { return panicStackTag }

func (s *Scope) generateExecutionID() string {
	return uuid.NewString()
}

func (s *Scope) snapshotExtensions() []Extension {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exts := make([]Extension, len(s.extensions))
	copy(exts, s.extensions)
	return exts
}

func resolveFlowDeps(ctx context.Context, s *Scope, deps []Dependency) error {
	for _, dep := range deps {
		if dep.GetMode() == ModeLazy {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := s.resolveAny(ctx, dep.GetExecutor()); err != nil {
			return fmt.Errorf("resolving dependency: %w", err)
		}
	}
	return nil
}

// Exec runs flow as a new root execution against s, returning its
// result, the finalized execution context, and any error.
func Exec[R any](s *Scope, ctx context.Context, flow *Flow[R]) (R, *ExecutionCtx, error) {
	var zero R
	if ctx == nil {
		ctx = context.Background()
	}

	execCtx := newExecutionCtx(s.generateExecutionID(), nil, s, ctx)
	if name, ok := flowNameTag.Find(flow); ok {
		execCtx.Set(flowNameTag, name)
	}
	execCtx.Set(startTimeTag, time.Now())
	execCtx.Set(statusTag, ExecutionStatusRunning)

	if err := resolveFlowDeps(ctx, s, flow.deps); err != nil {
		execCtx.Set(endTimeTag, time.Now())
		if ctx.Err() != nil {
			execCtx.Set(statusTag, ExecutionStatusCancelled)
		} else {
			execCtx.Set(statusTag, ExecutionStatusFailed)
		}
		execCtx.Set(errorTag, err)
		s.execTree.addNode(execCtx.finalize())
		return zero, execCtx, err
	}

	exts := s.snapshotExtensions()
	for _, ext := range exts {
		if err := ext.OnFlowStart(execCtx, flow); err != nil {
			execCtx.Set(statusTag, ExecutionStatusFailed)
			execCtx.Set(errorTag, err)
			s.execTree.addNode(execCtx.finalize())
			return zero, execCtx, err
		}
	}

	select {
	case <-ctx.Done():
		execCtx.Set(endTimeTag, time.Now())
		execCtx.Set(statusTag, ExecutionStatusCancelled)
		execCtx.Set(errorTag, ctx.Err())
		s.execTree.addNode(execCtx.finalize())
		return zero, execCtx, ctx.Err()
	default:
	}

	result, err := executeFlow(execCtx, flow)

	execCtx.Set(endTimeTag, time.Now())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			execCtx.Set(statusTag, ExecutionStatusCancelled)
		} else {
			execCtx.Set(statusTag, ExecutionStatusFailed)
		}
		execCtx.Set(errorTag, err)
	} else {
		execCtx.Set(statusTag, ExecutionStatusSuccess)
		execCtx.Set(outputTag, result)
	}

	for i := len(exts) - 1; i >= 0; i-- {
		if extErr := exts[i].OnFlowEnd(execCtx, result, err); extErr != nil && err == nil {
			err = extErr
		}
	}

	s.execTree.addNode(execCtx.finalize())

	return result, execCtx, err
}

// Exec1 runs flow as a sub-flow of e, pushing a child ExecutionCtx that
// inherits e's cancellation but keeps its own data store and journal.
func Exec1[R any](e *ExecutionCtx, flow *Flow[R]) (R, *ExecutionCtx, error) {
	var zero R

	if err := resolveFlowDeps(e.Context(), e.scope, flow.deps); err != nil {
		return zero, nil, err
	}

	childCtx := newExecutionCtx(e.scope.generateExecutionID(), e, e.scope, e.ctx)
	if name, ok := flowNameTag.Find(flow); ok {
		childCtx.Set(flowNameTag, name)
	}
	childCtx.Set(startTimeTag, time.Now())
	childCtx.Set(statusTag, ExecutionStatusRunning)

	exts := e.scope.snapshotExtensions()
	for _, ext := range exts {
		if err := ext.OnFlowStart(childCtx, flow); err != nil {
			childCtx.Set(statusTag, ExecutionStatusFailed)
			childCtx.Set(errorTag, err)
			e.scope.execTree.addNode(childCtx.finalize())
			return zero, childCtx, err
		}
	}

	select {
	case <-childCtx.Context().Done():
		childCtx.Set(endTimeTag, time.Now())
		childCtx.Set(statusTag, ExecutionStatusCancelled)
		childCtx.Set(errorTag, childCtx.Context().Err())
		e.scope.execTree.addNode(childCtx.finalize())
		return zero, childCtx, childCtx.Context().Err()
	default:
	}

	if skip, ok := childCtx.GetFromParent(skipExecTag); ok {
		if skipped, _ := skip.(bool); skipped {
			if cached, ok := childCtx.GetFromParent(cachedTag); ok {
				childCtx.Set(endTimeTag, time.Now())
				childCtx.Set(statusTag, ExecutionStatusSuccess)
				childCtx.Set(outputTag, cached)

				for i := len(exts) - 1; i >= 0; i-- {
					if err := exts[i].OnFlowEnd(childCtx, cached, nil); err != nil {
						childCtx.Set(statusTag, ExecutionStatusFailed)
						childCtx.Set(errorTag, err)
						e.scope.execTree.addNode(childCtx.finalize())
						return zero, childCtx, err
					}
				}

				e.scope.execTree.addNode(childCtx.finalize())
				result, _ := cached.(R)
				return result, childCtx, nil
			}
		}
	}

	result, err := executeFlow(childCtx, flow)

	childCtx.Set(endTimeTag, time.Now())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			childCtx.Set(statusTag, ExecutionStatusCancelled)
		} else {
			childCtx.Set(statusTag, ExecutionStatusFailed)
		}
		childCtx.Set(errorTag, err)
	} else {
		childCtx.Set(statusTag, ExecutionStatusSuccess)
		childCtx.Set(outputTag, result)
	}

	for i := len(exts) - 1; i >= 0; i-- {
		if extErr := exts[i].OnFlowEnd(childCtx, result, err); extErr != nil && err == nil {
			err = extErr
		}
	}

	e.scope.execTree.addNode(childCtx.finalize())

	return result, childCtx, err
}

// executeFlow invokes flow's factory, recovering any panic into an
// error and honoring cancellation of e's context while the factory runs
// in its own goroutine.
func executeFlow[R any](e *ExecutionCtx, flow *Flow[R]) (result R, err error) {
	select {
	case <-e.Context().Done():
		return result, e.Context().Err()
	default:
	}

	resolveCtx := &ResolveCtx{scope: e.scope, ctx: e.Context()}

	type factoryResult struct {
		value R
		err   error
		panic any
		stack []byte
	}

	resultCh := make(chan factoryResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- factoryResult{panic: r, stack: debug.Stack()}
			}
		}()
		value, ferr := flow.factory(e, resolveCtx)
		resultCh <- factoryResult{value: value, err: ferr}
	}()

	select {
	case res := <-resultCh:
		if res.panic != nil {
			err = fmt.Errorf("panic in flow: %v", res.panic)
			e.Set(panicStackTag, res.stack)
			for _, ext := range e.scope.snapshotExtensions() {
				if panicErr := ext.OnFlowPanic(e, res.panic, res.stack); panicErr != nil {
					err = errors.Join(err, panicErr)
				}
			}
			return
		}
		result = res.value
		err = res.err
		return
	case <-e.Context().Done():
		err = e.Context().Err()
		return
	}
}

package pumped

import (
	"fmt"
	"runtime/debug"
	"time"
)

// ErrorCode identifies one of the taxonomy entries from spec.md §7.
type ErrorCode string

const (
	CodeScopeDisposed               ErrorCode = "ScopeDisposed"
	CodeUnresolved                  ErrorCode = "Unresolved"
	CodeResolutionInProgress        ErrorCode = "ResolutionInProgress"
	CodeNotMutable                  ErrorCode = "NotMutable"
	CodeCircularDependency          ErrorCode = "CircularDependency"
	CodeFactoryExecutionError       ErrorCode = "FactoryExecutionError"
	CodeDependencyResolutionError   ErrorCode = "DependencyResolutionError"
	CodeSchemaValidationError       ErrorCode = "SchemaValidationError"
	CodeValidationAsyncNotSupported ErrorCode = "ValidationAsyncNotSupported"
	CodeJournalKeyCollision         ErrorCode = "JournalKeyCollision"
	CodeCancelled                   ErrorCode = "Cancelled"
	CodeFlowError                   ErrorCode = "FlowError"
	CodeCleanupError                ErrorCode = "CleanupError"
	CodeTagNotFound                 ErrorCode = "TagNotFound"
)

// ErrorCategory groups error codes for coarse-grained handling.
type ErrorCategory string

const (
	CategoryLifecycle  ErrorCategory = "lifecycle"
	CategoryResolution ErrorCategory = "resolution"
	CategoryValidation ErrorCategory = "validation"
	CategoryExecution  ErrorCategory = "execution"
)

// ErrorContext carries the diagnostic payload every PumpedError exposes,
// matching the boundary contract in spec.md §6.
type ErrorContext struct {
	ExecutorName    string
	DependencyChain []string
	Timestamp       time.Time
	ResolutionStage string
	AdditionalInfo  map[string]any
}

// PumpedError is the tagged error root every public API returns.
type PumpedError struct {
	Code     ErrorCode
	Category ErrorCategory
	Context  ErrorContext
	Cause    error
}

func (e *PumpedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

func (e *PumpedError) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, category ErrorCategory, cause error, ctx ErrorContext) *PumpedError {
	if ctx.Timestamp.IsZero() {
		ctx.Timestamp = time.Now()
	}
	return &PumpedError{Code: code, Category: category, Context: ctx, Cause: cause}
}

// ScopeDisposedError reports an operation attempted after Scope.Dispose.
func ScopeDisposedError(executorName string) *PumpedError {
	return newError(CodeScopeDisposed, CategoryLifecycle, nil, ErrorContext{ExecutorName: executorName})
}

// UnresolvedError reports Update called on an executor the scope has not resolved.
func UnresolvedError(executorName string) *PumpedError {
	return newError(CodeUnresolved, CategoryResolution, nil, ErrorContext{ExecutorName: executorName})
}

// ResolutionInProgressError reports Update called while the executor is still resolving or another update is in flight.
func ResolutionInProgressError(executorName string) *PumpedError {
	return newError(CodeResolutionInProgress, CategoryResolution, nil, ErrorContext{ExecutorName: executorName})
}

// NotMutableError reports Update called on a non-mutable executor.
func NotMutableError(executorName string) *PumpedError {
	return newError(CodeNotMutable, CategoryResolution, nil, ErrorContext{ExecutorName: executorName})
}

// CircularDependencyError reports a self-reference detected during resolution.
func CircularDependencyError(executorName string, chain []string) *PumpedError {
	return newError(CodeCircularDependency, CategoryResolution, nil, ErrorContext{
		ExecutorName:    executorName,
		DependencyChain: chain,
		AdditionalInfo:  map[string]any{"circularPath": chain},
	})
}

// FactoryExecutionError wraps a panic/error thrown by a factory.
func FactoryExecutionError(executorName string, cause error) *PumpedError {
	return newError(CodeFactoryExecutionError, CategoryExecution, cause, ErrorContext{
		ExecutorName: executorName, ResolutionStage: "factory",
	})
}

// DependencyResolutionError wraps a failure while resolving a child dependency.
func DependencyResolutionError(executorName string, chain []string, cause error) *PumpedError {
	return newError(CodeDependencyResolutionError, CategoryResolution, cause, ErrorContext{
		ExecutorName: executorName, DependencyChain: chain, ResolutionStage: "dependency",
	})
}

// SchemaValidationError wraps the first issue plus the full issue list from a validator.
func SchemaValidationError(executorName string, cause error, issues []string) *PumpedError {
	return newError(CodeSchemaValidationError, CategoryValidation, cause, ErrorContext{
		ExecutorName:   executorName,
		AdditionalInfo: map[string]any{"issues": issues},
	})
}

// ValidationAsyncNotSupportedError reports a validator that resolved asynchronously.
func ValidationAsyncNotSupportedError(executorName string) *PumpedError {
	return newError(CodeValidationAsyncNotSupported, CategoryValidation, nil, ErrorContext{ExecutorName: executorName})
}

// JournalKeyCollisionError reports a journal key reused with an incompatible type.
func JournalKeyCollisionError(key string) *PumpedError {
	return newError(CodeJournalKeyCollision, CategoryExecution, nil, ErrorContext{
		ResolutionStage: "journal",
		AdditionalInfo:  map[string]any{"key": key},
	})
}

// CancelledError reports an operation attempted on a cancelled flow context.
func CancelledError(cause error) *PumpedError {
	return newError(CodeCancelled, CategoryExecution, cause, ErrorContext{ResolutionStage: "flow"})
}

// FlowErrorOf wraps a handler panic/throw as a rejection (never a domain KO).
func FlowErrorOf(flowName string, cause error) *PumpedError {
	return newError(CodeFlowError, CategoryExecution, cause, ErrorContext{
		ExecutorName: flowName, ResolutionStage: "handler",
	})
}

// CleanupErrorOf wraps a cleanup callback failure.
func CleanupErrorOf(executorName string, cause error) *PumpedError {
	return newError(CodeCleanupError, CategoryExecution, cause, ErrorContext{ExecutorName: executorName})
}

// TagNotFoundError reports Tag.Get finding no value and no default.
func TagNotFoundError(key string) *PumpedError {
	return newError(CodeTagNotFound, CategoryValidation, nil, ErrorContext{
		AdditionalInfo: map[string]any{"tag": key},
	})
}

// capturePanic converts a recovered panic into a FactoryExecutionError carrying a stack trace.
func capturePanic(executorName string, recovered any) *PumpedError {
	err := fmt.Errorf("panic: %v", recovered)
	perr := FactoryExecutionError(executorName, err)
	if perr.Context.AdditionalInfo == nil {
		perr.Context.AdditionalInfo = map[string]any{}
	}
	perr.Context.AdditionalInfo["stack"] = string(debug.Stack())
	return perr
}

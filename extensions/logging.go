package extensions

import (
	"context"
	"log/slog"
	"time"

	pumped "github.com/pumped-fn/pumped-go"
)

// LoggingExtension structures every resolve/update and flow lifecycle
// event through a slog.Logger, defaulting to slog.Default() so a
// scope wired without configuration still logs somewhere useful.
type LoggingExtension struct {
	pumped.BaseExtension
	log *slog.Logger
}

// NewLoggingExtension creates a logging extension. Pass nil to use
// slog.Default().
func NewLoggingExtension(logger *slog.Logger) *LoggingExtension {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingExtension{
		BaseExtension: pumped.NewBaseExtension("logging"),
		log:           logger,
	}
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *pumped.Operation) (any, error) {
	start := time.Now()
	name := op.Executor.Name()
	e.log.Debug("operation starting", "extension", e.Name(), "kind", op.Kind, "executor", name)

	result, err := next()

	duration := time.Since(start)
	if err != nil {
		e.log.Error("operation failed", "extension", e.Name(), "kind", op.Kind, "executor", name,
			"duration", duration, "error", err)
	} else {
		e.log.Debug("operation completed", "extension", e.Name(), "kind", op.Kind, "executor", name,
			"duration", duration)
	}

	return result, err
}

func (e *LoggingExtension) OnError(err error, op *pumped.Operation, scope *pumped.Scope) {
	e.log.Error("unhandled error", "extension", e.Name(), "kind", op.Kind, "executor", op.Executor.Name(), "error", err)
}

func (e *LoggingExtension) OnCleanupError(cerr *pumped.CleanupError) bool {
	e.log.Warn("cleanup failed", "extension", e.Name(), "executor", cerr.ExecutorID.Name(), "context", cerr.Context, "error", cerr.Err)
	return false
}

func (e *LoggingExtension) OnFlowStart(execCtx *pumped.ExecutionCtx, flow pumped.AnyFlow) error {
	name, _ := execCtx.Get(pumped.FlowName())
	e.log.Info("flow starting", "extension", e.Name(), "flow", name)
	return nil
}

func (e *LoggingExtension) OnFlowEnd(execCtx *pumped.ExecutionCtx, result any, err error) error {
	name, _ := execCtx.Get(pumped.FlowName())
	if err != nil {
		e.log.Error("flow failed", "extension", e.Name(), "flow", name, "error", err)
	} else {
		e.log.Info("flow completed", "extension", e.Name(), "flow", name)
	}
	return nil
}

func (e *LoggingExtension) OnFlowPanic(execCtx *pumped.ExecutionCtx, recovered any, stack []byte) error {
	name, _ := execCtx.Get(pumped.FlowName())
	e.log.Error("flow panicked", "extension", e.Name(), "flow", name, "recovered", recovered)
	return nil
}

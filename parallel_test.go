package pumped

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParallelCollectErrorsWaitsForAll(t *testing.T) {
	scope := NewScope()
	defer scope.Dispose()

	wantErr := errors.New("item failed")

	flow := NewFlow(func(execCtx *ExecutionCtx, ctx *ResolveCtx) (ParallelResult[int], error) {
		pe := execCtx.Parallel(WithCollectErrors())
		items := []Promised[int]{
			Resolved(1),
			Rejected[int](wantErr),
			Resolved(3),
		}
		return Parallel(pe, items), nil
	})

	result, _, err := Exec(scope, context.Background(), flow)
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}

	if result.Kind != Partial {
		t.Errorf("expected Partial, got %v", result.Kind)
	}
	if result.Stats.Succeeded != 2 || result.Stats.Failed != 1 {
		t.Errorf("expected 2 succeeded 1 failed, got %+v", result.Stats)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(result.Results))
	}
	if !result.Results[0].IsOK() || result.Results[0].Value != 1 {
		t.Errorf("expected first result OK(1), got %+v", result.Results[0])
	}
	if result.Results[1].IsOK() || !errors.Is(result.Results[1].Err, wantErr) {
		t.Errorf("expected second result to carry wantErr, got %+v", result.Results[1])
	}
}

func TestParallelAllOK(t *testing.T) {
	scope := NewScope()
	defer scope.Dispose()

	flow := NewFlow(func(execCtx *ExecutionCtx, ctx *ResolveCtx) (ParallelResult[int], error) {
		pe := execCtx.Parallel(WithCollectErrors())
		items := []Promised[int]{Resolved(1), Resolved(2), Resolved(3)}
		return Parallel(pe, items), nil
	})

	result, _, err := Exec(scope, context.Background(), flow)
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if result.Kind != AllOK {
		t.Errorf("expected AllOK, got %v", result.Kind)
	}
}

func TestParallelAllKO(t *testing.T) {
	scope := NewScope()
	defer scope.Dispose()

	wantErr := errors.New("boom")

	flow := NewFlow(func(execCtx *ExecutionCtx, ctx *ResolveCtx) (ParallelResult[int], error) {
		pe := execCtx.Parallel(WithCollectErrors())
		items := []Promised[int]{Rejected[int](wantErr), Rejected[int](wantErr)}
		return Parallel(pe, items), nil
	})

	result, _, err := Exec(scope, context.Background(), flow)
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if result.Kind != AllKO {
		t.Errorf("expected AllKO, got %v", result.Kind)
	}
}

func TestParallelFailFastCancelsRemaining(t *testing.T) {
	scope := NewScope()
	defer scope.Dispose()

	wantErr := errors.New("stop")

	flow := NewFlow(func(execCtx *ExecutionCtx, ctx *ResolveCtx) (ParallelResult[int], error) {
		pe := execCtx.Parallel(WithFailFast())
		items := []Promised[int]{
			Rejected[int](wantErr),
			Create(func(c context.Context) (int, error) {
				select {
				case <-time.After(2 * time.Second):
					return 99, nil
				case <-c.Done():
					return 0, c.Err()
				}
			}),
		}
		return Parallel(pe, items), nil
	})

	start := time.Now()
	result, _, err := Exec(scope, context.Background(), flow)
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("expected fail-fast to cancel the slow item promptly, took %v", time.Since(start))
	}
	if result.Stats.Failed < 1 {
		t.Errorf("expected at least one failure, got %+v", result.Stats)
	}
}

func TestExecuteParallelLiftsPlainFunctions(t *testing.T) {
	scope := NewScope()
	defer scope.Dispose()

	wantErr := errors.New("fail")

	flow := NewFlow(func(execCtx *ExecutionCtx, ctx *ResolveCtx) (ParallelResult[int], error) {
		fns := []func() (int, error){
			func() (int, error) { return 10, nil },
			func() (int, error) { return 0, wantErr },
		}
		return ExecuteParallel(execCtx, fns), nil
	})

	result, _, err := Exec(scope, context.Background(), flow)
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if result.Kind != Partial {
		t.Errorf("expected Partial, got %v", result.Kind)
	}
}

func TestExecuteAppliesErrorMapper(t *testing.T) {
	scope := NewScope()
	defer scope.Dispose()

	base := errors.New("base")
	mapped := errors.New("mapped")

	flow := NewFlow(func(execCtx *ExecutionCtx, ctx *ResolveCtx) (int, error) {
		outcome := Execute(execCtx, func() (int, error) {
			return 0, base
		}, func(err error) error {
			if errors.Is(err, base) {
				return mapped
			}
			return err
		})
		if !errors.Is(outcome.Err, mapped) {
			t.Errorf("expected mapped error, got %v", outcome.Err)
		}
		return 0, nil
	})

	if _, _, err := Exec(scope, context.Background(), flow); err != nil {
		t.Fatalf("exec failed: %v", err)
	}
}

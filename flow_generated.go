package pumped

//go:generate go run ./cmd/codegen -flow -w

func Flow1[R, D1 any](
	d1 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1)
		},
		tags: cfg.tags,
	}
}

func Flow2[R, D1, D2 any](
	d1, d2 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1], *Controller[D2]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1, d2},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			ctrl2 := &Controller[D2]{executor: d2.GetExecutor().(*Executor[D2]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1, ctrl2)
		},
		tags: cfg.tags,
	}
}

func Flow3[R, D1, D2, D3 any](
	d1, d2, d3 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1], *Controller[D2], *Controller[D3]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1, d2, d3},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			ctrl2 := &Controller[D2]{executor: d2.GetExecutor().(*Executor[D2]), scope: execCtx.scope}
			ctrl3 := &Controller[D3]{executor: d3.GetExecutor().(*Executor[D3]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1, ctrl2, ctrl3)
		},
		tags: cfg.tags,
	}
}

func Flow4[R, D1, D2, D3, D4 any](
	d1, d2, d3, d4 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1], *Controller[D2], *Controller[D3], *Controller[D4]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1, d2, d3, d4},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			ctrl2 := &Controller[D2]{executor: d2.GetExecutor().(*Executor[D2]), scope: execCtx.scope}
			ctrl3 := &Controller[D3]{executor: d3.GetExecutor().(*Executor[D3]), scope: execCtx.scope}
			ctrl4 := &Controller[D4]{executor: d4.GetExecutor().(*Executor[D4]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1, ctrl2, ctrl3, ctrl4)
		},
		tags: cfg.tags,
	}
}

func Flow5[R, D1, D2, D3, D4, D5 any](
	d1, d2, d3, d4, d5 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1], *Controller[D2], *Controller[D3], *Controller[D4], *Controller[D5]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1, d2, d3, d4, d5},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			ctrl2 := &Controller[D2]{executor: d2.GetExecutor().(*Executor[D2]), scope: execCtx.scope}
			ctrl3 := &Controller[D3]{executor: d3.GetExecutor().(*Executor[D3]), scope: execCtx.scope}
			ctrl4 := &Controller[D4]{executor: d4.GetExecutor().(*Executor[D4]), scope: execCtx.scope}
			ctrl5 := &Controller[D5]{executor: d5.GetExecutor().(*Executor[D5]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1, ctrl2, ctrl3, ctrl4, ctrl5)
		},
		tags: cfg.tags,
	}
}

func Flow6[R, D1, D2, D3, D4, D5, D6 any](
	d1, d2, d3, d4, d5, d6 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1], *Controller[D2], *Controller[D3], *Controller[D4], *Controller[D5], *Controller[D6]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1, d2, d3, d4, d5, d6},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			ctrl2 := &Controller[D2]{executor: d2.GetExecutor().(*Executor[D2]), scope: execCtx.scope}
			ctrl3 := &Controller[D3]{executor: d3.GetExecutor().(*Executor[D3]), scope: execCtx.scope}
			ctrl4 := &Controller[D4]{executor: d4.GetExecutor().(*Executor[D4]), scope: execCtx.scope}
			ctrl5 := &Controller[D5]{executor: d5.GetExecutor().(*Executor[D5]), scope: execCtx.scope}
			ctrl6 := &Controller[D6]{executor: d6.GetExecutor().(*Executor[D6]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1, ctrl2, ctrl3, ctrl4, ctrl5, ctrl6)
		},
		tags: cfg.tags,
	}
}

func Flow7[R, D1, D2, D3, D4, D5, D6, D7 any](
	d1, d2, d3, d4, d5, d6, d7 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1], *Controller[D2], *Controller[D3], *Controller[D4], *Controller[D5], *Controller[D6], *Controller[D7]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1, d2, d3, d4, d5, d6, d7},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			ctrl2 := &Controller[D2]{executor: d2.GetExecutor().(*Executor[D2]), scope: execCtx.scope}
			ctrl3 := &Controller[D3]{executor: d3.GetExecutor().(*Executor[D3]), scope: execCtx.scope}
			ctrl4 := &Controller[D4]{executor: d4.GetExecutor().(*Executor[D4]), scope: execCtx.scope}
			ctrl5 := &Controller[D5]{executor: d5.GetExecutor().(*Executor[D5]), scope: execCtx.scope}
			ctrl6 := &Controller[D6]{executor: d6.GetExecutor().(*Executor[D6]), scope: execCtx.scope}
			ctrl7 := &Controller[D7]{executor: d7.GetExecutor().(*Executor[D7]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1, ctrl2, ctrl3, ctrl4, ctrl5, ctrl6, ctrl7)
		},
		tags: cfg.tags,
	}
}

func Flow8[R, D1, D2, D3, D4, D5, D6, D7, D8 any](
	d1, d2, d3, d4, d5, d6, d7, d8 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1], *Controller[D2], *Controller[D3], *Controller[D4], *Controller[D5], *Controller[D6], *Controller[D7], *Controller[D8]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1, d2, d3, d4, d5, d6, d7, d8},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			ctrl2 := &Controller[D2]{executor: d2.GetExecutor().(*Executor[D2]), scope: execCtx.scope}
			ctrl3 := &Controller[D3]{executor: d3.GetExecutor().(*Executor[D3]), scope: execCtx.scope}
			ctrl4 := &Controller[D4]{executor: d4.GetExecutor().(*Executor[D4]), scope: execCtx.scope}
			ctrl5 := &Controller[D5]{executor: d5.GetExecutor().(*Executor[D5]), scope: execCtx.scope}
			ctrl6 := &Controller[D6]{executor: d6.GetExecutor().(*Executor[D6]), scope: execCtx.scope}
			ctrl7 := &Controller[D7]{executor: d7.GetExecutor().(*Executor[D7]), scope: execCtx.scope}
			ctrl8 := &Controller[D8]{executor: d8.GetExecutor().(*Executor[D8]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1, ctrl2, ctrl3, ctrl4, ctrl5, ctrl6, ctrl7, ctrl8)
		},
		tags: cfg.tags,
	}
}

func Flow9[R, D1, D2, D3, D4, D5, D6, D7, D8, D9 any](
	d1, d2, d3, d4, d5, d6, d7, d8, d9 Dependency,
	factory func(*ExecutionCtx, *ResolveCtx, *Controller[D1], *Controller[D2], *Controller[D3], *Controller[D4], *Controller[D5], *Controller[D6], *Controller[D7], *Controller[D8], *Controller[D9]) (R, error),
	opts ...FlowOption,
) *Flow[R] {
	cfg := &flowConfig{tags: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Flow[R]{
		deps: []Dependency{d1, d2, d3, d4, d5, d6, d7, d8, d9},
		factory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {
			ctrl1 := &Controller[D1]{executor: d1.GetExecutor().(*Executor[D1]), scope: execCtx.scope}
			ctrl2 := &Controller[D2]{executor: d2.GetExecutor().(*Executor[D2]), scope: execCtx.scope}
			ctrl3 := &Controller[D3]{executor: d3.GetExecutor().(*Executor[D3]), scope: execCtx.scope}
			ctrl4 := &Controller[D4]{executor: d4.GetExecutor().(*Executor[D4]), scope: execCtx.scope}
			ctrl5 := &Controller[D5]{executor: d5.GetExecutor().(*Executor[D5]), scope: execCtx.scope}
			ctrl6 := &Controller[D6]{executor: d6.GetExecutor().(*Executor[D6]), scope: execCtx.scope}
			ctrl7 := &Controller[D7]{executor: d7.GetExecutor().(*Executor[D7]), scope: execCtx.scope}
			ctrl8 := &Controller[D8]{executor: d8.GetExecutor().(*Executor[D8]), scope: execCtx.scope}
			ctrl9 := &Controller[D9]{executor: d9.GetExecutor().(*Executor[D9]), scope: execCtx.scope}
			return factory(execCtx, resolveCtx, ctrl1, ctrl2, ctrl3, ctrl4, ctrl5, ctrl6, ctrl7, ctrl8, ctrl9)
		},
		tags: cfg.tags,
	}
}

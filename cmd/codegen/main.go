// Command codegen emits the Derive1..9 and Flow1..9 family of
// generic constructors, which Go cannot express as a single variadic
// generic function. Run with -flow to emit flow_generated.go instead of
// executor_generated.go; -w writes the result in place.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// deriveTypeParams returns D1 any, D2 any, ... — Derive's style, each
// parameter spelling out its own constraint.
func deriveTypeParams(n int) []string {
	params := make([]string, n)
	for i := 1; i <= n; i++ {
		params[i-1] = fmt.Sprintf("D%d any", i)
	}
	return params
}

// flowTypeParams returns D1, D2, ..., Dn any — Flow's style, every
// parameter but the last left bare, sharing the trailing constraint.
func flowTypeParams(n int) []string {
	params := make([]string, n)
	for i := 1; i <= n; i++ {
		if i == n {
			params[i-1] = fmt.Sprintf("D%d any", i)
		} else {
			params[i-1] = fmt.Sprintf("D%d", i)
		}
	}
	return params
}

func controllerParams(n int) []string {
	out := make([]string, n)
	for i := 1; i <= n; i++ {
		out[i-1] = fmt.Sprintf("*Controller[D%d]", i)
	}
	return out
}

func depNames(n int) []string {
	out := make([]string, n)
	for i := 1; i <= n; i++ {
		out[i-1] = fmt.Sprintf("d%d", i)
	}
	return out
}

func generateDerive(n int) string {
	var sb strings.Builder

	typeParamList := append([]string{"T any"}, deriveTypeParams(n)...)
	depParams := make([]string, n)
	for i := 1; i <= n; i++ {
		depParams[i-1] = fmt.Sprintf("d%d Dependency", i)
	}

	factoryParams := append([]string{"*ResolveCtx"}, controllerParams(n)...)

	controllers := make([]string, n)
	for i := 1; i <= n; i++ {
		controllers[i-1] = fmt.Sprintf(`ctrl%d := &Controller[D%d]{
				executor: d%d.GetExecutor().(*Executor[D%d]),
				scope:    ctx.scope,
			}`, i, i, i, i)
	}

	ctrlRefs := []string{"ctx"}
	for i := 1; i <= n; i++ {
		ctrlRefs = append(ctrlRefs, fmt.Sprintf("ctrl%d", i))
	}

	sb.WriteString(fmt.Sprintf("func Derive%d[%s](\n", n, strings.Join(typeParamList, ", ")))
	for _, dep := range depParams {
		sb.WriteString(fmt.Sprintf("\t%s,\n", dep))
	}
	sb.WriteString(fmt.Sprintf("\tfactory func(%s) (T, error),\n", strings.Join(factoryParams, ", ")))
	sb.WriteString("\topts ...ExecutorOption,\n")
	sb.WriteString(") *Executor[T] {\n")
	sb.WriteString("\texec := &Executor[T]{\n")
	sb.WriteString(fmt.Sprintf("\t\tdeps: []Dependency{%s},\n", strings.Join(depNames(n), ", ")))
	sb.WriteString("\t\tfactory: func(ctx *ResolveCtx) (T, error) {\n")
	for _, ctrl := range controllers {
		sb.WriteString(fmt.Sprintf("\t\t\t%s\n", ctrl))
	}
	sb.WriteString(fmt.Sprintf("\t\t\treturn factory(%s)\n", strings.Join(ctrlRefs, ", ")))
	sb.WriteString("\t\t},\n")
	sb.WriteString("\t\ttags: make(map[any]any),\n")
	sb.WriteString("\t}\n\n")
	sb.WriteString("\tfor _, opt := range opts {\n")
	sb.WriteString("\t\topt(exec)\n")
	sb.WriteString("\t}\n\n")
	sb.WriteString("\treturn exec\n")
	sb.WriteString("}\n\n")

	return sb.String()
}

func generateFlow(n int) string {
	var sb strings.Builder

	typeParamList := append([]string{"R"}, flowTypeParams(n)...)

	factoryParams := append([]string{"*ExecutionCtx", "*ResolveCtx"}, controllerParams(n)...)

	controllers := make([]string, n)
	for i := 1; i <= n; i++ {
		controllers[i-1] = fmt.Sprintf(
			"\t\t\tctrl%d := &Controller[D%d]{executor: d%d.GetExecutor().(*Executor[D%d]), scope: execCtx.scope}",
			i, i, i, i,
		)
	}

	ctrlRefs := []string{"execCtx", "resolveCtx"}
	for i := 1; i <= n; i++ {
		ctrlRefs = append(ctrlRefs, fmt.Sprintf("ctrl%d", i))
	}

	sb.WriteString(fmt.Sprintf("func Flow%d[%s](\n", n, strings.Join(typeParamList, ", ")))
	sb.WriteString(fmt.Sprintf("\t%s Dependency,\n", strings.Join(depNames(n), ", ")))
	sb.WriteString(fmt.Sprintf("\tfactory func(%s) (R, error),\n", strings.Join(factoryParams, ", ")))
	sb.WriteString("\topts ...FlowOption,\n")
	sb.WriteString(") *Flow[R] {\n")
	sb.WriteString("\tcfg := &flowConfig{tags: make(map[any]any)}\n")
	sb.WriteString("\tfor _, opt := range opts {\n")
	sb.WriteString("\t\topt(cfg)\n")
	sb.WriteString("\t}\n\n")
	sb.WriteString("\treturn &Flow[R]{\n")
	sb.WriteString(fmt.Sprintf("\t\tdeps: []Dependency{%s},\n", strings.Join(depNames(n), ", ")))
	sb.WriteString("\t\tfactory: func(execCtx *ExecutionCtx, resolveCtx *ResolveCtx) (R, error) {\n")
	for _, ctrl := range controllers {
		sb.WriteString(ctrl + "\n")
	}
	sb.WriteString(fmt.Sprintf("\t\t\treturn factory(%s)\n", strings.Join(ctrlRefs, ", ")))
	sb.WriteString("\t\t},\n")
	sb.WriteString("\t\ttags: cfg.tags,\n")
	sb.WriteString("\t}\n")
	sb.WriteString("}\n\n")

	return sb.String()
}

func main() {
	flowMode := flag.Bool("flow", false, "generate flow_generated.go instead of executor_generated.go")
	write := flag.Bool("w", false, "write the result to the target file")
	flag.Parse()

	var output strings.Builder
	var header, target string

	if *flowMode {
		header = "package pumped\n\n//go:generate go run ./cmd/codegen -flow -w\n\n"
		target = "flow_generated.go"
		for i := 1; i <= 9; i++ {
			output.WriteString(generateFlow(i))
		}
	} else {
		header = "package pumped\n\n//go:generate go run ./cmd/codegen -w\n\n"
		target = "executor_generated.go"
		for i := 1; i <= 9; i++ {
			output.WriteString(generateDerive(i))
		}
	}

	fmt.Print(header)
	fmt.Print(output.String())

	if *write {
		file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			panic(err)
		}
		defer file.Close()

		file.WriteString(header)
		file.WriteString(output.String())
		fmt.Printf("Generated %s\n", target)
	}
}

package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
)

// Environment variables passed to every bound command.
const (
	EnvIntent      = "MDX_INTENT"
	EnvParamPrefix = "MDX_PARAM_"
)

// Runner executes intents as local processes. Only kinds registered up front
// can run; nothing in an utterance can name a command.
type Runner struct {
	registry map[domain.Kind]RegisteredProcess
	baseDir  string
	output   io.Writer
}

// RegisteredProcess is the command bound to one intent kind.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Result is what a bound command produced.
type Result struct {
	// Output is the trimmed stdout.
	Output string
	// Data holds stdout decoded as JSON when it is an object or an array.
	Data any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRegistry registers every binding loaded by LoadBindings.
func WithRegistry(bindings map[domain.Kind]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for kind, b := range bindings {
			r.registry[kind] = RegisteredProcess{Command: b.Command, Args: b.Args, Env: b.Environment}
		}
	}
}

// WithBaseDir sets the working directory of bound commands.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithOutput copies the stdout of every successful command to w.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.output = w
	}
}

// NewRunner returns a Runner with no kinds bound.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[domain.Kind]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds kind to a command, replacing any earlier binding.
func (r *Runner) Register(kind domain.Kind, command string, args ...string) {
	r.registry[kind] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Kinds lists the bound intent kinds, sorted.
func (r *Runner) Kinds() []domain.Kind {
	out := make([]domain.Kind, 0, len(r.registry))
	for k := range r.registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bindings routes registered kinds to their process and everything else to
// fallback.
func (r *Runner) Bindings(fallback executor.Bindings) executor.Bindings {
	return executor.Bindings{
		CreateMacro: fallback.CreateMacro,
		Default: func(ctx context.Context, it domain.Intent) error {
			if _, ok := r.registry[it.Kind()]; !ok {
				return fallback.Dispatch(ctx, it)
			}
			res, err := r.Execute(ctx, it)
			if err != nil {
				return err
			}
			if r.output != nil && res.Output != "" {
				fmt.Fprintln(r.output, res.Output)
			}
			return nil
		},
	}
}

// Execute runs the command bound to the intent kind.
// Intent parameters are passed as environment variables, never as flags.
func (r *Runner) Execute(ctx context.Context, it domain.Intent) (Result, error) {
	proc, ok := r.registry[it.Kind()]
	if !ok {
		return Result{}, fmt.Errorf("%w: no process registered for %s", domain.ErrNoBinding, it.Kind())
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(proc, it)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("%s: execution failed: %w. Stderr: %s", it.Kind(), err, strings.TrimSpace(stderr.String()))
	}

	trimmed := strings.TrimSpace(stdout.String())
	res := Result{Output: trimmed}

	// JSON objects and arrays on stdout become Result.Data.
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var data any
		if jsonErr := json.Unmarshal([]byte(trimmed), &data); jsonErr == nil {
			res.Data = data
		}
	}
	return res, nil
}

func environment(proc RegisteredProcess, it domain.Intent) []string {
	env := []string{EnvIntent + "=" + string(it.Kind())}
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}

	params := domain.ToEnvelope(it).Params
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var val string
		switch v := params[k].(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			// maps and slices
			if inJSON, err := json.Marshal(v); err == nil {
				val = string(inJSON)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, EnvParamPrefix+strings.ToUpper(k)+"="+val)
	}
	return env
}

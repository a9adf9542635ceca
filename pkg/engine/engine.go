// Package engine evaluates model scripts. It wraps zygomys in a sandboxed
// environment and produces a model.Model from user source code.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/ifcextrude/pkg/fault"
	"github.com/chazu/ifcextrude/pkg/model"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	Element model.ElementID
}

// EvalResult bundles the full output of an evaluation, including the
// validation findings for the produced model.
type EvalResult struct {
	Model    *model.Model
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for model evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds each evaluation. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate is EvaluateContext without a caller context.
func (e *Engine) Evaluate(source string) (*model.Model, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext takes model script source and produces a new Model.
//
// Return semantics:
//   - On success: returns model + nil errors + nil error
//   - On parse/eval failure: returns nil model + eval errors + nil error
//   - On fatal failure (timeout, cancellation, panic, superseded): returns nil + nil + error
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*model.Model, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("engine: panic during evaluation: %w", fault.FromPanic(r))}
			}
		}()
		m, errs, err := e.evaluate(source)
		ch <- outcome{model: m, errs: errs, err: err}
	}()

	return e.await(ctx, gen, ch)
}

// EvaluateAll evaluates source and validates the resulting model.
// Validation errors are reported as EvalErrors and warnings as
// EvalWarnings; a model with validation errors is still returned so
// callers can show what was built. The error return is reserved for
// fatal failures.
func (e *Engine) EvaluateAll(ctx context.Context, source string) (EvalResult, error) {
	m, evalErrs, err := e.EvaluateContext(ctx, source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Model: m, Errors: evalErrs}
	if m == nil {
		return res, nil
	}
	m.Version = e.Generation()
	vr := model.ValidateAll(m)
	for _, ve := range vr.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Error()})
	}
	for _, vw := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: vw.Message, Element: vw.Element})
	}
	return res, nil
}

// Generation returns the number of evaluations started so far.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*model.Model, []EvalError, error) {
	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return model.New(), nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	m := model.New()
	registerBuiltins(env, m)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return m, nil, nil
}

// linePattern finds the line zygomys reports in messages such as
// "Error on line 5: unexpected token".
var linePattern = regexp.MustCompile(`(?i)\bline (\d+):[ \t]*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, keeping the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := strings.TrimSpace(err.Error())
	m := linePattern.FindStringSubmatch(msg)
	if m == nil {
		return []EvalError{{Message: msg}}
	}
	line, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return []EvalError{{Message: msg}}
	}
	detail := strings.TrimSpace(m[2])
	if detail == "" {
		detail = msg
	}
	return []EvalError{{Line: line, Message: detail}}
}

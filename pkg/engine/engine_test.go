package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chazu/ifcextrude/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Evaluation outcomes
// ---------------------------------------------------------------------------

func TestEvaluateWithoutElements(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  \n  "},
		{"comment only", "; nothing here\n;; at all"},
		{"arithmetic", "(+ 1 2)"},
		{"definitions", "(def x 10)\n(def y 20)\n(+ x y)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, evalErrs, err := NewEngine().Evaluate(tt.source)
			require.NoError(t, err)
			require.Empty(t, evalErrs)
			require.NotNil(t, m)
			assert.Equal(t, 0, m.Len())
		})
	}
}

func TestEvaluateScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unmatched paren", "(+ 1 2"},
		{"undefined symbol", "(+ 1 undefined-symbol)"},
		{"error on second line", "(+ 1 2)\n(+ 3"},
		{"builtin failure", `(solid (polyloop (pt 0 0) (pt 1 0) (pt 1 1)))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, evalErrs, err := NewEngine().Evaluate(tt.source)
			require.NoError(t, err, "script errors are not fatal")
			assert.Nil(t, m)
			require.NotEmpty(t, evalErrs)
			assert.NotEmpty(t, evalErrs[0].Message)
			assert.GreaterOrEqual(t, evalErrs[0].Line, 0)
		})
	}
}

func TestEvalErrorString(t *testing.T) {
	assert.Equal(t, "line 5: something went wrong", EvalError{Line: 5, Message: "something went wrong"}.Error())
	assert.Equal(t, "no location", EvalError{Message: "no location"}.Error())
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	source := `(element :name "w" (solid :depth 3 (polyloop (pt 0 0) (pt 1 0) (pt 1 1))))`

	var first model.ElementID
	for i := 0; i < 5; i++ {
		m, evalErrs, err := eng.Evaluate(source)
		require.NoError(t, err)
		require.Empty(t, evalErrs)
		require.Equal(t, 1, m.Len())
		if i == 0 {
			first = m.Order[0]
			continue
		}
		assert.Equal(t, first, m.Order[0], "iteration %d", i)
	}
	assert.Equal(t, uint64(5), eng.Generation())
}

// ---------------------------------------------------------------------------
// Time limits and superseded evaluations
// ---------------------------------------------------------------------------

func TestAwaitTimeout(t *testing.T) {
	eng := NewEngine(WithTimeout(20 * time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), eng.timeout)
	defer cancel()

	start := time.Now()
	_, _, err := eng.await(ctx, 0, make(chan outcome))
	require.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "20ms")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAwaitCancelled(t *testing.T) {
	eng := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := eng.await(ctx, 0, make(chan outcome))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestAwaitDiscardsStale(t *testing.T) {
	eng := NewEngine()
	eng.generation = 2

	ch := make(chan outcome, 1)
	ch <- outcome{model: model.New()}
	m, _, err := eng.await(context.Background(), 1, ch)
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Nil(t, m)

	ch <- outcome{model: model.New()}
	m, _, err = eng.await(context.Background(), 2, ch)
	assert.NoError(t, err)
	assert.NotNil(t, m)
}

func TestEvaluateContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The evaluation may win the race against the cancelled context; it
	// must never report a timeout.
	_, _, err := NewEngine().EvaluateContext(ctx, "(+ 1 2)")
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestWithTimeoutIgnoresNonPositive(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewEngine(WithTimeout(0)).timeout)
	assert.Equal(t, DefaultTimeout, NewEngine(WithTimeout(-time.Second)).timeout)
	assert.Equal(t, time.Second, NewEngine(WithTimeout(time.Second)).timeout)
}

// ---------------------------------------------------------------------------
// Error parsing
// ---------------------------------------------------------------------------

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"bare line prefix", "line 3: bad form", 3, "bad form"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"word containing line", "polyline 3: not a loop", 0, "polyline 3: not a loop"},
		{"empty detail", "Error on line 7:", 7, "Error on line 7:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantLine, errs[0].Line)
			assert.Equal(t, tt.wantMsg, errs[0].Message)
		})
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestEvaluateAllReportsValidation(t *testing.T) {
	source := `
(element :name "w" (solid :depth 3 (polyloop (pt 0 0) (pt 1 0) (pt 1 1))))
(element :name "w" (solid :depth 3 (polyloop (pt 0 0) (pt 1 0) (pt 1 1))))
`
	res, err := NewEngine().EvaluateAll(context.Background(), source)
	require.NoError(t, err)
	require.NotNil(t, res.Model)
	assert.Equal(t, 2, res.Model.Len())

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "already used")

	// Neither solid has a material and no default is set.
	require.Len(t, res.Warnings, 2)
	for _, w := range res.Warnings {
		assert.False(t, w.Element.IsZero(), "warning %q carries no element", w.Message)
		assert.True(t, strings.Contains(w.Message, "material"))
	}
	assert.NotZero(t, res.Model.Version)
}

func TestEvaluateAllEvalError(t *testing.T) {
	res, err := NewEngine().EvaluateAll(context.Background(), "(+ 1")
	require.NoError(t, err)
	assert.Nil(t, res.Model)
	assert.NotEmpty(t, res.Errors)
}

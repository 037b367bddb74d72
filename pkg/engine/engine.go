// Package engine evaluates detector scripts. It wraps zygomys in a
// sandboxed environment and produces a volume.Detector from user source.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/detgeo/pkg/volume"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
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

// Engine wraps the zygomys interpreter for detector evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	logger    *zap.Logger
	variation string
	id        int
	timeout   time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDefaults sets the variation and run id used when a script's
// (detector ...) form leaves them out.
func WithDefaults(variation string, id int) Option {
	return func(e *Engine) {
		e.variation = variation
		e.id = id
	}
}

// WithTimeout bounds each evaluation. Non-positive values keep EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop(), variation: volume.DefaultVariation, id: 1, timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate takes detector script source and produces a new Detector.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns detector + nil errors + nil error
//   - On parse/eval failure: returns nil detector + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*volume.Detector, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		d, evalErrs, err := e.evaluate(source)
		ch <- evalResult{det: d, errors: evalErrs, err: err}
	}()

	d, evalErrs, err := waitWithTimeout(ch, gen, e.timeout, &e.mu, &e.generation)
	switch {
	case err != nil:
		e.logger.Error("evaluation failed", zap.Uint64("generation", gen), zap.Error(err))
	case len(evalErrs) > 0:
		e.logger.Info("script errors", zap.Uint64("generation", gen), zap.Int("errors", len(evalErrs)))
	default:
		e.logger.Debug("evaluated",
			zap.Uint64("generation", gen),
			zap.String("detector", d.Name),
			zap.Int("volumes", d.Tree.Len()),
			zap.Int("sensitive", len(d.Sensitive)),
		)
	}
	return d, evalErrs, err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*volume.Detector, []EvalError, error) {
	s := &session{det: volume.NewDetector("", e.variation, e.id)}

	// Empty source is a valid program that produces an empty detector.
	if strings.TrimSpace(source) == "" {
		return s.det, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if !s.declared && (s.det.Tree.Len() > 0 || len(s.det.Sensitive) > 0) {
		return nil, []EvalError{{Message: "volumes declared without a (detector ...) form"}}, nil
	}
	return s.det, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

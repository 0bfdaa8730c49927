// Package engine provides the Lisp scripting engine for voxmesh.
// It wraps zygomys in a sandboxed environment and produces a voxel.Store
// from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/voxmesh/pkg/logging"
	"github.com/chazu/voxmesh/pkg/voxel"
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

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	maxVoxels  int
	timeout    time.Duration
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{maxVoxels: DefaultMaxVoxels, timeout: EvalTimeout}
}

// SetTimeout changes the evaluation time limit.
func (e *Engine) SetTimeout(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timeout = d
}

// SetMaxVoxels bounds the number of voxels one script may create.
func (e *Engine) SetMaxVoxels(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxVoxels = n
}

// Evaluate runs Lisp source and returns the voxel store it built.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns store + nil errors + nil error
//   - On parse/eval failure: returns nil store + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*voxel.Store, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	limit := e.maxVoxels
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := evaluate(source, limit)
		ch <- evalResult{store: s, errors: evalErrs, err: err}
	}()

	s, evalErrs, err := e.wait(ch, gen)
	if err == nil && s != nil {
		logging.Logger().Info("script evaluated", "generation", gen, "voxels", s.Count(), "layers", len(s.Layers()))
	}
	return s, evalErrs, err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func evaluate(source string, limit int) (*voxel.Store, []EvalError, error) {
	store := voxel.NewStore()
	// Empty source is a valid program that produces an empty store.
	if strings.TrimSpace(source) == "" {
		return store, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, newBuilder(store, limit))

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return store, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}

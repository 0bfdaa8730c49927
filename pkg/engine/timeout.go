package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/voxmesh/pkg/voxel"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned by an evaluation overtaken by a newer one.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

type evalResult struct {
	store  *voxel.Store
	errors []EvalError
	err    error
}

// wait returns the result from ch, or a timeout error once the engine's
// timeout passes. Results of an older generation are discarded.
//
// On timeout the evaluation goroutine keeps running; its result lands in
// the buffered channel and is dropped.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*voxel.Store, []EvalError, error) {
	e.mu.Lock()
	timeout := e.timeout
	e.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.store, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", timeout)
	}
}

package export

import (
	"context"

	"github.com/google/uuid"

	"github.com/chazu/voxmesh/pkg/hull"
	"github.com/chazu/voxmesh/pkg/logging"
)

// Job is an export running on its own goroutine.
type Job struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}
	res    *Result
	err    error
}

// Start runs the export in the background. The snapshots must not be
// mutated until the job is done; hull.Snapshot never is.
func (e *Exporter) Start(ctx context.Context, dir string, snaps []*hull.Snapshot) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{ID: uuid.NewString(), cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(j.done)
		defer cancel()
		logging.Logger().Info("export job started", "job", j.ID)
		j.res, j.err = e.Run(ctx, dir, snaps)
		if j.err != nil {
			logging.Logger().Warn("export job failed", "job", j.ID, "err", j.err)
		}
	}()
	return j
}

// Cancel asks the job to stop. The job ends with ErrCancelled unless it had
// already finished.
func (j *Job) Cancel() { j.cancel() }

// Done is closed when the job ends.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job ends.
func (j *Job) Wait() (*Result, error) {
	<-j.done
	return j.res, j.err
}

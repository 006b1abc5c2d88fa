// Package trajectory records the ordered steps of one agent task run
// and supports saving finalized runs for replay.
package trajectory

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/agent-eval/internal/model"
)

// ErrOutOfOrder means a step's sequence number is not exactly one
// greater than the previous step's.
var ErrOutOfOrder = eris.New("trajectory: step out of order")

// ErrClosed means the trajectory was finalized and no longer accepts
// steps.
var ErrClosed = eris.New("trajectory: closed")

// Recorder owns one Trajectory. It has a single writer (the controller
// that created it); reads are safe for any goroutine once the writer is
// done.
type Recorder struct {
	traj   model.Trajectory
	closed bool
}

// NewRecorder starts a trajectory for the given task.
func NewRecorder(task string) *Recorder {
	return &Recorder{
		traj: model.Trajectory{
			Task:      task,
			StartedAt: time.Now().UTC(),
		},
	}
}

// Append adds the next step. The step's sequence number must be exactly
// one greater than the last appended step's (the first step is 1).
func (r *Recorder) Append(step model.Step) error {
	if r.closed {
		return eris.Wrapf(ErrClosed, "appending step %d", step.Sequence)
	}
	if want := len(r.traj.Steps) + 1; step.Sequence != want {
		return eris.Wrapf(ErrOutOfOrder, "got %d, want %d", step.Sequence, want)
	}
	r.traj.Steps = append(r.traj.Steps, step)
	return nil
}

// Finalize marks the trajectory read-only with its terminal status.
// Further Append or Finalize calls fail with ErrClosed.
func (r *Recorder) Finalize(status model.TerminalStatus, finalResult string) error {
	if r.closed {
		return ErrClosed
	}
	now := time.Now().UTC()
	r.traj.EndedAt = &now
	r.traj.Status = status
	r.traj.FinalResult = finalResult
	r.closed = true
	return nil
}

// Closed reports whether the trajectory has been finalized.
func (r *Recorder) Closed() bool {
	return r.closed
}

// Steps returns a copy of the appended steps in order.
func (r *Recorder) Steps() []model.Step {
	out := make([]model.Step, len(r.traj.Steps))
	copy(out, r.traj.Steps)
	return out
}

// Trajectory returns a snapshot of the trajectory.
func (r *Recorder) Trajectory() model.Trajectory {
	t := r.traj
	t.Steps = r.Steps()
	return t
}

// SaveFile writes the trajectory as indented JSON.
func (r *Recorder) SaveFile(path string) error {
	return SaveFile(path, r.Trajectory())
}

// SaveFile writes a trajectory as indented JSON.
func SaveFile(path string, t model.Trajectory) error {
	data, err := json.MarshalIndent(&t, "", "  ")
	if err != nil {
		return eris.Wrap(err, "trajectory: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "trajectory: write %s", path)
	}
	return nil
}

// LoadFile reads a trajectory previously written by SaveFile.
func LoadFile(path string) (*model.Trajectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "trajectory: read %s", path)
	}
	var t model.Trajectory
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrapf(err, "trajectory: unmarshal %s", path)
	}
	return &t, nil
}

package pipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageRegister validates declarations and registers dependencies.
	StageRegister Stage = "register"
	// StageResolve forces every input, resolving its dependencies.
	StageResolve Stage = "resolve"
	// StageAggregate merges the per-input lists into the result.
	StageAggregate Stage = "aggregate"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the dependency is registered and waiting.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a dependency (or for the overall pipeline when
// Dependency is empty).
type Event struct {
	Input      string
	Dependency string
	Stage      Stage
	Status     Status
	Files      int
	Err        error
	Elapsed    time.Duration
}

// Key identifies the dependency an event is about.
func (e Event) Key() string {
	return e.Input + "\x00" + e.Dependency
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Add accumulates dur onto stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

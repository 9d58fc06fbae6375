package tracing

import (
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
)

// BusyTimeTracer measures how long a domain has at least one matching task in
// flight. Overlapping tasks are counted once.
type BusyTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	inflight  map[string]bool
	busySince sim.VTimeInSec
	busyTime  sim.VTimeInSec
	numTasks  uint64
}

// NewBusyTimeTracer creates a new BusyTimeTracer. A nil filter accepts every
// task.
func NewBusyTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]bool),
	}
}

// BusyTime returns the time spent with tasks in flight, including the
// running span of the tasks that are not finished yet.
func (t *BusyTimeTracer) BusyTime() sim.VTimeInSec {
	if len(t.inflight) == 0 {
		return t.busyTime
	}

	return t.busyTime + t.timeTeller.Now() - t.busySince
}

// NumTasks returns the number of tasks started.
func (t *BusyTimeTracer) NumTasks() uint64 {
	return t.numTasks
}

// StartTask records the task start time
func (t *BusyTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	if len(t.inflight) == 0 {
		t.busySince = t.timeTeller.Now()
	}

	t.inflight[task.ID] = true
	t.numTasks++
}

// StepTask does nothing
func (t *BusyTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *BusyTimeTracer) EndTask(task Task) {
	if !t.inflight[task.ID] {
		return
	}

	delete(t.inflight, task.ID)

	if len(t.inflight) == 0 {
		t.busyTime += t.timeTeller.Now() - t.busySince
	}
}

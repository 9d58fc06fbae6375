package tracing

import (
	"sync"
)

// StepCountTracer counts how often each step name is reported. Steps of
// tasks that were not started through the tracer are counted too, since
// snoop outcomes are reported against the transaction of another domain.
type StepCountTracer struct {
	filter TaskFilter
	lock   sync.Mutex

	inflight  map[string]map[string]bool
	stepNames []string
	stepCount map[string]uint64
	taskCount map[string]uint64
}

// NewStepCountTracer creates a new StepCountTracer
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	return &StepCountTracer{
		filter:    filter,
		inflight:  make(map[string]map[string]bool),
		stepCount: make(map[string]uint64),
		taskCount: make(map[string]uint64),
	}
}

// GetStepNames returns all the step names collected, in the order they are
// first seen.
func (t *StepCountTracer) GetStepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.stepNames...)
}

// GetStepCount returns the number of steps that is recorded with a certain step
// name.
func (t *StepCountTracer) GetStepCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.stepCount[stepName]
}

// GetTaskCount returns the number of started tasks that had at least one step
// with the given name.
func (t *StepCountTracer) GetTaskCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount[stepName]
}

// StartTask begins tracking the steps of a task.
func (t *StepCountTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflight[task.ID] = make(map[string]bool)
	t.lock.Unlock()
}

// StepTask counts the step.
func (t *StepCountTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, step := range task.Steps {
		if _, seen := t.stepCount[step.What]; !seen {
			t.stepNames = append(t.stepNames, step.What)
		}

		t.stepCount[step.What]++

		steps, ok := t.inflight[task.ID]
		if ok && !steps[step.What] {
			steps[step.What] = true
			t.taskCount[step.What]++
		}
	}
}

// EndTask stops tracking the task.
func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	delete(t.inflight, task.ID)
	t.lock.Unlock()
}

// Package trace records the transactions that cross the snooping bus.
package trace

import (
	"fmt"
	"log"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/datarecording"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/coherence"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/tracing"
)

type busTransactionEntry struct {
	ID          string
	Location    string
	Kind        string
	Requester   int
	Supplier    int
	Address     uint64
	ResultState string
	StartTime   float64
	EndTime     float64
}

type busStepEntry struct {
	ID     string
	TaskID string
	Time   float64
	What   string
}

// A tracer prints bus transactions to a logger.
type tracer struct {
	timeTeller sim.TimeTeller
	logger     *log.Logger
}

// NewTracer creates a tracer that writes one line per event to the logger.
func NewTracer(logger *log.Logger, timeTeller sim.TimeTeller) tracing.Tracer {
	return &tracer{
		timeTeller: timeTeller,
		logger:     logger,
	}
}

func (t *tracer) StartTask(task tracing.Task) {
	txn, ok := task.Detail.(*coherence.Transaction)
	if !ok {
		return
	}

	t.logger.Printf("start, %.12f, %s, %s, %s, core %d, 0x%08x\n",
		t.timeTeller.Now(), task.Where, task.ID, task.What,
		txn.Requester, txn.Address)
}

func (t *tracer) StepTask(task tracing.Task) {
	for _, step := range task.Steps {
		t.logger.Printf("step, %.12f, %s, %s\n",
			t.timeTeller.Now(), task.ID, step.What)
	}
}

func (t *tracer) EndTask(task tracing.Task) {
	t.logger.Printf("end, %.12f, %s\n", t.timeTeller.Now(), task.ID)
}

// A dbTracer stores bus transactions and their steps as database rows.
type dbTracer struct {
	timeTeller   sim.TimeTeller
	dataRecorder datarecording.DataRecorder

	pending   map[string]*busTransactionEntry
	stepCount map[string]int
}

// NewDBTracer creates a tracer that records into the bus_transactions and
// bus_steps tables.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	timeTeller sim.TimeTeller,
) tracing.Tracer {
	t := &dbTracer{
		timeTeller:   timeTeller,
		dataRecorder: dataRecorder,
		pending:      make(map[string]*busTransactionEntry),
		stepCount:    make(map[string]int),
	}

	t.dataRecorder.CreateTable("bus_transactions", busTransactionEntry{})
	t.dataRecorder.CreateTable("bus_steps", busStepEntry{})

	return t
}

func (t *dbTracer) StartTask(task tracing.Task) {
	txn, ok := task.Detail.(*coherence.Transaction)
	if !ok {
		return
	}

	t.pending[task.ID] = &busTransactionEntry{
		ID:          task.ID,
		Location:    task.Where,
		Kind:        task.What,
		Requester:   txn.Requester,
		Supplier:    txn.Supplier,
		Address:     txn.Address,
		ResultState: txn.ResultState.String(),
		StartTime:   float64(t.timeTeller.Now()),
	}
}

// StepTask records steps even before the task starts, since snoops are
// resolved before the transaction is put on the bus.
func (t *dbTracer) StepTask(task tracing.Task) {
	for _, step := range task.Steps {
		t.stepCount[task.ID]++

		t.dataRecorder.InsertData("bus_steps", busStepEntry{
			ID:     fmt.Sprintf("%s_step_%d", task.ID, t.stepCount[task.ID]),
			TaskID: task.ID,
			Time:   float64(t.timeTeller.Now()),
			What:   step.What,
		})
	}
}

func (t *dbTracer) EndTask(task tracing.Task) {
	entry, ok := t.pending[task.ID]
	if !ok {
		return
	}

	entry.EndTime = float64(t.timeTeller.Now())
	t.dataRecorder.InsertData("bus_transactions", *entry)

	delete(t.pending, task.ID)
	delete(t.stepCount, task.ID)
}

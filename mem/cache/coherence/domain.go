// Package coherence simulates private caches kept coherent with the MESI
// protocol over a single snooping bus.
package coherence

import (
	"fmt"
	"log"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
)

// HookPosCycleEnd is invoked after every simulated cycle. The item is the
// number of cycles completed.
var HookPosCycleEnd = &sim.HookPos{Name: "Domain Cycle End"}

// A Domain is a set of cores whose private caches share one bus. Each tick is
// one cycle.
type Domain struct {
	*sim.TickingComponent

	banks []*Bank
	bus   *Bus

	cycle           uint64
	maxCycles       uint64
	checkInvariants bool
	finished        bool
	err             error
}

// Result is the outcome of a run.
type Result struct {
	Cycles uint64
	Cores  []Statistics
	Bus    BusStatistics
	Err    error
}

// Start schedules the first cycle.
func (d *Domain) Start() {
	d.TickNow()
}

// Tick simulates one cycle. The bus advances first so that a bank whose
// transaction completes can issue its next access in the same cycle.
func (d *Domain) Tick() bool {
	if d.finished {
		return false
	}

	if err := d.bus.Tick(d.cycle); err != nil {
		d.fail(err)
		return false
	}

	if d.allDone() {
		d.finished = true
		return false
	}

	if d.maxCycles > 0 && d.cycle >= d.maxCycles {
		d.fail(fmt.Errorf("%w after %d cycles", ErrCycleLimit, d.maxCycles))
		return false
	}

	for _, bank := range d.banks {
		if err := bank.Step(d.cycle); err != nil {
			d.fail(err)
			return false
		}
	}

	d.bus.OfferSnoops()

	if d.checkInvariants {
		if err := d.CheckInvariants(); err != nil {
			d.fail(fmt.Errorf("cycle %d: %w", d.cycle, err))
			return false
		}
	}

	d.cycle++

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosCycleEnd,
		Item:   d.cycle,
	})

	return true
}

func (d *Domain) allDone() bool {
	if d.bus.Busy() {
		return false
	}

	for _, bank := range d.banks {
		if bank.Status() != BankDone {
			return false
		}
	}

	return true
}

func (d *Domain) fail(err error) {
	d.err = err
	d.finished = true
	log.Printf("%s: %v", d.Name(), err)
}

// Finished returns true if the run has ended, normally or not.
func (d *Domain) Finished() bool {
	return d.finished
}

// Err returns the error that stopped the run, if any.
func (d *Domain) Err() error {
	return d.err
}

// Cycles returns the number of cycles simulated so far.
func (d *Domain) Cycles() uint64 {
	return d.cycle
}

// NumCores returns the number of cores in the domain.
func (d *Domain) NumCores() int {
	return len(d.banks)
}

// Bank returns the private cache of a core.
func (d *Domain) Bank(core int) *Bank {
	return d.banks[core]
}

// Bus returns the shared bus.
func (d *Domain) Bus() *Bus {
	return d.bus
}

// Retired returns the number of trace entries completed by all cores and
// the total number of entries.
func (d *Domain) Retired() (done, total int) {
	for _, bank := range d.banks {
		done += bank.Retired()
		total += bank.TraceLength()
	}

	return done, total
}

// Result returns the counters gathered so far. They stay valid after an
// error.
func (d *Domain) Result() Result {
	r := Result{
		Cycles: d.cycle,
		Cores:  make([]Statistics, len(d.banks)),
		Bus:    d.bus.Statistics(),
		Err:    d.err,
	}

	for i, bank := range d.banks {
		r.Cores[i] = bank.Statistics()
	}

	return r
}

package coherence

import (
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/tracing"
)

// The Bus is the shared snooping bus. It carries at most one transaction at a
// time.
type Bus struct {
	*sim.ComponentBase

	banks            []*Bank
	current          *Transaction
	stats            BusStatistics
	blockSize        uint64
	writeBackLatency int
}

// Busy returns true if a transaction occupies the bus.
func (b *Bus) Busy() bool {
	return b.current != nil
}

// Current returns the transaction on the bus, or nil if the bus is idle.
func (b *Bus) Current() *Transaction {
	return b.current
}

// Statistics returns a snapshot of the bus counters.
func (b *Bus) Statistics() BusStatistics {
	return b.stats
}

// Issue puts a transaction on the bus. The bus must be idle.
func (b *Bus) Issue(txn *Transaction) {
	if b.current != nil {
		panic("bus is busy")
	}

	if txn.CyclesRemaining <= 0 {
		panic("bus transaction must last at least one cycle")
	}

	b.current = txn
	b.countPhase(txn)

	tracing.StartTask(
		txn.ID,
		"",
		b,
		"bus_transaction",
		txn.Kind.String(),
		txn,
	)
}

// Tick advances the transaction on the bus by one cycle. When a phase ends,
// the requester completes it and a chained phase may start right away.
func (b *Bus) Tick(cycle uint64) error {
	txn := b.current
	if txn == nil {
		return nil
	}

	b.stats.BusyCycles++
	txn.CyclesRemaining--

	if txn.CyclesRemaining > 0 {
		return nil
	}

	return b.completePhase(txn, cycle)
}

func (b *Bus) completePhase(txn *Transaction, cycle uint64) error {
	if txn.phase != phaseSupplierWriteBack {
		requester := b.banks[txn.Requester]

		flush, err := requester.HandleBusCompletion(txn, cycle)
		if err != nil {
			b.finish(txn)
			return err
		}

		if flush {
			b.chain(txn, phaseVictimFlush, txn.Requester)
			return nil
		}

		if txn.pendingSupplierWriteBack {
			txn.pendingSupplierWriteBack = false
			b.chain(txn, phaseSupplierWriteBack, txn.Supplier)

			return nil
		}
	}

	b.finish(txn)

	return nil
}

func (b *Bus) chain(txn *Transaction, p phase, source int) {
	txn.startPhase(p, WriteBack, source, b.writeBackLatency)
	b.countPhase(txn)
	tracing.AddTaskStep(txn.ID, b, p.String())
}

func (b *Bus) finish(txn *Transaction) {
	b.current = nil
	tracing.EndTask(txn.ID, b)
}

func (b *Bus) countPhase(txn *Transaction) {
	bytes := b.blockSize
	if txn.Kind == Invalidate {
		bytes = 0
	}

	b.stats.countPhase(txn.Kind, bytes)
}

// OfferSnoops lets every bank other than the requester and the owner of the
// current phase see the transaction.
func (b *Bus) OfferSnoops() {
	txn := b.current
	if txn == nil {
		return
	}

	for _, bank := range b.banks {
		if bank.id == txn.Requester || bank.id == txn.Source {
			continue
		}

		bank.Snoop(txn)
	}
}

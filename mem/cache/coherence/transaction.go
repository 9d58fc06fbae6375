package coherence

import (
	"fmt"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/mesi"
)

// TransactionKind is what a bus occupancy does.
type TransactionKind int

// Kinds of bus transactions.
const (
	// ReadShared fetches a line for reading.
	ReadShared TransactionKind = iota
	// ReadExclusive fetches a line for writing and invalidates other copies.
	ReadExclusive
	// Invalidate upgrades a Shared line to Modified.
	Invalidate
	// WriteBack writes a dirty line to memory.
	WriteBack
)

func (k TransactionKind) String() string {
	switch k {
	case ReadShared:
		return "ReadShared"
	case ReadExclusive:
		return "ReadExclusive"
	case Invalidate:
		return "Invalidate"
	case WriteBack:
		return "WriteBack"
	default:
		return fmt.Sprintf("TransactionKind(%d)", int(k))
	}
}

type phase int

const (
	phaseRequest phase = iota
	phaseVictimFlush
	phaseSupplierWriteBack
)

func (p phase) String() string {
	switch p {
	case phaseRequest:
		return "request"
	case phaseVictimFlush:
		return "victim_flush"
	case phaseSupplierWriteBack:
		return "supplier_write_back"
	default:
		return "unknown"
	}
}

const noCore = -1

// A Transaction is the request that occupies the bus. A request may need more
// than one occupancy phase; the same Transaction is carried through all of
// them.
type Transaction struct {
	ID string

	// Kind is the kind of the current phase.
	Kind TransactionKind

	// Requester is the core whose access started the transaction.
	Requester int

	// Source is the core that owns the current phase. It differs from the
	// Requester while a supplier writes its dirty line back.
	Source int

	// Address is the address of the first byte of the line.
	Address uint64
	Tag     uint64
	SetID   uint64

	CyclesRemaining int

	// ResultState is the state the requester installs the line in.
	ResultState mesi.State

	// Shared is set when another cache holds a copy of the line.
	Shared bool

	// Supplier is the core that provides the data, or -1 if memory does.
	Supplier int

	phase                    phase
	victimWay                int
	pendingSupplierWriteBack bool
}

// HasSupplier returns true if a peer cache provides the data.
func (t *Transaction) HasSupplier() bool {
	return t.Supplier != noCore
}

// Phase returns the name of the current occupancy phase.
func (t *Transaction) Phase() string {
	return t.phase.String()
}

func (t *Transaction) startPhase(
	p phase,
	kind TransactionKind,
	source int,
	latency int,
) {
	t.phase = p
	t.Kind = kind
	t.Source = source
	t.CyclesRemaining = latency
}

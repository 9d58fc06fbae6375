package coherence

import (
	"fmt"
	"io"
	"log"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/internal/tagging"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/mesi"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/workload"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/tracing"
)

// BankStatus tells what a bank does in the current cycle.
type BankStatus int

// Bank statuses.
const (
	// BankRunning banks issue their next access.
	BankRunning BankStatus = iota
	// BankStalled banks found the bus busy and retry the same access.
	BankStalled
	// BankWaiting banks wait for their bus transaction to complete.
	BankWaiting
	// BankDone banks have retired their whole trace.
	BankDone
)

func (s BankStatus) String() string {
	switch s {
	case BankRunning:
		return "Running"
	case BankStalled:
		return "Stalled"
	case BankWaiting:
		return "Waiting"
	case BankDone:
		return "Done"
	default:
		return fmt.Sprintf("BankStatus(%d)", int(s))
	}
}

// Timing holds the latencies of bus operations, in cycles.
type Timing struct {
	MemoryLatency       int
	WriteBackLatency    int
	InvalidateLatency   int
	CacheToCacheLatency int
}

// A Bank is the private cache of one core. It replays the core's trace one
// access at a time.
type Bank struct {
	*sim.ComponentBase

	id           int
	decoder      tagging.Decoder
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder
	timing       Timing
	bus          *Bus
	peers        []*Bank

	trace         []workload.Access
	next          int
	status        BankStatus
	waitRemaining int
	clock         uint64
	stats         Statistics
}

// ID returns the index of the core that owns the bank.
func (b *Bank) ID() int {
	return b.id
}

// Status returns what the bank is doing.
func (b *Bank) Status() BankStatus {
	return b.status
}

// WaitRemaining returns the number of cycles the bank still expects to wait
// for the bus.
func (b *Bank) WaitRemaining() int {
	return b.waitRemaining
}

// Statistics returns a snapshot of the counters of the core.
func (b *Bank) Statistics() Statistics {
	return b.stats
}

// DumpTags writes the tag array of the core, one set per line.
func (b *Bank) DumpTags(w io.Writer) error {
	return tagging.Dump(w, b.tags)
}

// Retired returns the number of trace entries that have completed.
func (b *Bank) Retired() int {
	return b.next
}

// TraceLength returns the number of entries in the trace of the core.
func (b *Bank) TraceLength() int {
	return len(b.trace)
}

// LineState returns the state of the line that holds the address.
func (b *Bank) LineState(addr uint64) mesi.State {
	tag, index, _ := b.decoder.Decode(addr)

	block, ok := b.tags.Lookup(index, tag)
	if !ok {
		return mesi.Invalid
	}

	return block.State
}

// Step runs the bank for one cycle.
func (b *Bank) Step(cycle uint64) error {
	switch b.status {
	case BankDone:
		return nil
	case BankWaiting:
		b.stats.IdleCycles++
		if b.waitRemaining > 0 {
			b.waitRemaining--
		}

		return nil
	}

	access := b.trace[b.next]
	tag, index, _ := b.decoder.Decode(access.Address)
	block, hit := b.classify(index, tag)
	if !hit && index >= uint64(b.tags.NumSets()) {
		return b.protocolError(cycle, access,
			fmt.Errorf("%w: set %d", ErrSetOutOfRange, index))
	}

	var err error

	switch {
	case hit && access.Op == workload.Read:
		err = b.readHit(block)
	case hit:
		err = b.writeHit(block, index, tag)
	case access.Op == workload.Read:
		b.readMiss(index, tag)
	default:
		b.writeMiss(index, tag)
	}

	if err != nil {
		return b.protocolError(cycle, access, err)
	}

	return nil
}

func (b *Bank) classify(index, tag uint64) (*tagging.Block, bool) {
	if index >= uint64(b.tags.NumSets()) {
		log.Printf("%s: set index %d out of range, %d sets configured",
			b.Name(), index, b.tags.NumSets())

		return nil, false
	}

	return b.tags.Lookup(index, tag)
}

func (b *Bank) readHit(block *tagging.Block) error {
	outcome, err := mesi.Apply(block.State, mesi.ReadHit)
	if err != nil {
		return err
	}

	block.State = outcome.Next
	b.touch(block)
	b.stats.Reads++
	b.stats.ExecutionCycles++
	b.retire()

	return nil
}

func (b *Bank) writeHit(block *tagging.Block, index, tag uint64) error {
	outcome, err := mesi.Apply(block.State, mesi.WriteHit)
	if err != nil {
		return err
	}

	if outcome.IssueUpgrade {
		b.upgrade(index, tag)
		return nil
	}

	block.State = outcome.Next
	b.touch(block)
	b.stats.Writes++
	b.stats.ExecutionCycles++
	b.retire()

	return nil
}

func (b *Bank) upgrade(index, tag uint64) {
	if b.bus.Busy() {
		b.stall()
		return
	}

	txn := b.newTransaction(Invalidate, index, tag,
		b.timing.InvalidateLatency)
	txn.ResultState = mesi.Modified
	b.snoopPeers(txn)

	b.stats.Writes++
	b.stats.InvalidationsSent++
	b.stats.ExecutionCycles++

	b.issue(txn)
}

func (b *Bank) readMiss(index, tag uint64) {
	if b.bus.Busy() {
		b.stall()
		return
	}

	txn := b.newTransaction(ReadShared, index, tag, 0)
	b.snoopPeers(txn)

	if txn.HasSupplier() {
		txn.CyclesRemaining = b.timing.CacheToCacheLatency
		b.stats.CacheToCacheTransfers++
	} else {
		txn.CyclesRemaining = b.timing.MemoryLatency
		b.stats.MemoryTransactions++
	}

	txn.ResultState = mesi.Exclusive
	if txn.Shared {
		txn.ResultState = mesi.Shared
	}

	b.stats.Reads++
	b.stats.ReadMisses++
	b.stats.CacheMisses++
	b.stats.ExecutionCycles++
	b.stats.BytesTransferred += b.blockSize()

	b.issue(txn)
}

func (b *Bank) writeMiss(index, tag uint64) {
	if b.bus.Busy() {
		b.stall()
		return
	}

	txn := b.newTransaction(ReadExclusive, index, tag, 0)
	res := b.snoopPeers(txn)

	txn.CyclesRemaining = b.timing.MemoryLatency
	if res.Invalidated {
		txn.CyclesRemaining += b.timing.InvalidateLatency
		b.stats.InvalidationsSent++
	}

	if res.WroteBack {
		txn.CyclesRemaining += b.timing.WriteBackLatency
	}

	txn.ResultState = mesi.Modified

	b.stats.Writes++
	b.stats.WriteMisses++
	b.stats.CacheMisses++
	b.stats.MemoryTransactions++
	b.stats.ExecutionCycles++
	b.stats.BytesTransferred += b.blockSize()

	b.issue(txn)
}

func (b *Bank) snoopPeers(txn *Transaction) SnoopResult {
	var res SnoopResult

	for _, peer := range b.peers {
		r := peer.Snoop(txn)
		res.Matched = res.Matched || r.Matched
		res.Invalidated = res.Invalidated || r.Invalidated
		res.Supplied = res.Supplied || r.Supplied
		res.WroteBack = res.WroteBack || r.WroteBack
	}

	return res
}

func (b *Bank) newTransaction(
	kind TransactionKind,
	index, tag uint64,
	latency int,
) *Transaction {
	return &Transaction{
		ID:              sim.GetIDGenerator().Generate(),
		Kind:            kind,
		Requester:       b.id,
		Source:          b.id,
		Address:         b.decoder.BlockAddress(tag, index),
		Tag:             tag,
		SetID:           index,
		CyclesRemaining: latency,
		Supplier:        noCore,
		phase:           phaseRequest,
	}
}

func (b *Bank) issue(txn *Transaction) {
	b.bus.Issue(txn)
	b.status = BankWaiting
	b.waitRemaining = txn.CyclesRemaining - 1
}

// The access is retried next cycle. Only the idle counter moves.
func (b *Bank) stall() {
	b.status = BankStalled
	b.stats.IdleCycles++
}

func (b *Bank) touch(block *tagging.Block) {
	b.clock++
	b.tags.Visit(block, b.clock)
}

func (b *Bank) retire() {
	b.next++
	b.stats.Instructions++

	if b.next >= len(b.trace) {
		b.status = BankDone
		return
	}

	b.status = BankRunning
}

func (b *Bank) blockSize() uint64 {
	return uint64(b.decoder.BlockSize())
}

// HandleBusCompletion finishes the phase of a transaction the bank requested.
// It returns true if a dirty victim has to be flushed over the bus before the
// fill can be installed.
func (b *Bank) HandleBusCompletion(
	txn *Transaction,
	cycle uint64,
) (flush bool, err error) {
	if b.status != BankWaiting {
		panic(fmt.Sprintf("%s: completion while %s", b.Name(), b.status))
	}

	access := b.trace[b.next]

	switch {
	case txn.phase == phaseVictimFlush:
		set, _ := b.tags.GetSet(txn.SetID)
		err = b.install(txn, &set.Blocks[txn.victimWay])
	case txn.Kind == Invalidate:
		err = b.completeUpgrade(txn)
	default:
		flush, err = b.fill(txn)
	}

	if err != nil {
		return false, b.protocolError(cycle, access, err)
	}

	return flush, nil
}

func (b *Bank) completeUpgrade(txn *Transaction) error {
	block, ok := b.tags.Lookup(txn.SetID, txn.Tag)
	if !ok {
		return fmt.Errorf("upgraded line is no longer held: %w",
			mesi.ErrIllegalTransition)
	}

	outcome, err := mesi.Apply(block.State, mesi.UpgradeGrant)
	if err != nil {
		return err
	}

	block.State = outcome.Next
	b.touch(block)
	b.retire()

	return nil
}

func (b *Bank) fill(txn *Transaction) (bool, error) {
	set, ok := b.tags.GetSet(txn.SetID)
	if !ok {
		return false, fmt.Errorf("set %d does not exist", txn.SetID)
	}

	victim := b.victimFinder.FindVictim(set)
	if !victim.IsValid() {
		return false, b.install(txn, victim)
	}

	outcome, err := mesi.Apply(victim.State, mesi.Evict)
	if err != nil {
		return false, err
	}

	victim.State = outcome.Next
	b.stats.Evictions++

	if outcome.WriteBack {
		b.stats.WriteBacks++
		b.stats.BytesTransferred += b.blockSize()
		txn.victimWay = victim.WayID
		b.waitRemaining = b.timing.WriteBackLatency

		return true, nil
	}

	return false, b.install(txn, victim)
}

func (b *Bank) install(txn *Transaction, block *tagging.Block) error {
	state, err := mesi.Install(txn.ResultState)
	if err != nil {
		return err
	}

	block.Tag = txn.Tag
	block.State = state
	b.touch(block)
	b.retire()

	return nil
}

func (b *Bank) protocolError(
	cycle uint64,
	access workload.Access,
	err error,
) error {
	if _, ok := err.(*ProtocolError); ok {
		return err
	}

	return &ProtocolError{
		Core:    b.id,
		Cycle:   cycle,
		Address: access.Address,
		Op:      access.Op,
		Err:     err,
	}
}

// SnoopResult tells the requester what a peer did with its copy of a line.
type SnoopResult struct {
	Matched     bool
	Invalidated bool
	Supplied    bool
	WroteBack   bool
}

// Snoop reacts to a transaction of another bank. Offering the same
// transaction again changes nothing.
func (b *Bank) Snoop(txn *Transaction) SnoopResult {
	if txn.Kind == WriteBack {
		return SnoopResult{}
	}

	block, ok := b.tags.Lookup(txn.SetID, txn.Tag)
	if !ok {
		return SnoopResult{}
	}

	if txn.Kind == ReadShared {
		return b.snoopRead(txn, block)
	}

	return b.snoopInvalidate(txn, block)
}

func (b *Bank) snoopRead(txn *Transaction, block *tagging.Block) SnoopResult {
	res := SnoopResult{Matched: true}
	txn.Shared = true

	outcome := mustApply(block.State, mesi.SnoopRead)
	block.State = outcome.Next

	if !outcome.Supply {
		return res
	}

	res.Supplied = true
	b.stats.Interventions++

	if txn.Supplier == noCore {
		txn.Supplier = b.id
	}

	if outcome.WriteBack {
		res.WroteBack = true
		b.stats.WriteBacks++
		b.stats.BytesTransferred += b.blockSize()
		txn.pendingSupplierWriteBack = true
	}

	tracing.AddTaskStep(txn.ID, b, "snoop_supply")

	return res
}

func (b *Bank) snoopInvalidate(
	txn *Transaction,
	block *tagging.Block,
) SnoopResult {
	res := SnoopResult{Matched: true, Invalidated: true}

	outcome := mustApply(block.State, mesi.SnoopInvalidate)
	block.State = outcome.Next
	b.stats.InvalidationsReceived++

	if outcome.WriteBack {
		res.WroteBack = true
		b.stats.WriteBacks++
		b.stats.Interventions++
		b.stats.BytesTransferred += b.blockSize()
	}

	tracing.AddTaskStep(txn.ID, b, "snoop_invalidate")

	return res
}

// Snoop transitions are defined for every state.
func mustApply(s mesi.State, e mesi.Event) mesi.Outcome {
	outcome, err := mesi.Apply(s, e)
	if err != nil {
		panic(err)
	}

	return outcome
}

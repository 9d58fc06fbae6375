package coherence

// Statistics are the counters of one core. They only grow.
type Statistics struct {
	Instructions          uint64
	Reads                 uint64
	Writes                uint64
	ReadMisses            uint64
	WriteMisses           uint64
	CacheMisses           uint64
	Evictions             uint64
	WriteBacks            uint64
	InvalidationsSent     uint64
	InvalidationsReceived uint64
	CacheToCacheTransfers uint64
	Interventions         uint64
	MemoryTransactions    uint64
	IdleCycles            uint64
	ExecutionCycles       uint64
	BytesTransferred      uint64
}

// Hits returns the number of accesses that found the line valid, including
// writes to Shared lines that needed an upgrade.
func (s Statistics) Hits() uint64 {
	return s.Reads + s.Writes - s.CacheMisses
}

// MissRate returns the fraction of accesses that missed.
func (s Statistics) MissRate() float64 {
	accesses := s.Reads + s.Writes
	if accesses == 0 {
		return 0
	}

	return float64(s.CacheMisses) / float64(accesses)
}

// BusStatistics are the counters of the shared bus. Each occupancy phase is
// counted once under its kind, so a read that needs a write-back counts one
// ReadShared and one WriteBack.
type BusStatistics struct {
	ReadSharedTransactions    uint64
	ReadExclusiveTransactions uint64
	InvalidateTransactions    uint64
	WriteBackTransactions     uint64
	BytesTransferred          uint64
	BusyCycles                uint64
}

// Transactions returns the number of occupancy phases of all kinds.
func (s BusStatistics) Transactions() uint64 {
	return s.ReadSharedTransactions +
		s.ReadExclusiveTransactions +
		s.InvalidateTransactions +
		s.WriteBackTransactions
}

func (s *BusStatistics) countPhase(kind TransactionKind, bytes uint64) {
	switch kind {
	case ReadShared:
		s.ReadSharedTransactions++
	case ReadExclusive:
		s.ReadExclusiveTransactions++
	case Invalidate:
		s.InvalidateTransactions++
	case WriteBack:
		s.WriteBackTransactions++
	}

	s.BytesTransferred += bytes
}

// Package report presents the outcome of a coherence simulation.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/datarecording"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/coherence"
)

// Table names used by Record.
const (
	CoreTable = "core_statistics"
	BusTable  = "bus_statistics"
)

type coreEntry struct {
	Core                  int
	Instructions          uint64
	Reads                 uint64
	Writes                uint64
	ExecutionCycles       uint64
	IdleCycles            uint64
	ReadMisses            uint64
	WriteMisses           uint64
	CacheMisses           uint64
	MissRate              float64
	Evictions             uint64
	WriteBacks            uint64
	InvalidationsSent     uint64
	InvalidationsReceived uint64
	CacheToCacheTransfers uint64
	Interventions         uint64
	MemoryTransactions    uint64
	BytesTransferred      uint64
}

type busEntry struct {
	Cycles                    uint64
	ReadSharedTransactions    uint64
	ReadExclusiveTransactions uint64
	InvalidateTransactions    uint64
	WriteBackTransactions     uint64
	Transactions              uint64
	BytesTransferred          uint64
	BusyCycles                uint64
	Error                     string
}

// WriteText prints one block per core followed by the bus summary.
func WriteText(w io.Writer, result coherence.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)

	for i, s := range result.Cores {
		fmt.Fprintf(tw, "Core %d Statistics:\n", i)
		fmt.Fprintf(tw, "  Total Instructions:\t%d\n", s.Instructions)
		fmt.Fprintf(tw, "  Total Reads:\t%d\n", s.Reads)
		fmt.Fprintf(tw, "  Total Writes:\t%d\n", s.Writes)
		fmt.Fprintf(tw, "  Total Execution Cycles:\t%d\n", s.ExecutionCycles)
		fmt.Fprintf(tw, "  Idle Cycles:\t%d\n", s.IdleCycles)
		fmt.Fprintf(tw, "  Cache Misses:\t%d\n", s.CacheMisses)
		fmt.Fprintf(tw, "  Cache Miss Rate:\t%.2f%%\n", 100*s.MissRate())
		fmt.Fprintf(tw, "  Cache Evictions:\t%d\n", s.Evictions)
		fmt.Fprintf(tw, "  Writebacks:\t%d\n", s.WriteBacks)
		fmt.Fprintf(tw, "  Bus Invalidations:\t%d\n", s.InvalidationsSent)
		fmt.Fprintf(tw, "  Invalidations Received:\t%d\n",
			s.InvalidationsReceived)
		fmt.Fprintf(tw, "  Cache-to-Cache Transfers:\t%d\n",
			s.CacheToCacheTransfers)
		fmt.Fprintf(tw, "  Data Traffic (Bytes):\t%d\n", s.BytesTransferred)
		fmt.Fprintln(tw)
	}

	bus := result.Bus
	fmt.Fprintln(tw, "Overall Bus Summary:")
	fmt.Fprintf(tw, "  Total Bus Transactions:\t%d\n", bus.Transactions())
	fmt.Fprintf(tw, "    ReadShared:\t%d\n", bus.ReadSharedTransactions)
	fmt.Fprintf(tw, "    ReadExclusive:\t%d\n", bus.ReadExclusiveTransactions)
	fmt.Fprintf(tw, "    Invalidate:\t%d\n", bus.InvalidateTransactions)
	fmt.Fprintf(tw, "    WriteBack:\t%d\n", bus.WriteBackTransactions)
	fmt.Fprintf(tw, "  Total Bus Traffic (Bytes):\t%d\n", bus.BytesTransferred)
	fmt.Fprintf(tw, "  Bus Busy Cycles:\t%d\n", bus.BusyCycles)
	fmt.Fprintf(tw, "  Total Cycles:\t%d\n", result.Cycles)

	if result.Err != nil {
		fmt.Fprintf(tw, "  Error:\t%v\n", result.Err)
	}

	return tw.Flush()
}

// Record writes the per-core and bus counters as two tables and flushes the
// recorder.
func Record(recorder datarecording.DataRecorder, result coherence.Result) {
	recorder.CreateTable(CoreTable, coreEntry{})
	recorder.CreateTable(BusTable, busEntry{})

	for i, s := range result.Cores {
		recorder.InsertData(CoreTable, coreEntry{
			Core:                  i,
			Instructions:          s.Instructions,
			Reads:                 s.Reads,
			Writes:                s.Writes,
			ExecutionCycles:       s.ExecutionCycles,
			IdleCycles:            s.IdleCycles,
			ReadMisses:            s.ReadMisses,
			WriteMisses:           s.WriteMisses,
			CacheMisses:           s.CacheMisses,
			MissRate:              s.MissRate(),
			Evictions:             s.Evictions,
			WriteBacks:            s.WriteBacks,
			InvalidationsSent:     s.InvalidationsSent,
			InvalidationsReceived: s.InvalidationsReceived,
			CacheToCacheTransfers: s.CacheToCacheTransfers,
			Interventions:         s.Interventions,
			MemoryTransactions:    s.MemoryTransactions,
			BytesTransferred:      s.BytesTransferred,
		})
	}

	entry := busEntry{
		Cycles:                    result.Cycles,
		ReadSharedTransactions:    result.Bus.ReadSharedTransactions,
		ReadExclusiveTransactions: result.Bus.ReadExclusiveTransactions,
		InvalidateTransactions:    result.Bus.InvalidateTransactions,
		WriteBackTransactions:     result.Bus.WriteBackTransactions,
		Transactions:              result.Bus.Transactions(),
		BytesTransferred:          result.Bus.BytesTransferred,
		BusyCycles:                result.Bus.BusyCycles,
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}

	recorder.InsertData(BusTable, entry)
	recorder.Flush()
}

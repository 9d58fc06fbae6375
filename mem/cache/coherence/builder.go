package coherence

import (
	"fmt"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/internal/tagging"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/workload"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
)

// Builder can build coherence domains.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq

	numCores          int
	indexBits         int
	associativity     int
	blockBits         int
	memoryLatency     int
	writeBackLatency  int
	invalidateLatency int
	maxCycles         uint64
	checkInvariants   bool
	traces            [][]workload.Access
}

// MakeBuilder creates a builder with 4 cores, each with a 2-way cache of 64
// sets of 32-byte lines.
func MakeBuilder() Builder {
	return Builder{
		freq:              1 * sim.GHz,
		numCores:          4,
		indexBits:         6,
		associativity:     2,
		blockBits:         5,
		memoryLatency:     100,
		writeBackLatency:  100,
		invalidateLatency: 2,
		maxCycles:         100_000_000,
	}
}

// WithEngine sets the engine that drives the domain.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the domain.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithNumCores sets the number of cores.
func (b Builder) WithNumCores(n int) Builder {
	b.numCores = n
	return b
}

// WithIndexBits sets the number of set index bits; a cache has 2^s sets.
func (b Builder) WithIndexBits(s int) Builder {
	b.indexBits = s
	return b
}

// WithAssociativity sets the number of ways per set.
func (b Builder) WithAssociativity(e int) Builder {
	b.associativity = e
	return b
}

// WithBlockBits sets the number of block offset bits; a line has 2^b bytes.
func (b Builder) WithBlockBits(bits int) Builder {
	b.blockBits = bits
	return b
}

// WithMemoryLatency sets the cycles a line takes to come from memory.
func (b Builder) WithMemoryLatency(cycles int) Builder {
	b.memoryLatency = cycles
	return b
}

// WithWriteBackLatency sets the cycles a dirty line takes to reach memory.
func (b Builder) WithWriteBackLatency(cycles int) Builder {
	b.writeBackLatency = cycles
	return b
}

// WithInvalidateLatency sets the cycles an invalidation broadcast takes.
func (b Builder) WithInvalidateLatency(cycles int) Builder {
	b.invalidateLatency = cycles
	return b
}

// WithMaxCycles sets the number of cycles after which the run is aborted.
// Zero disables the limit.
func (b Builder) WithMaxCycles(cycles uint64) Builder {
	b.maxCycles = cycles
	return b
}

// WithInvariantCheck makes the domain verify coherence invariants after
// every cycle.
func (b Builder) WithInvariantCheck() Builder {
	b.checkInvariants = true
	return b
}

// WithTraces sets the accesses each core replays. The number of traces
// becomes the number of cores.
func (b Builder) WithTraces(traces [][]workload.Access) Builder {
	b.traces = traces
	b.numCores = len(traces)

	return b
}

// Build creates a domain.
func (b Builder) Build(name string) *Domain {
	b.mustBeValid()

	d := &Domain{
		maxCycles:       b.maxCycles,
		checkInvariants: b.checkInvariants,
	}
	d.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, d)

	decoder := tagging.NewDecoder(b.blockBits, b.indexBits)

	d.bus = &Bus{
		ComponentBase:    sim.NewComponentBase(name + ".Bus"),
		blockSize:        uint64(decoder.BlockSize()),
		writeBackLatency: b.writeBackLatency,
	}

	timing := Timing{
		MemoryLatency:       b.memoryLatency,
		WriteBackLatency:    b.writeBackLatency,
		InvalidateLatency:   b.invalidateLatency,
		CacheToCacheLatency: max(1, decoder.BlockSize()/2),
	}

	for i := 0; i < b.numCores; i++ {
		d.banks = append(d.banks, b.buildBank(name, i, decoder, timing, d.bus))
	}

	d.bus.banks = d.banks
	for _, bank := range d.banks {
		bank.peers = peersOf(d.banks, bank.id)
	}

	return d
}

func (b Builder) buildBank(
	name string,
	id int,
	decoder tagging.Decoder,
	timing Timing,
	bus *Bus,
) *Bank {
	bank := &Bank{
		ComponentBase: sim.NewComponentBase(fmt.Sprintf("%s.Core[%d]", name, id)),
		id:            id,
		decoder:       decoder,
		tags:          tagging.NewTagArray(decoder.NumSets(), b.associativity),
		victimFinder:  tagging.NewLRUVictimFinder(),
		timing:        timing,
		bus:           bus,
		status:        BankRunning,
	}

	if b.traces != nil {
		bank.trace = b.traces[id]
	}

	if len(bank.trace) == 0 {
		bank.status = BankDone
	}

	return bank
}

func peersOf(banks []*Bank, id int) []*Bank {
	peers := make([]*Bank, 0, len(banks)-1)

	for _, bank := range banks {
		if bank.id != id {
			peers = append(peers, bank)
		}
	}

	return peers
}

func (b Builder) mustBeValid() {
	if b.engine == nil {
		panic("engine is not set")
	}

	if b.numCores < 1 {
		panic("a domain needs at least one core")
	}

	if b.associativity < 1 {
		panic("associativity must be at least 1")
	}

	if b.indexBits < 0 || b.blockBits < 0 || b.indexBits+b.blockBits > 32 {
		panic("index and block bits must fit in a 32-bit address")
	}

	if b.memoryLatency < 1 || b.writeBackLatency < 1 ||
		b.invalidateLatency < 1 {
		panic("latencies must be at least 1 cycle")
	}
}

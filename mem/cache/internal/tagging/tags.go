// Package tagging keeps the directory of a set-associative cache: which line
// sits in which way and in what coherence state.
package tagging

import (
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/mesi"
)

// A TagArray is the directory of a cache.
type TagArray interface {
	Lookup(index, tag uint64) (*Block, bool)
	GetSet(index uint64) (*Set, bool)
	Visit(block *Block, now uint64)
	NumSets() int
	NumWays() int
	Reset()
}

// NewTagArray creates a directory with every block Invalid.
func NewTagArray(numSets, numWays int) TagArray {
	if numSets <= 0 || numWays <= 0 {
		panic("tag array must have at least one set and one way")
	}

	t := &tagArrayImpl{
		numSets: numSets,
		numWays: numWays,
	}

	t.Reset()

	return t
}

// A Block holds the information associated with a cache line. The tag of an
// Invalid block is meaningless.
type Block struct {
	Tag      uint64
	State    mesi.State
	LastUsed uint64
	SetID    int
	WayID    int
}

// IsValid returns true if the block holds a line.
func (b *Block) IsValid() bool {
	return b.State.IsValid()
}

// A Set is the group of blocks a line can be placed in.
type Set struct {
	Blocks []Block
}

type tagArrayImpl struct {
	numSets int
	numWays int
	sets    []Set
}

func (d *tagArrayImpl) NumSets() int {
	return d.numSets
}

func (d *tagArrayImpl) NumWays() int {
	return d.numWays
}

// GetSet returns the set at the index. It returns false if the index is out
// of range.
func (d *tagArrayImpl) GetSet(index uint64) (*Set, bool) {
	if index >= uint64(d.numSets) {
		return nil, false
	}

	return &d.sets[index], true
}

// Lookup finds the valid block that holds the tag in the set.
func (d *tagArrayImpl) Lookup(index, tag uint64) (*Block, bool) {
	set, ok := d.GetSet(index)
	if !ok {
		return nil, false
	}

	for i := range set.Blocks {
		block := &set.Blocks[i]
		if block.IsValid() && block.Tag == tag {
			return block, true
		}
	}

	return nil, false
}

// Visit marks the block as used at the given logical time.
func (d *tagArrayImpl) Visit(block *Block, now uint64) {
	block.LastUsed = now
}

// Reset invalidates all the blocks.
func (d *tagArrayImpl) Reset() {
	d.sets = make([]Set, d.numSets)
	for i := 0; i < d.numSets; i++ {
		d.sets[i].Blocks = make([]Block, d.numWays)
		for j := 0; j < d.numWays; j++ {
			d.sets[i].Blocks[j] = Block{SetID: i, WayID: j}
		}
	}
}

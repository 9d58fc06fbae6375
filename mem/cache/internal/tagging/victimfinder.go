package tagging

// A VictimFinder decides which block should be evicted
type VictimFinder interface {
	FindVictim(set *Set) *Block
}

// LRUVictimFinder evicts the least recently used block
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the first empty block of the set. If the set is full,
// it returns the block used least recently, the lowest way on a tie.
func (e *LRUVictimFinder) FindVictim(set *Set) *Block {
	for i := range set.Blocks {
		if !set.Blocks[i].IsValid() {
			return &set.Blocks[i]
		}
	}

	victim := &set.Blocks[0]
	for i := 1; i < len(set.Blocks); i++ {
		if set.Blocks[i].LastUsed < victim.LastUsed {
			victim = &set.Blocks[i]
		}
	}

	return victim
}

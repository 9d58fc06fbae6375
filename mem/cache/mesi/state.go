// Package mesi defines the four MESI coherence states and the transitions a
// private cache line goes through on local accesses and on snooped bus
// transactions.
package mesi

// State is the coherence state of a cache line.
type State int

// The MESI states. The zero value is Invalid so that freshly allocated
// lines are empty.
const (
	Invalid State = iota
	Shared
	Exclusive
	Modified
)

func (s State) String() string {
	switch s {
	case Invalid:
		return "I"
	case Shared:
		return "S"
	case Exclusive:
		return "E"
	case Modified:
		return "M"
	default:
		return "?"
	}
}

// IsValid returns true if the line holds data.
func (s State) IsValid() bool {
	return s != Invalid
}

// IsDirty returns true if the line must be written back before it is dropped.
func (s State) IsDirty() bool {
	return s == Modified
}

// IsExclusiveOwner returns true if no other cache may hold a valid copy.
func (s State) IsExclusiveOwner() bool {
	return s == Exclusive || s == Modified
}

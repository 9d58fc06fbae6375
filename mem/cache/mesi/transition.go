package mesi

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is returned when an event cannot happen in the given
// state, for example a hit on an Invalid line.
var ErrIllegalTransition = errors.New("illegal MESI transition")

// Event is something that changes the state of a line.
type Event int

// Events that a line reacts to.
const (
	// ReadHit is a local read that found the line valid.
	ReadHit Event = iota
	// WriteHit is a local write that found the line valid.
	WriteHit
	// UpgradeGrant completes a bus invalidation that the line's owner issued
	// to gain write permission on a Shared line.
	UpgradeGrant
	// SnoopRead is another cache's non-exclusive read seen on the bus.
	SnoopRead
	// SnoopInvalidate is another cache's invalidation or exclusive read seen
	// on the bus.
	SnoopInvalidate
	// Evict drops the line to make room for a fill.
	Evict
)

func (e Event) String() string {
	switch e {
	case ReadHit:
		return "ReadHit"
	case WriteHit:
		return "WriteHit"
	case UpgradeGrant:
		return "UpgradeGrant"
	case SnoopRead:
		return "SnoopRead"
	case SnoopInvalidate:
		return "SnoopInvalidate"
	case Evict:
		return "Evict"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Outcome describes the result of applying an event to a line.
type Outcome struct {
	Next State

	// IssueUpgrade asks the owner to broadcast an invalidation before the
	// write can complete. Next stays Shared until UpgradeGrant.
	IssueUpgrade bool

	// Supply means the line provides its data to the requesting cache.
	Supply bool

	// WriteBack means the dirty data must be written to memory.
	WriteBack bool
}

type transitionKey struct {
	from  State
	event Event
}

var transitions = map[transitionKey]Outcome{
	{Shared, ReadHit}:    {Next: Shared},
	{Exclusive, ReadHit}: {Next: Exclusive},
	{Modified, ReadHit}:  {Next: Modified},

	{Shared, WriteHit}:    {Next: Shared, IssueUpgrade: true},
	{Exclusive, WriteHit}: {Next: Modified},
	{Modified, WriteHit}:  {Next: Modified},

	{Shared, UpgradeGrant}: {Next: Modified},

	{Invalid, SnoopRead}:   {Next: Invalid},
	{Shared, SnoopRead}:    {Next: Shared},
	{Exclusive, SnoopRead}: {Next: Shared, Supply: true},
	{Modified, SnoopRead}:  {Next: Shared, Supply: true, WriteBack: true},

	{Invalid, SnoopInvalidate}:   {Next: Invalid},
	{Shared, SnoopInvalidate}:    {Next: Invalid},
	{Exclusive, SnoopInvalidate}: {Next: Invalid},
	{Modified, SnoopInvalidate}:  {Next: Invalid, Supply: true, WriteBack: true},

	{Invalid, Evict}:   {Next: Invalid},
	{Shared, Evict}:    {Next: Invalid},
	{Exclusive, Evict}: {Next: Invalid},
	{Modified, Evict}:  {Next: Invalid, WriteBack: true},
}

// Apply returns the outcome of event e on a line in state s.
func Apply(s State, e Event) (Outcome, error) {
	outcome, ok := transitions[transitionKey{s, e}]
	if !ok {
		return Outcome{Next: s}, fmt.Errorf("%w: %s in state %s",
			ErrIllegalTransition, e, s)
	}

	return outcome, nil
}

// Install returns the state a line takes when a fill completes. Only valid
// states can be installed.
func Install(target State) (State, error) {
	if !target.IsValid() {
		return Invalid, fmt.Errorf("%w: install as %s",
			ErrIllegalTransition, target)
	}

	return target, nil
}

package coherence

import (
	"errors"
	"fmt"

	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/workload"
)

// ErrCycleLimit is returned when the run does not finish within the maximum
// number of cycles.
var ErrCycleLimit = errors.New("cycle limit reached")

// ErrSetOutOfRange is returned when an address decodes to a set the tag
// array does not have. The miss is not put on the bus.
var ErrSetOutOfRange = errors.New("set index out of range")

// A ProtocolError reports an access or a completion that the coherence
// protocol cannot handle. It stops the run.
type ProtocolError struct {
	Core    int
	Cycle   uint64
	Address uint64
	Op      workload.Op
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("core %d, cycle %d, %s 0x%08x: %v",
		e.Core, e.Cycle, e.Op, e.Address, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

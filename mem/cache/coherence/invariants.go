package coherence

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is wrapped by the errors CheckInvariants returns.
var ErrInvariantViolation = errors.New("coherence invariant violated")

// CheckInvariants verifies the properties that must hold between cycles.
func (d *Domain) CheckInvariants() error {
	for _, bank := range d.banks {
		if err := bank.checkUniqueTags(); err != nil {
			return err
		}

		if err := d.checkExclusiveOwnership(bank); err != nil {
			return err
		}

		if err := d.checkAccounting(bank); err != nil {
			return err
		}
	}

	return nil
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation,
		fmt.Sprintf(format, args...))
}

func (b *Bank) checkUniqueTags() error {
	for i := 0; i < b.tags.NumSets(); i++ {
		set, _ := b.tags.GetSet(uint64(i))
		seen := make(map[uint64]bool)

		for _, block := range set.Blocks {
			if !block.IsValid() {
				continue
			}

			if seen[block.Tag] {
				return violation("%s set %d holds tag %#x twice",
					b.Name(), i, block.Tag)
			}

			seen[block.Tag] = true
		}
	}

	return nil
}

func (d *Domain) checkExclusiveOwnership(owner *Bank) error {
	for i := 0; i < owner.tags.NumSets(); i++ {
		set, _ := owner.tags.GetSet(uint64(i))

		for _, block := range set.Blocks {
			if !block.State.IsExclusiveOwner() {
				continue
			}

			for _, peer := range owner.peers {
				if _, ok := peer.tags.Lookup(uint64(i), block.Tag); ok {
					return violation("%s holds %#x in %s while %s has a copy",
						owner.Name(), owner.decoder.BlockAddress(block.Tag,
							uint64(i)), block.State, peer.Name())
				}
			}
		}
	}

	return nil
}

func (d *Domain) checkAccounting(b *Bank) error {
	s := b.stats

	inFlight := uint64(0)
	if b.status == BankWaiting {
		inFlight = 1

		txn := d.bus.Current()
		if txn == nil || txn.Requester != b.id {
			return violation("%s waits without a bus transaction", b.Name())
		}
	}

	if s.Reads+s.Writes != s.Instructions+inFlight {
		return violation("%s counted %d accesses for %d retired",
			b.Name(), s.Reads+s.Writes, s.Instructions)
	}

	if s.Instructions != uint64(b.next) {
		return violation("%s retired %d but consumed %d trace entries",
			b.Name(), s.Instructions, b.next)
	}

	if s.ReadMisses+s.WriteMisses != s.CacheMisses {
		return violation("%s miss counters disagree", b.Name())
	}

	return nil
}

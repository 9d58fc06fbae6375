package cmd

import (
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/mem/cache/coherence"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/monitoring"
	"github.com/Amber-Agarwal/MESI-Protocol-and-Cache-Coherence/sim"
)

// progressHook moves the retired trace entries onto a progress bar at the
// end of every cycle.
type progressHook struct {
	domain  *coherence.Domain
	bar     *monitoring.ProgressBar
	retired int
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != coherence.HookPosCycleEnd {
		return
	}

	done, _ := h.domain.Retired()
	if done > h.retired {
		h.bar.IncrementFinished(uint64(done - h.retired))
		h.retired = done
	}

	waiting := 0
	for i := 0; i < h.domain.NumCores(); i++ {
		switch h.domain.Bank(i).Status() {
		case coherence.BankWaiting, coherence.BankStalled:
			waiting++
		}
	}

	h.bar.SetInProgress(uint64(waiting))
}

package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that prints every event before it is handled, with
// the cycle it falls in.
type EventLogger struct {
	logger *log.Logger
	freq   Freq
}

// NewEventLogger returns an EventLogger that counts cycles at the given
// frequency.
func NewEventLogger(logger *log.Logger, freq Freq) *EventLogger {
	return &EventLogger{
		logger: logger,
		freq:   freq,
	}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	target := "-"
	if comp, ok := evt.Handler().(Named); ok {
		target = comp.Name()
	}

	h.logger.Printf("cycle %d, %.10f, %s -> %s",
		h.freq.Cycle(evt.Time()), evt.Time(), reflect.TypeOf(evt), target)
}

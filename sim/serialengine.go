package sim

import (
	"log"
	"reflect"
	"sync"
)

// A SerialEngine is an Engine that runs events one after another in time
// order. Events at the same time run in the order they were scheduled.
type SerialEngine struct {
	HookableBase

	mu     sync.Mutex
	resume *sync.Cond
	paused bool
	now    VTimeInSec
	queue  EventQueue

	running sync.Mutex
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	e := &SerialEngine{queue: NewEventQueue()}
	e.resume = sync.NewCond(&e.mu)

	return e
}

// Name returns the name of the engine.
func (e *SerialEngine) Name() string {
	return "Engine"
}

// Schedule registers an event to happen at or after the current time.
func (e *SerialEngine) Schedule(evt Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if evt.Time() < e.now {
		log.Panicf("cannot schedule %s at %.10f, now is %.10f",
			reflect.TypeOf(evt), evt.Time(), e.now)
	}

	e.queue.Push(evt)
}

// Run processes the scheduled events until none is left. The first error
// returned by a handler stops the run and is returned.
func (e *SerialEngine) Run() error {
	e.running.Lock()
	defer e.running.Unlock()

	for {
		evt, ok := e.next()
		if !ok {
			return nil
		}

		ctx := HookCtx{
			Domain: e,
			Pos:    HookPosBeforeEvent,
			Item:   evt,
		}
		e.InvokeHook(ctx)

		err := evt.Handler().Handle(evt)

		ctx.Pos = HookPosAfterEvent
		e.InvokeHook(ctx)

		if err != nil {
			return err
		}
	}
}

// next blocks while the engine is paused, then pops the earliest event and
// moves the clock to it.
func (e *SerialEngine) next() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.paused {
		e.resume.Wait()
	}

	if e.queue.Len() == 0 {
		return nil, false
	}

	evt := e.queue.Pop()
	e.now = evt.Time()

	return evt, true
}

// Pause stops the engine before the next event. The running event finishes.
func (e *SerialEngine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

// Continue lets a paused engine run again.
func (e *SerialEngine) Continue() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()

	e.resume.Broadcast()
}

// Now returns the time of the event being handled.
func (e *SerialEngine) Now() VTimeInSec {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.now
}

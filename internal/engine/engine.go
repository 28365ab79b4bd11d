// Package engine implements the Transition Engine of spec.md §4.3: it
// translates a trigger and Settings into scheduled, eased, or
// instantaneous emission of outbound messages, reading deadlines from
// internal/clock and target values from internal/store, and writing
// emitted values back into the store's current-value shadow.
//
// Cancellable delayed work (the scheduled-transition wait, the
// interpolation frame loop) is grounded on the teacher's
// internal/midiplayer.NoteOn: a goroutine racing a timer against a
// context.CancelFunc, exactly the shape needed for spec.md §4.3's
// synchronous, idempotent Cancel.
package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/schollz/snapgrid/internal/clock"
	"github.com/schollz/snapgrid/internal/registry"
	"github.com/schollz/snapgrid/internal/store"
	"github.com/schollz/snapgrid/internal/wire"
)

const frameInterval = 16 * time.Millisecond

// Engine is the Transition Engine. Zero value is not usable; construct
// with New.
type Engine struct {
	mu sync.Mutex

	clk *clock.Clock
	st  *store.Store
	reg *registry.Registry

	scheduled *Scheduled
	interp    *Interpolation
	cancel    context.CancelFunc // cancels whatever is currently in flight
	epoch     int                // bumped by Cancel and by every new trigger; in-flight
	// goroutines compare their captured epoch before emitting or mutating
	// state, closing the race between a fired timer/tick and a concurrent
	// Cancel() - the single-reactor equivalent spec.md §5 assumes away.

	onMessage      func(wire.Message)
	onInterpUpdate func(Interpolation)
	onComplete     func(store.Snapshot)
}

// New constructs an Engine wired to clk and st. The core operations are
// pure in their receiver (spec.md §9 "Singletons") - multiple
// independent Engines may share or not share a Clock/Store as the
// caller chooses.
func New(clk *clock.Clock, st *store.Store, reg *registry.Registry) *Engine {
	return &Engine{clk: clk, st: st, reg: reg}
}

// OnMessage registers the sink callback.
func (e *Engine) OnMessage(fn func(wire.Message)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onMessage = fn
}

// OnInterpolationUpdate registers the UI-progress callback.
func (e *Engine) OnInterpolationUpdate(fn func(Interpolation)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onInterpUpdate = fn
}

// OnComplete registers the completion callback, fired when a Jump
// reaches progress=1 or a Drop fires.
func (e *Engine) OnComplete(fn func(store.Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = fn
}

// Scheduled returns the current scheduled-but-not-fired transition, if
// any.
func (e *Engine) Scheduled() (Scheduled, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scheduled == nil {
		return Scheduled{}, false
	}
	return *e.scheduled, true
}

// Interpolation returns the active Jump interpolation state, if any.
func (e *Engine) Interpolation() (Interpolation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.interp == nil {
		return Interpolation{}, false
	}
	return *e.interp, true
}

// IsActive reports whether a transition is scheduled or interpolating.
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduled != nil || e.interp != nil
}

// Cancel cancels any scheduled-but-not-fired transition and any
// in-progress Jump interpolation. Synchronous: on return, no further
// callbacks or messages from the cancelled transition will occur.
// Idempotent: a second call with nothing active is a no-op.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.scheduled = nil
	e.interp = nil
	e.epoch++
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// beginEpoch bumps the engine's epoch and returns the new value, for a
// fresh trigger to adopt across its scheduled-wait and interpolation/
// drop-firing phases.
func (e *Engine) beginEpoch() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	return e.epoch
}

// currentEpoch reports whether epoch is still the engine's live epoch -
// false means a Cancel() or a newer trigger has superseded it.
func (e *Engine) currentEpoch(epoch int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epoch == epoch
}

func (e *Engine) emit(msg wire.Message) {
	e.mu.Lock()
	fn := e.onMessage
	e.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (e *Engine) notifyInterpolation(st Interpolation) {
	e.mu.Lock()
	fn := e.onInterpUpdate
	e.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

func (e *Engine) notifyComplete(snap store.Snapshot) {
	e.mu.Lock()
	fn := e.onComplete
	e.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func clampFadeMS(ms int) int {
	if ms < 0 {
		return 0
	}
	if ms > 10000 {
		return 10000
	}
	return ms
}

func clampCycleLength(bars int) int {
	if bars < 1 {
		return 1
	}
	if bars > 32 {
		return 32
	}
	return bars
}

func logUnknownSnapshot(op, id string) {
	log.Printf("[ENGINE] %s: snapshot %s not found, no-op", op, id)
}

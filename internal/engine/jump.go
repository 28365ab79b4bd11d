package engine

import (
	"context"
	"time"

	"github.com/schollz/snapgrid/internal/clock"
	"github.com/schollz/snapgrid/internal/registry"
)

// ExecuteJump schedules (or immediately begins) a smoothly interpolated
// move of snapshotID's enabled parameters from their current shadow
// values to the snapshot's targets, per spec.md §4.3 "Jump". A missing
// snapshot id is a no-op (spec.md §7).
func (e *Engine) ExecuteJump(snapshotID string, settings Settings) {
	e.Cancel()

	if _, ok := e.st.Get(snapshotID); !ok {
		logUnknownSnapshot("execute_jump", snapshotID)
		return
	}

	fadeMS := clampFadeMS(settings.FadeMS)
	epoch := e.beginEpoch()

	if settings.Quantization == clock.QuantNone {
		e.beginInterpolation(epoch, snapshotID, fadeMS)
		return
	}

	delay := e.clk.TimeUntilNextQuantization(settings.Quantization)
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.cancel = cancel
	e.scheduled = &Scheduled{
		SnapshotID:  snapshotID,
		Mode:        ModeJump,
		Deadline:    time.Now().Add(delay),
		ScheduledAt: time.Now(),
	}
	e.mu.Unlock()

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			e.mu.Lock()
			if e.epoch != epoch {
				e.mu.Unlock()
				return
			}
			e.scheduled = nil
			e.cancel = nil
			e.mu.Unlock()
			e.beginInterpolation(epoch, snapshotID, fadeMS)
		case <-ctx.Done():
		}
	}()
}

// beginInterpolation snapshots the shadow as the start map, resolves the
// target map from the store, and either emits once (duration 0) or runs
// the ~60Hz eased frame loop. epoch must still be the engine's live
// epoch or the call is a no-op - it may have been superseded by a
// concurrent Cancel() or new trigger between scheduling and firing.
func (e *Engine) beginInterpolation(epoch int, snapshotID string, fadeMS int) {
	if !e.currentEpoch(epoch) {
		return
	}

	order, ok := e.st.EnabledParameterOrder(snapshotID)
	if !ok {
		logUnknownSnapshot("execute_jump", snapshotID)
		return
	}
	targets, _ := e.st.InterpolationTargets(snapshotID)

	start := make(map[string]int, len(order))
	for _, id := range order {
		start[id] = e.st.GetCurrent(id)
	}

	if fadeMS == 0 {
		if !e.currentEpoch(epoch) {
			return
		}
		for _, id := range order {
			e.emitParameter(id, targets[id])
		}
		e.finishInterpolation(epoch, snapshotID)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	interp := &Interpolation{
		SnapshotID: snapshotID,
		Start:      start,
		Target:     targets,
		StartTime:  time.Now(),
		DurationMS: fadeMS,
		Order:      order,
		Progress:   0,
	}

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return
	}
	e.interp = interp
	e.cancel = cancel
	e.mu.Unlock()

	go e.runInterpolationLoop(ctx, epoch, snapshotID)
}

func (e *Engine) runInterpolationLoop(ctx context.Context, epoch int, snapshotID string) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.stepInterpolation(epoch, snapshotID) {
				return
			}
		}
	}
}

// stepInterpolation computes and emits one frame. Returns true when the
// interpolation has reached progress=1 and completed, or when epoch has
// been superseded (in which case nothing is emitted).
func (e *Engine) stepInterpolation(epoch int, snapshotID string) bool {
	e.mu.Lock()
	if e.epoch != epoch || e.interp == nil {
		e.mu.Unlock()
		return true
	}
	interp := *e.interp
	e.mu.Unlock()

	elapsed := time.Since(interp.StartTime)
	progress := float64(elapsed) / float64(time.Duration(interp.DurationMS)*time.Millisecond)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	eased := easeOutCubic(progress)

	for _, id := range interp.Order {
		startV := interp.Start[id]
		targetV := interp.Target[id]
		value := registry.Clamp127(startV + roundNearest(float64(targetV-startV)*eased))
		e.emitParameter(id, value)
	}

	e.mu.Lock()
	if e.epoch != epoch || e.interp == nil {
		e.mu.Unlock()
		return true
	}
	e.interp.Progress = progress
	snapshotOfInterp := *e.interp
	e.mu.Unlock()

	e.notifyInterpolation(snapshotOfInterp)

	if progress >= 1 {
		e.finishInterpolation(epoch, snapshotID)
		return true
	}
	return false
}

func (e *Engine) emitParameter(parameterID string, value int) {
	d, ok := e.reg.Get(parameterID)
	if !ok {
		return
	}
	for _, msg := range registry.Encode(d, value) {
		e.emit(msg)
	}
	e.st.SetCurrent(parameterID, value)
}

func (e *Engine) finishInterpolation(epoch int, snapshotID string) {
	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return
	}
	e.interp = nil
	e.cancel = nil
	e.mu.Unlock()

	if snap, ok := e.st.Get(snapshotID); ok {
		e.notifyComplete(snap)
	}
}

// easeOutCubic implements the cubic ease-out of spec.md §4.3:
// 1 - (1 - progress)^3. Monotonically non-decreasing on [0,1] with
// eased(0)=0, eased(1)=1.
func easeOutCubic(progress float64) float64 {
	inv := 1 - progress
	return 1 - inv*inv*inv
}

func roundNearest(f float64) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return -int(-f + 0.5)
}

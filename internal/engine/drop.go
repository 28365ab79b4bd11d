package engine

import (
	"context"
	"time"
)

// ExecuteDrop schedules an instantaneous, bar-aligned application of
// snapshotID's enabled parameters and one-shot messages at the next
// cycle boundary, per spec.md §4.3 "Drop". A missing snapshot id is a
// no-op (spec.md §7).
func (e *Engine) ExecuteDrop(snapshotID string, settings Settings) {
	e.Cancel()

	if _, ok := e.st.Get(snapshotID); !ok {
		logUnknownSnapshot("execute_drop", snapshotID)
		return
	}

	settings.CycleLengthBars = clampCycleLength(settings.CycleLengthBars)
	epoch := e.beginEpoch()

	targetBar := e.clk.NextCycleBar(settings.CycleLengthBars)
	e.scheduleDropAt(epoch, snapshotID, settings, targetBar)
}

func (e *Engine) scheduleDropAt(epoch int, snapshotID string, settings Settings, targetBar int) {
	delay := e.clk.TimeUntilBar(targetBar)
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return
	}
	e.cancel = cancel
	e.scheduled = &Scheduled{
		SnapshotID:  snapshotID,
		Mode:        ModeDrop,
		Deadline:    time.Now().Add(delay),
		TargetBar:   targetBar,
		ScheduledAt: time.Now(),
	}
	e.mu.Unlock()

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			e.fireDrop(epoch, snapshotID, settings, targetBar)
		case <-ctx.Done():
		}
	}()
}

// fireDrop delivers the store's outbound messages in order with no
// inter-message pacing, updates the shadow, and fires completion. If
// scheduled-Drop wall-clock deadlines are not cancelled by a stopped
// clock (spec.md §9 "Drop fires while stopped"), the Drop still fires
// here regardless of the Clock's running state.
func (e *Engine) fireDrop(epoch int, snapshotID string, settings Settings, targetBar int) {
	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return
	}
	e.scheduled = nil
	e.cancel = nil
	e.mu.Unlock()

	msgs, ok := e.st.OutboundMessages(snapshotID)
	if !ok {
		logUnknownSnapshot("execute_drop", snapshotID)
		return
	}
	for _, msg := range msgs {
		e.emit(msg)
	}

	targets, _ := e.st.InterpolationTargets(snapshotID)
	for id, v := range targets {
		e.st.SetCurrent(id, v)
	}

	if snap, ok := e.st.Get(snapshotID); ok {
		e.notifyComplete(snap)
	}

	if settings.Repeat {
		nextBar := targetBar + settings.CycleLengthBars
		e.scheduleDropAt(epoch, snapshotID, settings, nextBar)
	}
}

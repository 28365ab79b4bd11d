package engine

import (
	"time"

	"github.com/schollz/snapgrid/internal/clock"
)

// Mode selects the transition kind: a smoothly interpolated Jump or an
// instantaneous, bar-aligned Drop.
type Mode int

const (
	ModeJump Mode = iota
	ModeDrop
)

// Settings is the immutable transition configuration passed per
// trigger, per spec.md §3 "Transition settings".
type Settings struct {
	Mode Mode

	// Jump-only.
	FadeMS       int
	Quantization clock.Quantization

	// Drop-only.
	CycleLengthBars int
	Repeat          bool
}

// Scheduled is the record of an accepted-but-not-yet-fired transition.
type Scheduled struct {
	SnapshotID  string
	Mode        Mode
	Deadline    time.Time
	TargetBar   int // meaningful for Mode == ModeDrop only
	ScheduledAt time.Time
}

// Interpolation is the active state of a Jump's fade.
type Interpolation struct {
	SnapshotID string
	Start      map[string]int
	Target     map[string]int
	StartTime  time.Time
	DurationMS int
	Order      []string
	Progress   float64
}

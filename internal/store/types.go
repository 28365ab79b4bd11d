package store

import (
	"time"

	"github.com/schollz/snapgrid/internal/wire"
)

// Banks and Slots fix the 8x16 grid shape of spec.md §3 - the same
// shape as the teacher's SongData [8][16]int track/row grid, just
// addressing snapshots instead of chains.
const (
	Banks = 8
	Slots = 16
)

// SnapshotParameter is one (parameter id, value, enabled) entry within a
// snapshot's parameter list. Values are always clamped to [0,127].
type SnapshotParameter struct {
	ParameterID string
	Value       int
	Enabled     bool
}

// Snapshot is a named, identifier-keyed record living in one (bank,
// slot) cell, per spec.md §3.
type Snapshot struct {
	ID              string
	Name            string
	Bank            int
	Slot            int
	Parameters      []SnapshotParameter
	OneShotMessages []wire.Message
	Colour          string
	CreatedAt       time.Time
	ModifiedAt      time.Time
}

// Patch carries the allowed field updates for Update; nil fields are
// left unchanged.
type Patch struct {
	Name            *string
	Parameters      *[]SnapshotParameter
	OneShotMessages *[]wire.Message
	Colour          *string
}

func clonedParameters(ps []SnapshotParameter) []SnapshotParameter {
	out := make([]SnapshotParameter, len(ps))
	copy(out, ps)
	return out
}

func clonedMessages(ms []wire.Message) []wire.Message {
	out := make([]wire.Message, len(ms))
	copy(out, ms)
	return out
}

func cloneSnapshot(s *Snapshot) Snapshot {
	cp := *s
	cp.Parameters = clonedParameters(s.Parameters)
	cp.OneShotMessages = clonedMessages(s.OneShotMessages)
	return cp
}

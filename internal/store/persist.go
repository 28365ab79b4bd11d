package store

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// snapshotJSON mirrors Snapshot for marshalling; wire.Message is an
// interface and is not itself persisted here - one-shot messages are a
// UI/persistence-collaborator concern per spec.md §1, so only the
// parameter list round-trips through ExportJSON/LoadJSON.
type snapshotJSON struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Bank       int                 `json:"bank"`
	Slot       int                 `json:"slot"`
	Parameters []SnapshotParameter `json:"parameters"`
	Colour     string              `json:"colour"`
	CreatedAt  int64               `json:"created_at"`
	ModifiedAt int64               `json:"modified_at"`
}

// ExportJSON renders the snapshot set as JSON bytes using jsoniter, the
// way internal/storage.go renders SaveData - a persistence-collaborator
// convenience, not core state (spec.md §1 scopes durable storage out of
// the core; this only ever runs in-memory, callers decide whether and
// where to write the bytes).
func (s *Store) ExportJSON() ([]byte, error) {
	list := s.Export()
	out := make([]snapshotJSON, len(list))
	for i, snap := range list {
		out[i] = snapshotJSON{
			ID:         snap.ID,
			Name:       snap.Name,
			Bank:       snap.Bank,
			Slot:       snap.Slot,
			Parameters: snap.Parameters,
			Colour:     snap.Colour,
			CreatedAt:  snap.CreatedAt.Unix(),
			ModifiedAt: snap.ModifiedAt.Unix(),
		}
	}
	return json.Marshal(out)
}

// LoadJSON bulk-replaces the snapshot set from JSON bytes produced by
// ExportJSON.
func (s *Store) LoadJSON(data []byte) error {
	var in []snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	list := make([]Snapshot, len(in))
	for i, snap := range in {
		list[i] = Snapshot{
			ID:         snap.ID,
			Name:       snap.Name,
			Bank:       snap.Bank,
			Slot:       snap.Slot,
			Parameters: snap.Parameters,
			Colour:     snap.Colour,
			CreatedAt:  unixTime(snap.CreatedAt),
			ModifiedAt: unixTime(snap.ModifiedAt),
		}
	}
	s.Load(list)
	return nil
}

package store

import (
	"encoding/json"
	"fmt"

	"github.com/theirongolddev/kcal/internal/model"
)

// Slot reads and writes a whole model.Snapshot under one key of a KV.
type Slot struct {
	kv  KV
	key string
}

// NewSlot returns a slot bound to key in kv.
func NewSlot(kv KV, key string) *Slot {
	return &Slot{kv: kv, key: key}
}

// Save writes snap wholesale, replacing whatever was stored before.
func (s *Slot) Save(snap model.Snapshot) error {
	if snap.Entries == nil {
		snap.Entries = []model.MealEntry{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return s.kv.Put(s.key, data)
}

// Load returns the stored snapshot, ErrNotFound if none was saved, or
// ErrCorrupt if the stored bytes are not a snapshot.
func (s *Slot) Load() (model.Snapshot, error) {
	var snap model.Snapshot

	data, err := s.kv.Get(s.key)
	if err != nil {
		return snap, err
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if snap.Date == "" {
		return model.Snapshot{}, fmt.Errorf("%w: missing date", ErrCorrupt)
	}
	return snap, nil
}

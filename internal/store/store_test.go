package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kcal/internal/model"
)

func openBackends(t *testing.T) map[string]KV {
	t.Helper()

	dir := t.TempDir()

	sq, err := OpenSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	bl, err := OpenBolt(filepath.Join(dir, "test.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bl.Close() })

	return map[string]KV{
		BackendSQLite: sq,
		BackendBolt:   bl,
		BackendMemory: NewMemory(),
	}
}

func TestKV_GetMissing(t *testing.T) {
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestKV_PutOverwrites(t *testing.T) {
	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put("k", []byte("first")))
			require.NoError(t, kv.Put("k", []byte("second")))

			got, err := kv.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "second", string(got))
		})
	}
}

func TestSlot_SaveLoad(t *testing.T) {
	snap := model.Snapshot{
		Entries: []model.MealEntry{
			{ID: 1, Name: "Oatmeal", Calories: 350, RecordedAt: "8:01:00 AM"},
			{ID: 2, Name: "Sandwich", Calories: 600, RecordedAt: "12:30:00 PM"},
		},
		Goal: 1800,
		Date: "2026-10-19",
	}

	for name, kv := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			slot := NewSlot(kv, SnapshotKey)
			require.NoError(t, slot.Save(snap))

			got, err := slot.Load()
			require.NoError(t, err)
			assert.Equal(t, snap, got)
		})
	}
}

func TestSlot_LoadAbsentAndCorrupt(t *testing.T) {
	kv := NewMemory()
	slot := NewSlot(kv, SnapshotKey)

	_, err := slot.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(SnapshotKey, []byte("{not json")))
	_, err = slot.Load()
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, kv.Put(SnapshotKey, []byte(`{"entries":[],"goal":1500}`)))
	_, err = slot.Load()
	assert.ErrorIs(t, err, ErrCorrupt, "snapshot without a date cannot be scoped to a day")
}

func TestSlot_SaveWritesEmptyEntriesArray(t *testing.T) {
	kv := NewMemory()
	require.NoError(t, NewSlot(kv, SnapshotKey).Save(model.Snapshot{Goal: 2000, Date: "2026-10-19"}))

	raw, err := kv.Get(SnapshotKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[],"goal":2000,"date":"2026-10-19"}`, string(raw))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("postgres", t.TempDir())
	assert.Error(t, err)
}

func TestOpen_SQLiteCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	kv, err := Open(BackendSQLite, dir)
	require.NoError(t, err)
	defer func() { _ = kv.Close() }()

	assert.FileExists(t, PathFor(BackendSQLite, dir))
}

func TestOpen_BoltHeldElsewhereIsLocked(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(BackendBolt, dir)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()

	_, err = Open(BackendBolt, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLocked)
}

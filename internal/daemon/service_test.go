package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kcal/internal/store"
	"github.com/theirongolddev/kcal/internal/tracker"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *tracker.Log, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 10, 19, 8, 0, 0, 0, time.Local)}
	log := tracker.New(
		store.NewSlot(store.NewMemory(), store.SnapshotKey),
		tracker.WithClock(clock.Now),
	)
	return New(log, Config{DataDir: t.TempDir(), Backend: store.BackendMemory, EventsBuffer: 10}), log, clock
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestDiffStates(t *testing.T) {
	_, log, _ := newTestService(t)
	prev := stateOf(log)

	_, err := log.AddEntry("Oatmeal", "350")
	require.NoError(t, err)
	require.NoError(t, log.SetGoal(1800))

	delta := diffStates(prev, stateOf(log))
	assert.Equal(t, Delta{Entries: 1, Calories: 350, Goal: -200}, delta)
	assert.Equal(t, Delta{}, diffStates(prev, prev))
}

func TestPublishEventRingBuffer(t *testing.T) {
	s, _, _ := newTestService(t)
	s.cfg.EventsBuffer = 2

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestService(t)
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestAddEntry(t *testing.T) {
	s, log, _ := newTestService(t)
	h := s.Handler()

	tests := []struct {
		name string
		body string
		code int
		cal  int
	}{
		{"string calories", `{"name":"Oatmeal","calories":"350"}`, http.StatusCreated, 350},
		{"number calories", `{"name":"Salad","calories":420}`, http.StatusCreated, 420},
		{"lenient suffix", `{"name":"Apple","calories":"95kcal"}`, http.StatusCreated, 95},
		{"non-numeric", `{"name":"Toast","calories":"abc"}`, http.StatusUnprocessableEntity, 0},
		{"zero", `{"name":"Water","calories":0}`, http.StatusUnprocessableEntity, 0},
		{"blank name", `{"name":"   ","calories":"100"}`, http.StatusUnprocessableEntity, 0},
		{"missing calories", `{"name":"Toast"}`, http.StatusUnprocessableEntity, 0},
		{"malformed", `{"name":`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(log.Entries())
			rec := do(t, h, http.MethodPost, "/v1/entries", tt.body)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())

			if tt.code == http.StatusCreated {
				assert.Equal(t, before+1, len(log.Entries()))
				body := decode[map[string]any](t, rec)
				assert.EqualValues(t, tt.cal, body["calories"])
				return
			}
			assert.Equal(t, before, len(log.Entries()), "rejected entries do not change state")
			if tt.code == http.StatusUnprocessableEntity {
				body := decode[map[string]string](t, rec)
				assert.Equal(t, tracker.ErrInvalidEntry.Error(), body["error"])
			}
		})
	}
}

func TestDeleteEntry(t *testing.T) {
	s, log, _ := newTestService(t)
	h := s.Handler()

	e, err := log.AddEntry("Oatmeal", "350")
	require.NoError(t, err)

	rec := do(t, h, http.MethodDelete, "/v1/entries/999", "")
	assert.Equal(t, http.StatusNoContent, rec.Code, "unknown id is a no-op")
	assert.Len(t, log.Entries(), 1)

	rec = do(t, h, http.MethodDelete, "/v1/entries/"+strconv.FormatInt(e.ID, 10), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, log.Entries())

	rec = do(t, h, http.MethodDelete, "/v1/entries/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetGoal(t *testing.T) {
	s, log, _ := newTestService(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPut, "/v1/goal", `{"goal":"1800"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[LogState](t, rec)
	assert.Equal(t, 1800, state.Goal)
	assert.Equal(t, 1800, log.Goal())

	rec = do(t, h, http.MethodPut, "/v1/goal", `{"goal":"lots"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[LogState](t, rec)
	assert.Equal(t, 0, state.Goal, "unparseable goal becomes zero")
	assert.InDelta(t, 100, state.Totals.Percentage, 0.001)
}

func TestReset(t *testing.T) {
	s, log, _ := newTestService(t)
	h := s.Handler()

	_, err := log.AddEntry("Oatmeal", "350")
	require.NoError(t, err)
	require.NoError(t, log.SetGoal(1500))

	rec := do(t, h, http.MethodPost, "/v1/reset", `{"confirm":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, log.Entries(), 1, "declined reset keeps entries")

	rec = do(t, h, http.MethodPost, "/v1/reset", `{"confirm":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[LogState](t, rec)
	assert.Empty(t, state.Entries)
	assert.Equal(t, 1500, state.Goal, "reset keeps the goal")
}

func TestGetLogAndStatus(t *testing.T) {
	s, log, _ := newTestService(t)
	h := s.Handler()

	_, err := log.AddEntry("Oatmeal", "350")
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/v1/log", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[LogState](t, rec)
	assert.Equal(t, "2026-10-19", state.Date)
	assert.Equal(t, "Monday, October 19, 2026", state.DisplayDate)
	require.Len(t, state.Entries, 1)
	assert.Equal(t, 350, state.Totals.Total)
	assert.Equal(t, 1650, state.Totals.Remaining)

	rec = do(t, h, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[Status](t, rec)
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, store.BackendMemory, st.Backend)
	assert.Equal(t, 1, st.EventCount)
}

func TestMutationsPublishEvents(t *testing.T) {
	s, log, _ := newTestService(t)

	_, err := log.AddEntry("Oatmeal", "350")
	require.NoError(t, err)
	require.NoError(t, log.SetGoal(1800))

	rec := do(t, s.Handler(), http.MethodGet, "/v1/events", "")
	events := decode[[]Event](t, rec)
	require.Len(t, events, 2)
	assert.Equal(t, EventLogChanged, events[0].Type)
	assert.Equal(t, Delta{Entries: 1, Calories: 350}, events[0].Delta)
	assert.Equal(t, Delta{Goal: -200}, events[1].Delta)
	assert.Less(t, events[0].ID, events[1].ID)
}

func TestTickRollsOverAtMidnight(t *testing.T) {
	s, log, clock := newTestService(t)

	_, err := log.AddEntry("Oatmeal", "350")
	require.NoError(t, err)
	require.NoError(t, log.SetGoal(1700))

	s.tick()
	assert.Len(t, log.Entries(), 1, "same day is untouched")

	clock.t = clock.t.Add(20 * time.Hour)
	s.tick()

	assert.Empty(t, log.Entries())
	assert.Equal(t, 1700, log.Goal())
	assert.Equal(t, "2026-10-20", log.Date())

	st := s.snapshotStatus()
	assert.Equal(t, int64(2), st.TickCount)
	assert.Empty(t, st.LastError)
}

func TestStreamSendsSnapshotThenChanges(t *testing.T) {
	s, log, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	nextEvent := func() string {
		for sc.Scan() {
			if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				return name
			}
		}
		return ""
	}

	require.Equal(t, EventSnapshot, nextEvent())

	// The subscriber is registered before the snapshot is written.
	s.logMu.Lock()
	_, err = log.AddEntry("Oatmeal", "350")
	s.logMu.Unlock()
	require.NoError(t, err)

	assert.Equal(t, EventLogChanged, nextEvent())
}

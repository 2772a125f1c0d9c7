// Package daemon provides the localhost HTTP API and change stream over
// today's calorie log.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/kcal/internal/config"
	"github.com/theirongolddev/kcal/internal/model"
	"github.com/theirongolddev/kcal/internal/tracker"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	Backend      string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *slog.Logger
}

// LogState is the JSON view of the daily log served by /v1/log and carried
// in events.
type LogState struct {
	Date        string            `json:"date"`
	DisplayDate string            `json:"displayDate"`
	Goal        int               `json:"goal"`
	Entries     []model.MealEntry `json:"entries"`
	Totals      model.Totals      `json:"totals"`
}

// Delta captures the change between two published states.
type Delta struct {
	Entries  int `json:"entries"`
	Calories int `json:"calories"`
	Goal     int `json:"goal"`
}

// Event is emitted whenever the log changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	State     LogState  `json:"state"`
	Delta     Delta     `json:"delta"`
}

// Event types.
const (
	EventSnapshot   = "snapshot"
	EventLogChanged = "log_changed"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time    `json:"started_at"`
	LastTickAt      time.Time    `json:"last_tick_at"`
	TickIntervalSec int          `json:"tick_interval_sec"`
	TickCount       int64        `json:"tick_count"`
	DataDir         string       `json:"data_dir"`
	Backend         string       `json:"backend"`
	Date            string       `json:"date"`
	Entries         int          `json:"entries"`
	Totals          model.Totals `json:"totals"`
	LastError       string       `json:"last_error,omitempty"`
	EventCount      int          `json:"event_count"`
	SubscriberCount int          `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	logger *slog.Logger

	// logMu serialises every call into the tracker, which is not safe for
	// concurrent use.
	logMu sync.Mutex
	log   *tracker.Log

	mu          sync.RWMutex
	startedAt   time.Time
	lastTickAt  time.Time
	tickCount   int64
	lastError   string
	last        LogState
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service serving log.
func New(log *tracker.Log, cfg Config) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultDaemonAddr
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Service{
		cfg:       cfg,
		logger:    logger,
		log:       log,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	s.last = stateOf(log)
	log.Subscribe(func(model.Snapshot, model.Totals) {
		// Runs with logMu held, from inside the mutating call.
		s.recordChange(stateOf(log))
	})
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("GET /v1/log", s.handleLog)
	mux.HandleFunc("POST /v1/entries", s.handleAddEntry)
	mux.HandleFunc("DELETE /v1/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("PUT /v1/goal", s.handleSetGoal)
	mux.HandleFunc("POST /v1/reset", s.handleReset)
	return mux
}

// Run starts HTTP endpoints and the rollover ticker until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed the event log so /v1/events is useful immediately.
	s.tick()
	s.publishEvent(s.newEvent(EventSnapshot, s.currentState(), Delta{}))

	s.logger.Info("kcal daemon listening", "addr", s.cfg.Addr, "interval", s.cfg.Interval)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.tick()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// tick rolls the log over to a new day when the date has changed.
func (s *Service) tick() {
	s.logMu.Lock()
	rolled, err := s.log.Rollover()
	date := s.log.Date()
	s.logMu.Unlock()

	s.mu.Lock()
	s.lastTickAt = time.Now()
	s.tickCount++
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("rollover failed", "err", err)
	} else if rolled {
		s.logger.Info("new day started", "date", date)
	}
}

func stateOf(l *tracker.Log) LogState {
	snap := l.Snapshot()
	return LogState{
		Date:        snap.Date,
		DisplayDate: l.DisplayDate(),
		Goal:        snap.Goal,
		Entries:     snap.Entries,
		Totals:      l.Totals(),
	}
}

func (s *Service) currentState() LogState {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return stateOf(s.log)
}

func diffStates(prev, curr LogState) Delta {
	return Delta{
		Entries:  len(curr.Entries) - len(prev.Entries),
		Calories: curr.Totals.Total - prev.Totals.Total,
		Goal:     curr.Goal - prev.Goal,
	}
}

func (s *Service) recordChange(state LogState) {
	s.mu.Lock()
	delta := diffStates(s.last, state)
	s.last = state
	s.mu.Unlock()

	// Every change is published, even a zero delta (deleting an unknown
	// id still saves, and a same-day reset of an empty log does too).
	s.publishEvent(s.newEvent(EventLogChanged, state, delta))
}

func (s *Service) newEvent(typ string, state LogState, delta Delta) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	return Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: time.Now(),
		State:     state,
		Delta:     delta,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	state := s.currentState()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastTickAt:      s.lastTickAt,
		TickIntervalSec: int(s.cfg.Interval.Seconds()),
		TickCount:       s.tickCount,
		DataDir:         s.cfg.DataDir,
		Backend:         s.cfg.Backend,
		Date:            state.Date,
		Entries:         len(state.Entries),
		Totals:          state.Totals,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// ─── Handlers ───────────────────────────────────────────────────

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleLog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.currentState())
}

// numberText accepts either a JSON string or a bare JSON number and keeps
// its text, so `"350kcal"` and `350` both reach the lenient parser.
type numberText string

func (n *numberText) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numberText(s)
		return nil
	}
	if string(b) == "null" {
		*n = ""
		return nil
	}
	*n = numberText(strings.TrimSpace(string(b)))
	return nil
}

type addEntryRequest struct {
	Name     string     `json:"name"`
	Calories numberText `json:"calories"`
}

func (s *Service) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.logMu.Lock()
	entry, err := s.log.AddEntry(req.Name, string(req.Calories))
	s.logMu.Unlock()

	switch {
	case errors.Is(err, tracker.ErrInvalidEntry):
		writeError(w, http.StatusUnprocessableEntity, err)
	case err != nil:
		s.logger.Error("add entry", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusCreated, entry)
	}
}

func (s *Service) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid entry id %q", r.PathValue("id")))
		return
	}

	s.logMu.Lock()
	err = s.log.DeleteEntry(id)
	s.logMu.Unlock()

	if err != nil {
		s.logger.Error("delete entry", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setGoalRequest struct {
	Goal numberText `json:"goal"`
}

func (s *Service) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	var req setGoalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.logMu.Lock()
	err := s.log.SetGoalText(string(req.Goal))
	state := stateOf(s.log)
	s.logMu.Unlock()

	if err != nil {
		s.logger.Error("set goal", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Service) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.logMu.Lock()
	_, err := s.log.ResetDay(func(string) bool { return req.Confirm })
	state := stateOf(s.log)
	s.logMu.Unlock()

	if err != nil {
		s.logger.Error("reset day", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		State:     s.currentState(),
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// ─── Helpers ────────────────────────────────────────────────────

const maxBodyBytes = 1 << 16

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

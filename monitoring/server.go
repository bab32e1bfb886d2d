// Package monitoring serves the snapshots published by the memory manager
// over HTTP.
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"gitlab.com/akita/lrusim/clock"
	"gitlab.com/akita/lrusim/pager"
	"gitlab.com/akita/lrusim/profiler"
)

// DefaultHistoryLen is the number of snapshots kept by default.
const DefaultHistoryLen = 64

// A StatsSource provides the access counters shown by /api/stats.
type StatsSource interface {
	Summary() profiler.Summary
}

// A Server keeps the most recent snapshots and serves them. It never reads
// the live tables of the pager.
type Server struct {
	lock    sync.RWMutex
	history *history
	stats   StatsSource
	router  *mux.Router
	logger  *slog.Logger

	httpServer *http.Server
}

// NewServer creates a server keeping historyLen snapshots. stats may be nil.
func NewServer(historyLen int, stats StatsSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		history: newHistory(historyLen),
		stats:   stats,
		logger:  logger.With("component", "monitoring"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/clock", s.getClock).Methods("GET")
	r.HandleFunc("/api/frames", s.getFrames).Methods("GET")
	r.HandleFunc("/api/pagetables/{slot:[0-9]+}", s.getPageTable).
		Methods("GET")
	r.HandleFunc("/api/history", s.getHistory).Methods("GET")
	r.HandleFunc("/api/stats", s.getStats).Methods("GET")
	s.router = r

	return s
}

// ObserveSnapshot records a published snapshot.
func (s *Server) ObserveSnapshot(snap pager.Snapshot) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.history.Push(snap)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartServer listens on addr and serves in the background. It returns the
// address actually bound, which differs from addr when the port is 0.
func (s *Server) StartServer(addr string) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("monitoring listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{Handler: s.router}
	go func() {
		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("monitoring server stopped", "error", err)
		}
	}()

	s.logger.Info("monitoring server started",
		"addr", listener.Addr().String())

	return listener.Addr().String(), nil
}

// Shutdown stops a server started by StartServer.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) latest(w http.ResponseWriter) (pager.Snapshot, bool) {
	s.lock.RLock()
	snap, found := s.history.Latest()
	s.lock.RUnlock()

	if !found {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
	}
	return snap, found
}

func (s *Server) getClock(w http.ResponseWriter, _ *http.Request) {
	snap, found := s.latest(w)
	if !found {
		return
	}

	s.writeJSON(w, struct {
		clock.SimClock
		Time string `json:"time"`
	}{snap.Clock, snap.Clock.String()})
}

func (s *Server) getFrames(w http.ResponseWriter, _ *http.Request) {
	snap, found := s.latest(w)
	if !found {
		return
	}

	s.writeJSON(w, snap.Frames)
}

func (s *Server) getPageTable(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(mux.Vars(r)["slot"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, found := s.latest(w)
	if !found {
		return
	}

	if slot >= len(snap.PageTables) {
		http.Error(w, "no such slot", http.StatusNotFound)
		return
	}

	s.writeJSON(w, snap.PageTables[slot])
}

type historyEntry struct {
	Time     string `json:"time"`
	Occupied int    `json:"occupied"`
	Dirty    int    `json:"dirty"`
}

func (s *Server) getHistory(w http.ResponseWriter, _ *http.Request) {
	s.lock.RLock()
	all := s.history.All()
	s.lock.RUnlock()

	entries := make([]historyEntry, 0, len(all))
	for _, snap := range all {
		entries = append(entries, historyEntry{
			Time:     snap.Clock.String(),
			Occupied: snap.NumOccupied(),
			Dirty:    snap.NumDirty(),
		})
	}

	s.writeJSON(w, entries)
}

type statsResponse struct {
	Snapshots int               `json:"snapshots"`
	Occupied  int               `json:"occupied"`
	Dirty     int               `json:"dirty"`
	Access    *profiler.Summary `json:"access,omitempty"`
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	s.lock.RLock()
	rsp := statsResponse{Snapshots: s.history.Len()}
	if snap, found := s.history.Latest(); found {
		rsp.Occupied = snap.NumOccupied()
		rsp.Dirty = snap.NumDirty()
	}
	s.lock.RUnlock()

	if s.stats != nil {
		sum := s.stats.Summary()
		rsp.Access = &sum
	}

	s.writeJSON(w, rsp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("cannot encode response", "error", err)
	}
}

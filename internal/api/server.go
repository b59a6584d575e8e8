package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/shirou/gopsutil/cpu"
	"github.com/vmihailenco/msgpack/v5"

	"aerosense/internal/log"
	"aerosense/internal/models"
	"aerosense/internal/sim"
)

const msgpackContentType = "application/msgpack"

type Server struct {
	engine    *sim.Engine
	generator sim.OrderSource
	lg        *log.Logger
	startTime time.Time
}

// New constructs the HTTP router wired to the delivery engine. generator
// backs POST /orders/generate and may be nil, in which case that route
// answers 503.
func New(engine *sim.Engine, generator sim.OrderSource, lg *log.Logger) http.Handler {
	s := &Server{engine: engine, generator: generator, lg: lg.With("component", "api"), startTime: time.Now()}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// The event stream must not be buffered by the gzip writer.
	r.Get("/stream", s.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

		r.Get("/state", s.handleState)
		r.Get("/orders", s.handleOrders)
		r.Get("/orders/{id}", s.handleOrder)
		r.Get("/aircraft", s.handleAircraft)
		r.Get("/mission", s.handleMission)
		r.Get("/locations", s.handleLocations)
		r.Get("/stats", s.handleStats)

		r.Post("/orders", s.handleAddOrder)
		r.Post("/orders/generate", s.handleGenerateOrder)
		r.Post("/orders/{id}/approve", s.handleApprove)
		r.Post("/orders/{id}/start", s.handleStart)
		r.Delete("/orders/{id}", s.handleReject)
		r.Post("/mission/cancel", s.handleCancel)
		r.Post("/tick", s.handleTick)
	})

	return r
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	if acceptsMsgpack(r) {
		w.Header().Set("Content-Type", msgpackContentType)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(snap); err != nil {
			s.lg.Warn("Encoding msgpack snapshot", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func acceptsMsgpack(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, msgpackContentType) || strings.Contains(accept, "application/x-msgpack")
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Orders())
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := s.engine.Order(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, sim.ErrOrderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleAircraft(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Aircraft())
}

type missionResponse struct {
	Mission              models.MissionState `json:"mission"`
	Phase                models.MissionPhase `json:"phase"`
	ActiveMissionOrderID string              `json:"activeMissionOrderId,omitempty"`
	Position             *models.LngLat      `json:"position,omitempty"`
}

func (s *Server) handleMission(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.missionResponse())
}

func (s *Server) missionResponse() missionResponse {
	snap := s.engine.Snapshot()
	return missionResponse{
		Mission:              snap.Mission,
		Phase:                snap.Phase,
		ActiveMissionOrderID: snap.ActiveMissionOrderID,
		Position:             snap.Position,
	}
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Locations())
}

func (s *Server) handleAddOrder(w http.ResponseWriter, r *http.Request) {
	var o models.Order
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.engine.Add(o); err != nil {
		writeError(w, err)
		return
	}
	o, _ = s.engine.Order(o.ID)
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleGenerateOrder(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "order generation is not configured")
		return
	}
	o, err := s.engine.GenerateOrder(r.Context(), s.generator)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.Approve(id); err != nil {
		writeError(w, err)
		return
	}
	o, _ := s.engine.Order(id)
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reject(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.StartMission(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.missionResponse())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CancelMission(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.missionResponse())
}

// handleTick applies one tick immediately, on top of the engine's own
// loop.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Advance() {
		writeError(w, sim.ErrNoActiveMission)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsub := s.engine.Subscribe()
	defer unsub()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(snap)
			if err != nil {
				s.lg.Warn("Encoding stream snapshot", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: snapshot\n")
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

type serverStats struct {
	Engine        models.Stats `json:"engine"`
	Uptime        string       `json:"uptime"`
	AllocMB       uint64       `json:"allocMb"`
	TotalAllocMB  uint64       `json:"totalAllocMb"`
	SysMB         uint64       `json:"sysMb"`
	NumGC         uint32       `json:"numGc"`
	NumGoroutines int          `json:"numGoroutines"`
	CPUPercent    float64      `json:"cpuPercent"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := serverStats{
		Engine:        s.engine.Stats(),
		Uptime:        time.Since(s.startTime).Round(time.Second).String(),
		AllocMB:       m.Alloc / (1024 * 1024),
		TotalAllocMB:  m.TotalAlloc / (1024 * 1024),
		SysMB:         m.Sys / (1024 * 1024),
		NumGC:         m.NumGC,
		NumGoroutines: runtime.NumGoroutine(),
	}
	// zero interval: usage since the previous call, without blocking
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		stats.CPUPercent = usage[0]
	}
	writeJSON(w, http.StatusOK, stats)
}

// ===== helpers =====

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeError answers with the status matching an engine error.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sim.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrInvalidTransition),
		errors.Is(err, sim.ErrMissionActive),
		errors.Is(err, sim.ErrNoActiveMission),
		errors.Is(err, sim.ErrDuplicateOrder):
		return http.StatusConflict
	case errors.Is(err, sim.ErrInvalidOrder),
		errors.Is(err, sim.ErrUnknownLocation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

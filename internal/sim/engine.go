// Package sim implements the delivery engine: the order registry, the
// single-mission controller with its tick loop, and the telemetry model.
package sim

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brunoga/deep"
	"github.com/goforj/godump"

	"aerosense/internal/log"
	"aerosense/internal/models"
	"aerosense/internal/rand"
	"aerosense/internal/routing"
)

const subscriberBuffer = 16

type Config struct {
	Provider  routing.Provider
	Locations *Locations

	// TickInterval is the real-time period of the mission loop.
	TickInterval time.Duration
	// RouteTimeout bounds a route request; zero means no timeout.
	RouteTimeout time.Duration
	// Manual disables the internal ticker; ticks are applied only by
	// calling Advance.
	Manual bool

	Rand   *rand.Rand
	Logger *log.Logger
	// Now is the clock used for generated order ids.
	Now func() time.Time
}

type counters struct {
	ticks              atomic.Int64
	missionsStarted    atomic.Int64
	missionsCompleted  atomic.Int64
	missionsCancelled  atomic.Int64
	routeFallbacks     atomic.Int64
	ordersGenerated    atomic.Int64
	generationFailures atomic.Int64
}

// Engine owns the order list, the aircraft and the mission. All mutations
// happen under mu, so every tick and every operation is observed as a
// whole.
type Engine struct {
	mu       sync.Mutex
	orders   []models.Order
	aircraft models.AircraftState
	mission  models.MissionState
	activeID string
	phase    models.MissionPhase

	// acquireSeq identifies the StartMission call holding the Acquiring
	// phase; zero when none does.
	acquireSeq  int64
	nextAcquire int64

	cancelLoop context.CancelFunc
	subs       map[chan models.Snapshot]struct{}
	closed     bool

	provider     routing.Provider
	locations    *Locations
	tickInterval time.Duration
	routeTimeout time.Duration
	manual       bool
	rng          *rand.Rand
	lg           *log.Logger
	now          func() time.Time

	stats counters
}

func New(cfg Config) *Engine {
	if cfg.Provider == nil {
		cfg.Provider = routing.Unavailable
	}
	if cfg.Locations == nil {
		cfg.Locations = DefaultLocations()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		orders:       []models.Order{},
		aircraft:     InitialAircraft(),
		mission:      initialMission(),
		phase:        models.PhaseIdle,
		subs:         make(map[chan models.Snapshot]struct{}),
		provider:     cfg.Provider,
		locations:    cfg.Locations,
		tickInterval: cfg.TickInterval,
		routeTimeout: cfg.RouteTimeout,
		manual:       cfg.Manual,
		rng:          cfg.Rand,
		lg:           cfg.Logger,
		now:          cfg.Now,
	}
}

func initialMission() models.MissionState {
	return models.MissionState{
		Altitude: CruiseAltitudeM,
		Route:    []models.LngLat{},
	}
}

func (e *Engine) Locations() *Locations {
	return e.locations
}

// Snapshot returns a deep copy of the engine state.
func (e *Engine) Snapshot() models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		Orders:               e.orders,
		Aircraft:             e.aircraft,
		Mission:              e.mission,
		ActiveMissionOrderID: e.activeID,
		Phase:                e.phase,
	}
	if e.phase == models.PhaseRunning && len(e.mission.Route) > 0 {
		pos := PositionAlongRoute(e.mission.Route, e.mission.RouteProgress)
		snap.Position = &pos
	}
	return deep.MustCopy(snap)
}

func (e *Engine) Aircraft() models.AircraftState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aircraft
}

func (e *Engine) Mission() models.MissionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.mission
	m.Route = slices.Clone(m.Route)
	return m
}

// ActiveMissionOrderID returns the id of the order that owns the tick loop,
// or "" when no mission is running.
func (e *Engine) ActiveMissionOrderID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

func (e *Engine) Phase() models.MissionPhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) Stats() models.Stats {
	return models.Stats{
		Ticks:              e.stats.ticks.Load(),
		MissionsStarted:    e.stats.missionsStarted.Load(),
		MissionsCompleted:  e.stats.missionsCompleted.Load(),
		MissionsCancelled:  e.stats.missionsCancelled.Load(),
		RouteFallbacks:     e.stats.routeFallbacks.Load(),
		OrdersGenerated:    e.stats.ordersGenerated.Load(),
		GenerationFailures: e.stats.generationFailures.Load(),
	}
}

// Subscribe returns a channel that receives a snapshot after every state
// change, starting with the current state. Slow subscribers miss frames
// rather than stall the engine. The returned func unsubscribes and closes
// the channel.
func (e *Engine) Subscribe() (<-chan models.Snapshot, func()) {
	ch := make(chan models.Snapshot, subscriberBuffer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	e.subs[ch] = struct{}{}
	ch <- e.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if _, ok := e.subs[ch]; ok {
				delete(e.subs, ch)
				close(ch)
			}
		})
	}
}

func (e *Engine) publishLocked() {
	for ch := range e.subs {
		select {
		case ch <- e.snapshotLocked():
		default:
			// slow subscriber -> drop frame
		}
	}
}

// Close stops the tick loop and closes all subscriber channels. The engine
// must not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLoopLocked()
	for ch := range e.subs {
		delete(e.subs, ch)
		close(ch)
	}
	e.closed = true
}

///////////////////////////////////////////////////////////////////////////
// Tick loop

func (e *Engine) startLoopLocked(runID string) {
	e.stopLoopLocked()
	if e.manual {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancelLoop = cancel
	ticker := time.NewTicker(e.tickInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !e.advanceRun(runID) {
					return
				}
			}
		}
	}()
}

func (e *Engine) stopLoopLocked() {
	if e.cancelLoop != nil {
		e.cancelLoop()
		e.cancelLoop = nil
	}
}

// advanceRun applies a tick on behalf of the loop that owns runID and
// reports whether that run is still going.
func (e *Engine) advanceRun(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != models.PhaseRunning || e.mission.RunID != runID {
		return false
	}
	e.tickLocked()
	return e.phase == models.PhaseRunning
}

// Advance applies one tick to the running mission and reports whether a
// tick was applied. It is a no-op unless a mission is Running.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != models.PhaseRunning {
		return false
	}
	e.tickLocked()
	return true
}

func (e *Engine) tickLocked() {
	ev := TickEvent{
		Speed:          e.rng.Float64(),
		Signal:         e.rng.Float64(),
		SatelliteDelta: e.rng.Intn(3) - 1,
	}
	next := Step(TickState{Phase: e.phase, Mission: e.mission, Aircraft: e.aircraft}, ev)
	e.phase, e.mission, e.aircraft = next.Phase, next.Mission, next.Aircraft
	e.stats.ticks.Add(1)

	if e.phase == models.PhaseCompleted {
		e.completeLocked()
	}
	e.publishLocked()
}

// completeLocked finalises the mission whose last tick has just been
// applied and collapses the phase back to Idle.
func (e *Engine) completeLocked() {
	orderID := e.activeID
	if idx := e.indexLocked(orderID); idx >= 0 {
		e.orders[idx].Status = models.OrderDelivered
	}
	e.activeID = ""
	e.phase = models.PhaseIdle
	e.stopLoopLocked()
	e.stats.missionsCompleted.Add(1)

	e.lg.Info("Mission complete", slog.String("order", orderID),
		slog.String("run", e.mission.RunID), slog.Int("elapsed", e.mission.Elapsed),
		slog.Float64("battery", e.aircraft.Battery))
	if e.lg.DebugEnabled() {
		e.lg.Debug("Final mission state", slog.String("mission", godump.DumpStr(e.mission)))
	}
}

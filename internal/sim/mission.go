package sim

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"aerosense/internal/models"
	"aerosense/internal/routing"
)

const (
	RouteSourceProvider = "provider"
	RouteSourceFallback = "fallback"
)

type routePlan struct {
	points     []models.LngLat
	distanceKm float64
	source     string
}

// StartMission launches the approved order with the given id. The order
// must exist and be Approved, both its locations must be known, and no
// other mission may be acquiring or running; otherwise nothing changes and
// the reason is returned.
//
// The precondition check and the move to Acquiring happen under a single
// lock acquisition, so concurrent callers cannot both pass. The lock is
// then released while the route is fetched; a failed fetch falls back to a
// straight line and the mission still starts.
func (e *Engine) StartMission(ctx context.Context, id string) error {
	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return ErrOrderNotFound
	}
	order := e.orders[idx]
	if order.Status != models.OrderApproved {
		e.mu.Unlock()
		return ErrInvalidTransition
	}
	if e.activeID != "" || e.phase != models.PhaseIdle {
		e.mu.Unlock()
		return ErrMissionActive
	}
	pickup, ok1 := e.locations.Resolve(order.Pickup)
	delivery, ok2 := e.locations.Resolve(order.Delivery)
	if !ok1 || !ok2 {
		e.mu.Unlock()
		return ErrUnknownLocation
	}
	e.nextAcquire++
	seq := e.nextAcquire
	e.acquireSeq = seq
	e.phase = models.PhaseAcquiring
	e.publishLocked()
	e.mu.Unlock()

	plan := e.acquireRoute(ctx, order.ID, pickup, delivery)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != models.PhaseAcquiring || e.acquireSeq != seq {
		// cancelled while the route was being fetched
		return ErrNoActiveMission
	}
	e.acquireSeq = 0
	e.phase = models.PhaseIdle

	idx = e.indexLocked(id)
	if idx < 0 {
		e.publishLocked()
		return ErrOrderNotFound
	}
	if e.orders[idx].Status != models.OrderApproved {
		e.publishLocked()
		return ErrInvalidTransition
	}
	e.launchLocked(idx, plan)
	return nil
}

// acquireRoute never fails: any provider error yields the straight-line
// fallback route.
func (e *Engine) acquireRoute(ctx context.Context, orderID string, pickup, delivery models.LngLat) routePlan {
	if e.routeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.routeTimeout)
		defer cancel()
	}

	rt, err := e.provider.Route(ctx, pickup, delivery)
	if err == nil {
		err = checkRoute(rt)
	}
	if err != nil {
		e.stats.routeFallbacks.Add(1)
		e.lg.Warn("Route request failed; flying straight line",
			slog.String("order", orderID), slog.Any("error", err))
		return routePlan{
			points:     []models.LngLat{pickup, delivery},
			distanceKm: FallbackDistanceKm,
			source:     RouteSourceFallback,
		}
	}
	return routePlan{
		points:     rt.Points,
		distanceKm: rt.DistanceMeters / 1000,
		source:     RouteSourceProvider,
	}
}

func checkRoute(rt routing.Route) error {
	if len(rt.Points) < 2 {
		return routing.ErrShortGeometry
	}
	if math.IsNaN(rt.DistanceMeters) || math.IsInf(rt.DistanceMeters, 0) || rt.DistanceMeters < 0 {
		return routing.ErrInvalidDistance
	}
	return nil
}

func (e *Engine) launchLocked(idx int, plan routePlan) {
	order := &e.orders[idx]
	runID := uuid.NewString()
	eta := EstimatedDurationSeconds(plan.distanceKm)

	e.activeID = order.ID
	order.Status = models.OrderInFlight

	e.aircraft.Status = models.AircraftInFlight
	e.aircraft.PayloadWeight = ParseWeightKg(order.Weight)
	e.aircraft.Speed = CruiseSpeedKmh

	e.mission = models.MissionState{
		RunID:         runID,
		Progress:      0,
		Elapsed:       0,
		ETA:           eta,
		Distance:      plan.distanceKm,
		Altitude:      CruiseAltitudeM,
		Speed:         CruiseSpeedKmh,
		RouteProgress: 0,
		Route:         plan.points,
		RouteSource:   plan.source,
	}
	e.phase = models.PhaseRunning
	e.startLoopLocked(runID)
	e.stats.missionsStarted.Add(1)

	e.lg.Info("Mission started", slog.String("order", order.ID), slog.String("run", runID),
		slog.Float64("distance_km", plan.distanceKm), slog.Float64("eta_s", eta),
		slog.Int("route_points", len(plan.points)), slog.String("route_source", plan.source),
		slog.Float64("payload_kg", e.aircraft.PayloadWeight))
	e.publishLocked()
}

// CancelMission stops the running mission, or abandons one that is still
// acquiring its route. The order goes back to Approved, the aircraft to
// Idle, and the mission state keeps its last computed values.
func (e *Engine) CancelMission() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase == models.PhaseIdle {
		return ErrNoActiveMission
	}
	e.cancelLocked("cancelled")
	e.publishLocked()
	return nil
}

func (e *Engine) cancelLocked(reason string) {
	switch e.phase {
	case models.PhaseAcquiring:
		e.acquireSeq = 0
		e.phase = models.PhaseIdle
		e.lg.Info("Route acquisition abandoned", slog.String("reason", reason))

	case models.PhaseRunning:
		orderID := e.activeID
		e.stopLoopLocked()
		if idx := e.indexLocked(orderID); idx >= 0 {
			e.orders[idx].Status = models.OrderApproved
		}
		e.aircraft.Status = models.AircraftIdle
		e.aircraft.PayloadWeight = 0
		e.aircraft.Speed = 0
		e.activeID = ""
		e.phase = models.PhaseIdle
		e.stats.missionsCancelled.Add(1)
		e.lg.Info("Mission cancelled", slog.String("order", orderID),
			slog.String("run", e.mission.RunID), slog.String("reason", reason),
			slog.Float64("progress", e.mission.Progress))
	}
}

package sim

import (
	"math"
	"time"

	"aerosense/internal/models"
)

const (
	DefaultTickInterval = 600 * time.Millisecond

	CruiseSpeedKmh     = 42.0
	CruiseAltitudeM    = 150.0
	FallbackDistanceKm = 10.0
	ProgressPerTick    = 1.5

	altitudeSwingM    = 8.0
	altitudeRate      = 0.3
	minJitterSpeedKmh = 40.0
	speedJitterKmh    = 6.0
)

// TickEvent carries the random draws consumed by one tick so that Step
// itself stays deterministic.
type TickEvent struct {
	Speed          float64 // [0,1)
	Signal         float64 // [0,1)
	SatelliteDelta int     // -1, 0 or +1
}

// TickState is everything a tick reads and writes.
type TickState struct {
	Phase    models.MissionPhase
	Mission  models.MissionState
	Aircraft models.AircraftState
}

// EstimatedDurationSeconds is the whole-minute flight time at cruise speed.
func EstimatedDurationSeconds(distanceKm float64) float64 {
	return math.Round(distanceKm/CruiseSpeedKmh*60) * 60
}

// Step advances a running mission by one tick. Progress moves by a fixed
// increment per tick, independent of distance and wall time; the displayed
// speed is jitter only and never feeds the ETA, which uses the cruise
// speed. The tick that reaches 100% moves the phase to Completed and lands
// the aircraft. States that are not Running are returned unchanged.
func Step(s TickState, ev TickEvent) TickState {
	if s.Phase != models.PhaseRunning {
		return s
	}

	m := s.Mission
	m.Progress = min(m.Progress+ProgressPerTick, 100)
	m.RouteProgress = m.Progress / 100
	m.Elapsed++
	totalTime := m.Distance / (CruiseSpeedKmh / 3600)
	m.ETA = max(0, totalTime*(1-m.RouteProgress))
	m.Altitude = math.Round(CruiseAltitudeM + altitudeSwingM*math.Sin(float64(m.Elapsed)*altitudeRate))
	m.Speed = math.Round(minJitterSpeedKmh + ev.Speed*speedJitterKmh)

	a := DriftTelemetry(s.Aircraft, ev)

	phase := models.PhaseRunning
	if m.Progress >= 100 {
		m.Progress = 100
		m.RouteProgress = 1
		m.ETA = 0
		m.Speed = 0

		a.Status = models.AircraftIdle
		a.PayloadWeight = 0
		a.Speed = 0
		phase = models.PhaseCompleted
	}

	return TickState{Phase: phase, Mission: m, Aircraft: a}
}

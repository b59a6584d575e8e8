package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerosense/internal/models"
)

func runningState(distanceKm float64) TickState {
	a := InitialAircraft()
	a.Status = models.AircraftInFlight
	a.PayloadWeight = 2.4
	a.Speed = CruiseSpeedKmh
	return TickState{
		Phase: models.PhaseRunning,
		Mission: models.MissionState{
			ETA:      EstimatedDurationSeconds(distanceKm),
			Distance: distanceKm,
			Altitude: CruiseAltitudeM,
			Speed:    CruiseSpeedKmh,
			Route:    []models.LngLat{{0, 0}, {1, 1}},
		},
		Aircraft: a,
	}
}

var calmTick = TickEvent{Speed: 0.5, Signal: 0.5, SatelliteDelta: 0}

func TestEstimatedDurationSeconds(t *testing.T) {
	assert.Equal(t, 660.0, EstimatedDurationSeconds(8))
	assert.Equal(t, 840.0, EstimatedDurationSeconds(FallbackDistanceKm))
	assert.Equal(t, 0.0, EstimatedDurationSeconds(0))
}

func TestStepIgnoresNonRunningPhases(t *testing.T) {
	for _, phase := range []models.MissionPhase{models.PhaseIdle, models.PhaseAcquiring, models.PhaseCompleted} {
		s := runningState(8)
		s.Phase = phase
		assert.Equal(t, s, Step(s, calmTick), phase)
	}
}

func TestStepFirstTick(t *testing.T) {
	s := Step(runningState(8), TickEvent{Speed: 0.99, Signal: 0.5})

	require.Equal(t, models.PhaseRunning, s.Phase)
	m := s.Mission
	assert.Equal(t, 1.5, m.Progress)
	assert.Equal(t, 0.015, m.RouteProgress)
	assert.Equal(t, 1, m.Elapsed)
	// total time uses the cruise speed: 8 km at 42 km/h
	assert.InDelta(t, 8/(42.0/3600)*(1-0.015), m.ETA, 1e-9)
	assert.Equal(t, math.Round(150+8*math.Sin(0.3)), m.Altitude)
	assert.Equal(t, 152.0, m.Altitude)
	assert.Equal(t, 46.0, m.Speed)

	assert.Equal(t, models.AircraftInFlight, s.Aircraft.Status)
	assert.Equal(t, 2.4, s.Aircraft.PayloadWeight)
	assert.Equal(t, CruiseSpeedKmh, s.Aircraft.Speed)
}

func TestStepSpeedJitterDoesNotAffectETA(t *testing.T) {
	slow := Step(runningState(8), TickEvent{Speed: 0})
	fast := Step(runningState(8), TickEvent{Speed: 0.999})
	assert.Equal(t, 40.0, slow.Mission.Speed)
	assert.Equal(t, 46.0, fast.Mission.Speed)
	assert.Equal(t, slow.Mission.ETA, fast.Mission.ETA)
	assert.Equal(t, slow.Mission.Progress, fast.Mission.Progress)
}

func TestStepRunsToCompletionIn67Ticks(t *testing.T) {
	s := runningState(8)
	ticks := 0
	for s.Phase == models.PhaseRunning {
		s = Step(s, calmTick)
		ticks++
		require.LessOrEqual(t, ticks, 67)
		if s.Phase == models.PhaseRunning {
			assert.Less(t, s.Mission.Progress, 100.0)
			assert.Greater(t, s.Mission.ETA, 0.0)
		}
	}

	assert.Equal(t, 67, ticks)
	assert.Equal(t, models.PhaseCompleted, s.Phase)
	assert.Equal(t, 100.0, s.Mission.Progress)
	assert.Equal(t, 1.0, s.Mission.RouteProgress)
	assert.Equal(t, 0.0, s.Mission.ETA)
	assert.Equal(t, 0.0, s.Mission.Speed)
	assert.Equal(t, 67, s.Mission.Elapsed)

	assert.Equal(t, models.AircraftIdle, s.Aircraft.Status)
	assert.Equal(t, 0.0, s.Aircraft.PayloadWeight)
	assert.Equal(t, 0.0, s.Aircraft.Speed)
	// telemetry drift still applies on the completing tick
	assert.InDelta(t, 87-0.08*67, s.Aircraft.Battery, 1e-9)

	assert.Equal(t, s, Step(s, calmTick))
}

func TestStepAltitudeOscillationIsBounded(t *testing.T) {
	s := runningState(8)
	for s.Phase == models.PhaseRunning {
		s = Step(s, calmTick)
		assert.GreaterOrEqual(t, s.Mission.Altitude, 142.0)
		assert.LessOrEqual(t, s.Mission.Altitude, 158.0)
	}
}

func TestDriftTelemetryBattery(t *testing.T) {
	a := InitialAircraft()
	for k := 1; k <= 50; k++ {
		a = DriftTelemetry(a, calmTick)
		assert.InDelta(t, math.Max(0, 87-0.08*float64(k)), a.Battery, 1e-9)
	}

	a.Battery = 0.05
	a = DriftTelemetry(a, calmTick)
	assert.Equal(t, 0.0, a.Battery)
	a = DriftTelemetry(a, calmTick)
	assert.Equal(t, 0.0, a.Battery)
}

func TestDriftTelemetryClamps(t *testing.T) {
	a := InitialAircraft()
	a.Signal = 99.8
	a.Satellites = MaxSatellites
	a = DriftTelemetry(a, TickEvent{Signal: 0.999, SatelliteDelta: 1})
	assert.Equal(t, MaxSignal, a.Signal)
	assert.Equal(t, MaxSatellites, a.Satellites)

	a.Signal = 85.3
	a.Satellites = MinSatellites
	a = DriftTelemetry(a, TickEvent{Signal: 0, SatelliteDelta: -1})
	assert.Equal(t, MinSignal, a.Signal)
	assert.Equal(t, MinSatellites, a.Satellites)

	a.Signal = 90
	a.Satellites = 10
	a = DriftTelemetry(a, TickEvent{Signal: 0.75, SatelliteDelta: -1})
	assert.InDelta(t, 90.5, a.Signal, 1e-12)
	assert.Equal(t, 9, a.Satellites)
}

func TestDriftTelemetryLeavesFlightFieldsAlone(t *testing.T) {
	a := InitialAircraft()
	a.Status = models.AircraftInFlight
	a.PayloadWeight = 3.1
	a.Speed = CruiseSpeedKmh
	b := DriftTelemetry(a, calmTick)
	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, a.PayloadWeight, b.PayloadWeight)
	assert.Equal(t, a.Speed, b.Speed)
	assert.Equal(t, a.Mode, b.Mode)
	assert.Equal(t, a.CameraActive, b.CameraActive)
}

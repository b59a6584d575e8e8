package sim

import (
	"golang.org/x/exp/constraints"

	"aerosense/internal/models"
)

const (
	BatteryDrainPerTick = 0.08

	MinSignal     = 85.0
	MaxSignal     = 100.0
	MinSatellites = 8
	MaxSatellites = 14
)

// InitialAircraft is the drone as it sits on the pad at process start.
func InitialAircraft() models.AircraftState {
	return models.AircraftState{
		Battery:      87,
		MaxPayload:   5.0,
		Status:       models.AircraftIdle,
		Mode:         models.ModeSemiAuto,
		Signal:       98,
		Satellites:   12,
		CameraActive: true,
	}
}

// DriftTelemetry applies one tick of sensor drift: the battery drains
// linearly down to zero and the signal and satellite readings wander
// within their bounds. Status, payload and speed are left alone.
func DriftTelemetry(a models.AircraftState, ev TickEvent) models.AircraftState {
	a.Battery = max(0, a.Battery-BatteryDrainPerTick)
	a.Signal = clamp(a.Signal+(ev.Signal-0.5)*2, MinSignal, MaxSignal)
	a.Satellites = clamp(a.Satellites+ev.SatelliteDelta, MinSatellites, MaxSatellites)
	return a
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

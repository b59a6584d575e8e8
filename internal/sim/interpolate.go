package sim

import (
	"math"

	"aerosense/internal/models"
)

// PositionAlongRoute maps a progress fraction in [0,1] to a point on the
// polyline. Every segment counts as the same share of progress regardless
// of its geographic length. An empty route yields the zero point.
func PositionAlongRoute(route []models.LngLat, progress float64) models.LngLat {
	n := len(route)
	if n == 0 {
		return models.LngLat{}
	}
	if n == 1 {
		return route[0]
	}

	progress = clamp(progress, 0, 1)
	segments := float64(n - 1)
	idx := int(math.Floor(progress * segments))
	frac := math.Mod(progress*segments, 1)

	start := route[min(idx, n-1)]
	end := route[min(idx+1, n-1)]
	return models.LngLat{
		start[0] + (end[0]-start[0])*frac,
		start[1] + (end[1]-start[1])*frac,
	}
}

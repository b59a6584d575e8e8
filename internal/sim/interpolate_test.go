package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"aerosense/internal/models"
)

func TestPositionAlongRouteDegenerate(t *testing.T) {
	assert.Equal(t, models.LngLat{}, PositionAlongRoute(nil, 0.5))
	assert.Equal(t, models.LngLat{}, PositionAlongRoute([]models.LngLat{}, 0))

	only := models.LngLat{-122.4, 37.7}
	for _, p := range []float64{0, 0.3, 1} {
		assert.Equal(t, only, PositionAlongRoute([]models.LngLat{only}, p))
	}
}

func TestPositionAlongRouteEndpointsExact(t *testing.T) {
	route := []models.LngLat{
		{-122.4194, 37.7749}, {-122.4170, 37.7770}, {-122.4140, 37.7800},
		{-122.4110, 37.7830}, {-122.4094, 37.7849},
	}
	assert.Equal(t, route[0], PositionAlongRoute(route, 0))
	assert.Equal(t, route[len(route)-1], PositionAlongRoute(route, 1))

	two := route[:2]
	assert.Equal(t, two[0], PositionAlongRoute(two, 0))
	assert.Equal(t, two[1], PositionAlongRoute(two, 1))
}

func TestPositionAlongRouteSegmentsAreUniform(t *testing.T) {
	// The second segment is ten times longer than the first, but each still
	// covers half of the progress range.
	route := []models.LngLat{{0, 0}, {1, 0}, {11, 0}}

	tests := []struct {
		progress float64
		want     models.LngLat
	}{
		{0.25, models.LngLat{0.5, 0}},
		{0.5, models.LngLat{1, 0}},
		{0.75, models.LngLat{6, 0}},
	}
	for _, tt := range tests {
		got := PositionAlongRoute(route, tt.progress)
		assert.InDelta(t, tt.want[0], got[0], 1e-12, "progress %v", tt.progress)
		assert.InDelta(t, tt.want[1], got[1], 1e-12, "progress %v", tt.progress)
	}
}

func TestPositionAlongRouteClampsProgress(t *testing.T) {
	route := []models.LngLat{{0, 0}, {2, 4}}
	assert.Equal(t, route[0], PositionAlongRoute(route, -0.5))
	assert.Equal(t, route[1], PositionAlongRoute(route, 1.5))
}

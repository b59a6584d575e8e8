// Package routing acquires delivery routes from an external directions
// service.
package routing

import (
	"context"
	"errors"

	"aerosense/internal/models"
)

var (
	ErrNoRoute         = errors.New("no route returned")
	ErrShortGeometry   = errors.New("route geometry has fewer than two points")
	ErrInvalidDistance = errors.New("route distance is invalid")
)

// Route is a provider's answer: an ordered polyline and its length.
type Route struct {
	Points         []models.LngLat
	DistanceMeters float64
}

// Provider returns a route between two coordinates. Any error means the
// whole answer is unusable.
type Provider interface {
	Route(ctx context.Context, from, to models.LngLat) (Route, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, from, to models.LngLat) (Route, error)

func (f ProviderFunc) Route(ctx context.Context, from, to models.LngLat) (Route, error) {
	return f(ctx, from, to)
}

// Unavailable is used when no directions service is configured; every
// request fails so callers take their fallback path.
var Unavailable Provider = ProviderFunc(func(context.Context, models.LngLat, models.LngLat) (Route, error) {
	return Route{}, errors.New("no directions provider configured")
})

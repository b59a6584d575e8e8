package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"aerosense/internal/models"
)

const (
	defaultMapboxBaseURL = "https://api.mapbox.com"
	defaultMapboxProfile = "driving"

	maxIdleConns        = 4
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
)

type MapboxOption func(*Mapbox)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) MapboxOption {
	return func(m *Mapbox) { m.httpClient = hc }
}

// WithBaseURL overrides the API endpoint (useful for testing).
func WithBaseURL(u string) MapboxOption {
	return func(m *Mapbox) {
		if u != "" {
			m.baseURL = u
		}
	}
}

// WithProfile selects the directions profile (driving, cycling, ...).
func WithProfile(p string) MapboxOption {
	return func(m *Mapbox) {
		if p != "" {
			m.profile = p
		}
	}
}

// Mapbox fetches routes from the Mapbox Directions API.
type Mapbox struct {
	baseURL    string
	profile    string
	token      string
	httpClient *http.Client
}

func NewMapbox(token string, opts ...MapboxOption) *Mapbox {
	m := &Mapbox{
		baseURL: defaultMapboxBaseURL,
		profile: defaultMapboxProfile,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        maxIdleConns,
				IdleConnTimeout:     idleConnTimeout,
				TLSHandshakeTimeout: tlsHandshakeTimeout,
			},
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// directionsResponse mirrors the subset of the Directions response we use.
type directionsResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func (m *Mapbox) requestURL(from, to models.LngLat) string {
	coords := fmt.Sprintf("%s,%s;%s,%s",
		formatCoord(from.Lng()), formatCoord(from.Lat()),
		formatCoord(to.Lng()), formatCoord(to.Lat()))
	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("access_token", m.token)
	return fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s", m.baseURL, m.profile, coords, q.Encode())
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Route requests directions between two points. Transport failures,
// non-200 answers, undecodable bodies and degenerate routes are all errors.
func (m *Mapbox) Route(ctx context.Context, from, to models.LngLat) (Route, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.requestURL(from, to), nil)
	if err != nil {
		return Route{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Route{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return Route{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(dr.Routes) == 0 {
		return Route{}, ErrNoRoute
	}

	r := dr.Routes[0]
	if math.IsNaN(r.Distance) || math.IsInf(r.Distance, 0) || r.Distance < 0 {
		return Route{}, ErrInvalidDistance
	}
	if len(r.Geometry.Coordinates) < 2 {
		return Route{}, ErrShortGeometry
	}

	points := make([]models.LngLat, 0, len(r.Geometry.Coordinates))
	for i, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			return Route{}, fmt.Errorf("coordinate %d: expected [lng, lat], got %d values", i, len(c))
		}
		points = append(points, models.LngLat{c[0], c[1]})
	}
	return Route{Points: points, DistanceMeters: r.Distance}, nil
}

package sim

import (
	"strings"

	"github.com/iancoleman/orderedmap"

	"aerosense/internal/models"
)

// Locations maps human-readable place names to coordinates, keeping the
// order in which they were registered. It is populated at startup and only
// read afterwards.
type Locations struct {
	m *orderedmap.OrderedMap
}

func NewLocations() *Locations {
	return &Locations{m: orderedmap.New()}
}

// DefaultLocations returns the service area used by the seeded orders.
func DefaultLocations() *Locations {
	l := NewLocations()
	for _, p := range []struct {
		name     string
		lat, lng float64
	}{
		{"Warehouse A", 37.7749, -122.4194},
		{"Hospital B", 37.7849, -122.4094},
		{"Depot C", 37.7649, -122.4294},
		{"Office Park D", 37.7949, -122.3994},
		{"Kitchen Hub", 37.7549, -122.4394},
		{"Residential Zone E", 37.8049, -122.3894},
		{"HQ Tower", 37.7449, -122.4494},
		{"Branch Office F", 37.8149, -122.3794},
		{"Lab Center G", 37.7349, -122.4594},
		{"Research Facility H", 37.7249, -122.4694},
		{"Factory I", 37.8249, -122.3694},
		{"Maintenance Bay J", 37.8349, -122.3594},
	} {
		l.Set(p.name, models.LngLat{p.lng, p.lat})
	}
	return l
}

func (l *Locations) Set(name string, p models.LngLat) {
	l.m.Set(name, p)
}

// Resolve looks up a location by name. Surrounding whitespace is ignored;
// otherwise the match is exact.
func (l *Locations) Resolve(name string) (models.LngLat, bool) {
	if l == nil {
		return models.LngLat{}, false
	}
	v, ok := l.m.Get(strings.TrimSpace(name))
	if !ok {
		return models.LngLat{}, false
	}
	p, ok := v.(models.LngLat)
	return p, ok
}

// Names returns the location names in registration order.
func (l *Locations) Names() []string {
	if l == nil {
		return nil
	}
	return l.m.Keys()
}

func (l *Locations) MarshalJSON() ([]byte, error) {
	return l.m.MarshalJSON()
}

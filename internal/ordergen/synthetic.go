package ordergen

import (
	"context"
	"errors"
	"fmt"

	"aerosense/internal/models"
	"aerosense/internal/rand"
)

var ErrTooFewLocations = errors.New("need at least two locations")

var packageTypes = []string{
	"Medical Supplies", "Electronics", "Food Package", "Documents", "Lab Samples",
	"Spare Parts", "Blood Units", "Vaccines", "Prescription Drugs", "Tools",
	"Defibrillator", "Mail Bundle",
}

const (
	minWeightKg = 0.2
	maxWeightKg = 4.8
)

// Synthetic draws orders from a fixed package catalog and the given
// location names. It needs no network access and is used when no
// OpenRouter key is configured.
type Synthetic struct {
	rng       *rand.Rand
	locations []string
}

func NewSynthetic(rng *rand.Rand, locations []string) *Synthetic {
	if rng == nil {
		rng = rand.New()
	}
	return &Synthetic{rng: rng, locations: locations}
}

func (s *Synthetic) Generate(ctx context.Context) (models.OrderDraft, error) {
	if err := ctx.Err(); err != nil {
		return models.OrderDraft{}, err
	}
	if len(s.locations) < 2 {
		return models.OrderDraft{}, ErrTooFewLocations
	}

	pickup := s.rng.Intn(len(s.locations))
	delivery := s.rng.Intn(len(s.locations) - 1)
	if delivery >= pickup {
		delivery++
	}
	weight := minWeightKg + s.rng.Float64()*(maxWeightKg-minWeightKg)

	return models.OrderDraft{
		PackageType: rand.Sample(s.rng, packageTypes),
		Weight:      fmt.Sprintf("%.1f kg", weight),
		Pickup:      s.locations[pickup],
		Delivery:    s.locations[delivery],
	}, nil
}

package sim

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"aerosense/internal/models"
)

// SeedOrders returns the orders waiting in the queue when the service
// starts.
func SeedOrders() []models.Order {
	return []models.Order{
		{ID: "ORD-4821", PackageType: "Medical Supplies", Weight: "2.4 kg", Pickup: "Warehouse A", Delivery: "Hospital B", Status: models.OrderPending},
		{ID: "ORD-4822", PackageType: "Electronics", Weight: "1.8 kg", Pickup: "Depot C", Delivery: "Office Park D", Status: models.OrderPending},
		{ID: "ORD-4823", PackageType: "Food Package", Weight: "3.1 kg", Pickup: "Kitchen Hub", Delivery: "Residential Zone E", Status: models.OrderPending},
		{ID: "ORD-4824", PackageType: "Documents", Weight: "0.5 kg", Pickup: "HQ Tower", Delivery: "Branch Office F", Status: models.OrderPending},
		{ID: "ORD-4825", PackageType: "Lab Samples", Weight: "1.2 kg", Pickup: "Lab Center G", Delivery: "Research Facility H", Status: models.OrderPending},
		{ID: "ORD-4826", PackageType: "Spare Parts", Weight: "4.0 kg", Pickup: "Factory I", Delivery: "Maintenance Bay J", Status: models.OrderPending},
	}
}

// Orders returns the registry contents in insertion order.
func (e *Engine) Orders() []models.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.orders)
}

func (e *Engine) Order(id string) (models.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx := e.indexLocked(id); idx >= 0 {
		return e.orders[idx], true
	}
	return models.Order{}, false
}

func (e *Engine) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(e.orders, func(o models.Order) bool { return o.ID == id })
}

// Approve moves a Pending order to Approved.
func (e *Engine) Approve(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexLocked(id)
	if idx < 0 {
		return ErrOrderNotFound
	}
	if e.orders[idx].Status != models.OrderPending {
		return ErrInvalidTransition
	}
	e.orders[idx].Status = models.OrderApproved
	e.publishLocked()
	return nil
}

// Reject removes an order whatever its status. Rejecting the order of the
// running mission cancels that mission first.
func (e *Engine) Reject(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexLocked(id)
	if idx < 0 {
		return ErrOrderNotFound
	}
	if id == e.activeID {
		e.cancelLocked("order rejected")
	}
	e.orders = slices.Delete(e.orders, idx, idx+1)
	e.publishLocked()
	return nil
}

func validateOrder(o models.Order) error {
	switch {
	case strings.TrimSpace(o.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidOrder)
	case strings.TrimSpace(o.PackageType) == "":
		return fmt.Errorf("%w: missing package type", ErrInvalidOrder)
	case strings.TrimSpace(o.Weight) == "":
		return fmt.Errorf("%w: missing weight", ErrInvalidOrder)
	case strings.TrimSpace(o.Pickup) == "" || strings.TrimSpace(o.Delivery) == "":
		return fmt.Errorf("%w: missing pickup or delivery", ErrInvalidOrder)
	case o.Status != "" && o.Status != models.OrderPending:
		return fmt.Errorf("%w: new orders must be %s", ErrInvalidOrder, models.OrderPending)
	}
	return nil
}

// Add appends a new Pending order. An empty status is taken as Pending.
func (e *Engine) Add(o models.Order) error {
	if err := validateOrder(o); err != nil {
		return err
	}
	o.Status = models.OrderPending

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexLocked(o.ID) >= 0 {
		return ErrDuplicateOrder
	}
	e.orders = append(e.orders, o)
	e.publishLocked()
	return nil
}

// OrderSource produces the descriptive fields of a new order.
type OrderSource interface {
	Generate(ctx context.Context) (models.OrderDraft, error)
}

// GenerateOrder asks src for a new order and adds it to the registry. A
// failed or malformed generation leaves the registry untouched.
func (e *Engine) GenerateOrder(ctx context.Context, src OrderSource) (models.Order, error) {
	draft, err := src.Generate(ctx)
	if err != nil {
		e.stats.generationFailures.Add(1)
		e.lg.Warn("Order generation failed", slog.Any("error", err))
		return models.Order{}, fmt.Errorf("generating order: %w", err)
	}

	o := models.Order{
		ID:          e.generatedID(),
		PackageType: strings.TrimSpace(draft.PackageType),
		Weight:      strings.TrimSpace(draft.Weight),
		Pickup:      strings.TrimSpace(draft.Pickup),
		Delivery:    strings.TrimSpace(draft.Delivery),
		Status:      models.OrderPending,
	}
	if err := e.Add(o); err != nil {
		e.stats.generationFailures.Add(1)
		e.lg.Warn("Discarding generated order", slog.Any("error", err), slog.Any("draft", draft))
		return models.Order{}, err
	}

	e.stats.ordersGenerated.Add(1)
	e.lg.Info("Order generated", slog.String("order", o.ID),
		slog.String("pickup", o.Pickup), slog.String("delivery", o.Delivery))
	return o, nil
}

// generatedID derives an id from the last four digits of the millisecond
// clock, falling back to a random suffix if that id is taken.
func (e *Engine) generatedID() string {
	id := fmt.Sprintf("ORD-%04d", e.now().UnixMilli()%10000)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexLocked(id) < 0 {
		return id
	}
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

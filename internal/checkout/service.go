package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"localserve/internal/models"
)

// ErrSubmitFailed is returned when the order could not be stored. The cart
// is left as it was so the customer can try again.
var ErrSubmitFailed = errors.New("order could not be placed")

// CartReader loads and clears the persisted cart of an owner.
type CartReader interface {
	Load(ctx context.Context, owner string) ([]models.CartItem, error)
	Clear(ctx context.Context, owner string) error
}

type OrderWriter interface {
	Insert(ctx context.Context, order *models.Order) error
}

// Selection is the checkout form without the cart, which is read from
// storage at submission time.
type Selection struct {
	Owner  string
	UserID *primitive.ObjectID
	State
}

type Service struct {
	carts  CartReader
	orders OrderWriter
	now    func() time.Time
	tracer trace.Tracer
}

func NewService(carts CartReader, orders OrderWriter) *Service {
	return &Service{
		carts:  carts,
		orders: orders,
		now:    time.Now,
		tracer: otel.Tracer("localserve/checkout"),
	}
}

// Summary returns the owner's cart together with its totals.
func (s *Service) Summary(ctx context.Context, owner string) ([]models.CartItem, models.OrderTotals, error) {
	items, err := s.carts.Load(ctx, owner)
	if err != nil {
		return nil, models.OrderTotals{}, fmt.Errorf("load cart: %w", err)
	}
	return items, ComputeTotals(items), nil
}

// PlaceOrder stores the order built from the current cart and the
// selection, then clears the cart. A ValidationError is returned when the
// form is incomplete and ErrSubmitFailed when the order could not be stored.
func (s *Service) PlaceOrder(ctx context.Context, sel Selection) (models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.PlaceOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.payment_method", sel.PaymentMethod),
		attribute.String("checkout.time_slot", sel.TimeSlot),
	)

	items, err := s.carts.Load(ctx, sel.Owner)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load cart")
		return models.Order{}, fmt.Errorf("%w: load cart: %v", ErrSubmitFailed, err)
	}

	state := sel.State
	state.Items = items
	order, err := BuildOrder(state, s.now())
	if err != nil {
		span.SetStatus(codes.Error, "validation")
		return models.Order{}, err
	}
	order.UserID = sel.UserID
	order.CartOwner = sel.Owner

	if err := s.orders.Insert(ctx, &order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert order")
		return models.Order{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID.Hex()),
		attribute.Float64("order.total", order.Totals.Total),
	)

	if err := s.carts.Clear(ctx, sel.Owner); err != nil {
		log.Println("[CHECKOUT] [WARN] order placed but cart not cleared:", order.ID.Hex(), err)
	}
	return order, nil
}

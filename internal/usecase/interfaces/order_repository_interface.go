package interfaces

import (
	"context"
	"errors"
	"loja_checkout/internal/domain/entities"
)

var (
	// ErrOrderNumberConflict means the order number is already taken and the
	// write was rolled back. Callers may retry with a fresh number.
	ErrOrderNumberConflict = errors.New("order number already exists")

	// ErrIdempotencyKeyConflict means another order was already created for
	// the same buyer and idempotency key. The write was rolled back.
	ErrIdempotencyKeyConflict = errors.New("idempotency key already used")
)

// IOrderRepository persists orders.
//
// CreateWithItems writes the order header, its items, the order number guard,
// the idempotency guard (when set) and the checkout payment attempt as one
// atomic unit. Lookups return a zero Order (empty ID) when nothing is found.
type IOrderRepository interface {
	CreateWithItems(ctx context.Context, o entities.Order, attempt entities.PaymentAttempt) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
	GetByIdempotencyKey(ctx context.Context, buyerID, key string) (entities.Order, error)
}

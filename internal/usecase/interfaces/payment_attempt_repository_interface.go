package interfaces

import (
	"context"
	"loja_checkout/internal/domain/entities"
)

// IPaymentAttemptRepository reads the append-only payment audit trail. The
// checkout attempt is written by IOrderRepository.CreateWithItems together
// with its order; there is no update operation.
type IPaymentAttemptRepository interface {
	ListByOrderID(ctx context.Context, orderID string) ([]entities.PaymentAttempt, error)
}

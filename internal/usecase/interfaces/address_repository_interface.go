package interfaces

import (
	"context"
	"loja_checkout/internal/domain/entities"
)

// IAddressRepository abstracts the buyer address book.
type IAddressRepository interface {
	ListByBuyerID(ctx context.Context, buyerID string) ([]entities.Address, error)
	Create(ctx context.Context, a entities.Address) (entities.Address, error)
}

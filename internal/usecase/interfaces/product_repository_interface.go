package interfaces

import (
	"context"
	"loja_checkout/internal/domain/entities"
)

// IProductRepository is the catalog port consumed by the cart validator.
//
// GetByIDs returns every product found for the given ids, active or not.
// Missing ids are simply absent from the result.
type IProductRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]entities.Product, error)
}

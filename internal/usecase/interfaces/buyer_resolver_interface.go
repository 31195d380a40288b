package interfaces

import (
	"context"
	"loja_checkout/internal/domain/entities"
)

// IBuyerResolver resolves the authenticated buyer behind a session token.
//
// It returns (nil, nil) when the token does not map to a buyer.
type IBuyerResolver interface {
	ResolveBySessionToken(ctx context.Context, token string) (*entities.Buyer, error)
}

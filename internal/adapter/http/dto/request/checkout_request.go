package request

import (
	"strings"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/usecase"
)

// MaxIdempotencyKeyLength bounds both the Idempotency-Key header and the body
// field; keys are stored in a guard record keyed by buyer and key.
const MaxIdempotencyKeyLength = 128

// Quantities and methods are checked by the use case so the client gets the
// specific error code instead of a generic binding failure.

type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type AddressRequest struct {
	Label        string `json:"label" binding:"max=60"`
	Street       string `json:"street" binding:"max=200"`
	Number       string `json:"number" binding:"max=20"`
	Complement   string `json:"complement" binding:"max=100"`
	Neighborhood string `json:"neighborhood" binding:"max=100"`
	City         string `json:"city" binding:"max=100"`
	State        string `json:"state" binding:"max=20"`
	PostalCode   string `json:"postal_code" binding:"max=20"`
}

type CheckoutIntentRequest struct {
	Items          []CartItemRequest `json:"items"`
	PaymentMethod  string            `json:"payment_method"`
	Installments   *int              `json:"installments"`
	InvoiceDueDays *int              `json:"invoice_due_days"`
	Address        *AddressRequest   `json:"address"`
	Notes          string            `json:"notes" binding:"max=500"`
	IdempotencyKey string            `json:"idempotency_key" binding:"max=128"`
}

type PaymentOptionsRequest struct {
	Items []CartItemRequest `json:"items"`
}

// ResolveIdempotencyKey prefers the Idempotency-Key header over the body field.
func (r CheckoutIntentRequest) ResolveIdempotencyKey(header string) string {
	if v := strings.TrimSpace(header); v != "" {
		return v
	}
	return strings.TrimSpace(r.IdempotencyKey)
}

func (r CheckoutIntentRequest) ToInput(buyer *entities.Buyer, idempotencyHeader string) usecase.CheckoutIntentInput {
	in := usecase.CheckoutIntentInput{
		Buyer:          buyer,
		Items:          toCartItems(r.Items),
		PaymentMethod:  r.PaymentMethod,
		Installments:   r.Installments,
		InvoiceDueDays: r.InvoiceDueDays,
		Notes:          r.Notes,
		IdempotencyKey: r.ResolveIdempotencyKey(idempotencyHeader),
	}
	if r.Address != nil {
		in.Address = &usecase.AddressInput{
			Label:        r.Address.Label,
			Street:       r.Address.Street,
			Number:       r.Address.Number,
			Complement:   r.Address.Complement,
			Neighborhood: r.Address.Neighborhood,
			City:         r.Address.City,
			State:        r.Address.State,
			PostalCode:   r.Address.PostalCode,
		}
	}
	return in
}

func (r PaymentOptionsRequest) ToCartItems() []entities.CartItem {
	return toCartItems(r.Items)
}

func toCartItems(items []CartItemRequest) []entities.CartItem {
	out := make([]entities.CartItem, 0, len(items))
	for _, it := range items {
		out = append(out, entities.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

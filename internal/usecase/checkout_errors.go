package usecase

import (
	"errors"
	"strings"
)

var (
	ErrUnauthenticated         = errors.New("authentication required")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrCartTooLarge            = errors.New("cart has too many items")
	ErrInvalidQuantity         = errors.New("invalid item quantity")
	ErrUnknownProducts         = errors.New("unknown or inactive products")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrInvalidAmount           = errors.New("order amount must be positive")
	ErrPaymentMethodNotAllowed = errors.New("payment method not allowed")
	ErrMissingAddress          = errors.New("delivery address required")
	ErrInvalidAddress          = errors.New("invalid delivery address")
	ErrInvalidInvoiceTerm      = errors.New("invalid invoiced terms selection")
	ErrOrderAllocationFailed   = errors.New("could not allocate order number")
	ErrOrderNotFound           = errors.New("order not found")
)

// CheckoutError is a client-correctable checkout failure. Kind is one of the
// sentinel errors above, so callers can match with errors.Is and read the
// itemized Details with errors.As.
type CheckoutError struct {
	Kind    error
	Message string
	Details []string
}

func (e *CheckoutError) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg = e.Message
	}
	if len(e.Details) > 0 {
		return msg + ": " + strings.Join(e.Details, ", ")
	}
	return msg
}

func (e *CheckoutError) Unwrap() error {
	return e.Kind
}

func newCheckoutError(kind error, message string, details ...string) *CheckoutError {
	return &CheckoutError{Kind: kind, Message: message, Details: details}
}

package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment state of an order.
//
// Checkout only ever writes PENDING; later transitions belong to the
// gateway reconciliation flow.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusCanceled PaymentStatus = "CANCELED"
)

// Order is the durable record created by a successful checkout.
//
// Storage model (DynamoDB):
//   - orders: PK id, GSI buyer_id-index
//   - order_items: PK order_id, SK line
//   - order_numbers: PK order_number (uniqueness guard)
//   - idempotency_keys: PK key (buyer_id#idempotency_key, replay guard)
//
// Monetary fields are rounded to 2 decimals and satisfy
// Total == Subtotal - Discount + Shipping + Tax.
type Order struct {
	ID          string       `json:"id"`
	OrderNumber string       `json:"order_number"`
	BuyerID     string       `json:"buyer_id"`
	Profile     BuyerProfile `json:"profile"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`

	PaymentMethod     PaymentMethod `json:"payment_method"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	ProviderCode      string        `json:"provider_code"`
	ProviderPaymentID string        `json:"provider_payment_id"`
	PaymentReference  string        `json:"payment_reference"`
	Installments      int           `json:"installments"`
	InvoiceDueDays    *int          `json:"invoice_due_days,omitempty"`
	PaymentExpiresAt  *time.Time    `json:"payment_expires_at,omitempty"`

	Require3DS           bool   `json:"require_3ds"`
	RequiresManualReview bool   `json:"requires_manual_review"`
	AddressID            string `json:"address_id"`
	Notes                string `json:"notes,omitempty"`
	IdempotencyKey       string `json:"idempotency_key,omitempty"`

	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `json:"items"`
}

// OrderItem is a line snapshot copied from the catalog at creation time, so
// later catalog edits never change historical orders.
type OrderItem struct {
	OrderID   string          `json:"order_id"`
	Line      int             `json:"line"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

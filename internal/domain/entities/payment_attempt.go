package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EventCheckoutIntentCreated is the event type of the attempt written at checkout.
const EventCheckoutIntentCreated = "checkout.intent.created"

// PaymentAttempt is the append-only audit trail of payment events for an order.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (order_id-index): order_id
//
// Payload keeps the serialized decision snapshot (method, installments,
// invoice term, amounts and the full policy result) so a dispute can be
// reconstructed without re-running the resolver.
type PaymentAttempt struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"order_id"`
	Provider       string          `json:"provider"`
	EventType      string          `json:"event_type"`
	Status         PaymentStatus   `json:"status"`
	ExternalID     string          `json:"external_id"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

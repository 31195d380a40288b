package response

import (
	"encoding/json"
	"time"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/usecase"

	"github.com/shopspring/decimal"
)

// Money values are rendered as fixed 2-decimal strings.

type OrderItemResponse struct {
	Line      int    `json:"line"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type PaymentResponse struct {
	Method            string     `json:"method"`
	Status            string     `json:"status"`
	Provider          string     `json:"provider"`
	ProviderPaymentID string     `json:"provider_payment_id"`
	Reference         string     `json:"reference"`
	Installments      int        `json:"installments"`
	InvoiceDueDays    *int       `json:"invoice_due_days,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Require3DS        bool       `json:"require_3ds"`
}

type OrderResponse struct {
	ID                   string              `json:"id"`
	OrderNumber          string              `json:"order_number"`
	Profile              string              `json:"profile"`
	Subtotal             string              `json:"subtotal"`
	Discount             string              `json:"discount"`
	Shipping             string              `json:"shipping"`
	Tax                  string              `json:"tax"`
	Total                string              `json:"total"`
	Payment              PaymentResponse     `json:"payment"`
	RequiresManualReview bool                `json:"requires_manual_review"`
	AddressID            string              `json:"address_id"`
	Notes                string              `json:"notes,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	Items                []OrderItemResponse `json:"items"`
}

type MethodDecisionResponse struct {
	Method  string `json:"method"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

type PaymentPolicyResponse struct {
	Methods                []MethodDecisionResponse `json:"methods"`
	PrioritizedMethods     []string                 `json:"prioritized_methods"`
	DiscountPercent        string                   `json:"discount_percent"`
	NoInterestInstallments int                      `json:"no_interest_installments"`
	MaxInstallments        int                      `json:"max_installments"`
	Require3DS             bool                     `json:"require_3ds"`
	RequiresManualReview   bool                     `json:"requires_manual_review"`
	InvoicedTermsDays      []int                    `json:"invoiced_terms_days"`
	Notes                  []string                 `json:"notes"`
}

type NextActionResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CheckoutIntentResponse struct {
	Order          OrderResponse          `json:"order"`
	PaymentOptions *PaymentPolicyResponse `json:"payment_options,omitempty"`
	Require3DS     bool                   `json:"require_3ds"`
	NextAction     NextActionResponse     `json:"next_action"`
	Replayed       bool                   `json:"replayed"`
}

type PaymentOptionsResponse struct {
	Profile  string                `json:"profile"`
	Subtotal string                `json:"subtotal"`
	Policy   PaymentPolicyResponse `json:"policy"`
}

type PaymentAttemptResponse struct {
	ID         string          `json:"id"`
	Provider   string          `json:"provider"`
	EventType  string          `json:"event_type"`
	Status     string          `json:"status"`
	ExternalID string          `json:"external_id"`
	Amount     string          `json:"amount"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type OrderDetailsResponse struct {
	Order    OrderResponse            `json:"order"`
	Attempts []PaymentAttemptResponse `json:"payment_attempts"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func FromOrder(o entities.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			Line:      it.Line,
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.SKU,
			UnitPrice: money(it.UnitPrice),
			Quantity:  it.Quantity,
			LineTotal: money(it.LineTotal),
		})
	}
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Profile:     string(o.Profile),
		Subtotal:    money(o.Subtotal),
		Discount:    money(o.Discount),
		Shipping:    money(o.Shipping),
		Tax:         money(o.Tax),
		Total:       money(o.Total),
		Payment: PaymentResponse{
			Method:            string(o.PaymentMethod),
			Status:            string(o.PaymentStatus),
			Provider:          o.ProviderCode,
			ProviderPaymentID: o.ProviderPaymentID,
			Reference:         o.PaymentReference,
			Installments:      o.Installments,
			InvoiceDueDays:    o.InvoiceDueDays,
			ExpiresAt:         o.PaymentExpiresAt,
			Require3DS:        o.Require3DS,
		},
		RequiresManualReview: o.RequiresManualReview,
		AddressID:            o.AddressID,
		Notes:                o.Notes,
		CreatedAt:            o.CreatedAt,
		Items:                items,
	}
}

func FromPaymentPolicy(r entities.PaymentPolicyResult) PaymentPolicyResponse {
	methods := make([]MethodDecisionResponse, 0, len(r.Methods))
	for _, d := range r.Methods {
		methods = append(methods, MethodDecisionResponse{Method: string(d.Method), Enabled: d.Enabled, Reason: d.Reason})
	}
	prioritized := make([]string, 0, len(r.PrioritizedMethods))
	for _, m := range r.PrioritizedMethods {
		prioritized = append(prioritized, string(m))
	}
	terms := r.InvoicedTermsDays
	if terms == nil {
		terms = []int{}
	}
	notes := r.Notes
	if notes == nil {
		notes = []string{}
	}
	return PaymentPolicyResponse{
		Methods:                methods,
		PrioritizedMethods:     prioritized,
		DiscountPercent:        r.DiscountPercent.String(),
		NoInterestInstallments: r.NoInterestInstallments,
		MaxInstallments:        r.MaxInstallments,
		Require3DS:             r.Require3DS,
		RequiresManualReview:   r.RequiresManualReview,
		InvoicedTermsDays:      terms,
		Notes:                  notes,
	}
}

func FromOrderIntent(res usecase.OrderIntentResult) CheckoutIntentResponse {
	out := CheckoutIntentResponse{
		Order:      FromOrder(res.Order),
		Require3DS: res.Order.Require3DS,
		NextAction: NextActionResponse{Code: res.NextAction.Code, Message: res.NextAction.Message},
		Replayed:   res.Replayed,
	}
	if res.Decision != nil {
		p := FromPaymentPolicy(*res.Decision)
		out.PaymentOptions = &p
	}
	return out
}

func FromPaymentOptions(res usecase.PaymentOptionsResult) PaymentOptionsResponse {
	return PaymentOptionsResponse{
		Profile:  string(res.Profile),
		Subtotal: money(res.Subtotal),
		Policy:   FromPaymentPolicy(res.Decision),
	}
}

func FromOrderDetails(d usecase.OrderDetails) OrderDetailsResponse {
	attempts := make([]PaymentAttemptResponse, 0, len(d.Attempts))
	for _, a := range d.Attempts {
		attempts = append(attempts, PaymentAttemptResponse{
			ID:         a.ID,
			Provider:   a.Provider,
			EventType:  a.EventType,
			Status:     string(a.Status),
			ExternalID: a.ExternalID,
			Amount:     money(a.Amount),
			Payload:    a.Payload,
			CreatedAt:  a.CreatedAt,
		})
	}
	return OrderDetailsResponse{Order: FromOrder(d.Order), Attempts: attempts}
}

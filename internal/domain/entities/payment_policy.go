package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies a checkout payment method.
type PaymentMethod string

const (
	PaymentMethodPix          PaymentMethod = "PIX"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBoleto       PaymentMethod = "BOLETO"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodInvoiced     PaymentMethod = "INVOICED"
)

// AllPaymentMethods is the canonical method order. Decisions, fallback
// prioritization and the default enabled set all follow it.
var AllPaymentMethods = []PaymentMethod{
	PaymentMethodPix,
	PaymentMethodCard,
	PaymentMethodBoleto,
	PaymentMethodBankTransfer,
	PaymentMethodInvoiced,
}

// ParsePaymentMethod resolves a raw method name (case-insensitive, "-" and " "
// accepted as "_"). The second return is false for unknown values.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	for _, m := range AllPaymentMethods {
		if string(m) == v {
			return m, true
		}
	}
	return "", false
}

// BuyerProfile distinguishes consumers from businesses (buyers with a CNPJ).
type BuyerProfile string

const (
	ProfileB2C BuyerProfile = "B2C"
	ProfileB2B BuyerProfile = "B2B"
)

// PaymentContext is the request-scoped input of the policy resolver.
type PaymentContext struct {
	Profile           BuyerProfile
	Amount            decimal.Decimal
	HasApprovedCredit bool
	// CreditLimitRemaining is nil when the remaining credit is unknown.
	CreditLimitRemaining *decimal.Decimal
	IsFirstPurchase      bool
	IsRecurringCharge    bool
}

// PixDiscountTiers selects the PIX discount by amount. Boundaries are
// inclusive of the lower tier.
type PixDiscountTiers struct {
	Tier1Max decimal.Decimal `json:"tier1_max"`
	Tier1Pct decimal.Decimal `json:"tier1_pct"`
	Tier2Max decimal.Decimal `json:"tier2_max"`
	Tier2Pct decimal.Decimal `json:"tier2_pct"`
	Tier3Pct decimal.Decimal `json:"tier3_pct"`
}

// PaymentPolicyConfig is the merchant payment policy, fully populated by the
// config loader. Treat it as immutable once loaded.
type PaymentPolicyConfig struct {
	EnabledMethods         []PaymentMethod  `json:"enabled_methods"`
	MaxInstallments        int              `json:"max_installments"`
	NoInterestInstallments int              `json:"no_interest_installments"`
	NoInterestMaxAmount    decimal.Decimal  `json:"no_interest_max_amount"`
	Card3DSRequiredAbove   decimal.Decimal  `json:"card_3ds_required_above"`
	PixDiscount            PixDiscountTiers `json:"pix_discount"`

	InvoicedEnabled                  bool            `json:"invoiced_enabled"`
	InvoicedTermsDays                []int           `json:"invoiced_terms_days"`
	B2BInvoiceMaxAmountWithoutReview decimal.Decimal `json:"b2b_invoice_max_amount_without_review"`
	BankTransferFromAmount           decimal.Decimal `json:"bank_transfer_from_amount"`

	PixExpiresInMinutes    int             `json:"pix_expires_in_minutes"`
	BoletoExpiresInDays    int             `json:"boleto_expires_in_days"`
	ShippingFlatFee        decimal.Decimal `json:"shipping_flat_fee"`
	FreeShippingFromAmount decimal.Decimal `json:"free_shipping_from_amount"`
	TaxPercent             decimal.Decimal `json:"tax_percent"`
	ProviderCode           string          `json:"provider_code"`
}

// IsMethodEnabled reports whether the merchant switched the method on.
func (c PaymentPolicyConfig) IsMethodEnabled(m PaymentMethod) bool {
	for _, e := range c.EnabledMethods {
		if e == m {
			return true
		}
	}
	return false
}

// MethodDecision tells whether a method is currently permitted. Reason is set
// only when the method is disabled.
type MethodDecision struct {
	Method  PaymentMethod `json:"method"`
	Enabled bool          `json:"enabled"`
	Reason  string        `json:"reason,omitempty"`
}

// PaymentPolicyResult is the resolver output for one prospective order.
type PaymentPolicyResult struct {
	Methods                []MethodDecision `json:"methods"`
	PrioritizedMethods     []PaymentMethod  `json:"prioritized_methods"`
	DiscountPercent        decimal.Decimal  `json:"discount_percent"`
	NoInterestInstallments int              `json:"no_interest_installments"`
	MaxInstallments        int              `json:"max_installments"`
	Require3DS             bool             `json:"require_3ds"`
	RequiresManualReview   bool             `json:"requires_manual_review"`
	InvoicedTermsDays      []int            `json:"invoiced_terms_days"`
	Notes                  []string         `json:"notes"`
}

// Decision returns the decision for m. ok is false when m is unknown.
func (r PaymentPolicyResult) Decision(m PaymentMethod) (MethodDecision, bool) {
	for _, d := range r.Methods {
		if d.Method == m {
			return d, true
		}
	}
	return MethodDecision{}, false
}

// AllowsInvoiceTerm reports whether days is one of the offered invoice terms.
func (r PaymentPolicyResult) AllowsInvoiceTerm(days int) bool {
	for _, d := range r.InvoicedTermsDays {
		if d == days {
			return true
		}
	}
	return false
}

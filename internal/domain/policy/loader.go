// Package policy turns merchant settings into a typed payment policy and
// resolves, for a single prospective order, which payment terms apply.
//
// Both LoadConfig and Resolve are pure: no I/O, no shared state.
package policy

import (
	"encoding/json"
	"strconv"
	"strings"

	"loja_checkout/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// Settings keys read by LoadConfig.
const (
	KeyEnabledMethods         = "payments.enabled_methods"
	KeyMaxInstallments        = "payments.max_installments"
	KeyNoInterestInstallments = "payments.no_interest_installments"
	KeyNoInterestMaxAmount    = "payments.no_interest_max_amount"
	KeyCard3DSRequiredAbove   = "payments.card_3ds_required_above"
	KeyPixTier1Max            = "payments.pix_discount_tier1_max"
	KeyPixTier1Pct            = "payments.pix_discount_tier1_pct"
	KeyPixTier2Max            = "payments.pix_discount_tier2_max"
	KeyPixTier2Pct            = "payments.pix_discount_tier2_pct"
	KeyPixTier3Pct            = "payments.pix_discount_tier3_pct"
	KeyInvoicedEnabled        = "payments.invoiced_enabled"
	KeyInvoicedTermsDays      = "payments.invoiced_terms_days"
	KeyB2BInvoiceMaxNoReview  = "payments.b2b_invoice_max_without_review"
	KeyBankTransferFromAmount = "payments.bank_transfer_from_amount"
	KeyPixExpiresInMinutes    = "payments.pix_expires_in_minutes"
	KeyBoletoExpiresInDays    = "payments.boleto_expires_in_days"
	KeyProviderCode           = "payments.provider_code"
	KeyShippingFlatFee        = "checkout.shipping_flat_fee"
	KeyFreeShippingFromAmount = "checkout.free_shipping_from"
	KeyTaxPercent             = "checkout.tax_percent"
)

var defaultInvoicedTermsDays = []int{30, 60, 90}

// DefaultConfig returns the policy used when no setting is present.
func DefaultConfig() entities.PaymentPolicyConfig {
	methods := make([]entities.PaymentMethod, len(entities.AllPaymentMethods))
	copy(methods, entities.AllPaymentMethods)
	terms := make([]int, len(defaultInvoicedTermsDays))
	copy(terms, defaultInvoicedTermsDays)

	return entities.PaymentPolicyConfig{
		EnabledMethods:         methods,
		MaxInstallments:        12,
		NoInterestInstallments: 3,
		NoInterestMaxAmount:    decimal.NewFromInt(5000),
		Card3DSRequiredAbove:   decimal.NewFromInt(1000),
		PixDiscount: entities.PixDiscountTiers{
			Tier1Max: decimal.NewFromInt(1000),
			Tier1Pct: decimal.NewFromInt(5),
			Tier2Max: decimal.NewFromInt(10000),
			Tier2Pct: decimal.NewFromInt(3),
			Tier3Pct: decimal.NewFromInt(2),
		},
		InvoicedEnabled:                  true,
		InvoicedTermsDays:                terms,
		B2BInvoiceMaxAmountWithoutReview: decimal.NewFromInt(50000),
		BankTransferFromAmount:           decimal.NewFromInt(5000),
		PixExpiresInMinutes:              30,
		BoletoExpiresInDays:              3,
		ShippingFlatFee:                  decimal.Zero,
		FreeShippingFromAmount:           decimal.Zero,
		TaxPercent:                       decimal.Zero,
		ProviderCode:                     "mercadopago",
	}
}

// LoadConfig builds a fully populated policy from flat settings. It never
// fails: missing or unparsable values fall back to DefaultConfig.
func LoadConfig(settings map[string]string) entities.PaymentPolicyConfig {
	def := DefaultConfig()
	get := func(key string) string {
		return strings.TrimSpace(settings[key])
	}

	return entities.PaymentPolicyConfig{
		EnabledMethods:         parseMethods(get(KeyEnabledMethods), def.EnabledMethods),
		MaxInstallments:        parsePositiveInt(get(KeyMaxInstallments), def.MaxInstallments),
		NoInterestInstallments: parsePositiveInt(get(KeyNoInterestInstallments), def.NoInterestInstallments),
		NoInterestMaxAmount:    parseAmount(get(KeyNoInterestMaxAmount), def.NoInterestMaxAmount),
		Card3DSRequiredAbove:   parseAmount(get(KeyCard3DSRequiredAbove), def.Card3DSRequiredAbove),
		PixDiscount: entities.PixDiscountTiers{
			Tier1Max: parseAmount(get(KeyPixTier1Max), def.PixDiscount.Tier1Max),
			Tier1Pct: parsePercent(get(KeyPixTier1Pct), def.PixDiscount.Tier1Pct),
			Tier2Max: parseAmount(get(KeyPixTier2Max), def.PixDiscount.Tier2Max),
			Tier2Pct: parsePercent(get(KeyPixTier2Pct), def.PixDiscount.Tier2Pct),
			Tier3Pct: parsePercent(get(KeyPixTier3Pct), def.PixDiscount.Tier3Pct),
		},
		InvoicedEnabled:                  parseBool(get(KeyInvoicedEnabled), def.InvoicedEnabled),
		InvoicedTermsDays:                parseIntList(get(KeyInvoicedTermsDays), def.InvoicedTermsDays),
		B2BInvoiceMaxAmountWithoutReview: parseAmount(get(KeyB2BInvoiceMaxNoReview), def.B2BInvoiceMaxAmountWithoutReview),
		BankTransferFromAmount:           parseAmount(get(KeyBankTransferFromAmount), def.BankTransferFromAmount),
		PixExpiresInMinutes:              parsePositiveInt(get(KeyPixExpiresInMinutes), def.PixExpiresInMinutes),
		BoletoExpiresInDays:              parsePositiveInt(get(KeyBoletoExpiresInDays), def.BoletoExpiresInDays),
		ShippingFlatFee:                  parseAmount(get(KeyShippingFlatFee), def.ShippingFlatFee),
		FreeShippingFromAmount:           parseAmount(get(KeyFreeShippingFromAmount), def.FreeShippingFromAmount),
		TaxPercent:                       parsePercent(get(KeyTaxPercent), def.TaxPercent),
		ProviderCode:                     parseString(get(KeyProviderCode), def.ProviderCode),
	}
}

// parseDecimal accepts finite numbers only; decimal.NewFromString rejects
// NaN and Inf.
func parseDecimal(raw string, def decimal.Decimal) decimal.Decimal {
	if raw == "" {
		return def
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return def
	}
	return d
}

var hundred = decimal.NewFromInt(100)

// parseAmount reads a money value; negatives fall back to def.
func parseAmount(raw string, def decimal.Decimal) decimal.Decimal {
	d := parseDecimal(raw, def)
	if d.IsNegative() {
		return def
	}
	return d
}

// parsePercent reads a percentage in [0, 100]; anything outside falls back to def.
func parsePercent(raw string, def decimal.Decimal) decimal.Decimal {
	d := parseDecimal(raw, def)
	if d.IsNegative() || d.GreaterThan(hundred) {
		return def
	}
	return d
}

func parsePositiveInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on", "sim":
		return true
	case "0", "false", "no", "off", "nao", "não":
		return false
	}
	return def
}

func parseString(raw, def string) string {
	if raw == "" {
		return def
	}
	return raw
}

// parseIntList reads a JSON array (or a comma list) and keeps positive whole
// numbers only.
func parseIntList(raw string, def []int) []int {
	if raw == "" {
		return append([]int(nil), def...)
	}

	var values []float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		values = values[:0]
		for _, part := range strings.Split(strings.Trim(raw, "[]"), ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return append([]int(nil), def...)
			}
			values = append(values, f)
		}
	}

	out := make([]int, 0, len(values))
	for _, v := range values {
		if v > 0 && v == float64(int(v)) {
			out = append(out, int(v))
		}
	}
	if len(out) == 0 {
		return append([]int(nil), def...)
	}
	return out
}

// parseMethods reads a JSON array (or a comma list) of method names. Unknown
// names and duplicates are dropped.
func parseMethods(raw string, def []entities.PaymentMethod) []entities.PaymentMethod {
	if raw == "" {
		return append([]entities.PaymentMethod(nil), def...)
	}

	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		names = strings.Split(strings.Trim(raw, "[]"), ",")
	}

	seen := make(map[entities.PaymentMethod]bool, len(names))
	out := make([]entities.PaymentMethod, 0, len(names))
	for _, n := range names {
		m, ok := entities.ParsePaymentMethod(strings.Trim(n, `" `))
		if !ok || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	if len(out) == 0 {
		return append([]entities.PaymentMethod(nil), def...)
	}
	return out
}

package policy

import (
	"loja_checkout/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// ConsumerReviewCeiling is the B2C amount above which an order is flagged
// for manual review regardless of merchant settings.
var ConsumerReviewCeiling = decimal.NewFromInt(10000)

// Amount bands used to rank methods.
var (
	consumerSmallMax  = decimal.NewFromInt(500)
	businessSmallMax  = decimal.NewFromInt(5000)
	businessMediumMax = decimal.NewFromInt(20000)
)

const (
	NoteRequire3DS      = "3DS authentication is required for card payments on this order"
	NoteRecurringCharge = "recurring charge: card-on-file usage carries additional risk"
	NoteManualReview    = "order exceeds the automatic approval limit and will be held for manual review"
)

// Resolve computes the payment decision for one prospective order. It is
// deterministic and safe for concurrent use. Amount must be positive; the
// caller validates it.
func Resolve(ctx entities.PaymentContext, cfg entities.PaymentPolicyConfig) entities.PaymentPolicyResult {
	decisions := make([]entities.MethodDecision, 0, len(entities.AllPaymentMethods))
	for _, m := range entities.AllPaymentMethods {
		if m == entities.PaymentMethodInvoiced {
			decisions = append(decisions, invoicedDecision(ctx, cfg))
			continue
		}
		decisions = append(decisions, methodDecision(m, ctx, cfg))
	}

	noInterest := 1
	if ctx.Amount.LessThanOrEqual(cfg.NoInterestMaxAmount) {
		noInterest = min(cfg.NoInterestInstallments, cfg.MaxInstallments)
	}

	require3DS := ctx.IsFirstPurchase || ctx.Amount.GreaterThanOrEqual(cfg.Card3DSRequiredAbove)
	manualReview := ctx.Amount.GreaterThan(cfg.B2BInvoiceMaxAmountWithoutReview) ||
		(ctx.Profile == entities.ProfileB2C && ctx.Amount.GreaterThan(ConsumerReviewCeiling))

	notes := make([]string, 0, 3)
	if require3DS {
		notes = append(notes, NoteRequire3DS)
	}
	if ctx.IsRecurringCharge {
		notes = append(notes, NoteRecurringCharge)
	}
	if manualReview {
		notes = append(notes, NoteManualReview)
	}

	return entities.PaymentPolicyResult{
		Methods:                decisions,
		PrioritizedMethods:     prioritize(ctx, decisions),
		DiscountPercent:        pixDiscountPercent(ctx.Amount, cfg.PixDiscount),
		NoInterestInstallments: noInterest,
		MaxInstallments:        cfg.MaxInstallments,
		Require3DS:             require3DS,
		RequiresManualReview:   manualReview,
		InvoicedTermsDays:      append([]int(nil), cfg.InvoicedTermsDays...),
		Notes:                  notes,
	}
}

func methodDecision(m entities.PaymentMethod, ctx entities.PaymentContext, cfg entities.PaymentPolicyConfig) entities.MethodDecision {
	if !cfg.IsMethodEnabled(m) {
		return disabled(m, "payment method is not enabled by the merchant")
	}
	if m == entities.PaymentMethodBankTransfer && ctx.Amount.LessThan(cfg.BankTransferFromAmount) {
		return disabled(m, "bank transfer is available only for orders from "+cfg.BankTransferFromAmount.StringFixed(2))
	}
	return entities.MethodDecision{Method: m, Enabled: true}
}

func invoicedDecision(ctx entities.PaymentContext, cfg entities.PaymentPolicyConfig) entities.MethodDecision {
	m := entities.PaymentMethodInvoiced
	switch {
	case !cfg.IsMethodEnabled(m):
		return disabled(m, "payment method is not enabled by the merchant")
	case !cfg.InvoicedEnabled:
		return disabled(m, "invoiced terms are disabled by the merchant")
	case ctx.Profile != entities.ProfileB2B:
		return disabled(m, "invoiced terms require a business account with a registered CNPJ")
	case !ctx.HasApprovedCredit:
		return disabled(m, "invoiced terms require an approved credit analysis for the CNPJ")
	case ctx.CreditLimitRemaining != nil && ctx.CreditLimitRemaining.LessThan(ctx.Amount):
		return disabled(m, "remaining credit limit "+ctx.CreditLimitRemaining.StringFixed(2)+" does not cover the order amount")
	}
	return entities.MethodDecision{Method: m, Enabled: true}
}

func disabled(m entities.PaymentMethod, reason string) entities.MethodDecision {
	return entities.MethodDecision{Method: m, Enabled: false, Reason: reason}
}

func pixDiscountPercent(amount decimal.Decimal, tiers entities.PixDiscountTiers) decimal.Decimal {
	switch {
	case amount.LessThanOrEqual(tiers.Tier1Max):
		return tiers.Tier1Pct
	case amount.LessThanOrEqual(tiers.Tier2Max):
		return tiers.Tier2Pct
	default:
		return tiers.Tier3Pct
	}
}

// prioritize ranks the enabled methods with the profile/amount band table and
// appends whatever the band does not place, in canonical order. The result is
// always a permutation of the enabled decisions.
func prioritize(ctx entities.PaymentContext, decisions []entities.MethodDecision) []entities.PaymentMethod {
	enabled := make(map[entities.PaymentMethod]bool, len(decisions))
	for _, d := range decisions {
		if d.Enabled {
			enabled[d.Method] = true
		}
	}

	out := make([]entities.PaymentMethod, 0, len(enabled))
	placed := make(map[entities.PaymentMethod]bool, len(enabled))
	add := func(m entities.PaymentMethod) {
		if enabled[m] && !placed[m] {
			placed[m] = true
			out = append(out, m)
		}
	}

	for _, m := range bandOrder(ctx) {
		add(m)
	}
	for _, d := range decisions {
		add(d.Method)
	}
	return out
}

func bandOrder(ctx entities.PaymentContext) []entities.PaymentMethod {
	const (
		pix      = entities.PaymentMethodPix
		card     = entities.PaymentMethodCard
		boleto   = entities.PaymentMethodBoleto
		transfer = entities.PaymentMethodBankTransfer
		invoiced = entities.PaymentMethodInvoiced
	)

	if ctx.Profile == entities.ProfileB2B {
		switch {
		case ctx.Amount.LessThanOrEqual(businessSmallMax):
			return []entities.PaymentMethod{pix, card, boleto}
		case ctx.Amount.LessThanOrEqual(businessMediumMax):
			return []entities.PaymentMethod{pix, boleto, transfer, card}
		default:
			return []entities.PaymentMethod{invoiced, transfer, pix, card, boleto}
		}
	}

	if ctx.Amount.LessThanOrEqual(consumerSmallMax) {
		return []entities.PaymentMethod{pix, card, boleto}
	}
	return []entities.PaymentMethod{card, pix, boleto}
}

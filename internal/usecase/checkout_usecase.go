package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/domain/policy"
	"loja_checkout/internal/usecase/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxOrderNumberAttempts bounds the order-number collision retry.
const MaxOrderNumberAttempts = 3

var hundred = decimal.NewFromInt(100)

// AddressInput carries delivery address fields typed at checkout.
type AddressInput struct {
	Label        string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	PostalCode   string
}

func (a *AddressInput) isEmpty() bool {
	return a == nil || strings.TrimSpace(a.Street+a.Number+a.Neighborhood+a.City+a.State+a.PostalCode) == ""
}

// CheckoutIntentInput is everything the buyer submits at checkout.
type CheckoutIntentInput struct {
	Buyer          *entities.Buyer
	Items          []entities.CartItem
	PaymentMethod  string
	Installments   *int
	InvoiceDueDays *int
	Address        *AddressInput
	Notes          string
	IdempotencyKey string
}

// NextAction tells the storefront what to do after the intent is created.
type NextAction struct {
	Code    string
	Message string
}

// OrderIntentResult is the outcome of CreateIntent. Decision is nil when the
// order is replayed from a previous submission with the same idempotency key.
type OrderIntentResult struct {
	Order      entities.Order
	Decision   *entities.PaymentPolicyResult
	NextAction NextAction
	Replayed   bool
}

// PaymentOptionsResult previews the policy decision for a cart.
type PaymentOptionsResult struct {
	Profile  entities.BuyerProfile
	Subtotal decimal.Decimal
	Decision entities.PaymentPolicyResult
}

// OrderDetails is an order with its payment audit trail.
type OrderDetails struct {
	Order    entities.Order
	Attempts []entities.PaymentAttempt
}

// ICheckoutUseCase encapsulates the checkout decision workflow.
type ICheckoutUseCase interface {
	CreateIntent(ctx context.Context, in CheckoutIntentInput) (OrderIntentResult, error)
	PaymentOptions(ctx context.Context, buyer *entities.Buyer, items []entities.CartItem) (PaymentOptionsResult, error)
	GetOrder(ctx context.Context, buyer *entities.Buyer, orderID string) (OrderDetails, error)
}

type CheckoutUseCase struct {
	cart      *CartValidator
	settings  interfaces.ISettingsRepository
	addresses interfaces.IAddressRepository
	orders    interfaces.IOrderRepository
	attempts  interfaces.IPaymentAttemptRepository
	numbers   interfaces.IOrderNumberGenerator

	now func() time.Time
}

var _ ICheckoutUseCase = (*CheckoutUseCase)(nil)

func NewCheckoutUseCase(
	products interfaces.IProductRepository,
	settings interfaces.ISettingsRepository,
	addresses interfaces.IAddressRepository,
	orders interfaces.IOrderRepository,
	attempts interfaces.IPaymentAttemptRepository,
	numbers interfaces.IOrderNumberGenerator,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		cart:      NewCartValidator(products),
		settings:  settings,
		addresses: addresses,
		orders:    orders,
		attempts:  attempts,
		numbers:   numbers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (u *CheckoutUseCase) CreateIntent(ctx context.Context, in CheckoutIntentInput) (OrderIntentResult, error) {
	if in.Buyer == nil || strings.TrimSpace(in.Buyer.ID) == "" {
		return OrderIntentResult{}, ErrUnauthenticated
	}
	buyer := *in.Buyer
	key := strings.TrimSpace(in.IdempotencyKey)
	log.Printf("[checkout][usecase] create-intent start buyer_id=%s method=%q items=%d idempotency_key=%q", buyer.ID, in.PaymentMethod, len(in.Items), key)

	if key != "" {
		existing, err := u.orders.GetByIdempotencyKey(ctx, buyer.ID, key)
		if err != nil {
			log.Printf("[checkout][usecase] idempotency lookup failed buyer_id=%s err=%v", buyer.ID, err)
			return OrderIntentResult{}, err
		}
		if existing.ID != "" {
			log.Printf("[checkout][usecase] replaying order buyer_id=%s order_id=%s", buyer.ID, existing.ID)
			return replayResult(existing), nil
		}
	}

	method, ok := entities.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return OrderIntentResult{}, newCheckoutError(ErrInvalidPaymentMethod, "", strings.TrimSpace(in.PaymentMethod))
	}

	cart, err := u.validateCart(ctx, in.Items)
	if err != nil {
		return OrderIntentResult{}, err
	}

	cfg, decision, err := u.resolve(ctx, buyer, cart.Subtotal)
	if err != nil {
		return OrderIntentResult{}, err
	}

	md, _ := decision.Decision(method)
	if !md.Enabled {
		log.Printf("[checkout][usecase] method rejected buyer_id=%s method=%s reason=%q", buyer.ID, method, md.Reason)
		return OrderIntentResult{}, newCheckoutError(ErrPaymentMethodNotAllowed, md.Reason, string(method))
	}

	address, err := u.resolveAddress(ctx, buyer.ID, in.Address)
	if err != nil {
		return OrderIntentResult{}, err
	}

	var invoiceDueDays *int
	if method == entities.PaymentMethodInvoiced {
		if in.InvoiceDueDays == nil || !decision.AllowsInvoiceTerm(*in.InvoiceDueDays) {
			return OrderIntentResult{}, newCheckoutError(ErrInvalidInvoiceTerm, "invoice_due_days must be one of the offered terms", termsAsStrings(decision.InvoicedTermsDays)...)
		}
		days := *in.InvoiceDueDays
		invoiceDueDays = &days
	}

	installments := 1
	if method == entities.PaymentMethodCard && in.Installments != nil {
		installments = max(1, min(*in.Installments, decision.MaxInstallments))
	}

	now := u.now()
	order := buildOrder(buyer, method, cart, cfg, decision, now)
	order.ID = uuid.NewString()
	order.Installments = installments
	order.InvoiceDueDays = invoiceDueDays
	order.PaymentExpiresAt = paymentExpiry(method, cfg, invoiceDueDays, now)
	order.AddressID = address.ID
	order.Notes = strings.TrimSpace(in.Notes)
	order.IdempotencyKey = key
	order.Items = snapshotItems(order.ID, cart)

	created, replayed, err := u.createOrder(ctx, order, decision)
	if err != nil {
		return OrderIntentResult{}, err
	}
	if replayed {
		return replayResult(created), nil
	}

	log.Printf("[checkout][usecase] create-intent success buyer_id=%s order_id=%s order_number=%s method=%s total=%s", buyer.ID, created.ID, created.OrderNumber, method, created.Total.StringFixed(2))
	return OrderIntentResult{
		Order:      created,
		Decision:   &decision,
		NextAction: nextActionFor(created),
	}, nil
}

func (u *CheckoutUseCase) PaymentOptions(ctx context.Context, buyer *entities.Buyer, items []entities.CartItem) (PaymentOptionsResult, error) {
	if buyer == nil || strings.TrimSpace(buyer.ID) == "" {
		return PaymentOptionsResult{}, ErrUnauthenticated
	}

	cart, err := u.validateCart(ctx, items)
	if err != nil {
		return PaymentOptionsResult{}, err
	}
	_, decision, err := u.resolve(ctx, *buyer, cart.Subtotal)
	if err != nil {
		return PaymentOptionsResult{}, err
	}
	return PaymentOptionsResult{Profile: buyer.Profile(), Subtotal: cart.Subtotal, Decision: decision}, nil
}

func (u *CheckoutUseCase) GetOrder(ctx context.Context, buyer *entities.Buyer, orderID string) (OrderDetails, error) {
	if buyer == nil || strings.TrimSpace(buyer.ID) == "" {
		return OrderDetails{}, ErrUnauthenticated
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return OrderDetails{}, ErrOrderNotFound
	}

	o, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return OrderDetails{}, err
	}
	// Orders of other buyers are reported as missing.
	if o.ID == "" || o.BuyerID != buyer.ID {
		return OrderDetails{}, ErrOrderNotFound
	}

	attempts, err := u.attempts.ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderDetails{}, err
	}
	return OrderDetails{Order: o, Attempts: attempts}, nil
}

// validateCart runs the cart validator and rejects carts the resolver cannot
// price: a zero subtotal (free or unparsable catalog prices) never reaches it.
func (u *CheckoutUseCase) validateCart(ctx context.Context, items []entities.CartItem) (CartValidation, error) {
	cart, err := u.cart.Validate(ctx, items)
	if err != nil {
		return CartValidation{}, err
	}
	if !cart.Subtotal.IsPositive() {
		log.Printf("[checkout][usecase] non-positive subtotal=%s lines=%d", cart.Subtotal.StringFixed(2), len(cart.Lines))
		return CartValidation{}, newCheckoutError(ErrInvalidAmount, "", "subtotal "+cart.Subtotal.StringFixed(2))
	}
	return cart, nil
}

// resolve loads the merchant policy fresh and runs the resolver for the buyer.
func (u *CheckoutUseCase) resolve(ctx context.Context, buyer entities.Buyer, subtotal decimal.Decimal) (entities.PaymentPolicyConfig, entities.PaymentPolicyResult, error) {
	settings, err := u.settings.GetAll(ctx)
	if err != nil {
		log.Printf("[checkout][usecase] settings load failed buyer_id=%s err=%v", buyer.ID, err)
		return entities.PaymentPolicyConfig{}, entities.PaymentPolicyResult{}, err
	}
	cfg := policy.LoadConfig(settings)

	pctx := entities.PaymentContext{
		Profile:              buyer.Profile(),
		Amount:               subtotal,
		HasApprovedCredit:    buyer.HasApprovedCredit,
		CreditLimitRemaining: buyer.CreditLimitRemaining,
		IsFirstPurchase:      buyer.CompletedOrders == 0,
	}
	decision := policy.Resolve(pctx, cfg)
	log.Printf("[checkout][usecase] policy resolved buyer_id=%s profile=%s amount=%s prioritized=%v manual_review=%t", buyer.ID, pctx.Profile, subtotal.StringFixed(2), decision.PrioritizedMethods, decision.RequiresManualReview)
	return cfg, decision, nil
}

var (
	statePattern  = regexp.MustCompile(`^[A-Za-z]{2}$`)
	nonDigitChars = regexp.MustCompile(`\D`)
)

func (u *CheckoutUseCase) resolveAddress(ctx context.Context, buyerID string, in *AddressInput) (entities.Address, error) {
	existing, err := u.addresses.ListByBuyerID(ctx, buyerID)
	if err != nil {
		log.Printf("[checkout][usecase] address list failed buyer_id=%s err=%v", buyerID, err)
		return entities.Address{}, err
	}

	if in.isEmpty() {
		for _, a := range existing {
			if a.IsDefault {
				return a, nil
			}
		}
		if len(existing) > 0 {
			return existing[0], nil
		}
		return entities.Address{}, newCheckoutError(ErrMissingAddress, "")
	}

	addr := entities.Address{
		ID:           uuid.NewString(),
		BuyerID:      buyerID,
		Label:        strings.TrimSpace(in.Label),
		Street:       strings.TrimSpace(in.Street),
		Number:       strings.TrimSpace(in.Number),
		Complement:   strings.TrimSpace(in.Complement),
		Neighborhood: strings.TrimSpace(in.Neighborhood),
		City:         strings.TrimSpace(in.City),
		State:        strings.ToUpper(strings.TrimSpace(in.State)),
		PostalCode:   nonDigitChars.ReplaceAllString(in.PostalCode, ""),
		IsDefault:    len(existing) == 0,
	}
	if problems := validateAddress(addr); len(problems) > 0 {
		return entities.Address{}, newCheckoutError(ErrInvalidAddress, "", problems...)
	}

	created, err := u.addresses.Create(ctx, addr)
	if err != nil {
		log.Printf("[checkout][usecase] address create failed buyer_id=%s err=%v", buyerID, err)
		return entities.Address{}, err
	}
	return created, nil
}

func validateAddress(a entities.Address) []string {
	var problems []string
	required := []struct{ field, value string }{
		{"street", a.Street},
		{"number", a.Number},
		{"neighborhood", a.Neighborhood},
		{"city", a.City},
	}
	for _, r := range required {
		if r.value == "" {
			problems = append(problems, r.field+" is required")
		}
	}
	if !statePattern.MatchString(a.State) {
		problems = append(problems, "state must be a 2-letter code")
	}
	if len(a.PostalCode) != 8 {
		problems = append(problems, "postal_code must have 8 digits")
	}
	return problems
}

// createOrder persists the order together with its payment attempt,
// regenerating the order number on conflict. The bool is true when a
// concurrent submission with the same idempotency key won the race; the
// returned order is then the stored one.
func (u *CheckoutUseCase) createOrder(ctx context.Context, order entities.Order, decision entities.PaymentPolicyResult) (entities.Order, bool, error) {
	for attempt := 1; attempt <= MaxOrderNumberAttempts; attempt++ {
		number, err := u.numbers.Next(ctx)
		if err != nil {
			log.Printf("[checkout][usecase] order number generation failed order_id=%s err=%v", order.ID, err)
			return entities.Order{}, false, err
		}
		order.OrderNumber = number
		order.PaymentReference = order.ProviderCode + ":" + number

		audit, err := u.newAttempt(order, decision)
		if err != nil {
			return entities.Order{}, false, err
		}

		created, err := u.orders.CreateWithItems(ctx, order, audit)
		switch {
		case err == nil:
			log.Printf("[checkout][usecase] order created order_id=%s order_number=%s attempt=%d", created.ID, created.OrderNumber, attempt)
			return created, false, nil
		case errors.Is(err, interfaces.ErrOrderNumberConflict):
			log.Printf("[checkout][usecase] order number conflict order_number=%s attempt=%d", number, attempt)
			continue
		case errors.Is(err, interfaces.ErrIdempotencyKeyConflict):
			existing, lookupErr := u.orders.GetByIdempotencyKey(ctx, order.BuyerID, order.IdempotencyKey)
			if lookupErr != nil {
				return entities.Order{}, false, lookupErr
			}
			if existing.ID == "" {
				return entities.Order{}, false, err
			}
			log.Printf("[checkout][usecase] concurrent duplicate replayed order_id=%s", existing.ID)
			return existing, true, nil
		default:
			log.Printf("[checkout][usecase] order persist failed order_id=%s err=%v", order.ID, err)
			return entities.Order{}, false, err
		}
	}

	log.Printf("[checkout][usecase] order number allocation exhausted order_id=%s attempts=%d", order.ID, MaxOrderNumberAttempts)
	return entities.Order{}, false, ErrOrderAllocationFailed
}

type amountsSnapshot struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type attemptSnapshot struct {
	OrderNumber      string                       `json:"order_number"`
	Profile          entities.BuyerProfile        `json:"profile"`
	Method           entities.PaymentMethod       `json:"method"`
	Installments     int                          `json:"installments"`
	InvoiceDueDays   *int                         `json:"invoice_due_days"`
	PaymentExpiresAt *time.Time                   `json:"payment_expires_at"`
	Amounts          amountsSnapshot              `json:"amounts"`
	Decision         entities.PaymentPolicyResult `json:"decision"`
}

// newAttempt builds the audit record explaining why the order was allowed to
// proceed on its method.
func (u *CheckoutUseCase) newAttempt(o entities.Order, decision entities.PaymentPolicyResult) (entities.PaymentAttempt, error) {
	payload, err := json.Marshal(attemptSnapshot{
		OrderNumber:      o.OrderNumber,
		Profile:          o.Profile,
		Method:           o.PaymentMethod,
		Installments:     o.Installments,
		InvoiceDueDays:   o.InvoiceDueDays,
		PaymentExpiresAt: o.PaymentExpiresAt,
		Amounts: amountsSnapshot{
			Subtotal: o.Subtotal,
			Discount: o.Discount,
			Shipping: o.Shipping,
			Tax:      o.Tax,
			Total:    o.Total,
		},
		Decision: decision,
	})
	if err != nil {
		return entities.PaymentAttempt{}, err
	}

	var idempotencyKey *string
	if o.IdempotencyKey != "" {
		k := o.IdempotencyKey
		idempotencyKey = &k
	}

	return entities.PaymentAttempt{
		ID:             uuid.NewString(),
		OrderID:        o.ID,
		Provider:       o.ProviderCode,
		EventType:      entities.EventCheckoutIntentCreated,
		Status:         o.PaymentStatus,
		ExternalID:     o.ProviderPaymentID,
		IdempotencyKey: idempotencyKey,
		Amount:         o.Total,
		Payload:        payload,
		CreatedAt:      u.now(),
	}, nil
}

// buildOrder fills the amounts and payment fields. Discount applies to PIX
// only; every amount is rounded to 2 decimals.
func buildOrder(buyer entities.Buyer, method entities.PaymentMethod, cart CartValidation, cfg entities.PaymentPolicyConfig, decision entities.PaymentPolicyResult, now time.Time) entities.Order {
	subtotal := cart.Subtotal.Round(2)

	discount := decimal.Zero
	if method == entities.PaymentMethodPix {
		discount = subtotal.Mul(decision.DiscountPercent).Div(hundred).Round(2)
	}

	shipping := cfg.ShippingFlatFee.Round(2)
	if cfg.FreeShippingFromAmount.IsPositive() && subtotal.GreaterThanOrEqual(cfg.FreeShippingFromAmount) {
		shipping = decimal.Zero
	}

	tax := subtotal.Sub(discount).Mul(cfg.TaxPercent).Div(hundred).Round(2)
	total := subtotal.Sub(discount).Add(shipping).Add(tax).Round(2)

	return entities.Order{
		BuyerID:              buyer.ID,
		Profile:              buyer.Profile(),
		Subtotal:             subtotal,
		Discount:             discount,
		Shipping:             shipping,
		Tax:                  tax,
		Total:                total,
		PaymentMethod:        method,
		PaymentStatus:        entities.PaymentStatusPending,
		ProviderCode:         cfg.ProviderCode,
		ProviderPaymentID:    "pending_" + uuid.NewString(),
		Require3DS:           method == entities.PaymentMethodCard && decision.Require3DS,
		RequiresManualReview: decision.RequiresManualReview,
		CreatedAt:            now,
	}
}

// snapshotItems copies name, sku and price out of the catalog view so the
// order never references live product data.
func snapshotItems(orderID string, cart CartValidation) []entities.OrderItem {
	items := make([]entities.OrderItem, 0, len(cart.Lines))
	for i, l := range cart.Lines {
		p := cart.Priced[l.ProductID]
		items = append(items, entities.OrderItem{
			OrderID:   orderID,
			Line:      i + 1,
			ProductID: p.ProductID,
			Name:      p.Name,
			SKU:       p.SKU,
			UnitPrice: p.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: p.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2),
		})
	}
	return items
}

func paymentExpiry(method entities.PaymentMethod, cfg entities.PaymentPolicyConfig, invoiceDueDays *int, now time.Time) *time.Time {
	var t time.Time
	switch method {
	case entities.PaymentMethodPix:
		t = now.Add(time.Duration(cfg.PixExpiresInMinutes) * time.Minute)
	case entities.PaymentMethodBoleto:
		t = now.AddDate(0, 0, cfg.BoletoExpiresInDays)
	case entities.PaymentMethodInvoiced:
		if invoiceDueDays == nil {
			return nil
		}
		t = now.AddDate(0, 0, *invoiceDueDays)
	default:
		return nil
	}
	return &t
}

func nextActionFor(o entities.Order) NextAction {
	switch o.PaymentMethod {
	case entities.PaymentMethodPix:
		return NextAction{Code: "generate_pix_code", Message: "Generate the PIX code and pay before it expires"}
	case entities.PaymentMethodCard:
		if o.Require3DS {
			return NextAction{Code: "collect_card_details_with_3ds", Message: "Collect card details and complete 3DS authentication"}
		}
		return NextAction{Code: "collect_card_details", Message: "Collect card details to authorize the payment"}
	case entities.PaymentMethodBoleto:
		return NextAction{Code: "issue_boleto", Message: "Issue the boleto and share it with the buyer"}
	case entities.PaymentMethodBankTransfer:
		return NextAction{Code: "send_bank_transfer_instructions", Message: "Send bank transfer instructions with the payment reference"}
	case entities.PaymentMethodInvoiced:
		return NextAction{Code: "await_commercial_approval", Message: "Await commercial approval for invoiced terms"}
	}
	return NextAction{}
}

func replayResult(o entities.Order) OrderIntentResult {
	return OrderIntentResult{Order: o, NextAction: nextActionFor(o), Replayed: true}
}

func termsAsStrings(days []int) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, fmt.Sprintf("%d", d))
	}
	return out
}

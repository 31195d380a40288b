package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/domain/policy"
	"loja_checkout/internal/usecase/interfaces"
	mock_interfaces "loja_checkout/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type checkoutFixture struct {
	products  *mock_interfaces.MockIProductRepository
	settings  *mock_interfaces.MockISettingsRepository
	addresses *mock_interfaces.MockIAddressRepository
	orders    *mock_interfaces.MockIOrderRepository
	attempts  *mock_interfaces.MockIPaymentAttemptRepository
	numbers   *mock_interfaces.MockIOrderNumberGenerator
	uc        *CheckoutUseCase
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	ctrl := gomock.NewController(t)
	f := &checkoutFixture{
		products:  mock_interfaces.NewMockIProductRepository(ctrl),
		settings:  mock_interfaces.NewMockISettingsRepository(ctrl),
		addresses: mock_interfaces.NewMockIAddressRepository(ctrl),
		orders:    mock_interfaces.NewMockIOrderRepository(ctrl),
		attempts:  mock_interfaces.NewMockIPaymentAttemptRepository(ctrl),
		numbers:   mock_interfaces.NewMockIOrderNumberGenerator(ctrl),
	}
	f.uc = NewCheckoutUseCase(f.products, f.settings, f.addresses, f.orders, f.attempts, f.numbers)
	f.uc.now = func() time.Time { return fixedNow }
	return f
}

// expectCart stubs a one-line cart of a single product priced at price.
func (f *checkoutFixture) expectCart(price string) []entities.CartItem {
	f.products.EXPECT().GetByIDs(gomock.Any(), []string{"p1"}).Return([]entities.Product{product("p1", price, 0)}, nil)
	return []entities.CartItem{{ProductID: "p1", Quantity: 1}}
}

func (f *checkoutFixture) expectSettings(s map[string]string) {
	f.settings.EXPECT().GetAll(gomock.Any()).Return(s, nil)
}

func (f *checkoutFixture) expectDefaultAddress() {
	f.addresses.EXPECT().ListByBuyerID(gomock.Any(), gomock.Any()).Return([]entities.Address{
		{ID: "addr-2", BuyerID: "buyer-1"},
		{ID: "addr-1", BuyerID: "buyer-1", IsDefault: true},
	}, nil)
}

// expectPersist accepts the order as-is and captures what was written.
func (f *checkoutFixture) expectPersist(order *entities.Order, attempt *entities.PaymentAttempt) {
	f.numbers.EXPECT().Next(gomock.Any()).Return("LJ-20260310-ABC123", nil)
	f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o entities.Order, a entities.PaymentAttempt) (entities.Order, error) {
		*order = o
		*attempt = a
		return o, nil
	})
}

func consumer() *entities.Buyer {
	return &entities.Buyer{ID: "buyer-1", Name: "Ana", CompletedOrders: 2}
}

func business(credit bool) *entities.Buyer {
	return &entities.Buyer{ID: "buyer-1", Name: "ACME", TaxID: "12.345.678/0001-90", HasApprovedCredit: credit, CompletedOrders: 5}
}

func intPtr(v int) *int { return &v }

func TestCheckoutUseCase_CreateIntent_Validations(t *testing.T) {
	t.Run("missing buyer", func(t *testing.T) {
		uc := NewCheckoutUseCase(nil, nil, nil, nil, nil, nil)
		_, err := uc.CreateIntent(context.Background(), CheckoutIntentInput{PaymentMethod: "PIX"})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("unknown payment method", func(t *testing.T) {
		f := newCheckoutFixture(t)
		_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "crypto", Items: []entities.CartItem{{ProductID: "p1", Quantity: 1}}})
		if !errors.Is(err, ErrInvalidPaymentMethod) {
			t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
		}
	})

	t.Run("unknown product creates nothing", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.products.EXPECT().GetByIDs(gomock.Any(), []string{"p1", "ghost"}).Return([]entities.Product{product("p1", "10", 0)}, nil)

		_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{
			Buyer:         consumer(),
			PaymentMethod: "PIX",
			Items:         []entities.CartItem{{ProductID: "p1", Quantity: 1}, {ProductID: "ghost", Quantity: 1}},
		})
		if !errors.Is(err, ErrUnknownProducts) {
			t.Fatalf("expected ErrUnknownProducts, got %v", err)
		}
		if got := detailsOf(t, err); len(got) != 1 || got[0] != "ghost" {
			t.Fatalf("expected [ghost], got %v", got)
		}
	})

	t.Run("settings error", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("10")
		f.settings.EXPECT().GetAll(gomock.Any()).Return(nil, errors.New("db"))

		_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: items})
		if err == nil || err.Error() != "db" {
			t.Fatalf("expected db error, got %v", err)
		}
	})
}

func TestCheckoutUseCase_CreateIntent_PixConsumer(t *testing.T) {
	f := newCheckoutFixture(t)
	f.products.EXPECT().GetByIDs(gomock.Any(), []string{"p1"}).Return([]entities.Product{product("p1", "100", 10)}, nil)
	f.expectSettings(map[string]string{})
	f.expectDefaultAddress()
	var stored entities.Order
	var attempt entities.PaymentAttempt
	f.expectPersist(&stored, &attempt)

	res, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{
		Buyer:          consumer(),
		PaymentMethod:  "pix",
		Items:          []entities.CartItem{{ProductID: "p1", Quantity: 3}},
		Installments:   intPtr(6),
		InvoiceDueDays: intPtr(30),
		Notes:          " leave at the door ",
		IdempotencyKey: "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o := res.Order
	if o.Subtotal.StringFixed(2) != "300.00" || o.Discount.StringFixed(2) != "15.00" || o.Total.StringFixed(2) != "285.00" {
		t.Fatalf("unexpected amounts: subtotal=%s discount=%s total=%s", o.Subtotal, o.Discount, o.Total)
	}
	if o.PaymentMethod != entities.PaymentMethodPix || o.PaymentStatus != entities.PaymentStatusPending {
		t.Fatalf("unexpected payment fields: %+v", o)
	}
	if o.Installments != 1 || o.InvoiceDueDays != nil {
		t.Fatalf("pix order must not carry installments or invoice terms: %d %v", o.Installments, o.InvoiceDueDays)
	}
	if o.PaymentExpiresAt == nil || !o.PaymentExpiresAt.Equal(fixedNow.Add(30*time.Minute)) {
		t.Fatalf("expected pix expiry in 30 minutes, got %v", o.PaymentExpiresAt)
	}
	if o.OrderNumber != "LJ-20260310-ABC123" || o.PaymentReference != "mercadopago:LJ-20260310-ABC123" {
		t.Fatalf("unexpected numbering: %q %q", o.OrderNumber, o.PaymentReference)
	}
	if !strings.HasPrefix(o.ProviderPaymentID, "pending_") {
		t.Fatalf("expected pending provider id, got %q", o.ProviderPaymentID)
	}
	if o.AddressID != "addr-1" || o.Notes != "leave at the door" {
		t.Fatalf("unexpected address/notes: %q %q", o.AddressID, o.Notes)
	}
	if len(o.Items) != 1 || o.Items[0].OrderID != o.ID || o.Items[0].LineTotal.StringFixed(2) != "300.00" || o.Items[0].Name != "Product p1" {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
	if stored.ID != o.ID {
		t.Fatalf("returned order differs from persisted one")
	}
	if res.NextAction.Code != "generate_pix_code" || res.Replayed || res.Decision == nil {
		t.Fatalf("unexpected result: %+v", res)
	}

	if attempt.OrderID != o.ID || attempt.Status != entities.PaymentStatusPending || attempt.EventType != entities.EventCheckoutIntentCreated {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}
	if !attempt.Amount.Equal(o.Total) || attempt.Provider != "mercadopago" || attempt.ExternalID != o.ProviderPaymentID {
		t.Fatalf("unexpected attempt amount/provider: %+v", attempt)
	}
	if attempt.IdempotencyKey != nil {
		t.Fatalf("expected no idempotency key, got %v", *attempt.IdempotencyKey)
	}
	var snap map[string]any
	if err := json.Unmarshal(attempt.Payload, &snap); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if snap["method"] != "PIX" || snap["decision"] == nil || snap["amounts"] == nil {
		t.Fatalf("unexpected payload: %s", attempt.Payload)
	}
}

func TestCheckoutUseCase_CreateIntent_BusinessWithoutCreditCannotInvoice(t *testing.T) {
	f := newCheckoutFixture(t)
	items := f.expectCart("20000")
	f.expectSettings(nil)

	_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{
		Buyer:          business(false),
		PaymentMethod:  "INVOICED",
		InvoiceDueDays: intPtr(30),
		Items:          items,
	})
	if !errors.Is(err, ErrPaymentMethodNotAllowed) {
		t.Fatalf("expected ErrPaymentMethodNotAllowed, got %v", err)
	}
	if !strings.Contains(err.Error(), "approved credit") {
		t.Fatalf("expected credit reason, got %q", err.Error())
	}
}

func TestCheckoutUseCase_CreateIntent_Invoiced(t *testing.T) {
	t.Run("offered term", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("20000")
		f.expectSettings(nil)
		f.expectDefaultAddress()
		var stored entities.Order
		var attempt entities.PaymentAttempt
		f.expectPersist(&stored, &attempt)

		res, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{
			Buyer:          business(true),
			PaymentMethod:  "invoiced",
			InvoiceDueDays: intPtr(60),
			Items:          items,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		o := res.Order
		if o.InvoiceDueDays == nil || *o.InvoiceDueDays != 60 {
			t.Fatalf("expected 60 days, got %v", o.InvoiceDueDays)
		}
		if o.PaymentExpiresAt == nil || !o.PaymentExpiresAt.Equal(fixedNow.AddDate(0, 0, 60)) {
			t.Fatalf("unexpected expiry: %v", o.PaymentExpiresAt)
		}
		if !o.Discount.IsZero() || o.Profile != entities.ProfileB2B {
			t.Fatalf("unexpected order: %+v", o)
		}
		if res.NextAction.Code != "await_commercial_approval" {
			t.Fatalf("unexpected next action: %+v", res.NextAction)
		}
	})

	for _, days := range []*int{nil, intPtr(45)} {
		t.Run("term not offered", func(t *testing.T) {
			f := newCheckoutFixture(t)
			items := f.expectCart("20000")
			f.expectSettings(nil)
			f.expectDefaultAddress()

			_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{
				Buyer:          business(true),
				PaymentMethod:  "INVOICED",
				InvoiceDueDays: days,
				Items:          items,
			})
			if !errors.Is(err, ErrInvalidInvoiceTerm) {
				t.Fatalf("expected ErrInvalidInvoiceTerm, got %v", err)
			}
		})
	}
}

func TestCheckoutUseCase_CreateIntent_CardInstallmentsAnd3DS(t *testing.T) {
	cases := []struct {
		name      string
		requested *int
		want      int
	}{
		{name: "nil means one", requested: nil, want: 1},
		{name: "clamped to max", requested: intPtr(99), want: 12},
		{name: "clamped to one", requested: intPtr(0), want: 1},
		{name: "kept", requested: intPtr(4), want: 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t)
			items := f.expectCart("1500")
			f.expectSettings(nil)
			f.expectDefaultAddress()
			var stored entities.Order
			var attempt entities.PaymentAttempt
			f.expectPersist(&stored, &attempt)

			res, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "CARD", Installments: tc.requested, Items: items})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Order.Installments != tc.want {
				t.Fatalf("expected %d installments, got %d", tc.want, res.Order.Installments)
			}
			if !res.Order.Require3DS || res.NextAction.Code != "collect_card_details_with_3ds" {
				t.Fatalf("expected 3DS above threshold, got %+v", res.NextAction)
			}
			if res.Order.PaymentExpiresAt != nil {
				t.Fatalf("card orders do not expire")
			}
		})
	}
}

func TestCheckoutUseCase_CreateIntent_ShippingAndTax(t *testing.T) {
	cases := []struct {
		name     string
		settings map[string]string
		shipping string
		tax      string
		total    string
	}{
		{name: "flat fee and tax", settings: map[string]string{policy.KeyShippingFlatFee: "20", policy.KeyTaxPercent: "10"}, shipping: "20.00", tax: "30.00", total: "350.00"},
		{name: "free shipping threshold", settings: map[string]string{policy.KeyShippingFlatFee: "20", policy.KeyFreeShippingFromAmount: "300"}, shipping: "0.00", tax: "0.00", total: "300.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t)
			items := f.expectCart("300")
			f.expectSettings(tc.settings)
			f.expectDefaultAddress()
			var stored entities.Order
			var attempt entities.PaymentAttempt
			f.expectPersist(&stored, &attempt)

			res, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "BOLETO", Items: items})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			o := res.Order
			if o.Shipping.StringFixed(2) != tc.shipping || o.Tax.StringFixed(2) != tc.tax || o.Total.StringFixed(2) != tc.total {
				t.Fatalf("unexpected amounts: shipping=%s tax=%s total=%s", o.Shipping, o.Tax, o.Total)
			}
			if o.PaymentExpiresAt == nil || !o.PaymentExpiresAt.Equal(fixedNow.AddDate(0, 0, 3)) {
				t.Fatalf("expected boleto expiry in 3 days, got %v", o.PaymentExpiresAt)
			}
		})
	}
}

func TestCheckoutUseCase_CreateIntent_Address(t *testing.T) {
	t.Run("no saved address", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.addresses.EXPECT().ListByBuyerID(gomock.Any(), "buyer-1").Return(nil, nil)

		_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: items})
		if !errors.Is(err, ErrMissingAddress) {
			t.Fatalf("expected ErrMissingAddress, got %v", err)
		}
	})

	t.Run("invalid typed address", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.addresses.EXPECT().ListByBuyerID(gomock.Any(), "buyer-1").Return(nil, nil)

		_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{
			Buyer:         consumer(),
			PaymentMethod: "PIX",
			Items:         items,
			Address:       &AddressInput{Street: "Rua A", City: "Recife", State: "Pernambuco", PostalCode: "123"},
		})
		if !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress, got %v", err)
		}
		if got := detailsOf(t, err); len(got) != 4 {
			t.Fatalf("expected 4 problems, got %v", got)
		}
	})

	t.Run("typed address is saved as default", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.addresses.EXPECT().ListByBuyerID(gomock.Any(), "buyer-1").Return(nil, nil)
		var saved entities.Address
		f.addresses.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, a entities.Address) (entities.Address, error) {
			saved = a
			return a, nil
		})
		var stored entities.Order
		var attempt entities.PaymentAttempt
		f.expectPersist(&stored, &attempt)

		res, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{
			Buyer:         consumer(),
			PaymentMethod: "PIX",
			Items:         items,
			Address:       &AddressInput{Street: "Rua A", Number: "10", Neighborhood: "Boa Vista", City: "Recife", State: "pe", PostalCode: "50.050-000"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !saved.IsDefault || saved.State != "PE" || saved.PostalCode != "50050000" || saved.BuyerID != "buyer-1" {
			t.Fatalf("unexpected saved address: %+v", saved)
		}
		if res.Order.AddressID != saved.ID {
			t.Fatalf("expected order to use saved address")
		}
	})
}

func TestCheckoutUseCase_CreateIntent_OrderNumberRetry(t *testing.T) {
	t.Run("succeeds after conflicts", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.expectDefaultAddress()

		gomock.InOrder(
			f.numbers.EXPECT().Next(gomock.Any()).Return("N-1", nil),
			f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Order{}, interfaces.ErrOrderNumberConflict),
			f.numbers.EXPECT().Next(gomock.Any()).Return("N-2", nil),
			f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Order{}, interfaces.ErrOrderNumberConflict),
			f.numbers.EXPECT().Next(gomock.Any()).Return("N-3", nil),
			f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o entities.Order, a entities.PaymentAttempt) (entities.Order, error) {
				var snap map[string]any
				if err := json.Unmarshal(a.Payload, &snap); err != nil || snap["order_number"] != "N-3" {
					t.Fatalf("attempt must carry the final order number, got %s", a.Payload)
				}
				return o, nil
			}),
		)

		res, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: items})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Order.OrderNumber != "N-3" || res.Order.PaymentReference != "mercadopago:N-3" {
			t.Fatalf("expected third number, got %q", res.Order.OrderNumber)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.expectDefaultAddress()
		f.numbers.EXPECT().Next(gomock.Any()).Return("N-1", nil).Times(MaxOrderNumberAttempts)
		f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Order{}, interfaces.ErrOrderNumberConflict).Times(MaxOrderNumberAttempts)

		_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: items})
		if !errors.Is(err, ErrOrderAllocationFailed) {
			t.Fatalf("expected ErrOrderAllocationFailed, got %v", err)
		}
	})

	t.Run("other persistence errors are not retried", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.expectDefaultAddress()
		f.numbers.EXPECT().Next(gomock.Any()).Return("N-1", nil)
		f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Order{}, errors.New("throttled"))

		_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: items})
		if err == nil || err.Error() != "throttled" {
			t.Fatalf("expected throttled error, got %v", err)
		}
	})
}

func TestCheckoutUseCase_CreateIntent_Idempotency(t *testing.T) {
	existing := entities.Order{ID: "order-1", BuyerID: "buyer-1", OrderNumber: "N-1", PaymentMethod: entities.PaymentMethodBoleto}

	t.Run("replays stored order", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.orders.EXPECT().GetByIdempotencyKey(gomock.Any(), "buyer-1", "key-1").Return(existing, nil)

		res, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", IdempotencyKey: " key-1 "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Replayed || res.Order.ID != "order-1" || res.Decision != nil || res.NextAction.Code != "issue_boleto" {
			t.Fatalf("unexpected replay: %+v", res)
		}
	})

	t.Run("concurrent duplicate loses the race", func(t *testing.T) {
		f := newCheckoutFixture(t)
		gomock.InOrder(
			f.orders.EXPECT().GetByIdempotencyKey(gomock.Any(), "buyer-1", "key-1").Return(entities.Order{}, nil),
			f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o entities.Order, _ entities.PaymentAttempt) (entities.Order, error) {
				if o.IdempotencyKey != "key-1" {
					t.Fatalf("expected key on order, got %q", o.IdempotencyKey)
				}
				return entities.Order{}, interfaces.ErrIdempotencyKeyConflict
			}),
			f.orders.EXPECT().GetByIdempotencyKey(gomock.Any(), "buyer-1", "key-1").Return(existing, nil),
		)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.expectDefaultAddress()
		f.numbers.EXPECT().Next(gomock.Any()).Return("N-2", nil)

		res, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: items, IdempotencyKey: "key-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Replayed || res.Order.ID != "order-1" {
			t.Fatalf("expected replay of winner, got %+v", res)
		}
	})

	t.Run("key is recorded on the attempt", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.orders.EXPECT().GetByIdempotencyKey(gomock.Any(), "buyer-1", "key-2").Return(entities.Order{}, nil)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.expectDefaultAddress()
		var stored entities.Order
		var attempt entities.PaymentAttempt
		f.expectPersist(&stored, &attempt)

		if _, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: items, IdempotencyKey: "key-2"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempt.IdempotencyKey == nil || *attempt.IdempotencyKey != "key-2" || stored.IdempotencyKey != "key-2" {
			t.Fatalf("expected key-2 on order and attempt")
		}
	})
}

func TestCheckoutUseCase_CreateIntent_AttemptIsWrittenWithOrder(t *testing.T) {
	t.Run("failed write leaves nothing to replay", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.products.EXPECT().GetByIDs(gomock.Any(), []string{"p1"}).Return([]entities.Product{product("p1", "10", 0)}, nil).Times(2)
		f.settings.EXPECT().GetAll(gomock.Any()).Return(nil, nil).Times(2)
		f.addresses.EXPECT().ListByBuyerID(gomock.Any(), "buyer-1").Return([]entities.Address{{ID: "addr-1", BuyerID: "buyer-1", IsDefault: true}}, nil).Times(2)
		f.numbers.EXPECT().Next(gomock.Any()).Return("N-1", nil).Times(2)
		f.orders.EXPECT().GetByIdempotencyKey(gomock.Any(), "buyer-1", "key-1").Return(entities.Order{}, nil).Times(2)

		var written []entities.PaymentAttempt
		gomock.InOrder(
			f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).Return(entities.Order{}, errors.New("audit down")),
			f.orders.EXPECT().CreateWithItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o entities.Order, a entities.PaymentAttempt) (entities.Order, error) {
				written = append(written, a)
				return o, nil
			}),
		)

		in := CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: []entities.CartItem{{ProductID: "p1", Quantity: 1}}, IdempotencyKey: "key-1"}
		if _, err := f.uc.CreateIntent(context.Background(), in); err == nil || err.Error() != "audit down" {
			t.Fatalf("expected audit error, got %v", err)
		}

		res, err := f.uc.CreateIntent(context.Background(), in)
		if err != nil {
			t.Fatalf("unexpected error on retry: %v", err)
		}
		if res.Replayed {
			t.Fatalf("retry must create the order, not replay it")
		}
		if len(written) != 1 || written[0].OrderID != res.Order.ID || written[0].IdempotencyKey == nil || *written[0].IdempotencyKey != "key-1" {
			t.Fatalf("expected one attempt for the created order, got %+v", written)
		}
	})

	t.Run("attempt describes the order", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("10")
		f.expectSettings(nil)
		f.expectDefaultAddress()
		var stored entities.Order
		var attempt entities.PaymentAttempt
		f.expectPersist(&stored, &attempt)

		if _, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "BOLETO", Items: items}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempt.OrderID != stored.ID || attempt.ID == "" || !attempt.CreatedAt.Equal(fixedNow) {
			t.Fatalf("unexpected attempt: %+v", attempt)
		}
	})
}

func TestCheckoutUseCase_NonPositiveSubtotal(t *testing.T) {
	t.Run("create intent", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("0")

		_, err := f.uc.CreateIntent(context.Background(), CheckoutIntentInput{Buyer: consumer(), PaymentMethod: "PIX", Items: items})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
		if got := detailsOf(t, err); len(got) != 1 || got[0] != "subtotal 0.00" {
			t.Fatalf("unexpected details: %v", got)
		}
	})

	t.Run("payment options", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("0")

		if _, err := f.uc.PaymentOptions(context.Background(), consumer(), items); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})
}

func TestCheckoutUseCase_PaymentOptions(t *testing.T) {
	t.Run("missing buyer", func(t *testing.T) {
		uc := NewCheckoutUseCase(nil, nil, nil, nil, nil, nil)
		if _, err := uc.PaymentOptions(context.Background(), nil, nil); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("previews decision", func(t *testing.T) {
		f := newCheckoutFixture(t)
		items := f.expectCart("30000")
		f.expectSettings(nil)

		got, err := f.uc.PaymentOptions(context.Background(), business(true), items)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Profile != entities.ProfileB2B || got.Subtotal.StringFixed(2) != "30000.00" {
			t.Fatalf("unexpected preview: %+v", got)
		}
		if len(got.Decision.PrioritizedMethods) == 0 || got.Decision.PrioritizedMethods[0] != entities.PaymentMethodInvoiced {
			t.Fatalf("expected invoiced first, got %v", got.Decision.PrioritizedMethods)
		}
	})
}

func TestCheckoutUseCase_GetOrder(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(entities.Order{}, nil)

		if _, err := f.uc.GetOrder(context.Background(), consumer(), "order-1"); !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("other buyer", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(entities.Order{ID: "order-1", BuyerID: "someone-else"}, nil)

		if _, err := f.uc.GetOrder(context.Background(), consumer(), "order-1"); !errors.Is(err, ErrOrderNotFound) {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("with attempts", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(entities.Order{ID: "order-1", BuyerID: "buyer-1"}, nil)
		f.attempts.EXPECT().ListByOrderID(gomock.Any(), "order-1").Return([]entities.PaymentAttempt{{ID: "att-1", OrderID: "order-1"}}, nil)

		got, err := f.uc.GetOrder(context.Background(), consumer(), " order-1 ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Order.ID != "order-1" || len(got.Attempts) != 1 {
			t.Fatalf("unexpected details: %+v", got)
		}
	})
}

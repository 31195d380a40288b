package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

// MaxCartLines bounds the distinct products of one checkout. The order, its
// items and the guard records must fit in a single DynamoDB transaction.
const MaxCartLines = 50

// PricedItem is the catalog snapshot later copied into the order items.
type PricedItem struct {
	ProductID string
	Name      string
	SKU       string
	UnitPrice decimal.Decimal
}

// CartValidation is the outcome of a successful cart check.
type CartValidation struct {
	// Lines holds the requested items with repeated products merged, in
	// first-seen order.
	Lines    []entities.CartItem
	Subtotal decimal.Decimal
	Priced   map[string]PricedItem
}

// CartValidator resolves cart lines against the product store.
type CartValidator struct {
	products interfaces.IProductRepository
}

func NewCartValidator(products interfaces.IProductRepository) *CartValidator {
	return &CartValidator{products: products}
}

// Validate checks every line at once and reports all offending products, not
// just the first one.
func (v *CartValidator) Validate(ctx context.Context, items []entities.CartItem) (CartValidation, error) {
	if len(items) == 0 {
		return CartValidation{}, newCheckoutError(ErrEmptyCart, "")
	}

	lines, err := mergeLines(items)
	if err != nil {
		return CartValidation{}, err
	}
	if len(lines) > MaxCartLines {
		return CartValidation{}, newCheckoutError(ErrCartTooLarge, fmt.Sprintf("cart accepts at most %d distinct products", MaxCartLines))
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	found, err := v.products.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("[checkout][cart] product lookup failed ids=%d err=%v", len(ids), err)
		return CartValidation{}, err
	}
	byID := make(map[string]entities.Product, len(found))
	for _, p := range found {
		if p.Active {
			byID[p.ID] = p
		}
	}

	var unknown []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		log.Printf("[checkout][cart] unknown products ids=%s", strings.Join(unknown, ","))
		return CartValidation{}, newCheckoutError(ErrUnknownProducts, "", unknown...)
	}

	var short []string
	for _, l := range lines {
		p := byID[l.ProductID]
		if p.Stock > 0 && l.Quantity > p.Stock {
			short = append(short, fmt.Sprintf("%s: requested %d, available %d", l.ProductID, l.Quantity, p.Stock))
		}
	}
	if len(short) > 0 {
		log.Printf("[checkout][cart] insufficient stock items=%d", len(short))
		return CartValidation{}, newCheckoutError(ErrInsufficientStock, "", short...)
	}

	subtotal := decimal.Zero
	priced := make(map[string]PricedItem, len(lines))
	for _, l := range lines {
		p := byID[l.ProductID]
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		priced[p.ID] = PricedItem{ProductID: p.ID, Name: p.Name, SKU: p.SKU, UnitPrice: p.Price}
	}

	return CartValidation{Lines: lines, Subtotal: subtotal.Round(2), Priced: priced}, nil
}

func mergeLines(items []entities.CartItem) ([]entities.CartItem, error) {
	var invalid []string
	index := make(map[string]int, len(items))
	lines := make([]entities.CartItem, 0, len(items))

	for i, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" || it.Quantity <= 0 {
			invalid = append(invalid, fmt.Sprintf("item %d: product_id %q quantity %d", i, id, it.Quantity))
			continue
		}
		if pos, ok := index[id]; ok {
			lines[pos].Quantity += it.Quantity
			continue
		}
		index[id] = len(lines)
		lines = append(lines, entities.CartItem{ProductID: id, Quantity: it.Quantity})
	}

	if len(invalid) > 0 {
		return nil, newCheckoutError(ErrInvalidQuantity, "every item needs a product_id and a positive quantity", invalid...)
	}
	return lines, nil
}

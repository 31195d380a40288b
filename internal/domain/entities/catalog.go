package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the catalog view consumed by checkout.
//
// Stock == 0 means made to order: it is exempt from the stock ceiling.
type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	SKU    string          `json:"sku"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Active bool            `json:"active"`
}

// CartItem is one requested line of a checkout.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Buyer is the authenticated customer as resolved by the auth collaborator.
type Buyer struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Email                string           `json:"email"`
	TaxID                string           `json:"tax_id,omitempty"`
	HasApprovedCredit    bool             `json:"has_approved_credit"`
	CreditLimitRemaining *decimal.Decimal `json:"credit_limit_remaining,omitempty"`
	CompletedOrders      int              `json:"completed_orders"`
}

// Profile is B2B when a CNPJ (tax id) is on file, B2C otherwise.
func (b Buyer) Profile() BuyerProfile {
	if strings.TrimSpace(b.TaxID) != "" {
		return ProfileB2B
	}
	return ProfileB2C
}

// Address is a delivery address from the buyer's address book.
type Address struct {
	ID           string `json:"id"`
	BuyerID      string `json:"buyer_id"`
	Label        string `json:"label,omitempty"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	IsDefault    bool   `json:"is_default"`
}

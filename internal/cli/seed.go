package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"loja_checkout/internal/adapter/persistence/repository"
	"loja_checkout/internal/domain/entities"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Settings  map[string]yaml.Node `yaml:"settings"`
	Products  []seedProduct        `yaml:"products"`
	Buyers    []seedBuyer          `yaml:"buyers"`
	Sessions  []seedSession        `yaml:"sessions"`
	Addresses []seedAddress        `yaml:"addresses"`
}

type seedProduct struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	SKU    string `yaml:"sku"`
	Price  string `yaml:"price"`
	Stock  int    `yaml:"stock"`
	Active *bool  `yaml:"active"`
}

type seedBuyer struct {
	ID                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	Email                string `yaml:"email"`
	TaxID                string `yaml:"tax_id"`
	HasApprovedCredit    bool   `yaml:"has_approved_credit"`
	CreditLimitRemaining string `yaml:"credit_limit_remaining"`
	CompletedOrders      int    `yaml:"completed_orders"`
}

type seedSession struct {
	Token     string     `yaml:"token"`
	BuyerID   string     `yaml:"buyer_id"`
	ExpiresAt *time.Time `yaml:"expires_at"`
}

type seedAddress struct {
	ID           string `yaml:"id"`
	BuyerID      string `yaml:"buyer_id"`
	Label        string `yaml:"label"`
	Street       string `yaml:"street"`
	Number       string `yaml:"number"`
	Complement   string `yaml:"complement"`
	Neighborhood string `yaml:"neighborhood"`
	City         string `yaml:"city"`
	State        string `yaml:"state"`
	PostalCode   string `yaml:"postal_code"`
	IsDefault    bool   `yaml:"is_default"`
}

// seedTarget receives the decoded fixtures. The DynamoDB implementation
// writes them through the repositories the API reads from.
type seedTarget interface {
	PutSetting(ctx context.Context, key, value string) error
	PutProduct(ctx context.Context, p entities.Product) error
	PutBuyer(ctx context.Context, b entities.Buyer) error
	PutSession(ctx context.Context, token, buyerID string, expiresAt *time.Time) error
	CreateAddress(ctx context.Context, a entities.Address) error
}

type seedCounts struct {
	Settings, Products, Buyers, Sessions, Addresses int
}

func seedCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load settings, products, buyers, sessions and addresses into DynamoDB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readSeedFile(args[0])
			if err != nil {
				return err
			}
			cfg, client, err := connect(cmd.Context(), root)
			if err != nil {
				return err
			}
			target := &dynamoSeedTarget{
				settings:  repository.NewSettingsDynamoRepository(client, cfg.Tables),
				products:  repository.NewProductDynamoRepository(client, cfg.Tables),
				buyers:    repository.NewBuyerDynamoRepository(client, cfg.Tables),
				addresses: repository.NewAddressDynamoRepository(client, cfg.Tables),
			}
			n, err := applySeed(cmd.Context(), f, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded settings=%d products=%d buyers=%d sessions=%d addresses=%d\n",
				n.Settings, n.Products, n.Buyers, n.Sessions, n.Addresses)
			return nil
		},
	}
}

func readSeedFile(path string) (seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return seedFile{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

// applySeed validates every entry before the first write, so a bad file
// leaves the tables untouched.
func applySeed(ctx context.Context, f seedFile, target seedTarget) (seedCounts, error) {
	settings, err := flattenSettings(f.Settings)
	if err != nil {
		return seedCounts{}, err
	}
	products, err := toProducts(f.Products)
	if err != nil {
		return seedCounts{}, err
	}
	buyers, err := toBuyers(f.Buyers)
	if err != nil {
		return seedCounts{}, err
	}
	for i, s := range f.Sessions {
		if strings.TrimSpace(s.Token) == "" || strings.TrimSpace(s.BuyerID) == "" {
			return seedCounts{}, fmt.Errorf("sessions[%d]: token and buyer_id are required", i)
		}
	}
	addresses, err := toAddresses(f.Addresses)
	if err != nil {
		return seedCounts{}, err
	}

	var n seedCounts
	for key, value := range settings {
		if err := target.PutSetting(ctx, key, value); err != nil {
			return n, fmt.Errorf("setting %s: %w", key, err)
		}
		n.Settings++
	}
	for _, p := range products {
		if err := target.PutProduct(ctx, p); err != nil {
			return n, fmt.Errorf("product %s: %w", p.ID, err)
		}
		n.Products++
	}
	for _, b := range buyers {
		if err := target.PutBuyer(ctx, b); err != nil {
			return n, fmt.Errorf("buyer %s: %w", b.ID, err)
		}
		n.Buyers++
	}
	for _, s := range f.Sessions {
		if err := target.PutSession(ctx, s.Token, s.BuyerID, s.ExpiresAt); err != nil {
			return n, fmt.Errorf("session for buyer %s: %w", s.BuyerID, err)
		}
		n.Sessions++
	}
	for _, a := range addresses {
		if err := target.CreateAddress(ctx, a); err != nil {
			return n, fmt.Errorf("address %s: %w", a.ID, err)
		}
		n.Addresses++
	}

	log.Printf("[cli][seed] done settings=%d products=%d buyers=%d sessions=%d addresses=%d",
		n.Settings, n.Products, n.Buyers, n.Sessions, n.Addresses)
	return n, nil
}

func toProducts(in []seedProduct) ([]entities.Product, error) {
	out := make([]entities.Product, 0, len(in))
	for i, p := range in {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("products[%d]: id is required", i)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("products[%d]: invalid price %q", i, p.Price)
		}
		if p.Stock < 0 {
			return nil, fmt.Errorf("products[%d]: stock must not be negative", i)
		}
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		out = append(out, entities.Product{ID: p.ID, Name: p.Name, SKU: p.SKU, Price: price, Stock: p.Stock, Active: active})
	}
	return out, nil
}

func toBuyers(in []seedBuyer) ([]entities.Buyer, error) {
	out := make([]entities.Buyer, 0, len(in))
	for i, b := range in {
		if strings.TrimSpace(b.ID) == "" {
			return nil, fmt.Errorf("buyers[%d]: id is required", i)
		}
		buyer := entities.Buyer{
			ID:                b.ID,
			Name:              b.Name,
			Email:             b.Email,
			TaxID:             b.TaxID,
			HasApprovedCredit: b.HasApprovedCredit,
			CompletedOrders:   b.CompletedOrders,
		}
		if b.CreditLimitRemaining != "" {
			limit, err := decimal.NewFromString(b.CreditLimitRemaining)
			if err != nil {
				return nil, fmt.Errorf("buyers[%d]: invalid credit_limit_remaining %q", i, b.CreditLimitRemaining)
			}
			buyer.CreditLimitRemaining = &limit
		}
		out = append(out, buyer)
	}
	return out, nil
}

func toAddresses(in []seedAddress) ([]entities.Address, error) {
	out := make([]entities.Address, 0, len(in))
	for i, a := range in {
		if strings.TrimSpace(a.BuyerID) == "" {
			return nil, fmt.Errorf("addresses[%d]: buyer_id is required", i)
		}
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, entities.Address{
			ID:           id,
			BuyerID:      a.BuyerID,
			Label:        a.Label,
			Street:       a.Street,
			Number:       a.Number,
			Complement:   a.Complement,
			Neighborhood: a.Neighborhood,
			City:         a.City,
			State:        a.State,
			PostalCode:   a.PostalCode,
			IsDefault:    a.IsDefault,
		})
	}
	return out, nil
}

type dynamoSeedTarget struct {
	settings  *repository.SettingsDynamoRepository
	products  *repository.ProductDynamoRepository
	buyers    *repository.BuyerDynamoRepository
	addresses *repository.AddressDynamoRepository
}

func (t *dynamoSeedTarget) PutSetting(ctx context.Context, key, value string) error {
	return t.settings.Put(ctx, key, value)
}

func (t *dynamoSeedTarget) PutProduct(ctx context.Context, p entities.Product) error {
	return t.products.Put(ctx, p)
}

func (t *dynamoSeedTarget) PutBuyer(ctx context.Context, b entities.Buyer) error {
	return t.buyers.PutBuyer(ctx, b)
}

func (t *dynamoSeedTarget) PutSession(ctx context.Context, token, buyerID string, expiresAt *time.Time) error {
	return t.buyers.PutSession(ctx, token, buyerID, expiresAt)
}

// CreateAddress keeps addresses that already exist, so a seed file can be
// applied more than once.
func (t *dynamoSeedTarget) CreateAddress(ctx context.Context, a entities.Address) error {
	_, err := t.addresses.Create(ctx, a)
	var exists *types.ConditionalCheckFailedException
	if errors.As(err, &exists) {
		log.Printf("[cli][seed] address already present id=%s", a.ID)
		return nil
	}
	return err
}

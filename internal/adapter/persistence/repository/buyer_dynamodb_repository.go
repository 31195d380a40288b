package repository

import (
	"context"
	"time"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/infrastructure/config"
	"loja_checkout/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

type sessionItem struct {
	Token     string `dynamodbav:"token"`
	BuyerID   string `dynamodbav:"buyer_id"`
	ExpiresAt string `dynamodbav:"expires_at,omitempty"`
}

type buyerItem struct {
	ID                   string `dynamodbav:"id"`
	Name                 string `dynamodbav:"name"`
	Email                string `dynamodbav:"email"`
	TaxID                string `dynamodbav:"tax_id,omitempty"`
	HasApprovedCredit    bool   `dynamodbav:"has_approved_credit"`
	CreditLimitRemaining string `dynamodbav:"credit_limit_remaining,omitempty"`
	CompletedOrders      int    `dynamodbav:"completed_orders"`
}

// BuyerDynamoRepository resolves session tokens to buyers.
//
// Table requirements:
//   - sessions: PK token (string)
//   - buyers: PK id (string)
type BuyerDynamoRepository struct {
	ddb    dynamoAPI
	tables config.Tables
	now    func() time.Time
}

var _ interfaces.IBuyerResolver = (*BuyerDynamoRepository)(nil)

func NewBuyerDynamoRepository(ddb dynamoAPI, tables config.Tables) *BuyerDynamoRepository {
	return &BuyerDynamoRepository{ddb: ddb, tables: tables, now: time.Now}
}

func (r *BuyerDynamoRepository) ResolveBySessionToken(ctx context.Context, token string) (*entities.Buyer, error) {
	var s sessionItem
	found, err := r.getItem(ctx, r.tables.Sessions, "token", token, &s)
	if err != nil || !found {
		return nil, err
	}
	if exp := parseOptionalTime(s.ExpiresAt); exp != nil && !r.now().Before(*exp) {
		return nil, nil
	}

	var b buyerItem
	found, err = r.getItem(ctx, r.tables.Buyers, "id", s.BuyerID, &b)
	if err != nil || !found {
		return nil, err
	}
	buyer := fromBuyerItem(b)
	return &buyer, nil
}

func (r *BuyerDynamoRepository) getItem(ctx context.Context, table, keyAttr, key string, dst any) (bool, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			keyAttr: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return false, err
	}
	if len(out.Item) == 0 {
		return false, nil
	}
	return true, attributevalue.UnmarshalMap(out.Item, dst)
}

// PutBuyer and PutSession are used by the seeding command.
func (r *BuyerDynamoRepository) PutBuyer(ctx context.Context, b entities.Buyer) error {
	return r.put(ctx, r.tables.Buyers, toBuyerItem(b))
}

func (r *BuyerDynamoRepository) PutSession(ctx context.Context, token, buyerID string, expiresAt *time.Time) error {
	return r.put(ctx, r.tables.Sessions, sessionItem{Token: token, BuyerID: buyerID, ExpiresAt: formatOptionalTime(expiresAt)})
}

func (r *BuyerDynamoRepository) put(ctx context.Context, table string, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(table), Item: av})
	return err
}

func toBuyerItem(b entities.Buyer) buyerItem {
	it := buyerItem{
		ID:                b.ID,
		Name:              b.Name,
		Email:             b.Email,
		TaxID:             b.TaxID,
		HasApprovedCredit: b.HasApprovedCredit,
		CompletedOrders:   b.CompletedOrders,
	}
	if b.CreditLimitRemaining != nil {
		it.CreditLimitRemaining = decimalToString(*b.CreditLimitRemaining)
	}
	return it
}

func fromBuyerItem(it buyerItem) entities.Buyer {
	b := entities.Buyer{
		ID:                it.ID,
		Name:              it.Name,
		Email:             it.Email,
		TaxID:             it.TaxID,
		HasApprovedCredit: it.HasApprovedCredit,
		CompletedOrders:   it.CompletedOrders,
	}
	if it.CreditLimitRemaining != "" {
		if limit, err := decimal.NewFromString(it.CreditLimitRemaining); err == nil {
			b.CreditLimitRemaining = &limit
		}
	}
	return b
}

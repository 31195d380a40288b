package repository

import (
	"context"
	"errors"
	"log"
	"sort"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/infrastructure/config"
	"loja_checkout/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const conditionalCheckFailed = "ConditionalCheckFailed"

type orderItem struct {
	ID                   string `dynamodbav:"id"`
	OrderNumber          string `dynamodbav:"order_number"`
	BuyerID              string `dynamodbav:"buyer_id"`
	Profile              string `dynamodbav:"profile"`
	Subtotal             string `dynamodbav:"subtotal"`
	Discount             string `dynamodbav:"discount"`
	Shipping             string `dynamodbav:"shipping"`
	Tax                  string `dynamodbav:"tax"`
	Total                string `dynamodbav:"total"`
	PaymentMethod        string `dynamodbav:"payment_method"`
	PaymentStatus        string `dynamodbav:"payment_status"`
	ProviderCode         string `dynamodbav:"provider_code"`
	ProviderPaymentID    string `dynamodbav:"provider_payment_id"`
	PaymentReference     string `dynamodbav:"payment_reference"`
	Installments         int    `dynamodbav:"installments"`
	InvoiceDueDays       *int   `dynamodbav:"invoice_due_days,omitempty"`
	PaymentExpiresAt     string `dynamodbav:"payment_expires_at,omitempty"`
	Require3DS           bool   `dynamodbav:"require_3ds"`
	RequiresManualReview bool   `dynamodbav:"requires_manual_review"`
	AddressID            string `dynamodbav:"address_id"`
	Notes                string `dynamodbav:"notes,omitempty"`
	IdempotencyKey       string `dynamodbav:"idempotency_key,omitempty"`
	CreatedAt            string `dynamodbav:"created_at"`
}

type orderLineItem struct {
	OrderID   string `dynamodbav:"order_id"`
	Line      int    `dynamodbav:"line"`
	ProductID string `dynamodbav:"product_id"`
	Name      string `dynamodbav:"name"`
	SKU       string `dynamodbav:"sku"`
	UnitPrice string `dynamodbav:"unit_price"`
	Quantity  int    `dynamodbav:"quantity"`
	LineTotal string `dynamodbav:"line_total"`
}

type orderNumberGuard struct {
	OrderNumber string `dynamodbav:"order_number"`
	OrderID     string `dynamodbav:"order_id"`
	CreatedAt   string `dynamodbav:"created_at"`
}

type idempotencyGuard struct {
	Key       string `dynamodbav:"key"`
	BuyerID   string `dynamodbav:"buyer_id"`
	OrderID   string `dynamodbav:"order_id"`
	CreatedAt string `dynamodbav:"created_at"`
}

// OrderDynamoRepository persists orders in DynamoDB.
//
// Table requirements:
//   - orders: PK id (string), GSI buyer_id-index (PK: buyer_id)
//   - order_items: PK order_id (string), SK line (number)
//   - order_numbers: PK order_number (string)
//   - idempotency_keys: PK key (string)
//   - payment_attempts: PK id (string)
//
// The header, items, both guards and the checkout payment attempt are
// written in one TransactWriteItems call, so a failed condition leaves
// nothing behind and no order exists without its audit record.
type OrderDynamoRepository struct {
	ddb    dynamoAPI
	tables config.Tables
}

var _ interfaces.IOrderRepository = (*OrderDynamoRepository)(nil)

func NewOrderDynamoRepository(ddb dynamoAPI, tables config.Tables) *OrderDynamoRepository {
	return &OrderDynamoRepository{ddb: ddb, tables: tables}
}

func (r *OrderDynamoRepository) CreateWithItems(ctx context.Context, o entities.Order, attempt entities.PaymentAttempt) (entities.Order, error) {
	tx, guards, err := r.buildCreateTransaction(o, attempt)
	if err != nil {
		return entities.Order{}, err
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: tx})
	if err != nil {
		if conflict := classifyCancellation(err, guards); conflict != nil {
			return entities.Order{}, conflict
		}
		log.Printf("[checkout][repository] order transaction failed order_id=%s err=%v", o.ID, err)
		return entities.Order{}, err
	}
	return o, nil
}

// guardPositions records where each guard sits in the transaction so a
// cancellation reason can be traced back to it. -1 means absent.
type guardPositions struct {
	orderNumber int
	idempotency int
}

func (r *OrderDynamoRepository) buildCreateTransaction(o entities.Order, attempt entities.PaymentAttempt) ([]types.TransactWriteItem, guardPositions, error) {
	guards := guardPositions{orderNumber: -1, idempotency: -1}
	tx := make([]types.TransactWriteItem, 0, len(o.Items)+4)
	createdAt := formatTime(o.CreatedAt)

	put := func(table, keyAttr string, item any, guarded bool) error {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return err
		}
		p := &types.Put{TableName: aws.String(table), Item: av}
		if guarded {
			p.ConditionExpression = aws.String("attribute_not_exists(#pk)")
			p.ExpressionAttributeNames = map[string]string{"#pk": keyAttr}
			p.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld
		}
		tx = append(tx, types.TransactWriteItem{Put: p})
		return nil
	}

	guards.orderNumber = len(tx)
	if err := put(r.tables.OrderNumbers, "order_number", orderNumberGuard{OrderNumber: o.OrderNumber, OrderID: o.ID, CreatedAt: createdAt}, true); err != nil {
		return nil, guards, err
	}
	if o.IdempotencyKey != "" {
		guards.idempotency = len(tx)
		g := idempotencyGuard{Key: idempotencyRecordKey(o.BuyerID, o.IdempotencyKey), BuyerID: o.BuyerID, OrderID: o.ID, CreatedAt: createdAt}
		if err := put(r.tables.IdempotencyKeys, "key", g, true); err != nil {
			return nil, guards, err
		}
	}
	if err := put(r.tables.Orders, "id", toOrderItem(o), true); err != nil {
		return nil, guards, err
	}
	for _, it := range o.Items {
		if err := put(r.tables.OrderItems, "order_id", toOrderLineItem(it), false); err != nil {
			return nil, guards, err
		}
	}
	if err := put(r.tables.PaymentAttempts, "id", toPaymentAttemptItem(attempt), true); err != nil {
		return nil, guards, err
	}
	return tx, guards, nil
}

// classifyCancellation maps a cancelled transaction to the typed conflict
// errors. A taken idempotency key wins over a taken order number since
// retrying with a new number would fail again.
func classifyCancellation(err error, guards guardPositions) error {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil
	}
	failed := func(pos int) bool {
		return pos >= 0 && pos < len(tce.CancellationReasons) &&
			aws.ToString(tce.CancellationReasons[pos].Code) == conditionalCheckFailed
	}
	switch {
	case failed(guards.idempotency):
		return interfaces.ErrIdempotencyKeyConflict
	case failed(guards.orderNumber):
		return interfaces.ErrOrderNumberConflict
	}
	return nil
}

func (r *OrderDynamoRepository) GetByID(ctx context.Context, id string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.Orders),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var it orderItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Order{}, err
	}
	o := fromOrderItem(it)

	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return entities.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderDynamoRepository) GetByIdempotencyKey(ctx context.Context, buyerID, key string) (entities.Order, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tables.IdempotencyKeys),
		Key: map[string]types.AttributeValue{
			"key": &types.AttributeValueMemberS{Value: idempotencyRecordKey(buyerID, key)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Order{}, err
	}
	if len(out.Item) == 0 {
		return entities.Order{}, nil
	}

	var g idempotencyGuard
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return entities.Order{}, err
	}
	return r.GetByID(ctx, g.OrderID)
}

func (r *OrderDynamoRepository) listItems(ctx context.Context, orderID string) ([]entities.OrderItem, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tables.OrderItems),
		KeyConditionExpression: aws.String("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		},
		ConsistentRead: aws.Bool(true),
	})

	items := make([]entities.OrderItem, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it orderLineItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			items = append(items, fromOrderLineItem(it))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Line < items[j].Line })
	return items, nil
}

func idempotencyRecordKey(buyerID, key string) string {
	return buyerID + "#" + key
}

func toOrderItem(o entities.Order) orderItem {
	return orderItem{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		BuyerID:              o.BuyerID,
		Profile:              string(o.Profile),
		Subtotal:             decimalToString(o.Subtotal),
		Discount:             decimalToString(o.Discount),
		Shipping:             decimalToString(o.Shipping),
		Tax:                  decimalToString(o.Tax),
		Total:                decimalToString(o.Total),
		PaymentMethod:        string(o.PaymentMethod),
		PaymentStatus:        string(o.PaymentStatus),
		ProviderCode:         o.ProviderCode,
		ProviderPaymentID:    o.ProviderPaymentID,
		PaymentReference:     o.PaymentReference,
		Installments:         o.Installments,
		InvoiceDueDays:       o.InvoiceDueDays,
		PaymentExpiresAt:     formatOptionalTime(o.PaymentExpiresAt),
		Require3DS:           o.Require3DS,
		RequiresManualReview: o.RequiresManualReview,
		AddressID:            o.AddressID,
		Notes:                o.Notes,
		IdempotencyKey:       o.IdempotencyKey,
		CreatedAt:            formatTime(o.CreatedAt),
	}
}

func fromOrderItem(it orderItem) entities.Order {
	return entities.Order{
		ID:                   it.ID,
		OrderNumber:          it.OrderNumber,
		BuyerID:              it.BuyerID,
		Profile:              entities.BuyerProfile(it.Profile),
		Subtotal:             decimalFromString(it.Subtotal),
		Discount:             decimalFromString(it.Discount),
		Shipping:             decimalFromString(it.Shipping),
		Tax:                  decimalFromString(it.Tax),
		Total:                decimalFromString(it.Total),
		PaymentMethod:        entities.PaymentMethod(it.PaymentMethod),
		PaymentStatus:        entities.PaymentStatus(it.PaymentStatus),
		ProviderCode:         it.ProviderCode,
		ProviderPaymentID:    it.ProviderPaymentID,
		PaymentReference:     it.PaymentReference,
		Installments:         it.Installments,
		InvoiceDueDays:       it.InvoiceDueDays,
		PaymentExpiresAt:     parseOptionalTime(it.PaymentExpiresAt),
		Require3DS:           it.Require3DS,
		RequiresManualReview: it.RequiresManualReview,
		AddressID:            it.AddressID,
		Notes:                it.Notes,
		IdempotencyKey:       it.IdempotencyKey,
		CreatedAt:            parseTime(it.CreatedAt),
	}
}

func toOrderLineItem(it entities.OrderItem) orderLineItem {
	return orderLineItem{
		OrderID:   it.OrderID,
		Line:      it.Line,
		ProductID: it.ProductID,
		Name:      it.Name,
		SKU:       it.SKU,
		UnitPrice: it.UnitPrice.String(),
		Quantity:  it.Quantity,
		LineTotal: decimalToString(it.LineTotal),
	}
}

func fromOrderLineItem(it orderLineItem) entities.OrderItem {
	return entities.OrderItem{
		OrderID:   it.OrderID,
		Line:      it.Line,
		ProductID: it.ProductID,
		Name:      it.Name,
		SKU:       it.SKU,
		UnitPrice: decimalFromString(it.UnitPrice),
		Quantity:  it.Quantity,
		LineTotal: decimalFromString(it.LineTotal),
	}
}

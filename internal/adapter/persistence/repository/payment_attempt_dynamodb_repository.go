package repository

import (
	"context"
	"sort"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/infrastructure/config"
	"loja_checkout/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const paymentAttemptsOrderIDIndex = "order_id-index"

type paymentAttemptItem struct {
	ID             string  `dynamodbav:"id"`
	OrderID        string  `dynamodbav:"order_id"`
	Provider       string  `dynamodbav:"provider"`
	EventType      string  `dynamodbav:"event_type"`
	Status         string  `dynamodbav:"status"`
	ExternalID     string  `dynamodbav:"external_id"`
	IdempotencyKey *string `dynamodbav:"idempotency_key,omitempty"`
	Amount         string  `dynamodbav:"amount"`
	Payload        string  `dynamodbav:"payload,omitempty"`
	CreatedAt      string  `dynamodbav:"created_at"`
}

// PaymentAttemptDynamoRepository reads PaymentAttempt records from DynamoDB.
// Checkout attempts are written inside the order transaction.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: order_id-index (PK: order_id)
type PaymentAttemptDynamoRepository struct {
	ddb       dynamoAPI
	tableName string
}

var _ interfaces.IPaymentAttemptRepository = (*PaymentAttemptDynamoRepository)(nil)

func NewPaymentAttemptDynamoRepository(ddb dynamoAPI, tables config.Tables) *PaymentAttemptDynamoRepository {
	return &PaymentAttemptDynamoRepository{ddb: ddb, tableName: tables.PaymentAttempts}
}

// ListByOrderID returns the attempts of an order, oldest first.
func (r *PaymentAttemptDynamoRepository) ListByOrderID(ctx context.Context, orderID string) ([]entities.PaymentAttempt, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentAttemptsOrderIDIndex),
		KeyConditionExpression: aws.String("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		},
	})

	attempts := make([]entities.PaymentAttempt, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it paymentAttemptItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			attempts = append(attempts, fromPaymentAttemptItem(it))
		}
	}
	sort.SliceStable(attempts, func(i, j int) bool { return attempts[i].CreatedAt.Before(attempts[j].CreatedAt) })
	return attempts, nil
}

func toPaymentAttemptItem(a entities.PaymentAttempt) paymentAttemptItem {
	return paymentAttemptItem{
		ID:             a.ID,
		OrderID:        a.OrderID,
		Provider:       a.Provider,
		EventType:      a.EventType,
		Status:         string(a.Status),
		ExternalID:     a.ExternalID,
		IdempotencyKey: a.IdempotencyKey,
		Amount:         decimalToString(a.Amount),
		Payload:        string(a.Payload),
		CreatedAt:      formatTime(a.CreatedAt),
	}
}

func fromPaymentAttemptItem(it paymentAttemptItem) entities.PaymentAttempt {
	a := entities.PaymentAttempt{
		ID:             it.ID,
		OrderID:        it.OrderID,
		Provider:       it.Provider,
		EventType:      it.EventType,
		Status:         entities.PaymentStatus(it.Status),
		ExternalID:     it.ExternalID,
		IdempotencyKey: it.IdempotencyKey,
		Amount:         decimalFromString(it.Amount),
		CreatedAt:      parseTime(it.CreatedAt),
	}
	if it.Payload != "" {
		a.Payload = []byte(it.Payload)
	}
	return a
}

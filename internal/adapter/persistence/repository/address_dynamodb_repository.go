package repository

import (
	"context"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/infrastructure/config"
	"loja_checkout/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const addressesBuyerIDIndex = "buyer_id-index"

type addressItem struct {
	ID           string `dynamodbav:"id"`
	BuyerID      string `dynamodbav:"buyer_id"`
	Label        string `dynamodbav:"label,omitempty"`
	Street       string `dynamodbav:"street"`
	Number       string `dynamodbav:"number"`
	Complement   string `dynamodbav:"complement,omitempty"`
	Neighborhood string `dynamodbav:"neighborhood"`
	City         string `dynamodbav:"city"`
	State        string `dynamodbav:"state"`
	PostalCode   string `dynamodbav:"postal_code"`
	IsDefault    bool   `dynamodbav:"is_default"`
}

// AddressDynamoRepository persists the buyer address book.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: buyer_id-index (PK: buyer_id)
type AddressDynamoRepository struct {
	ddb       dynamoAPI
	tableName string
}

var _ interfaces.IAddressRepository = (*AddressDynamoRepository)(nil)

func NewAddressDynamoRepository(ddb dynamoAPI, tables config.Tables) *AddressDynamoRepository {
	return &AddressDynamoRepository{ddb: ddb, tableName: tables.Addresses}
}

func (r *AddressDynamoRepository) ListByBuyerID(ctx context.Context, buyerID string) ([]entities.Address, error) {
	p := dynamodb.NewQueryPaginator(r.ddb, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(addressesBuyerIDIndex),
		KeyConditionExpression: aws.String("buyer_id = :bid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bid": &types.AttributeValueMemberS{Value: buyerID},
		},
	})

	addresses := make([]entities.Address, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it addressItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			addresses = append(addresses, entities.Address(it))
		}
	}
	return addresses, nil
}

func (r *AddressDynamoRepository) Create(ctx context.Context, a entities.Address) (entities.Address, error) {
	av, err := attributevalue.MarshalMap(addressItem(a))
	if err != nil {
		return entities.Address{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		return entities.Address{}, err
	}
	return a, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"loja_checkout/internal/domain/entities"
	"loja_checkout/internal/infrastructure/config"
	"loja_checkout/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	batchGetMaxKeys        = 100
	batchGetMaxUnprocessed = 5

	// unprocessedBackoff is the first wait before resending unprocessed keys;
	// it doubles every round.
	unprocessedBackoff = 50 * time.Millisecond
)

type productItem struct {
	ID     string `dynamodbav:"id"`
	Name   string `dynamodbav:"name"`
	SKU    string `dynamodbav:"sku"`
	Price  string `dynamodbav:"price"`
	Stock  int    `dynamodbav:"stock"`
	Active bool   `dynamodbav:"active"`
}

// ProductDynamoRepository reads the catalog from DynamoDB.
//
// Table requirements:
//   - PK: id (string)
type ProductDynamoRepository struct {
	ddb       dynamoAPI
	tableName string
	backoff   time.Duration
}

var _ interfaces.IProductRepository = (*ProductDynamoRepository)(nil)

func NewProductDynamoRepository(ddb dynamoAPI, tables config.Tables) *ProductDynamoRepository {
	return &ProductDynamoRepository{ddb: ddb, tableName: tables.Products, backoff: unprocessedBackoff}
}

func (r *ProductDynamoRepository) GetByIDs(ctx context.Context, ids []string) ([]entities.Product, error) {
	products := make([]entities.Product, 0, len(ids))
	for start := 0; start < len(ids); start += batchGetMaxKeys {
		end := min(start+batchGetMaxKeys, len(ids))
		chunk, err := r.batchGet(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		products = append(products, chunk...)
	}
	return products, nil
}

func (r *ProductDynamoRepository) batchGet(ctx context.Context, ids []string) ([]entities.Product, error) {
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		})
	}
	request := map[string]types.KeysAndAttributes{
		r.tableName: {Keys: keys, ConsistentRead: aws.Bool(true)},
	}

	var products []entities.Product
	wait := r.backoff
	for round := 0; len(request) > 0; round++ {
		if round == batchGetMaxUnprocessed {
			return nil, fmt.Errorf("products batch get: %d keys still unprocessed", len(request[r.tableName].Keys))
		}
		if round > 0 {
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			wait *= 2
		}
		out, err := r.ddb.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Responses[r.tableName] {
			var it productItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			products = append(products, fromProductItem(it))
		}
		request = out.UnprocessedKeys
	}
	return products, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Put writes a catalog entry. Used by the seeding command.
func (r *ProductDynamoRepository) Put(ctx context.Context, p entities.Product) error {
	av, err := attributevalue.MarshalMap(toProductItem(p))
	if err != nil {
		return err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	return err
}

func toProductItem(p entities.Product) productItem {
	return productItem{
		ID:     p.ID,
		Name:   p.Name,
		SKU:    p.SKU,
		Price:  p.Price.String(),
		Stock:  p.Stock,
		Active: p.Active,
	}
}

func fromProductItem(it productItem) entities.Product {
	return entities.Product{
		ID:     it.ID,
		Name:   it.Name,
		SKU:    it.SKU,
		Price:  decimalFromString(it.Price),
		Stock:  it.Stock,
		Active: it.Active,
	}
}

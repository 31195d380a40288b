package repository

import (
	"context"

	"loja_checkout/internal/infrastructure/config"
	"loja_checkout/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type settingItem struct {
	Key   string `dynamodbav:"key"`
	Value string `dynamodbav:"value"`
}

// SettingsDynamoRepository reads the merchant key/value settings.
//
// Table requirements:
//   - PK: key (string)
//
// The table is small and read in full on every checkout so edits apply to
// the next request.
type SettingsDynamoRepository struct {
	ddb       dynamoAPI
	tableName string
}

var _ interfaces.ISettingsRepository = (*SettingsDynamoRepository)(nil)

func NewSettingsDynamoRepository(ddb dynamoAPI, tables config.Tables) *SettingsDynamoRepository {
	return &SettingsDynamoRepository{ddb: ddb, tableName: tables.Settings}
}

func (r *SettingsDynamoRepository) GetAll(ctx context.Context) (map[string]string, error) {
	p := dynamodb.NewScanPaginator(r.ddb, &dynamodb.ScanInput{
		TableName:      aws.String(r.tableName),
		ConsistentRead: aws.Bool(true),
	})

	settings := make(map[string]string)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var it settingItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			settings[it.Key] = it.Value
		}
	}
	return settings, nil
}

func (r *SettingsDynamoRepository) Put(ctx context.Context, key, value string) error {
	av, err := attributevalue.MarshalMap(settingItem{Key: key, Value: value})
	if err != nil {
		return err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	return err
}

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/abak-storefront/internal/aws"
)

// record is one storage entry in the DynamoDB table.
// Table key: context_id (PK) + storage_key (SK).
type record struct {
	ContextID  string    `dynamodbav:"context_id"`
	StorageKey string    `dynamodbav:"storage_key"`
	Value      string    `dynamodbav:"value"`
	UpdatedAt  time.Time `dynamodbav:"updated_at"`
}

// Dynamo stores every scope in a single DynamoDB table.
type Dynamo struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamo returns a DynamoDB backend bound to tableName.
func NewDynamo(client aws.DynamoDBAPI, tableName string) *Dynamo {
	return &Dynamo{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Scope returns the Storage of one browsing context.
func (d *Dynamo) Scope(contextID string) Storage {
	return &dynamoScope{d: d, id: contextID}
}

// Factory adapts Scope to a Factory.
func (d *Dynamo) Factory() Factory { return d.Scope }

type dynamoScope struct {
	d  *Dynamo
	id string
}

func (s *dynamoScope) key(storageKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"context_id":  &types.AttributeValueMemberS{Value: s.id},
		"storage_key": &types.AttributeValueMemberS{Value: storageKey},
	}
}

func (s *dynamoScope) GetItem(ctx context.Context, key string) (string, bool, error) {
	out, err := s.d.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.d.tableName,
		Key:            s.key(key),
		ConsistentRead: boolPtr(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return "", false, fmt.Errorf("unmarshal storage record: %w", err)
	}
	return rec.Value, true, nil
}

func (s *dynamoScope) SetItem(ctx context.Context, key, value string) error {
	item, err := attributevalue.MarshalMap(record{
		ContextID:  s.id,
		StorageKey: key,
		Value:      value,
		UpdatedAt:  s.d.nowFunc().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal storage record: %w", err)
	}
	if _, err := s.d.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.d.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (s *dynamoScope) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.d.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.d.tableName,
		Key:       s.key(key),
	}); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

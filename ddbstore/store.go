package ddbstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tether/store"
)

// API is the subset of the DynamoDB client used by Store.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Store is a store.Store backed by a DynamoDB table.
type Store struct {
	*store.Events

	client API
	config Config
}

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		Events: store.NewEvents(),
		client: client,
		config: config,
	}
}

// PrimaryKey returns the partition key attribute name.
func (s *Store) PrimaryKey() string {
	return s.config.PrimaryKey
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.config
}

// Has reports whether a live (not expired) item exists for key.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.config.TableName),
		Key:                  s.itemKey(key),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("#pk, #ttl"),
		ExpressionAttributeNames: map[string]string{
			"#pk":  s.config.PrimaryKey,
			"#ttl": s.config.TTLAttribute,
		},
	})
	if err != nil {
		return false, fmt.Errorf("get item: %w", err)
	}
	return result.Item != nil && !IsExpired(result.Item, s.config.TTLAttribute), nil
}

// Get returns the record for key, or store.ErrNotFound if it is missing or
// expired.
func (s *Store) Get(ctx context.Context, key string) (store.Record, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.TableName),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if result.Item == nil || IsExpired(result.Item, s.config.TTLAttribute) {
		return nil, fmt.Errorf("get %q: %w", key, store.ErrNotFound)
	}
	return s.unmarshalRecord(result.Item)
}

// Set merges patch into the item for key, creating it if absent.
func (s *Store) Set(ctx context.Context, key string, patch store.Record) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if err := s.update(ctx, key, patch); err != nil {
		return err
	}
	return s.Emit(store.EventModified, store.Change{Key: key, Value: patch.Clone()})
}

// Put merges record into the item named by its primary-key attribute.
func (s *Store) Put(ctx context.Context, record store.Record) error {
	key, err := store.KeyOf(record, s.config.PrimaryKey)
	if err != nil {
		return err
	}
	if err := s.update(ctx, key, record); err != nil {
		return err
	}
	return s.Emit(store.EventModified, store.Change{Key: key, Value: record.Clone()})
}

// Remove deletes the item for key immediately.
func (s *Store) Remove(ctx context.Context, key string) error {
	result, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.config.TableName),
		Key:          s.itemKey(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if len(result.Attributes) == 0 || IsExpired(result.Attributes, s.config.TTLAttribute) {
		return fmt.Errorf("remove %q: %w", key, store.ErrNotFound)
	}

	last, err := s.unmarshalRecord(result.Attributes)
	if err != nil {
		return err
	}
	return s.Emit(store.EventRemoved, store.Change{Key: key, Value: last})
}

// Expire marks the item for key as deleted by setting its TTL to now.
// DynamoDB TTL removes the item later; until then it reads as absent.
func (s *Store) Expire(ctx context.Context, key string) error {
	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.config.TableName),
		Key:                 s.itemKey(key),
		UpdateExpression:    aws.String("SET #ttl = :now"),
		ConditionExpression: aws.String("attribute_exists(#pk) AND attribute_not_exists(#ttl)"),
		ExpressionAttributeNames: map[string]string{
			"#pk":  s.config.PrimaryKey,
			"#ttl": s.config.TTLAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": nowValue(),
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		// Missing, or already has TTL (already deleted)
		if isConditionFailed(err) {
			return fmt.Errorf("expire %q: %w", key, store.ErrNotFound)
		}
		return fmt.Errorf("update item: %w", err)
	}

	last, err := s.unmarshalRecord(result.Attributes)
	if err != nil {
		return err
	}
	return s.Emit(store.EventRemoved, store.Change{Key: key, Value: last})
}

// update merges patch into a live item, or inserts it. An expired item is
// replaced instead of merged, so fields written before Expire stay gone.
func (s *Store) update(ctx context.Context, key string, patch store.Record) error {
	err := s.merge(ctx, key, patch)
	if !isConditionFailed(err) {
		return err
	}

	err = s.replace(ctx, key, patch)
	if !isConditionFailed(err) {
		return err
	}

	// Revived by another writer in between; it is live again, so merge
	return s.merge(ctx, key, patch)
}

// merge applies patch with UpdateItem unless the item is expired.
func (s *Store) merge(ctx context.Context, key string, patch store.Record) error {
	input, err := s.buildUpdate(key, patch)
	if err != nil {
		return err
	}
	if input.ExpressionAttributeValues == nil {
		input.ExpressionAttributeValues = map[string]types.AttributeValue{}
	}
	input.ExpressionAttributeValues[":now"] = nowValue()
	input.ConditionExpression = aws.String("attribute_not_exists(#ttl) OR #ttl > :now")

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// replace overwrites an expired item with key plus patch.
func (s *Store) replace(ctx context.Context, key string, patch store.Record) error {
	input, err := s.buildPut(key, patch)
	if err != nil {
		return err
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// buildUpdate translates a patch into an UpdateItem input. Every patched
// field becomes a SET clause; the TTL is always removed so a write cancels a
// pending expiry.
func (s *Store) buildUpdate(key string, patch store.Record) (*dynamodb.UpdateItemInput, error) {
	var setClauses []string
	exprNames := map[string]string{"#ttl": s.config.TTLAttribute}
	exprValues := map[string]types.AttributeValue{}

	i := 0
	for _, field := range slices.Sorted(maps.Keys(patch)) {
		// Skip managed attributes
		if field == s.config.PrimaryKey || field == s.config.TTLAttribute {
			continue
		}
		av, err := attributevalue.Marshal(patch[field])
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", field, err)
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = field
		exprValues[valueKey] = av
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	updateExpr := "REMOVE #ttl"
	if len(setClauses) > 0 {
		updateExpr = "SET " + strings.Join(setClauses, ", ") + " " + updateExpr
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                aws.String(s.config.TableName),
		Key:                      s.itemKey(key),
		UpdateExpression:         aws.String(updateExpr),
		ExpressionAttributeNames: exprNames,
	}
	if len(exprValues) > 0 {
		input.ExpressionAttributeValues = exprValues
	}
	return input, nil
}

// buildPut translates a patch into a PutItem input that only succeeds while
// the stored item is absent or expired.
func (s *Store) buildPut(key string, patch store.Record) (*dynamodb.PutItemInput, error) {
	item := s.itemKey(key)
	for field, v := range patch {
		if field == s.config.PrimaryKey || field == s.config.TTLAttribute {
			continue
		}
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal field %q: %w", field, err)
		}
		item[field] = av
	}

	return &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#pk) OR #ttl <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#pk":  s.config.PrimaryKey,
			"#ttl": s.config.TTLAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": nowValue(),
		},
	}, nil
}

// itemKey builds the DynamoDB key for a record key.
func (s *Store) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		s.config.PrimaryKey: &types.AttributeValueMemberS{Value: key},
	}
}

// unmarshalRecord converts a DynamoDB item to a Record without the TTL attribute.
func (s *Store) unmarshalRecord(item map[string]types.AttributeValue) (store.Record, error) {
	var m map[string]any
	if err := attributevalue.UnmarshalMap(item, &m); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	rec := store.Record(m)
	delete(rec, s.config.TTLAttribute)
	if rec == nil {
		rec = store.Record{}
	}
	return rec, nil
}

// isConditionFailed reports whether err is a failed DynamoDB condition.
func isConditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

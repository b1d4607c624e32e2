package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// dynamoItem is the table row. expiresAt is the table's TTL attribute.
type dynamoItem struct {
	SessionID string `dynamodbav:"sessionId"`
	Payload   string `dynamodbav:"payload"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

// DynamoStore keeps sessions in a DynamoDB table keyed by sessionId.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// NewDynamoStore builds a store backed by the provided DynamoDB client.
func NewDynamoStore(client dynamoAPI, tableName string, ttl time.Duration) *DynamoStore {
	if client == nil {
		panic("session: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("session: table name cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DynamoStore{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

func (s *DynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoStore) Save(ctx context.Context, state *State) error {
	if state == nil || state.ID == "" {
		return errors.New("session: id required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	now := s.now().UTC()
	item, err := attributevalue.MarshalMap(dynamoItem{
		SessionID: state.ID,
		Payload:   string(data),
		UpdatedAt: now.Format(time.RFC3339Nano),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("session: marshal item: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("session: put item: %w", err)
	}
	return nil
}

// Get loads a session. DynamoDB deletes expired rows lazily, so an expired
// row is treated as missing.
func (s *DynamoStore) Get(ctx context.Context, id string) (*State, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("session: get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("session: unmarshal item: %w", err)
	}
	if item.ExpiresAt > 0 && s.now().Unix() >= item.ExpiresAt {
		return nil, ErrNotFound
	}
	var state State
	if err := json.Unmarshal([]byte(item.Payload), &state); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &state, nil
}

func (s *DynamoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(id),
	}); err != nil {
		return fmt.Errorf("session: delete item: %w", err)
	}
	return nil
}

var (
	_ Store = (*DynamoStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

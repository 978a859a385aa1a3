package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/jobilist/batch-checkout/internal/platform"
)

// ErrAlreadyExists indicates a checkout with the same order id is present.
var ErrAlreadyExists = errors.New("checkout already exists")

// ErrStatusMismatch indicates a conditional status transition failed because
// the checkout was not in the expected status.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// ErrNotFound indicates no checkout exists for the order id.
var ErrNotFound = errors.New("checkout not found")

// Store encapsulates operations on the checkouts table.
type Store struct {
	client    platform.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a checkout Store bound to a table.
func NewStore(client platform.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a fresh checkout in StatusCreated. The order id is the
// primary key; a second create for the same id returns ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, c Checkout) error {
	now := s.nowFunc()
	if c.Status == "" {
		c.Status = StatusCreated
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal checkout: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Get fetches a checkout by order id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Checkout, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var c Checkout
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("unmarshal checkout: %w", err)
	}
	return &c, nil
}

// Confirm moves a checkout CREATED -> CONFIRMED and records the payment id.
// The conditional write doubles as the one-call guard for the verification
// endpoint: a duplicate confirmation finds the status already advanced and
// gets ErrStatusMismatch.
func (s *Store) Confirm(ctx context.Context, orderID, paymentID string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :new, payment_id = :pid, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: StatusConfirmed},
			":pid":      &types.AttributeValueMemberS{Value: paymentID},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":expected": &types.AttributeValueMemberS{Value: StatusCreated},
		},
		ConditionExpression: awsString("#s = :expected"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item (confirm): %w", err)
	}
	return nil
}

// UpdateStatus conditionally updates a checkout status from expected to
// newStatus. Returns ErrStatusMismatch if the condition failed.
func (s *Store) UpdateStatus(ctx context.Context, orderID, expectedStatus, newStatus string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: newStatus},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":expected": &types.AttributeValueMemberS{Value: expectedStatus},
		},
		ConditionExpression: awsString("#s = :expected"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// RecordVerificationFailure bumps the failed-verification counter and stores
// the rejection note. The status is left untouched: the order id stays valid
// and the buyer may retry payment. The existence condition matters because an
// unconditioned UpdateItem upserts; without it a rejection for a made-up order
// id would write a ghost item. Returns ErrNotFound for an unknown order.
func (s *Store) RecordVerificationFailure(ctx context.Context, orderID, note string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET failed_verifications = if_not_exists(failed_verifications, :zero) + :inc, note = :n, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
			":n":    &types.AttributeValueMemberS{Value: note},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
		ReturnValues:        types.ReturnValueUpdatedNew,
	}
	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrNotFound
		}
		return fmt.Errorf("record verification failure: %w", err)
	}
	return nil
}

// ExpireStale scans for checkouts still CREATED whose gateway window deadline
// has passed and marks them EXPIRED. Returns the number expired. A checkout
// that advances concurrently loses the conditional write and is skipped.
func (s *Store) ExpireStale(ctx context.Context) (int, error) {
	now := s.nowFunc()
	out, err := s.client.Scan(ctx, &dyn.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: awsString("#s = :created AND expires_at < :now"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":created": &types.AttributeValueMemberS{Value: StatusCreated},
			":now":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("scan stale checkouts: %w", err)
	}

	expired := 0
	for _, item := range out.Items {
		var c Checkout
		if err := attributevalue.UnmarshalMap(item, &c); err != nil {
			return expired, fmt.Errorf("unmarshal checkout: %w", err)
		}
		err := s.UpdateStatus(ctx, c.OrderID, StatusCreated, StatusExpired)
		if errors.Is(err, ErrStatusMismatch) {
			continue
		}
		if err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func awsString(s string) *string { return &s }

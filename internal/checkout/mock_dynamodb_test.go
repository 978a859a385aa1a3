package checkout

import (
	"context"
	"errors"
	"strconv"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory stand-in for the checkouts table. It
// implements just enough of the store's expressions to exercise the
// conditional transitions; it is not production-grade.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func pkOf(attrs map[string]types.AttributeValue) (string, error) {
	v, ok := attrs["order_id"]
	if !ok {
		return "", errors.New("missing order_id")
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("order_id is not a string")
	}
	return s.Value, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk, err := pkOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(order_id)" {
		if _, exists := m.items[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, exists := m.items[pk]

	if params.ConditionExpression != nil {
		switch *params.ConditionExpression {
		case "attribute_exists(order_id)":
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case "#s = :expected":
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
			curr, ok := item["status"].(*types.AttributeValueMemberS)
			expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS)
			if !ok || curr.Value != expected.Value {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}
	if !exists {
		// unconditional update upserts, as DynamoDB does
		item = map[string]types.AttributeValue{"order_id": params.Key["order_id"]}
	}

	if v, ok := params.ExpressionAttributeValues[":new"]; ok {
		item["status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":pid"]; ok {
		item["payment_id"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["updated_at"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":n"]; ok {
		item["note"] = v
	}
	if _, ok := params.ExpressionAttributeValues[":inc"]; ok {
		n := 0
		if curr, ok := item["failed_verifications"].(*types.AttributeValueMemberN); ok {
			n, _ = strconv.Atoi(curr.Value)
		}
		item["failed_verifications"] = &types.AttributeValueMemberN{Value: strconv.Itoa(n + 1)}
	}

	m.items[pk] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// supports only the reaper's filter: #s = :created AND expires_at < :now
	created := params.ExpressionAttributeValues[":created"].(*types.AttributeValueMemberS).Value
	cutoff, err := strconv.ParseInt(params.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN).Value, 10, 64)
	if err != nil {
		return nil, err
	}

	out := &dyn.ScanOutput{}
	for _, item := range m.items {
		st, ok := item["status"].(*types.AttributeValueMemberS)
		if !ok || st.Value != created {
			continue
		}
		expAttr, ok := item["expires_at"].(*types.AttributeValueMemberN)
		if !ok {
			continue
		}
		exp, err := strconv.ParseInt(expAttr.Value, 10, 64)
		if err != nil {
			continue
		}
		if exp < cutoff {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

package dynamodb

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu         sync.RWMutex
	items      map[string]map[string]types.AttributeValue // ref -> item
	consistent []bool
	err        error
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	key := params.Item[KeyAttribute].(*types.AttributeValueMemberS).Value
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	m.consistent = append(m.consistent, params.ConsistentRead != nil && *params.ConsistentRead)
	key := params.Key[KeyAttribute].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.items[key]}, nil
}

func TestSource_StoreFetch(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	src := New(client, "catalog-docs", WithConsistentRead())

	doc := catalog.Document{ID: "g", Type: "group", Name: "Lineup", Members: []catalog.Document{{ID: "a", Name: "Act"}}}
	require.NoError(t, src.Store(ctx, "groups/lineup.lz4", doc))

	got, err := src.Fetch(ctx, "groups/lineup.lz4")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	assert.Equal(t, []bool{true}, client.consistent)
}

func TestSource_StringAttribute(t *testing.T) {
	client := newMockDDBClient()
	client.items["r"] = map[string]types.AttributeValue{
		KeyAttribute:      &types.AttributeValueMemberS{Value: "r"},
		DocumentAttribute: &types.AttributeValueMemberS{Value: `{"id":"t","name":"Target"}`},
	}

	got, err := New(client, "t").Fetch(context.Background(), "r")
	require.NoError(t, err)
	assert.Equal(t, "Target", got.Name)
}

func TestSource_Errors(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	src := New(client, "t")

	_, err := src.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, resolver.ErrNotFound)

	client.items["bare"] = map[string]types.AttributeValue{
		KeyAttribute: &types.AttributeValueMemberS{Value: "bare"},
	}
	_, err = src.Fetch(ctx, "bare")
	assert.ErrorIs(t, err, catalog.ErrInvalidDocument)

	client.err = errors.New("ProvisionedThroughputExceededException")
	_, err = src.Fetch(ctx, "bare")
	assert.ErrorIs(t, err, client.err)
}

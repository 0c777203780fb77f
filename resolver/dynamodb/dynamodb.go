// Package dynamodb provides a resolver.Source reading documents from a
// DynamoDB table.
//
// Table schema:
//   - Partition key: ref (string)
//   - Attribute document (binary): the encoded, optionally compressed document
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name catalog-docs \
//	  --attribute-definitions AttributeName=ref,AttributeType=S \
//	  --key-schema AttributeName=ref,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chozen2see/catalogsearch/catalog"
	"github.com/chozen2see/catalogsearch/codec"
	"github.com/chozen2see/catalogsearch/resolver"
)

const (
	// KeyAttribute is the partition key attribute.
	KeyAttribute = "ref"
	// DocumentAttribute holds the encoded document.
	DocumentAttribute = "document"
)

// Client is the interface for DynamoDB operations.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Source reads documents from a DynamoDB table.
type Source struct {
	client     Client
	tableName  string
	codec      codec.Codec
	consistent bool
}

// Option configures a Source.
type Option func(*Source)

// WithCodec sets the document codec.
func WithCodec(c codec.Codec) Option {
	return func(s *Source) { s.codec = c }
}

// WithConsistentRead enables strongly consistent reads.
func WithConsistentRead() Option {
	return func(s *Source) { s.consistent = true }
}

// New creates a Source over the given table.
func New(client Client, tableName string, opts ...Option) *Source {
	s := &Source{
		client:    client,
		tableName: tableName,
		codec:     codec.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig loads the default AWS configuration and creates a Source.
func NewFromConfig(ctx context.Context, tableName string, opts ...Option) (*Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), tableName, opts...), nil
}

// Fetch reads the document stored under key.
func (s *Source) Fetch(ctx context.Context, key string) (catalog.Document, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			KeyAttribute: &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(s.consistent),
	})
	if err != nil {
		return catalog.Document{}, fmt.Errorf("failed to get %q from DynamoDB: %w", key, err)
	}
	if len(out.Item) == 0 {
		return catalog.Document{}, fmt.Errorf("%w: %s", resolver.ErrNotFound, key)
	}

	var data []byte
	switch v := out.Item[DocumentAttribute].(type) {
	case *types.AttributeValueMemberB:
		data = v.Value
	case *types.AttributeValueMemberS:
		data = []byte(v.Value)
	default:
		return catalog.Document{}, fmt.Errorf("%w: item %q has no %s attribute", catalog.ErrInvalidDocument, key, DocumentAttribute)
	}

	var d catalog.Document
	if err := catalog.DecodeDocument(s.codec, key, data, &d); err != nil {
		return catalog.Document{}, err
	}
	return d, nil
}

// Store writes d under key, for seeding.
func (s *Source) Store(ctx context.Context, key string, d catalog.Document) error {
	data, err := catalog.EncodeDocument(s.codec, key, d)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			KeyAttribute:      &types.AttributeValueMemberS{Value: key},
			DocumentAttribute: &types.AttributeValueMemberB{Value: data},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put %q to DynamoDB: %w", key, err)
	}
	return nil
}

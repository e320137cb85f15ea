// Package ddb provides a DynamoDB-backed atomic counter for title sequences.
package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UpdateItemAPI is the DynamoDB call the counter uses.
type UpdateItemAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Counter allocates increasing numbers per key in one table.
type Counter struct {
	DB    UpdateItemAPI
	Table string
}

type counterKey struct {
	PK string `dynamodbav:"PK"`
}

type counterItem struct {
	Seq       int    `dynamodbav:"seq"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// Next atomically increments the counter for key and returns the new value.
// A counter that does not exist yet starts from floor, so the first call
// returns floor+1.
func (c *Counter) Next(ctx context.Context, key string, floor int) (int, error) {
	k, err := attributevalue.MarshalMap(counterKey{PK: MakeKey(key)})
	if err != nil {
		return 0, err
	}
	vals, err := attributevalue.MarshalMap(map[string]any{
		":count": floor,
		":one":   1,
		":now":   NowISO(),
	})
	if err != nil {
		return 0, err
	}
	out, err := c.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 awsStr(c.Table),
		Key:                       k,
		UpdateExpression:          awsStr("SET seq = if_not_exists(seq, :count) + :one, updated_at = :now"),
		ExpressionAttributeValues: vals,
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("ddb: increment %s: %w", key, err)
	}
	var item counterItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return 0, fmt.Errorf("ddb: decode counter: %w", err)
	}
	if item.Seq <= 0 {
		return 0, fmt.Errorf("ddb: counter %s returned %d", key, item.Seq)
	}
	return item.Seq, nil
}

// awsStr is a helper to get a pointer to a string.
func awsStr(s string) *string { return &s }

// NowISO returns the current time in ISO8601 format.
func NowISO() string { return time.Now().UTC().Format(time.RFC3339) }

// MakeKey builds the partition key of a sequence counter.
func MakeKey(key string) string { return "SEQ#" + key }

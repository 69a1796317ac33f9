package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
)

const tenantCreatedAtGSI = "tenant_id-created_at-index"

// GetTransaction retrieves a transaction from DynamoDB by its ID. Transactions
// belonging to a different tenant are reported as absent so lookups cannot
// leak across tenants.
func (s *Store) GetTransaction(ctx context.Context, tenantID, txID string) (*models.Transaction, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": txID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.TransactionsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrTransactionNotFound
	}

	var tx models.Transaction
	if err := attributevalue.UnmarshalMap(result.Item, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}

	if tx.TenantID != tenantID {
		return nil, storage.ErrTransactionNotFound
	}

	return &tx, nil
}

// FindTransactionByReference resolves a reference key through its marker row
// and returns the transaction that claimed it.
func (s *Store) FindTransactionByReference(ctx context.Context, tenantID string, ref models.Reference, reason models.Reason) (*models.Transaction, error) {
	refKey := models.ReferenceKey(tenantID, ref, reason)
	if refKey == "" {
		return nil, storage.ErrTransactionNotFound
	}

	key, err := attributevalue.MarshalMap(map[string]string{"id": refMarkerPrefix + refKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reference key: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.TransactionsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get reference marker from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrTransactionNotFound
	}

	var marker refMarker
	if err := attributevalue.UnmarshalMap(result.Item, &marker); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reference marker: %w", err)
	}

	return s.GetTransaction(ctx, tenantID, marker.TransactionID)
}

// QueryTransactions pages through a tenant's history on the tenant GSI,
// newest first. Time bounds ride on the sort key; type and reason narrow the
// page through a filter expression.
func (s *Store) QueryTransactions(ctx context.Context, tenantID string, q storage.TransactionQuery) (*storage.TransactionPage, error) {
	keyCond := "tenant_id = :tenant_id"
	exprValues := map[string]types.AttributeValue{
		":tenant_id": &types.AttributeValueMemberS{Value: tenantID},
	}
	exprNames := map[string]string{}

	if !q.From.IsZero() {
		fromAV, err := attributevalue.Marshal(q.From)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal query lower bound: %w", err)
		}
		exprValues[":from"] = fromAV
	}
	if !q.To.IsZero() {
		toAV, err := attributevalue.Marshal(q.To)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal query upper bound: %w", err)
		}
		exprValues[":to"] = toAV
	}
	switch {
	case !q.From.IsZero() && !q.To.IsZero():
		keyCond += " AND created_at BETWEEN :from AND :to"
	case !q.From.IsZero():
		keyCond += " AND created_at >= :from"
	case !q.To.IsZero():
		keyCond += " AND created_at <= :to"
	}

	var filters []string
	if q.Type != "" {
		filters = append(filters, "#type = :type")
		exprNames["#type"] = "type"
		exprValues[":type"] = &types.AttributeValueMemberS{Value: string(q.Type)}
	}
	if q.Reason != "" {
		filters = append(filters, "#reason = :reason")
		exprNames["#reason"] = "reason"
		exprValues[":reason"] = &types.AttributeValueMemberS{Value: string(q.Reason)}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = storage.DefaultPageSize
	}

	startKey, err := decodeCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.TransactionsTableName),
		IndexName:                 aws.String(tenantCreatedAtGSI),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: exprValues,
		ScanIndexForward:          aws.Bool(false), // Sort by created_at in descending order
		Limit:                     aws.Int32(limit),
		ExclusiveStartKey:         startKey,
	}
	if len(exprNames) > 0 {
		input.ExpressionAttributeNames = exprNames
	}
	if len(filters) > 0 {
		input.FilterExpression = aws.String(strings.Join(filters, " AND "))
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction history: %w", err)
	}

	var transactions []models.Transaction
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &transactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}

	nextCursor, err := encodeCursor(result.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}

	return &storage.TransactionPage{Transactions: transactions, NextCursor: nextCursor}, nil
}

package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/freightdesk/wallet-ledger/pkg/models"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
)

// CreateAccount creates a new account record in DynamoDB.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	accountAV, err := attributevalue.MarshalMap(account)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.AccountsTableName),
		Item:                accountAV,
		ConditionExpression: aws.String("attribute_not_exists(tenant_id)"), // Prevent overwriting existing accounts.
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, storage.ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create account in DynamoDB: %w", err)
	}

	return account, nil
}

// GetAccount retrieves a tenant's account from DynamoDB.
func (s *Store) GetAccount(ctx context.Context, tenantID string) (*models.Account, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"tenant_id": tenantID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account tenant ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.AccountsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get account from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrAccountNotFound
	}

	var account models.Account
	if err := attributevalue.UnmarshalMap(result.Item, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}

// ListAccounts retrieves all accounts from DynamoDB, following scan pagination
// until the table is exhausted.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	var startKey map[string]types.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:         aws.String(s.AccountsTableName),
			ExclusiveStartKey: startKey,
		}

		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accounts table: %w", err)
		}

		var page []models.Account
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
		}
		accounts = append(accounts, page...)

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	return accounts, nil
}

// UpdateLowBalanceThreshold sets the tenant's alerting threshold. The version
// token is left alone so the transaction log stays the only driver of version
// order.
func (s *Store) UpdateLowBalanceThreshold(ctx context.Context, tenantID string, threshold int64) error {
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.AccountsTableName),
		Key:                 map[string]types.AttributeValue{"tenant_id": &types.AttributeValueMemberS{Value: tenantID}},
		UpdateExpression:    aws.String("SET low_balance_threshold = :threshold, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(tenant_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":threshold": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", threshold)},
			":now":       nowAV,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrAccountNotFound
		}
		return fmt.Errorf("failed to update low balance threshold: %w", err)
	}

	return nil
}

// SetAccountStatus moves the account between active and disabled. The version
// token is left alone, same as threshold updates.
func (s *Store) SetAccountStatus(ctx context.Context, tenantID string, status models.AccountStatus) error {
	nowAV, err := attributevalue.Marshal(time.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.AccountsTableName),
		Key:                 map[string]types.AttributeValue{"tenant_id": &types.AttributeValueMemberS{Value: tenantID}},
		UpdateExpression:    aws.String("SET #status = :status, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(tenant_id)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
			":now":    nowAV,
		},
	}

	_, err = s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrAccountNotFound
		}
		return fmt.Errorf("failed to update account status: %w", err)
	}

	return nil
}

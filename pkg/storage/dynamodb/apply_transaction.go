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

// refMarkerPrefix namespaces reference marker rows inside the transactions
// table, keeping them apart from transaction IDs (which are UUIDs).
const refMarkerPrefix = "ref#"

// refMarker claims a reference key. It deliberately has no tenant_id attribute
// so it never shows up in the tenant history GSI.
type refMarker struct {
	ID            string    `dynamodbav:"id"`
	TransactionID string    `dynamodbav:"transaction_id"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
}

// ApplyTransaction atomically updates the account row and appends the
// transaction record. The account update is conditioned on the version token
// from the snapshot the caller computed the mutation against, and on the
// account still being active; if either check fails nothing is written.
// Transactions carrying a RefKey also claim a marker row in the same commit,
// which is what makes reference idempotency hold under concurrent writers.
func (s *Store) ApplyTransaction(ctx context.Context, account *models.Account, tx *models.Transaction) (*models.Account, error) {
	now := time.Now()

	txAV, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	newBalanceAV, err := attributevalue.Marshal(tx.BalanceAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal balance: %w", err)
	}

	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}

	items := []types.TransactWriteItem{
		{
			// Operation 1: move the account balance, guarded by the version token.
			Update: &types.Update{
				TableName: aws.String(s.AccountsTableName),
				Key: map[string]types.AttributeValue{
					"tenant_id": &types.AttributeValueMemberS{Value: account.TenantID},
				},
				UpdateExpression:    aws.String("SET balance = :new_balance, version = version + :inc, updated_at = :now"),
				ConditionExpression: aws.String("version = :version AND #status = :active"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":new_balance": newBalanceAV,
					":version":     &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", account.Version)},
					":inc":         &types.AttributeValueMemberN{Value: "1"},
					":now":         nowAV,
					":active":      &types.AttributeValueMemberS{Value: string(models.AccountActive)},
				},
			},
		},
		{
			// Operation 2: append the transaction record.
			Put: &types.Put{
				TableName:           aws.String(s.TransactionsTableName),
				Item:                txAV,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		},
	}

	if tx.RefKey != "" {
		marker := refMarker{
			ID:            refMarkerPrefix + tx.RefKey,
			TransactionID: tx.ID,
			CreatedAt:     now,
		}
		markerAV, err := attributevalue.MarshalMap(marker)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reference marker: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			// Operation 3: claim the reference key.
			Put: &types.Put{
				TableName:           aws.String(s.TransactionsTableName),
				Item:                markerAV,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		})
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for i, reason := range tce.CancellationReasons {
				if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
					continue
				}
				switch i {
				case 0:
					return nil, storage.ErrVersionConflict
				case 2:
					return nil, storage.ErrReferenceExists
				}
			}
		}
		return nil, fmt.Errorf("failed to execute ledger transaction: %w", err)
	}

	updated := *account
	updated.Balance = tx.BalanceAfter
	updated.Version = account.Version + 1
	updated.UpdatedAt = now
	return &updated, nil
}

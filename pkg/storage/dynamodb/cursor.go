package dynamodb

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/freightdesk/wallet-ledger/pkg/storage"
)

// pageCursor carries the key attributes DynamoDB needs to resume a history
// query: the GSI keys plus the table key.
type pageCursor struct {
	TenantID  string    `json:"tenant_id" dynamodbav:"tenant_id"`
	ID        string    `json:"id" dynamodbav:"id"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

func encodeCursor(lastKey map[string]types.AttributeValue) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}

	var c pageCursor
	if err := attributevalue.UnmarshalMap(lastKey, &c); err != nil {
		return "", fmt.Errorf("failed to unmarshal page key: %w", err)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal page cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(cursor string) (map[string]types.AttributeValue, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64", storage.ErrInvalidCursor)
	}

	var c pageCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", storage.ErrInvalidCursor)
	}

	key, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal page key: %w", err)
	}

	return key, nil
}

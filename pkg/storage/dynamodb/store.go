package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/freightdesk/wallet-ledger/pkg/storage"
)

// DynamoDBAPI captures the subset of the DynamoDB client the store uses.
// Tests substitute a generated mock for the real client.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
//
// Accounts live in their own table keyed by tenant_id. Transactions live in a
// second table keyed by id, with a tenant_id/created_at GSI for history reads.
// Reference marker rows share the transactions table under a "ref#" key prefix;
// they carry no tenant_id attribute so the history GSI never sees them.
type Store struct {
	Client                DynamoDBAPI
	AccountsTableName     string
	TransactionsTableName string
}

// New creates a new Store.
func New(client DynamoDBAPI, accountsTable, transactionsTable string) *Store {
	return &Store{
		Client:                client,
		AccountsTableName:     accountsTable,
		TransactionsTableName: transactionsTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

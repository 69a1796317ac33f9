package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/freightdesk/wallet-ledger/pkg/models"
	dynamodbstore "github.com/freightdesk/wallet-ledger/pkg/storage/dynamodb"
	"github.com/freightdesk/wallet-ledger/pkg/wallet"
)

var ledger *wallet.Ledger

// remittanceEvent is the message the payments pipeline drops on the queue
// once a carrier pays out collected COD amounts for a tenant. Amount is in
// the smallest currency unit.
type remittanceEvent struct {
	TenantID     string `json:"tenant_id"`
	Amount       int64  `json:"amount"`
	RemittanceID string `json:"remittance_id"`
}

func init() {
	// Load environment variables from .env file (useful for local testing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize dependencies once.
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	accountsTable := os.Getenv("DYNAMODB_ACCOUNTS_TABLE_NAME")
	transactionsTable := os.Getenv("DYNAMODB_TRANSACTIONS_TABLE_NAME")
	if accountsTable == "" || transactionsTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	store := dynamodbstore.New(dynamodb.NewFromConfig(cfg), accountsTable, transactionsTable)
	ledger = wallet.NewLedger(store, wallet.Config{
		Logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	})
}

// HandleRequest credits each remitted COD amount to the tenant's wallet. The
// queue delivers at least once; the remittance reference makes replays safe.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var event remittanceEvent
		if err := json.Unmarshal([]byte(message.Body), &event); err != nil {
			log.Printf("ERROR: failed to unmarshal remittance from SQS message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message; persistent
			// failures land on the DLQ.
			return err
		}

		tx, err := ledger.Credit(ctx, wallet.CreditInput{
			TenantID:  event.TenantID,
			Amount:    event.Amount,
			Reason:    models.ReasonCODRemittance,
			Reference: models.Reference{Type: models.RefPayment, ID: event.RemittanceID},
		})
		if errors.Is(err, wallet.ErrDuplicateReference) {
			// A redelivery of a remittance that was already credited.
			log.Printf("Remittance %s already applied, skipping", event.RemittanceID)
			continue
		}
		if err != nil {
			log.Printf("ERROR: failed to credit remittance %s: %v", event.RemittanceID, err)
			return err
		}

		log.Printf("Credited remittance %s to tenant %s, balance now %d", event.RemittanceID, event.TenantID, tx.BalanceAfter)
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}

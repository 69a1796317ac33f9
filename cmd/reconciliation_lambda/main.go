package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/freightdesk/wallet-ledger/pkg/reconcile"
	dynamodbstore "github.com/freightdesk/wallet-ledger/pkg/storage/dynamodb"
)

var auditor *reconcile.Auditor

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)

	accountsTable := os.Getenv("DYNAMODB_ACCOUNTS_TABLE_NAME")
	transactionsTable := os.Getenv("DYNAMODB_TRANSACTIONS_TABLE_NAME")
	if accountsTable == "" || transactionsTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	store := dynamodbstore.New(dbClient, accountsTable, transactionsTable)
	auditor = reconcile.New(store, slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

// HandleRequest is triggered by an EventBridge Schedule.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting balance reconciliation sweep...")

	drifts, err := auditor.Audit(ctx)
	if err != nil {
		log.Printf("ERROR: reconciliation sweep failed: %v", err)
		return err
	}

	if len(drifts) == 0 {
		log.Println("All accounts reconcile cleanly.")
		return nil
	}

	for _, drift := range drifts {
		body, err := json.Marshal(drift)
		if err != nil {
			log.Printf("DRIFT: tenant %s (failed to encode detail: %v)", drift.TenantID, err)
			continue
		}
		log.Printf("DRIFT: %s", body)
	}

	// Returning an error fails the invocation, so drift shows up in the
	// lambda's error metrics and alarms instead of scrolling past in a log.
	return fmt.Errorf("reconciliation found %d account(s) out of balance", len(drifts))
}

func main() {
	lambda.Start(HandleRequest)
}

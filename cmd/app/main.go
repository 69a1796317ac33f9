package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/freightdesk/wallet-ledger/pkg/alerts"
	ledgerhandler "github.com/freightdesk/wallet-ledger/pkg/handlers/ledger"
	"github.com/freightdesk/wallet-ledger/pkg/handlers/wallets"
	"github.com/freightdesk/wallet-ledger/pkg/middleware"
	"github.com/freightdesk/wallet-ledger/pkg/reconcile"
	dynamodbstore "github.com/freightdesk/wallet-ledger/pkg/storage/dynamodb"
	"github.com/freightdesk/wallet-ledger/pkg/wallet"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// AWS Session
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

	// Create our storage implementation
	store := dynamodbstore.New(dbClient, accountsTable, transactionsTable)

	// Low balance alerts go out over SQS when a queue is configured.
	var publisher alerts.Publisher = alerts.NewNoOpPublisher()
	if queueURL := os.Getenv("SQS_LOW_BALANCE_QUEUE_URL"); queueURL != "" {
		publisher = alerts.NewSQSPublisher(sqs.NewFromConfig(cfg), queueURL)
	} else {
		log.Println("SQS_LOW_BALANCE_QUEUE_URL not set, low balance alerts disabled")
	}

	ledger := wallet.NewLedger(store, wallet.Config{
		Logger: logger,
		Alerts: publisher,
	})

	// Create our handlers
	handler := wallets.NewWalletsHandler(ledger, logger)
	auditHandler := ledgerhandler.NewLedgerHandler(reconcile.New(store, logger), logger)

	// Create a new Chi router
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Mount("/wallets", handler.Routes())
	router.Mount("/ledger", auditHandler.Routes())

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	log.Printf("Starting server on port %s", port)

	// Start the server
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

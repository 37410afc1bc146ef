package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-mpc-billing/internal/billing"
	awsclient "github.com/cyphera/cyphera-mpc-billing/internal/client/aws"
	httpclient "github.com/cyphera/cyphera-mpc-billing/internal/client/http"
	"github.com/cyphera/cyphera-mpc-billing/internal/client/mpc"
	"github.com/cyphera/cyphera-mpc-billing/internal/config"
	"github.com/cyphera/cyphera-mpc-billing/internal/db"
	"github.com/cyphera/cyphera-mpc-billing/internal/handlers"
	"github.com/cyphera/cyphera-mpc-billing/internal/logger"
	"github.com/cyphera/cyphera-mpc-billing/internal/server"
	"github.com/cyphera/cyphera-mpc-billing/internal/subscription"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger (AFTER stage validation)
	logger.InitLogger(cfg.Stage)
	defer func() {
		_ = logger.Sync()
	}()
	logger.Info("Starting billing API", zap.String("stage", cfg.Stage))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secretsClient, err := awsclient.NewSecretsManagerClient(ctx, logger.Log)
	if err != nil {
		logger.Fatal("Failed to initialize AWS Secrets Manager client", zap.Error(err))
	}

	operatorAPIKey, err := secretsClient.GetSecretString(ctx, cfg.Billing.OperatorAPIKeyARN, cfg.Billing.OperatorAPIKey)
	if err != nil {
		logger.Fatal("Operator API key is required", zap.Error(err))
	}

	// --- Storage ---
	var (
		subscriptions subscription.Store
		continuations billing.ContinuationStore
		health        handlers.Pinger
	)
	pool, err := connectDatabase(ctx, cfg, secretsClient)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if pool != nil {
		defer pool.Close()
		queries := db.New(pool)
		subscriptions = subscription.NewPostgresStore(queries)
		continuations = billing.NewPostgresContinuationStore(queries)
		health = pool
		logger.Info("Using Postgres storage")
	} else {
		subscriptions = subscription.NewMemoryStore()
		continuations = billing.NewMemoryContinuationStore()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// --- Billing ---
	ledger := subscription.NewLedger(subscriptions, subscription.LedgerConfig{
		PeriodLength: cfg.PeriodLength(),
		Price:        cfg.Billing.Price,
		Logger:       logger.Log,
	})

	signer, err := mpc.NewClient(mpc.ClientConfig{
		BaseURL:     cfg.Signer.URL,
		ContractID:  cfg.Signer.ContractID,
		CallbackURL: cfg.Signer.CallbackURL,
		Timeout:     cfg.Signer.SignTimeout,
		Retry:       httpclient.DefaultRetryConfig(),
		Metrics:     billing.SignerHTTPMetrics{},
		Logger:      logger.Log,
	})
	if err != nil {
		logger.Fatal("Failed to create signer client", zap.Error(err))
	}

	orchestrator := billing.NewOrchestrator(ledger, signer, continuations, billing.Config{
		OperatorAccountID:  cfg.Billing.OperatorAccountID,
		ContractAccountID:  cfg.Billing.ContractAccountID,
		TokenContractID:    cfg.Billing.TokenContractID,
		TransferReceiverID: cfg.Billing.TransferReceiverID,
		SignTimeout:        cfg.Signer.SignTimeout,
	}, logger.Log)

	if cfg.Signer.ResultQueueURL != "" && cfg.Signer.ResultQueueEnabled {
		consumer, err := newResultConsumer(ctx, cfg.Signer.ResultQueueURL, orchestrator)
		if err != nil {
			logger.Fatal("Failed to create signer result consumer", zap.Error(err))
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Signer result consumer stopped", zap.Error(err))
			}
		}()
	}

	// --- HTTP ---
	router := server.NewRouter(ctx, server.Handlers{
		Health:          handlers.NewHealthHandler(health),
		Subscriptions:   handlers.NewSubscriptionHandler(ledger),
		Operator:        handlers.NewOperatorHandler(orchestrator, cfg.Billing.ChargeWaitTimeout),
		SignerCallbacks: handlers.NewSignerCallbackHandler(orchestrator),
	}, server.Options{
		Stage:               cfg.Stage,
		OperatorAPIKey:      operatorAPIKey,
		OperatorAccountID:   cfg.Billing.OperatorAccountID,
		SignerCallbackToken: cfg.Signer.CallbackToken,
		RateLimitRPS:        cfg.API.RateLimitRPS,
		RateLimitBurst:      cfg.API.RateLimitBurst,
		AllowedOrigins:      cfg.API.AllowedOrigins,
	})

	if err := server.Run(ctx, router, cfg.Port, 15*time.Second, logger.Log); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
	logger.Info("Billing API stopped", zap.Int("in_flight_sign_requests", orchestrator.InFlight()))
}

// connectDatabase returns nil when no database is configured.
func connectDatabase(ctx context.Context, cfg config.Config, secrets *awsclient.SecretsManagerClient) (*pgxpool.Pool, error) {
	var dsn string
	if cfg.Deployed() {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.SecretARN == "" {
			return nil, fmt.Errorf("DB_HOST, DB_NAME and RDS_SECRET_ARN are required on stage %s", cfg.Stage)
		}
		type RdsSecret struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		var secretData RdsSecret
		if err := secrets.GetSecretJSON(ctx, cfg.Database.SecretARN, &secretData); err != nil {
			return nil, fmt.Errorf("failed to retrieve RDS secret: %w", err)
		}
		if secretData.Username == "" || secretData.Password == "" {
			return nil, fmt.Errorf("username or password not found in RDS secret")
		}
		dsn = fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
			url.QueryEscape(secretData.Username), url.QueryEscape(secretData.Password),
			cfg.Database.Host, cfg.Database.Name, cfg.Database.SSLMode)
	} else {
		if cfg.Database.URL == "" && cfg.Database.URLSecretARN == "" {
			return nil, nil
		}
		var err error
		dsn, err = secrets.GetSecretString(ctx, cfg.Database.URLSecretARN, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database DSN: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

func newResultConsumer(ctx context.Context, queueURL string, orchestrator *billing.Orchestrator) (*awsclient.SignResultConsumer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	handle := func(ctx context.Context, requestID uuid.UUID, result *mpc.SignResult, signErr error) error {
		_, err := orchestrator.Resume(ctx, requestID, result, signErr)
		if err != nil && billing.IsTerminal(err) {
			return &awsclient.TerminalError{Err: err}
		}
		return err
	}
	return awsclient.NewSignResultConsumer(sqs.NewFromConfig(awsCfg), queueURL, handle, logger.Log), nil
}

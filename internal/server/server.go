package server

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/admin"
	"github.com/guardrail-labs/guardrail-api/internal/client/email"
	"github.com/guardrail-labs/guardrail-api/internal/db"
	"github.com/guardrail-labs/guardrail-api/internal/engine"
	"github.com/guardrail-labs/guardrail-api/internal/events"
	"github.com/guardrail-labs/guardrail-api/internal/handlers"
	"github.com/guardrail-labs/guardrail-api/internal/helpers"
	"github.com/guardrail-labs/guardrail-api/internal/logger"
	"github.com/guardrail-labs/guardrail-api/internal/middleware"
)

// Handler Definitions
var (
	transactionHandler *handlers.TransactionHandler
	metaTxHandler      *handlers.MetaTransactionHandler
	registryHandler    *handlers.RegistryHandler
	healthHandler      *handlers.HealthHandler

	commonServices *handlers.CommonServices
	journalStore   *db.Store

	// Invoker is exported so deployments can attach in-process targets
	// before the first request is served.
	Invoker *engine.CallbackInvoker

	// Guard is the engine instance the handlers serve.
	Guard *engine.Engine
)

const defaultTimeLockSeconds = 24 * 60 * 60

func InitializeHandlers() {
	// Load environment variables from .env file for local development
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = helpers.StageLocal
		log.Printf("Warning: STAGE environment variable not set, defaulting to '%s'", stage)
	}
	if !helpers.IsValidStage(stage) {
		log.Fatalf("Invalid STAGE environment variable: '%s'. Must be one of: %s, %s, %s",
			stage, helpers.StageProd, helpers.StageDev, helpers.StageLocal)
	}

	logger.InitLogger(stage)
	logger.Info("Initializing handlers for stage", zap.String("stage", stage))

	ctx := context.Background()

	// --- Deployment identity ---
	domainID, err := strconv.ParseUint(os.Getenv("DOMAIN_ID"), 10, 64)
	if err != nil {
		logger.Fatal("DOMAIN_ID environment variable is required and must be an integer", zap.Error(err))
	}
	handlerTargetRaw := os.Getenv("HANDLER_TARGET")
	if !common.IsHexAddress(handlerTargetRaw) {
		logger.Fatal("HANDLER_TARGET environment variable is required and must be a hex address",
			zap.String("value", handlerTargetRaw))
	}
	handlerTarget := common.HexToAddress(handlerTargetRaw)

	timeLockSeconds := int64(defaultTimeLockSeconds)
	if raw := os.Getenv("TIMELOCK_SECONDS"); raw != "" {
		timeLockSeconds, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || timeLockSeconds < 0 {
			logger.Fatal("TIMELOCK_SECONDS must be a non-negative integer", zap.String("value", raw))
		}
	}

	// --- Transition journal (optional) ---
	var journal engine.Journal
	if dsn := os.Getenv("JOURNAL_DATABASE_URL"); dsn != "" {
		journalStore, err = db.NewStore(ctx, dsn)
		if err != nil {
			logger.Fatal("Failed to connect transition journal database", zap.Error(err))
		}
		journal = journalStore
		logger.Info("Transition journal enabled")
	} else {
		logger.Warn("JOURNAL_DATABASE_URL not set, transition journal disabled")
	}

	// --- Lifecycle event publisher (optional) ---
	var publisher engine.Publisher
	if queueURL := os.Getenv("EVENTS_QUEUE_URL"); queueURL != "" {
		sqsPublisher, err := events.NewSQSPublisher(ctx, queueURL)
		if err != nil {
			logger.Fatal("Failed to initialize SQS publisher", zap.Error(err))
		}
		publisher = sqsPublisher
		logger.Info("Lifecycle event publisher enabled", zap.String("queue", queueURL))
	}

	// --- Failure alerter (optional) ---
	var alerter engine.Alerter
	if apiKey := os.Getenv("RESEND_API_KEY"); apiKey != "" {
		toEmails := splitAndTrim(os.Getenv("ALERT_TO_EMAILS"))
		if len(toEmails) == 0 {
			logger.Fatal("ALERT_TO_EMAILS is required when RESEND_API_KEY is set")
		}
		alerter = email.NewAlertClient(
			apiKey,
			os.Getenv("ALERT_FROM_EMAIL"),
			os.Getenv("ALERT_FROM_NAME"),
			toEmails,
			logger.Log,
		)
		logger.Info("Execution failure alerts enabled", zap.Int("recipients", len(toEmails)))
	}

	Invoker = engine.NewCallbackInvoker()
	Guard = engine.New(engine.Config{
		DomainID:      domainID,
		HandlerTarget: handlerTarget,
		TimeLock:      time.Duration(timeLockSeconds) * time.Second,
		Invoker:       Invoker,
		Journal:       journal,
		Publisher:     publisher,
		Alerter:       alerter,
		Logger:        logger.Log,
	})

	// --- Bootstrap from seed file ---
	if seedFile := os.Getenv("SEED_FILE"); seedFile != "" {
		if err := bootstrapFromFile(ctx, Guard, seedFile); err != nil {
			logger.Fatal("Failed to bootstrap registry from seed file",
				zap.String("file", seedFile), zap.Error(err))
		}
		logger.Info("Registry bootstrapped from seed file", zap.String("file", seedFile))
	}

	commonServices = handlers.NewCommonServices(handlers.CommonServicesConfig{
		Engine:  Guard,
		Journal: journalStore,
		Logger:  logger.Log,
	})

	transactionHandler = handlers.NewTransactionHandler(commonServices)
	metaTxHandler = handlers.NewMetaTransactionHandler(commonServices)
	registryHandler = handlers.NewRegistryHandler(commonServices)
	healthHandler = handlers.NewHealthHandler()
}

// bootstrapFromFile reads a configuration batch from a JSON file and applies
// it. A non-empty registry means the deployment was already seeded; that is
// not an error, the file is simply skipped.
func bootstrapFromFile(ctx context.Context, eng *engine.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var batch admin.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return err
	}
	if len(eng.Roles()) > 0 {
		logger.Info("Registry already seeded, skipping seed file", zap.String("file", path))
		return nil
	}
	return eng.Bootstrap(ctx, batch)
}

func InitializeRoutes(router *gin.Engine) {
	// Configure and apply CORS middleware
	router.Use(configureCORS())

	// Add correlation ID middleware for request tracing
	router.Use(middleware.CorrelationIDMiddleware())

	isDevelopment := os.Getenv("GIN_MODE") != "release"
	if !isDevelopment {
		router.Use(middleware.RequestLoggingMiddleware())
	}

	// Add Swagger endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health for raw lambda url check
	router.GET("/:stage/health", healthHandler.Health)
	router.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.CreateTransaction)
			transactions.GET("/pending", transactionHandler.ListPendingTransactions)
			transactions.POST("/meta", metaTxHandler.ExecuteMetaTransaction)
			transactions.POST("/meta/digest", metaTxHandler.PreviewDigest)
			transactions.GET("/:tx_id", transactionHandler.GetTransaction)
			transactions.POST("/:tx_id/approve", transactionHandler.ApproveTransaction)
			transactions.POST("/:tx_id/cancel", transactionHandler.CancelTransaction)
			transactions.POST("/:tx_id/payment", transactionHandler.UpdatePayment)
			transactions.GET("/:tx_id/transitions", transactionHandler.GetTransitionHistory)
		}

		v1.GET("/signers/:address/nonce", metaTxHandler.GetNonce)

		v1.GET("/roles", registryHandler.ListRoles)
		v1.GET("/roles/:role", registryHandler.GetRole)
		v1.GET("/functions", registryHandler.ListFunctions)
		v1.GET("/functions/:selector", registryHandler.GetFunction)
		v1.GET("/functions/:selector/whitelist", registryHandler.GetWhitelist)

		v1.POST("/admin/batch", registryHandler.SubmitBatch)
	}
}

// Shutdown releases resources held by the server, currently the journal
// database pool.
func Shutdown() {
	if journalStore != nil {
		journalStore.Close()
	}
}

func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	// Get allowed origins from environment variable
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		// Default to localhost if not set
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		corsConfig.AllowOrigins = splitAndTrim(originsEnv)
	}

	// Get allowed methods from environment variable
	methodsEnv := os.Getenv("CORS_ALLOWED_METHODS")
	if methodsEnv == "" {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	} else {
		corsConfig.AllowMethods = splitAndTrim(methodsEnv)
	}

	// Get allowed headers from environment variable
	headersEnv := os.Getenv("CORS_ALLOWED_HEADERS")
	if headersEnv == "" {
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Caller-Address", "X-Correlation-ID"}
	} else {
		corsConfig.AllowHeaders = splitAndTrim(headersEnv)
	}

	// Get exposed headers from environment variable
	exposedHeadersEnv := os.Getenv("CORS_EXPOSED_HEADERS")
	if exposedHeadersEnv != "" {
		corsConfig.ExposeHeaders = splitAndTrim(exposedHeadersEnv)
	} else {
		corsConfig.ExposeHeaders = []string{"X-Correlation-ID"}
	}

	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/db"
	"github.com/guardrail-labs/guardrail-api/internal/engine"
	guardevents "github.com/guardrail-labs/guardrail-api/internal/events"
	"github.com/guardrail-labs/guardrail-api/internal/logger"
)

// Application holds the application dependencies
type Application struct {
	journal *db.Store
	logger  *zap.Logger
}

// ProcessingResult represents the result of processing one queue message
type ProcessingResult struct {
	MessageID   string `json:"message_id"`
	TxID        uint64 `json:"tx_id"`
	Archived    bool   `json:"archived"`
	Error       string `json:"error,omitempty"`
	ShouldRetry bool   `json:"should_retry"`
}

func main() {
	logger.InitLogger(os.Getenv("STAGE"))
	zapLogger := logger.Log
	defer zapLogger.Sync()

	app, err := createApplication(zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create application", zap.Error(err))
	}
	defer app.journal.Close()

	lambda.Start(app.handleSQSEvent)
}

func createApplication(logger *zap.Logger) (*Application, error) {
	databaseURL := os.Getenv("JOURNAL_DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("JOURNAL_DATABASE_URL environment variable is required")
	}

	journal, err := db.NewStore(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting journal database: %w", err)
	}

	return &Application{
		journal: journal,
		logger:  logger,
	}, nil
}

// handleSQSEvent archives transition events into the journal database.
// Failed messages are reported back so SQS redelivers only those.
func (app *Application) handleSQSEvent(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var response events.SQSEventResponse

	for _, message := range event.Records {
		result := app.processMessage(ctx, message)
		if result.Error != "" {
			app.logger.Error("Failed to process transition event",
				zap.String("message_id", result.MessageID),
				zap.Uint64("tx_id", result.TxID),
				zap.String("error", result.Error),
				zap.Bool("should_retry", result.ShouldRetry),
			)
			if result.ShouldRetry {
				response.BatchItemFailures = append(response.BatchItemFailures, events.SQSBatchItemFailure{
					ItemIdentifier: message.MessageId,
				})
			}
			continue
		}
		app.logger.Info("Archived transition event",
			zap.String("message_id", result.MessageID),
			zap.Uint64("tx_id", result.TxID),
		)
	}

	return response, nil
}

func (app *Application) processMessage(ctx context.Context, message events.SQSMessage) ProcessingResult {
	result := ProcessingResult{MessageID: message.MessageId}

	if attr, ok := message.MessageAttributes["EventType"]; ok {
		if attr.StringValue == nil || *attr.StringValue != guardevents.TransitionEventType {
			// Unknown event type: drop it rather than poison the queue.
			result.Error = "unexpected event type"
			return result
		}
	}

	var transition engine.Transition
	if err := json.Unmarshal([]byte(message.Body), &transition); err != nil {
		// Malformed bodies never become parseable; do not retry.
		result.Error = fmt.Sprintf("decoding transition: %v", err)
		return result
	}
	result.TxID = transition.TxID

	if err := app.journal.RecordTransition(ctx, transition); err != nil {
		result.Error = fmt.Sprintf("archiving transition: %v", err)
		result.ShouldRetry = true
		return result
	}

	result.Archived = true
	return result
}

// Package email sends operator alerts when a guarded execution fails.
package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

// AlertClient emails operators about failed executions.
type AlertClient struct {
	client    *resend.Client
	logger    *zap.Logger
	fromEmail string
	fromName  string
	toEmails  []string
}

// NewAlertClient builds an alert sender. The recipient list is fixed at
// startup; an empty API key or recipient list should be handled by not
// wiring the alerter at all.
func NewAlertClient(apiKey, fromEmail, fromName string, toEmails []string, logger *zap.Logger) *AlertClient {
	return &AlertClient{
		client:    resend.NewClient(apiKey),
		logger:    logger,
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmails:  toEmails,
	}
}

// ExecutionFailed sends one alert for a record that landed in Failed.
func (c *AlertClient) ExecutionFailed(ctx context.Context, record *guard.TxRecord, reason string) error {
	from := fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)
	subject := fmt.Sprintf("Execution failed: tx %d (%s)", record.TxID, record.Params.Function)

	text := fmt.Sprintf(
		"Transaction %d failed during execution.\n\n"+
			"Function:  %s\n"+
			"Target:    %s\n"+
			"Requester: %s\n"+
			"Reason:    %s\n",
		record.TxID,
		record.Params.Function,
		record.Params.Target.Hex(),
		record.Params.Requester.Hex(),
		reason,
	)

	params := &resend.SendEmailRequest{
		From:    from,
		To:      c.toEmails,
		Subject: subject,
		Text:    text,
		Headers: map[string]string{
			"X-Entity-Ref-ID": uuid.New().String(),
		},
		Tags: []resend.Tag{
			{Name: "category", Value: "execution-failure"},
		},
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		c.logger.Error("failed to send execution failure alert",
			zap.Error(err),
			zap.Uint64("tx_id", record.TxID))
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	c.logger.Info("execution failure alert sent",
		zap.String("email_id", sent.Id),
		zap.Uint64("tx_id", record.TxID))
	return nil
}

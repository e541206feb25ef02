// Package events publishes committed status transitions to SQS for
// downstream processors (indexers, notification fan-out, reconciliation).
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/pkg/errors"

	"github.com/guardrail-labs/guardrail-api/internal/engine"
)

// TransitionEventType is the message attribute value identifying transition
// events on the queue.
const TransitionEventType = "tx.transition"

// SQSPublisher sends transition events to one queue.
type SQSPublisher struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSPublisher builds a publisher using the default AWS configuration
// chain (environment variables, shared config, IAM role).
func NewSQSPublisher(ctx context.Context, queueURL string) (*SQSPublisher, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("events queue URL is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS SDK config")
	}
	return &SQSPublisher{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// PublishTransition sends one committed transition as a JSON message.
func (p *SQSPublisher) PublishTransition(ctx context.Context, t engine.Transition) error {
	body, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "encoding transition event")
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"EventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(TransitionEventType),
			},
			"TxID": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(fmt.Sprintf("%d", t.TxID)),
			},
		},
	})
	return errors.Wrapf(err, "publishing transition for tx %d", t.TxID)
}

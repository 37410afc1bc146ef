package aws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-mpc-billing/internal/client/mpc"
)

//go:generate mockgen -destination=../../mocks/mock_sqs_api.go -package=mocks github.com/cyphera/cyphera-mpc-billing/internal/client/aws SQSAPI

// SQSAPI is the part of the SQS client used by the result consumer.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// ResultHandler applies a signer outcome to its sign request.
type ResultHandler func(ctx context.Context, requestID uuid.UUID, result *mpc.SignResult, signErr error) error

// SignResultConsumer long-polls a queue of signer outcomes. Each message body
// is an mpc.SignOutcome.
type SignResultConsumer struct {
	client   SQSAPI
	queueURL string
	handle   ResultHandler
	logger   *zap.Logger

	waitTimeSeconds int32
	maxMessages     int32
	errorBackoff    time.Duration
}

// NewSignResultConsumer creates a consumer for queueURL.
func NewSignResultConsumer(client SQSAPI, queueURL string, handle ResultHandler, logger *zap.Logger) *SignResultConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignResultConsumer{
		client:          client,
		queueURL:        queueURL,
		handle:          handle,
		logger:          logger.With(zap.String("queue_url", queueURL)),
		waitTimeSeconds: 20,
		maxMessages:     10,
		errorBackoff:    5 * time.Second,
	}
}

// Run polls until ctx is cancelled.
func (c *SignResultConsumer) Run(ctx context.Context) error {
	c.logger.Info("Starting sign result consumer")
	for {
		if err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Sign result consumer stopped")
				return nil
			}
			c.logger.Error("Failed to receive sign results", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.errorBackoff):
			}
		}
	}
}

// Poll receives one batch and processes it. Messages that are applied, or
// that can never be applied, are deleted; the rest return to the queue.
func (c *SignResultConsumer) Poll(ctx context.Context) error {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: c.maxMessages,
		WaitTimeSeconds:     c.waitTimeSeconds,
	})
	if err != nil {
		return fmt.Errorf("receive message: %w", err)
	}

	for _, msg := range out.Messages {
		if !c.process(ctx, msg) {
			continue
		}
		if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			c.logger.Error("Failed to delete sign result message",
				zap.String("message_id", aws.ToString(msg.MessageId)),
				zap.Error(err))
		}
	}
	return nil
}

// process reports whether the message is finished with.
func (c *SignResultConsumer) process(ctx context.Context, msg types.Message) bool {
	log := c.logger.With(zap.String("message_id", aws.ToString(msg.MessageId)))

	var outcome mpc.SignOutcome
	if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &outcome); err != nil {
		log.Error("Dropping malformed sign result message", zap.Error(err))
		return true
	}
	if outcome.RequestID == uuid.Nil {
		log.Error("Dropping sign result message without request_id")
		return true
	}

	result, signErr := outcome.Unwrap()
	err := c.handle(ctx, outcome.RequestID, result, signErr)
	if err == nil {
		return true
	}

	log = log.With(zap.String("request_id", outcome.RequestID.String()))
	var terminal *TerminalError
	if errors.As(err, &terminal) {
		log.Warn("Sign result not applicable, dropping", zap.Error(err))
		return true
	}
	log.Error("Failed to apply sign result, leaving on queue", zap.Error(err))
	return false
}

// TerminalError marks a handler error that retrying cannot fix.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string { return e.Err.Error() }

func (e *TerminalError) Unwrap() error { return e.Err }

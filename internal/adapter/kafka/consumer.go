// Package kafka adapts a sarama consumer group to the ingestion
// pipeline. Scraper workers publish submissions as JSON messages; each
// message runs through the same pipeline as an HTTP submission.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
)

// SubmissionConsumer consumes campaign submissions from a topic and
// feeds them into the ingest usecase. Validation failures and quality
// rejections are logged and dropped, since redelivery cannot fix the
// content. A store failure ends the session before the message is
// marked, so consumption resumes from it after the rebalance.
type SubmissionConsumer struct {
	ingest port.IngestUseCase
	logger *slog.Logger
}

// NewSubmissionConsumer returns a consumer-group handler.
func NewSubmissionConsumer(ingest port.IngestUseCase, logger *slog.Logger) *SubmissionConsumer {
	return &SubmissionConsumer{
		ingest: ingest,
		logger: logger,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (c *SubmissionConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim
// goroutines have exited.
func (c *SubmissionConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from one partition claim. Offset
// commits are high-watermark, so marking any later message would commit
// past a failed one; a store failure therefore ends the session instead
// of skipping the message.
func (c *SubmissionConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := c.handle(session.Context(), message.Value); err != nil {
			c.logger.Error("submission failed, ending session for redelivery",
				slog.Int64("offset", message.Offset), slog.Any("error", err))
			return err
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (c *SubmissionConsumer) handle(ctx context.Context, payload []byte) error {
	var sub domain.Submission
	if err := json.Unmarshal(payload, &sub); err != nil {
		c.logger.Warn("dropping malformed submission message", slog.Any("error", err))
		return nil
	}
	result, err := c.ingest.Ingest(ctx, sub)
	var validation *port.ValidationError
	var rejected *port.QualityRejectedError
	switch {
	case err == nil:
		c.logger.Info("submission ingested",
			slog.Int64("campaign_id", result.Campaign.ID),
			slog.Bool("is_update", result.IsUpdate),
			slog.String("tier", string(result.Campaign.Tier)))
		return nil
	case errors.As(err, &validation):
		c.logger.Warn("dropping invalid submission",
			slog.String("field", validation.Field), slog.String("reason", validation.Reason))
		return nil
	case errors.As(err, &rejected):
		c.logger.Info("dropping low-quality submission",
			slog.Float64("score", rejected.Score), slog.Float64("threshold", rejected.Threshold))
		return nil
	default:
		return err
	}
}

// Run starts the consumer group loop and blocks until ctx is cancelled.
// Rebalances recreate the session; consume errors back off briefly
// before retrying.
func Run(ctx context.Context, brokers []string, topic, groupID string, ingest port.IngestUseCase, logger *slog.Logger) error {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return err
	}
	defer client.Close()

	consumer := NewSubmissionConsumer(ingest, logger)
	for {
		if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
			logger.Error("consumer error", slog.Any("error", err))
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

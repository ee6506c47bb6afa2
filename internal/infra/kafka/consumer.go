package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"video-dispatcher/internal/domain"
	"video-dispatcher/internal/metrics"

	"github.com/IBM/sarama"
)

// Consumer feeds notification batches published to a kafka topic into the dispatcher.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	handler *batchHandler
	logger  *slog.Logger
}

// NewConsumer joins groupID on the brokers; call Run to start consuming topic.
func NewConsumer(brokers []string, groupID, topic string, dispatcher domain.Dispatcher, logger *slog.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group %s: %w", groupID, err)
	}

	logger = logger.With("component", "kafka-consumer", "topic", topic, "group", groupID)
	return &Consumer{
		group:   group,
		topic:   topic,
		handler: &batchHandler{dispatcher: dispatcher, logger: logger},
		logger:  logger,
	}, nil
}

// Run consumes until ctx is cancelled. Consume returns on every rebalance, so it is called in a loop.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("kafka consumer started")
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, c.handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.Error("consumer group session ended with error", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			c.logger.Info("kafka consumer stopped")
			return nil
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

// batchHandler implements sarama.ConsumerGroupHandler. Each message value is one notification batch.
type batchHandler struct {
	dispatcher domain.Dispatcher
	logger     *slog.Logger
}

func (h *batchHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *batchHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim dispatches messages in partition order. Every message is marked
// once handled, including malformed and failed ones; failures stay in the logs and metrics.
func (h *batchHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			result := h.handle(session.Context(), msg)
			metrics.ConsumedMessagesTotal.WithLabelValues(result).Inc()
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *batchHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) string {
	logger := h.logger.With("partition", msg.Partition, "offset", msg.Offset)

	batch, err := domain.ParseBatch(msg.Value)
	if err != nil {
		logger.Error("dropping malformed notification message", "error", err)
		return "malformed"
	}

	result := h.dispatcher.DispatchBatch(context.WithoutCancel(ctx), batch)
	if err := result.Err(); err != nil {
		logger.Error("notification batch from kafka failed", "batch_id", result.BatchID, "error", err)
		return "failed"
	}
	return "dispatched"
}

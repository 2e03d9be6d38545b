package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"price-estimation-service/internal/constants"
	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/contracts"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/port"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 10 * time.Second

// Publisher - часть rabbitmq_producer.Publisher, нужная адаптеру
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// TrainingReporterAdapter публикует ModelTrainingResultEvent по завершении обучения
type TrainingReporterAdapter struct {
	producer   Publisher
	routingKey string
	now        func() time.Time
}

func NewTrainingReporterAdapter(producer Publisher, routingKey string) (*TrainingReporterAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &TrainingReporterAdapter{
		producer:   producer,
		routingKey: routingKey,
		now:        time.Now,
	}, nil
}

func (a *TrainingReporterAdapter) ReportTraining(ctx context.Context, taskID uuid.UUID, run *domain.TrainingRun, trainErr error) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "TrainingReporterAdapter",
		"routing_key": a.routingKey,
		"task_id":     taskID.String(),
	})

	body, err := json.Marshal(toTrainingResultDTO(taskID, run, trainErr, a.now()))
	if err != nil {
		return fmt.Errorf("failed to marshal training result: %w", err)
	}
	if err := contracts.Validate(contracts.ModelTrainingResultEvent, contracts.Version1, body); err != nil {
		return fmt.Errorf("training result does not match its schema: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    a.now(),
		MessageId:    uuid.New().String(),
		Headers: amqp.Table{
			constants.HeaderEventType:    contracts.ModelTrainingResultEvent,
			constants.HeaderEventVersion: contracts.Version1,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		logger.Error("Failed to publish training result", err, nil)
		return fmt.Errorf("failed to publish training result: %w", err)
	}

	logger.Info("Training result published", port.Fields{"status": statusOf(trainErr)})
	return nil
}

func statusOf(err error) string {
	if err != nil {
		return statusFailed
	}
	return statusCompleted
}

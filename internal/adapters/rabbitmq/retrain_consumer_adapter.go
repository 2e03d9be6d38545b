package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"price-estimation-service/internal/constants"
	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/contracts"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/port"
	usecases_port "price-estimation-service/internal/core/port/usecases_port"
	"price-estimation-service/pkg/rabbitmq/rabbitmq_common"
	"price-estimation-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RetrainConsumerAdapter слушает команды на переобучение модели
type RetrainConsumerAdapter struct {
	consumer *rabbitmq_consumer.Consumer
	handler  *retrainMessageHandler
}

func NewRetrainConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.RetrainModelUseCase,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*RetrainConsumerAdapter, error) {
	handler := newRetrainMessageHandler(useCase, logger)

	pkgLogger := logger.WithFields(port.Fields{"component": "rabbitmq_consumer", "consumer_tag": consumerCfg.ConsumerTag})
	consumerCfg.Logger = NewPkgLoggerBridge(pkgLogger)

	consumer, err := rabbitmq_consumer.NewConsumer(consumerCfg, handler.handle, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for retrain commands: %w", err)
	}

	return &RetrainConsumerAdapter{consumer: consumer, handler: handler}, nil
}

func (a *RetrainConsumerAdapter) Start(ctx context.Context) error {
	a.handler.logger.Info("Starting retrain command listener", nil)
	return a.consumer.StartConsuming(ctx)
}

func (a *RetrainConsumerAdapter) Close() error {
	return a.consumer.Close()
}

type retrainMessageHandler struct {
	useCase usecases_port.RetrainModelUseCase
	logger  port.LoggerPort
}

func newRetrainMessageHandler(useCase usecases_port.RetrainModelUseCase, logger port.LoggerPort) *retrainMessageHandler {
	return &retrainMessageHandler{
		useCase: useCase,
		logger:  logger.WithFields(port.Fields{"adapter_name": "RetrainConsumerAdapter"}),
	}
}

// handle возвращает постоянную ошибку для битых сообщений, их нет смысла ретраить
func (h *retrainMessageHandler) handle(ctx context.Context, d amqp.Delivery) error {
	traceID, _ := d.Headers["x-trace-id"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}

	msgLogger := h.logger.WithFields(port.Fields{
		"trace_id":   traceID,
		"message_id": d.MessageId,
	})

	eventType, _ := d.Headers[constants.HeaderEventType].(string)
	eventVersion, _ := d.Headers[constants.HeaderEventVersion].(string)
	if eventType == "" {
		eventType = contracts.RetrainModelEvent
	}
	if eventVersion == "" {
		eventVersion = contracts.Version1
	}

	if err := contracts.Validate(eventType, eventVersion, d.Body); err != nil {
		msgLogger.Error("Message failed schema validation. Rejecting.", err, nil)
		return rabbitmq_consumer.Permanent(err)
	}

	var cmd RetrainCommandDTO
	if err := json.Unmarshal(d.Body, &cmd); err != nil {
		return rabbitmq_consumer.Permanent(fmt.Errorf("failed to unmarshal retrain command: %w", err))
	}

	cmdLogger := msgLogger.WithFields(port.Fields{
		"task_id":      cmd.TaskID.String(),
		"requested_by": cmd.RequestedBy,
		"reason":       cmd.Reason,
	})
	ctx = contextkeys.ContextWithLogger(ctx, cmdLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	cmdLogger.Info("Retrain command received", nil)

	if _, err := h.useCase.Execute(ctx, cmd.TaskID); err != nil {
		if errors.Is(err, domain.ErrNoTrainingData) {
			// Повтор на тех же данных даст тот же результат
			return rabbitmq_consumer.Permanent(err)
		}
		return err
	}
	return nil
}

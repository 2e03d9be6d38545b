package rabbitmq_consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"price-estimation-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler обрабатывает одно сообщение. ack/nack делает потребитель.
type MessageHandler func(ctx context.Context, delivery amqp.Delivery) error

// PermanentError помечает ошибку, которую бессмысленно ретраить (битое сообщение)
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func isPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// Consumer читает очередь и раздает сообщения обработчику, ограничивая число одновременных
type Consumer struct {
	base    *baseConsumer
	handler MessageHandler
	slots   chan struct{}
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("consumer: message handler is required")
	}

	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}

	inFlight := cfg.MaxInFlight
	if inFlight < 1 {
		inFlight = 1
	}

	return &Consumer{
		base:    bc,
		handler: handler,
		slots:   make(chan struct{}, inFlight),
	}, nil
}

// StartConsuming блокируется до отмены ctx (возвращает nil) или обрыва соединения (возвращает ошибку)
func (c *Consumer) StartConsuming(ctx context.Context) error {
	b := c.base
	if b.channel == nil || b.connection == nil || b.connection.IsClosed() {
		return fmt.Errorf("consumer: not connected")
	}

	msgs, err := b.channel.Consume(b.queueName, b.config.ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consumer: failed to consume from '%s': %w", b.queueName, err)
	}

	notifyClose := b.connection.NotifyClose(make(chan *amqp.Error, 1))

	b.logger.Info("Waiting for messages", "queue", b.queueName)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, consumer stops", "queue", b.queueName)
			return nil
		case amqpErr := <-notifyClose:
			if amqpErr == nil {
				return fmt.Errorf("consumer: connection closed")
			}
			b.logger.Error(amqpErr, "Connection closed", "queue", b.queueName)
			return amqpErr
		case d, ok := <-msgs:
			if !ok {
				b.logger.Warn("Deliveries channel closed", "queue", b.queueName)
				return fmt.Errorf("consumer: deliveries channel closed")
			}

			select {
			case c.slots <- struct{}{}:
			case <-ctx.Done():
				// сообщение вернется в очередь после закрытия канала
				return nil
			}

			b.wg.Add(1)
			go func(delivery amqp.Delivery) {
				defer b.wg.Done()
				defer func() { <-c.slots }()
				c.process(ctx, delivery)
			}(d)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	b := c.base

	processErr := c.handler(ctx, d)
	if processErr == nil {
		_ = d.Ack(false)
		b.logger.Debug("Message acked", "delivery_tag", d.DeliveryTag)
		return
	}

	deaths := deathCount(d.Headers, b.queueName)
	action := onFailure(b.config.EnableRetryMechanism, deaths, b.config.MaxRetries, isPermanent(processErr))
	b.logger.Error(processErr, "Handler failed", "delivery_tag", d.DeliveryTag, "death_count", deaths, "action", action.String())

	switch action {
	case actionDrop, actionRetry:
		_ = d.Nack(false, false)
	case actionDeadLetter:
		err := b.finalDlxPublisher.Publish(context.WithoutCancel(ctx), b.config.FinalDLQRoutingKey, amqp.Publishing{
			ContentType:  d.ContentType,
			Body:         d.Body,
			Headers:      d.Headers,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		})
		if err != nil {
			b.logger.Error(err, "Failed to publish to final DLX, message goes to retry", "delivery_tag", d.DeliveryTag)
			_ = d.Nack(false, false)
			return
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) Close() error {
	return c.base.Close()
}

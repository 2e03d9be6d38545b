package rabbitmq_consumer

import (
	"fmt"

	"price-estimation-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ConsumerConfig struct {
	rabbitmq_common.Config

	QueueName    string // пусто - имя сгенерирует сервер
	DeclareQueue bool
	DurableQueue bool
	QueueArgs    amqp.Table

	// Привязка очереди к обменнику. Пустое имя - без привязки.
	ExchangeNameForBind    string
	DeclareExchangeForBind bool
	ExchangeTypeForBind    string
	RoutingKeyForBind      string

	PrefetchCount int
	ConsumerTag   string

	// Сколько сообщений обрабатывается одновременно. 0 и 1 - строго по очереди.
	MaxInFlight int

	// Ретраи через wait-очередь с TTL и финальную DLQ
	EnableRetryMechanism bool
	RetryExchange        string
	RetryQueue           string
	RetryTTL             int // миллисекунды
	FinalDLXExchange     string
	FinalDLQ             string
	FinalDLQRoutingKey   string
	MaxRetries           int

	Logger rabbitmq_common.Logger
}

func (c ConsumerConfig) validate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.DeclareQueue && c.QueueName == "" {
		return fmt.Errorf("queue name is required if DeclareQueue is false")
	}
	if c.DeclareExchangeForBind && (c.ExchangeNameForBind == "" || c.ExchangeTypeForBind == "") {
		return fmt.Errorf("exchange name and type are required to declare an exchange for binding")
	}
	if c.EnableRetryMechanism {
		if c.RetryExchange == "" || c.RetryQueue == "" || c.FinalDLXExchange == "" || c.FinalDLQ == "" {
			return fmt.Errorf("retry exchange, retry queue, final DLX and final DLQ are required when retries are enabled")
		}
		if c.RetryTTL <= 0 {
			return fmt.Errorf("retry TTL must be positive")
		}
		if c.MaxRetries < 0 {
			return fmt.Errorf("max retries must not be negative")
		}
	}
	return nil
}

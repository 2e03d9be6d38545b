package rabbitmq_consumer

import (
	"errors"
	"fmt"
	"testing"

	"price-estimation-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestDeathCount(t *testing.T) {
	headers := amqp.Table{
		"x-death": []interface{}{
			amqp.Table{"queue": "retry_wait", "count": int64(5)},
			amqp.Table{"queue": "model_retrain_commands", "count": int64(2)},
		},
	}

	assert.Equal(t, int64(2), deathCount(headers, "model_retrain_commands"))
	assert.Equal(t, int64(0), deathCount(headers, "other"))
	assert.Equal(t, int64(0), deathCount(nil, "model_retrain_commands"))
	assert.Equal(t, int64(0), deathCount(amqp.Table{"x-death": "garbage"}, "q"))
}

func TestOnFailure(t *testing.T) {
	assert.Equal(t, actionDrop, onFailure(false, 0, 3, false))
	assert.Equal(t, actionDrop, onFailure(false, 10, 3, true))
	assert.Equal(t, actionRetry, onFailure(true, 0, 3, false))
	assert.Equal(t, actionRetry, onFailure(true, 2, 3, false))
	assert.Equal(t, actionDeadLetter, onFailure(true, 3, 3, false))
	assert.Equal(t, actionDeadLetter, onFailure(true, 0, 3, true))
}

func TestPermanent(t *testing.T) {
	base := errors.New("invalid payload")
	wrapped := fmt.Errorf("handler: %w", Permanent(base))

	assert.True(t, isPermanent(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.False(t, isPermanent(base))
	assert.NoError(t, Permanent(nil))
}

func TestConfigValidate(t *testing.T) {
	common := rabbitmq_common.Config{URL: "amqp://localhost"}

	assert.Error(t, ConsumerConfig{Config: common}.validate())
	assert.NoError(t, ConsumerConfig{Config: common, QueueName: "q"}.validate())
	assert.Error(t, ConsumerConfig{Config: common, QueueName: "q", EnableRetryMechanism: true}.validate())
	assert.NoError(t, ConsumerConfig{
		Config:               common,
		QueueName:            "q",
		EnableRetryMechanism: true,
		RetryExchange:        "rx",
		RetryQueue:           "rq",
		RetryTTL:             1000,
		FinalDLXExchange:     "dlx",
		FinalDLQ:             "dlq",
		MaxRetries:           3,
	}.validate())
}

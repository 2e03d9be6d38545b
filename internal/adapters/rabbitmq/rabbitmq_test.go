package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"price-estimation-service/internal/constants"
	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/contracts"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetrain struct {
	taskIDs []uuid.UUID
	traceID string
	err     error
}

func (f *fakeRetrain) Execute(ctx context.Context, taskID uuid.UUID) (*domain.TrainingRun, error) {
	f.taskIDs = append(f.taskIDs, taskID)
	f.traceID = contextkeys.TraceIDFromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.TrainingRun{ID: uuid.New()}, nil
}

type fakePublisher struct {
	routingKey string
	msg        amqp.Publishing
	err        error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	p.routingKey = routingKey
	p.msg = msg
	return p.err
}

func isPermanent(err error) bool {
	var p *rabbitmq_consumer.PermanentError
	return errors.As(err, &p)
}

func TestRetrainHandler_ValidCommand(t *testing.T) {
	uc := &fakeRetrain{}
	h := newRetrainMessageHandler(uc, contextkeys.NoopLogger())
	taskID := uuid.New()

	err := h.handle(context.Background(), amqp.Delivery{
		Headers: amqp.Table{"x-trace-id": "trace-1"},
		Body:    []byte(`{"task_id":"` + taskID.String() + `","reason":"new data"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{taskID}, uc.taskIDs)
	assert.Equal(t, "trace-1", uc.traceID)
}

func TestRetrainHandler_InvalidPayloadIsPermanent(t *testing.T) {
	uc := &fakeRetrain{}
	h := newRetrainMessageHandler(uc, contextkeys.NoopLogger())

	err := h.handle(context.Background(), amqp.Delivery{Body: []byte(`{"task_id":"nope"}`)})

	assert.True(t, isPermanent(err))
	assert.Empty(t, uc.taskIDs)
}

func TestRetrainHandler_UnknownEventType(t *testing.T) {
	h := newRetrainMessageHandler(&fakeRetrain{}, contextkeys.NoopLogger())

	err := h.handle(context.Background(), amqp.Delivery{
		Headers: amqp.Table{constants.HeaderEventType: "SomethingElseEvent", constants.HeaderEventVersion: "1.0.0"},
		Body:    []byte(`{"task_id":"` + uuid.NewString() + `"}`),
	})
	assert.True(t, isPermanent(err))
}

func TestRetrainHandler_Errors(t *testing.T) {
	body := []byte(`{"task_id":"` + uuid.NewString() + `"}`)

	h := newRetrainMessageHandler(&fakeRetrain{err: domain.ErrSourceUnavailable}, contextkeys.NoopLogger())
	err := h.handle(context.Background(), amqp.Delivery{Body: body})
	require.Error(t, err)
	assert.False(t, isPermanent(err))

	h = newRetrainMessageHandler(&fakeRetrain{err: domain.ErrNoTrainingData}, contextkeys.NoopLogger())
	err = h.handle(context.Background(), amqp.Delivery{Body: body})
	assert.True(t, isPermanent(err))
}

func TestTrainingReporter_PublishesCompleted(t *testing.T) {
	pub := &fakePublisher{}
	reporter, err := NewTrainingReporterAdapter(pub, constants.RoutingKeyTrainingResults)
	require.NoError(t, err)
	reporter.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	taskID := uuid.New()
	run := &domain.TrainingRun{
		ID:          uuid.New(),
		TrainedAt:   time.Date(2024, 3, 1, 11, 59, 0, 0, time.UTC),
		Source:      "csv:data.csv",
		CleanedRows: 10,
		Binning:     domain.BinningBatch,
		Metrics:     domain.EvaluationMetrics{R2: 0.9, MAE: 1, RMSE: 2},
	}
	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-2")

	require.NoError(t, reporter.ReportTraining(ctx, taskID, run, nil))

	assert.Equal(t, constants.RoutingKeyTrainingResults, pub.routingKey)
	assert.Equal(t, contracts.ModelTrainingResultEvent, pub.msg.Headers[constants.HeaderEventType])
	assert.Equal(t, "trace-2", pub.msg.Headers["x-trace-id"])

	var dto TrainingResultDTO
	require.NoError(t, json.Unmarshal(pub.msg.Body, &dto))
	assert.Equal(t, taskID, dto.TaskID)
	assert.Equal(t, "completed", dto.Status)
	require.NotNil(t, dto.Run)
	assert.Equal(t, run.ID.String(), dto.Run.ModelVersion)
}

func TestTrainingReporter_PublishesFailure(t *testing.T) {
	pub := &fakePublisher{}
	reporter, err := NewTrainingReporterAdapter(pub, constants.RoutingKeyTrainingResults)
	require.NoError(t, err)

	require.NoError(t, reporter.ReportTraining(context.Background(), uuid.New(), nil, domain.ErrSourceUnavailable))

	var dto TrainingResultDTO
	require.NoError(t, json.Unmarshal(pub.msg.Body, &dto))
	assert.Equal(t, "failed", dto.Status)
	assert.Contains(t, dto.Error, "unavailable")
	assert.Nil(t, dto.Run)
}

func TestTrainingReporter_PublishError(t *testing.T) {
	reporter, err := NewTrainingReporterAdapter(&fakePublisher{err: errors.New("channel closed")}, "key")
	require.NoError(t, err)

	err = reporter.ReportTraining(context.Background(), uuid.New(), nil, errors.New("boom"))
	assert.ErrorContains(t, err, "channel closed")
}

func TestToFields(t *testing.T) {
	fields := toFields("queue", "q", 42, "ignored", "dangling")
	assert.Equal(t, "q", fields["queue"])
	assert.Len(t, fields, 1)
}

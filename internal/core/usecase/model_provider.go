package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/estimator"
	usecases_port "price-estimation-service/internal/core/port/usecases_port"

	"golang.org/x/sync/singleflight"
)

const trainFlightKey = "train"

// ModelProvider хранит текущий снимок модели. Параллельные запросы на обучение
// схлопываются в одно, готовая модель публикуется атомарно и больше не меняется.
type ModelProvider struct {
	trainer usecases_port.TrainModelUseCase
	current atomic.Pointer[estimator.Model]
	flight  singleflight.Group
}

func NewModelProvider(trainer usecases_port.TrainModelUseCase) *ModelProvider {
	return &ModelProvider{trainer: trainer}
}

func (p *ModelProvider) Current() (*estimator.Model, error) {
	if m := p.current.Load(); m != nil {
		return m, nil
	}
	return nil, domain.ErrModelNotReady
}

func (p *ModelProvider) Get(ctx context.Context) (*estimator.Model, error) {
	if m := p.current.Load(); m != nil {
		return m, nil
	}
	return p.train(ctx)
}

func (p *ModelProvider) Retrain(ctx context.Context) (*estimator.Model, error) {
	return p.train(ctx)
}

func (p *ModelProvider) train(ctx context.Context) (*estimator.Model, error) {
	// Обучение общее для всех ожидающих, отмена одного вызывающего его не прерывает
	trainCtx := context.WithoutCancel(ctx)

	resultCh := p.flight.DoChan(trainFlightKey, func() (interface{}, error) {
		model, err := p.trainer.Execute(trainCtx)
		if err != nil {
			return nil, err
		}
		p.current.Store(model)
		return model, nil
	})

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return nil, fmt.Errorf("model training failed: %w", res.Err)
		}
		return res.Val.(*estimator.Model), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

package usecases_port

import (
	"context"
	"price-estimation-service/internal/core/estimator"
)

// TrainModelUseCase строит новую модель из источника данных
type TrainModelUseCase interface {
	Execute(ctx context.Context) (*estimator.Model, error)
}

package usecases_port

import (
	"context"
	"price-estimation-service/internal/core/estimator"
)

// ModelProviderPort выдает неизменяемый снимок обученной модели
type ModelProviderPort interface {
	// Get возвращает текущую модель, при ее отсутствии запускает обучение
	Get(ctx context.Context) (*estimator.Model, error)
	// Current возвращает текущую модель без обучения
	Current() (*estimator.Model, error)
	// Retrain обучает новую модель и атомарно подменяет текущую
	Retrain(ctx context.Context) (*estimator.Model, error)
}

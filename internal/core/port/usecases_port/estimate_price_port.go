package usecases_port

import (
	"context"
	"price-estimation-service/internal/core/domain"
)

type EstimatePriceUseCase interface {
	Execute(ctx context.Context, req domain.EstimateRequest) (*domain.Estimate, error)
}

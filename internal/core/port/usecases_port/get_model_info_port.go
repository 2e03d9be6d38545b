package usecases_port

import (
	"context"
	"price-estimation-service/internal/core/domain"
)

// ModelInfo - сведения о текущей модели и последних обучениях
type ModelInfo struct {
	Current    domain.TrainingRun
	Options    domain.ModelOptions
	RecentRuns []domain.TrainingRun
}

type GetModelInfoUseCase interface {
	Execute(ctx context.Context) (*ModelInfo, error)
}

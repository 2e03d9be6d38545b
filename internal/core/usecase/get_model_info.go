package usecase

import (
	"context"
	"fmt"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/port"
	usecases_port "price-estimation-service/internal/core/port/usecases_port"
)

const recentRunsLimit = 10

type GetModelInfoUseCase struct {
	models usecases_port.ModelProviderPort
	runs   port.TrainingRunRepositoryPort
}

// NewGetModelInfoUseCase создает use case. runs может быть nil.
func NewGetModelInfoUseCase(models usecases_port.ModelProviderPort, runs port.TrainingRunRepositoryPort) *GetModelInfoUseCase {
	return &GetModelInfoUseCase{models: models, runs: runs}
}

func (uc *GetModelInfoUseCase) Execute(ctx context.Context) (*usecases_port.ModelInfo, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "GetModelInfo"})

	model, err := uc.models.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to get current model: %w", err)
	}

	info := &usecases_port.ModelInfo{
		Current: model.Run(),
		Options: model.Options(),
	}

	if uc.runs != nil {
		recent, err := uc.runs.ListRecent(ctx, recentRunsLimit)
		if err != nil {
			// Без истории ответ все равно полезен
			ucLogger.Error("Failed to load recent training runs", err, nil)
		} else {
			info.RecentRuns = recent
		}
	}

	return info, nil
}

package usecases_port

import (
	"context"
	"price-estimation-service/internal/core/domain"

	"github.com/google/uuid"
)

type RetrainModelUseCase interface {
	Execute(ctx context.Context, taskID uuid.UUID) (*domain.TrainingRun, error)
}

package port

import (
	"context"
	"price-estimation-service/internal/core/domain"

	"github.com/google/uuid"
)

// TrainingRunRepositoryPort хранит историю обучений
type TrainingRunRepositoryPort interface {
	Save(ctx context.Context, run domain.TrainingRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.TrainingRun, error)
}

// TrainingReporterPort отправляет результат обучения по задаче
type TrainingReporterPort interface {
	ReportTraining(ctx context.Context, taskID uuid.UUID, run *domain.TrainingRun, trainErr error) error
}

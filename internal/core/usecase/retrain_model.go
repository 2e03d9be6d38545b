package usecase

import (
	"context"
	"fmt"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/port"
	usecases_port "price-estimation-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

// RetrainModelUseCase принудительно переобучает модель и отчитывается о результате.
type RetrainModelUseCase struct {
	models   usecases_port.ModelProviderPort
	reporter port.TrainingReporterPort
}

// NewRetrainModelUseCase создает use case. reporter может быть nil.
func NewRetrainModelUseCase(models usecases_port.ModelProviderPort, reporter port.TrainingReporterPort) *RetrainModelUseCase {
	return &RetrainModelUseCase{
		models:   models,
		reporter: reporter,
	}
}

func (uc *RetrainModelUseCase) Execute(ctx context.Context, taskID uuid.UUID) (*domain.TrainingRun, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "RetrainModel",
		"task_id":  taskID.String(),
	})

	ucLogger.Info("Use case started", nil)

	model, trainErr := uc.models.Retrain(ctx)

	var run *domain.TrainingRun
	if trainErr == nil {
		r := model.Run()
		run = &r
	}

	if uc.reporter != nil {
		if err := uc.reporter.ReportTraining(ctx, taskID, run, trainErr); err != nil {
			// Отчет не критичен: модель уже подменена
			ucLogger.Error("Failed to report training result", err, nil)
		}
	}

	if trainErr != nil {
		ucLogger.Error("Retraining failed, previous model stays active", trainErr, nil)
		return nil, fmt.Errorf("retrain for task %s: %w", taskID, trainErr)
	}

	ucLogger.Info("Use case finished", port.Fields{"model_version": run.ID.String()})
	return run, nil
}

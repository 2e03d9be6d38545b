package usecase

import (
	"context"
	"fmt"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/estimator"
	"price-estimation-service/internal/core/port"
)

// TrainModelUseCase загружает объявления из источника и обучает модель.
type TrainModelUseCase struct {
	source port.ListingSourcePort
	runs   port.TrainingRunRepositoryPort
	cfg    estimator.TrainConfig
}

// NewTrainModelUseCase создает use case. runs может быть nil, тогда история не сохраняется.
func NewTrainModelUseCase(source port.ListingSourcePort, runs port.TrainingRunRepositoryPort, cfg estimator.TrainConfig) *TrainModelUseCase {
	return &TrainModelUseCase{
		source: source,
		runs:   runs,
		cfg:    cfg,
	}
}

func (uc *TrainModelUseCase) Execute(ctx context.Context) (*estimator.Model, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "TrainModel",
		"source":   uc.source.Name(),
		"binning":  string(uc.cfg.Binning),
	})

	ucLogger.Info("Use case started: loading listings", nil)

	raw, err := uc.source.Load(ctx)
	if err != nil {
		ucLogger.Error("Listing source returned an error", err, nil)
		return nil, fmt.Errorf("failed to load listings from %s: %w", uc.source.Name(), err)
	}
	ucLogger.Info("Listings loaded", port.Fields{"rows": len(raw)})

	cfg := uc.cfg
	cfg.Source = uc.source.Name()

	model, err := estimator.Train(raw, cfg)
	if err != nil {
		ucLogger.Error("Training failed", err, port.Fields{"rows": len(raw)})
		return nil, fmt.Errorf("failed to train model on %d rows: %w", len(raw), err)
	}

	stats := model.CleaningStats()
	ucLogger.Debug("Cleaning pipeline finished", port.Fields{
		"input":            stats.Input,
		"complete":         stats.Complete,
		"other_locations":  stats.OtherLocations,
		"after_floor_area": stats.AfterFloorArea,
		"after_outliers":   stats.AfterOutliers,
		"output":           stats.Output,
	})

	run := model.Run()
	ucLogger.Info("Model training complete", port.Fields{
		"model_version": run.ID.String(),
		"train_rows":    run.TrainRows,
		"test_rows":     run.TestRows,
		"r2":            run.Metrics.R2,
		"mae":           run.Metrics.MAE,
		"rmse":          run.Metrics.RMSE,
	})

	if uc.runs != nil {
		// история обучений вторична, модель уже готова
		if err := uc.runs.Save(ctx, run); err != nil {
			ucLogger.Error("Failed to persist training run", err, nil)
		}
	}

	return model, nil
}

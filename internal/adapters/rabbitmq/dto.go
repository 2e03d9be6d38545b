package rabbitmq

import (
	"time"

	"price-estimation-service/internal/core/domain"

	"github.com/google/uuid"
)

// RetrainCommandDTO - событие RetrainModelEvent/1.0.0
type RetrainCommandDTO struct {
	TaskID      uuid.UUID `json:"task_id"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

type MetricsDTO struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

type TrainingRunDTO struct {
	ModelVersion string     `json:"model_version"`
	TrainedAt    time.Time  `json:"trained_at"`
	Source       string     `json:"source"`
	RawRows      int        `json:"raw_rows"`
	CleanedRows  int        `json:"cleaned_rows"`
	TrainRows    int        `json:"train_rows"`
	TestRows     int        `json:"test_rows"`
	Binning      string     `json:"binning"`
	Metrics      MetricsDTO `json:"metrics"`
}

// TrainingResultDTO - событие ModelTrainingResultEvent/1.0.0
type TrainingResultDTO struct {
	TaskID     uuid.UUID       `json:"task_id"`
	Status     string          `json:"status"`
	FinishedAt time.Time       `json:"finished_at"`
	Error      string          `json:"error,omitempty"`
	Run        *TrainingRunDTO `json:"run,omitempty"`
}

func toTrainingResultDTO(taskID uuid.UUID, run *domain.TrainingRun, trainErr error, finishedAt time.Time) TrainingResultDTO {
	dto := TrainingResultDTO{
		TaskID:     taskID,
		Status:     statusCompleted,
		FinishedAt: finishedAt.UTC(),
	}
	if trainErr != nil {
		dto.Status = statusFailed
		dto.Error = trainErr.Error()
	}
	if run != nil {
		dto.Run = &TrainingRunDTO{
			ModelVersion: run.ID.String(),
			TrainedAt:    run.TrainedAt.UTC(),
			Source:       run.Source,
			RawRows:      run.RawRows,
			CleanedRows:  run.CleanedRows,
			TrainRows:    run.TrainRows,
			TestRows:     run.TestRows,
			Binning:      string(run.Binning),
			Metrics: MetricsDTO{
				R2:   run.Metrics.R2,
				MAE:  run.Metrics.MAE,
				RMSE: run.Metrics.RMSE,
			},
		}
	}
	return dto
}

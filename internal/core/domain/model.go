package domain

import (
	"time"

	"github.com/google/uuid"
)

// BinningMode определяет, как канонизируются локации при инференсе
type BinningMode string

const (
	// BinningBatch - частоты считаются по текущему батчу (поведение по умолчанию)
	BinningBatch BinningMode = "batch"
	// BinningFrozen - используется словарь локаций, собранный при обучении
	BinningFrozen BinningMode = "frozen"
)

// EvaluationMetrics - метрики на отложенной выборке
type EvaluationMetrics struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

// TrainingRun описывает один прогон обучения
type TrainingRun struct {
	ID          uuid.UUID
	TrainedAt   time.Time
	Source      string
	RawRows     int
	CleanedRows int
	TrainRows   int
	TestRows    int
	Metrics     EvaluationMetrics
	Binning     BinningMode
	Locations   int
}

// ModelOptions - значения категориальных признаков, известные модели
type ModelOptions struct {
	AreaTypes []string
	Locations []string
}

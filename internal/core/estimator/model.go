// Package estimator связывает пайплайн очистки и регрессию в неизменяемую
// обученную модель, которую можно безопасно читать из нескольких горутин.
package estimator

import (
	"fmt"
	"time"

	"price-estimation-service/internal/core/cleaning"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/regression"

	"github.com/google/uuid"
)

// TrainConfig - параметры обучения
type TrainConfig struct {
	MinLocationCount int
	Binning          domain.BinningMode
	TestSize         float64
	Seed             int64
	Source           string
}

// DefaultTrainConfig повторяет параметры исходного обучения
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		MinLocationCount: cleaning.DefaultMinLocationCount,
		Binning:          domain.BinningBatch,
		TestSize:         regression.DefaultTestSize,
		Seed:             regression.DefaultSplitSeed,
	}
}

// Model - снимок обученной модели. Все поля заполняются один раз в Train.
type Model struct {
	regressor        *regression.LinearModel
	vocabulary       *cleaning.LocationVocabulary
	binning          domain.BinningMode
	minLocationCount int
	run              domain.TrainingRun
	cleaningStats    cleaning.Stats
}

// Train очищает сырые строки, делит их на обучающую и проверочную части,
// обучает регрессию и считает метрики.
func Train(raw []domain.RawListing, cfg TrainConfig) (*Model, error) {
	if cfg.Binning == "" {
		cfg.Binning = domain.BinningBatch
	}
	if cfg.Binning != domain.BinningBatch && cfg.Binning != domain.BinningFrozen {
		return nil, fmt.Errorf("estimator: unknown binning mode %q", cfg.Binning)
	}

	cleaned, stats := cleaning.Run(raw, cleaning.Options{MinLocationCount: cfg.MinLocationCount})
	if len(cleaned) == 0 {
		return nil, domain.ErrNoTrainingData
	}

	train, test := regression.TrainTestSplit(cleaned, cfg.TestSize, cfg.Seed)
	trainX, trainY := regression.SplitXY(train)

	regressor, err := regression.Fit(trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("estimator: fit regression: %w", err)
	}

	var metrics domain.EvaluationMetrics
	if len(test) > 0 {
		testX, testY := regression.SplitXY(test)
		metrics, err = regression.Evaluate(testY, regressor.Predict(testX))
		if err != nil {
			return nil, fmt.Errorf("estimator: evaluate: %w", err)
		}
	}

	vocabulary := cleaning.BuildLocationVocabulary(raw, cfg.MinLocationCount)

	return &Model{
		regressor:        regressor,
		vocabulary:       vocabulary,
		binning:          cfg.Binning,
		minLocationCount: cfg.MinLocationCount,
		cleaningStats:    stats,
		run: domain.TrainingRun{
			ID:          uuid.New(),
			TrainedAt:   time.Now().UTC(),
			Source:      cfg.Source,
			RawRows:     len(raw),
			CleanedRows: len(cleaned),
			TrainRows:   len(train),
			TestRows:    len(test),
			Metrics:     metrics,
			Binning:     cfg.Binning,
			Locations:   vocabulary.Len(),
		},
	}, nil
}

// Clean прогоняет батч через пайплайн так, как того требует режим модели.
func (m *Model) Clean(batch []domain.RawListing) []domain.CleanedRecord {
	if m.binning == domain.BinningFrozen {
		return cleaning.CleanWithVocabulary(batch, m.vocabulary)
	}
	return cleaning.CleanAndEngineer(batch, m.minLocationCount)
}

// Predict возвращает цены (в лакхах) для очищенных строк.
func (m *Model) Predict(rows []domain.CleanedRecord) []float64 {
	features, _ := regression.SplitXY(rows)
	return m.regressor.Predict(features)
}

// Estimate оценивает одну строку запроса.
// domain.ErrUnsupportedInput, если пайплайн отбросил строку.
func (m *Model) Estimate(req domain.EstimateRequest) (*domain.Estimate, error) {
	cleaned := m.Clean([]domain.RawListing{req.ToRawListing()})
	if len(cleaned) == 0 {
		return nil, domain.ErrUnsupportedInput
	}

	price := m.Predict(cleaned[:1])[0]
	return &domain.Estimate{
		PriceLakhs:   price,
		Formatted:    FormatPrice(price),
		ModelVersion: m.run.ID.String(),
		Cleaned:      cleaned[0],
	}, nil
}

func (m *Model) Run() domain.TrainingRun { return m.run }

func (m *Model) CleaningStats() cleaning.Stats { return m.cleaningStats }

func (m *Model) Binning() domain.BinningMode { return m.binning }

func (m *Model) Vocabulary() *cleaning.LocationVocabulary { return m.vocabulary }

// Options - категории, которые модель видела при обучении
func (m *Model) Options() domain.ModelOptions {
	return domain.ModelOptions{
		AreaTypes: m.regressor.Encoder().AreaTypes(),
		Locations: m.regressor.Encoder().Locations(),
	}
}

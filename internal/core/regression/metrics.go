package regression

import (
	"fmt"
	"math"

	"price-estimation-service/internal/core/domain"

	"github.com/montanaflynn/stats"
)

// Evaluate считает R², MAE и RMSE.
func Evaluate(actual, predicted []float64) (domain.EvaluationMetrics, error) {
	if len(actual) == 0 {
		return domain.EvaluationMetrics{}, fmt.Errorf("regression: nothing to evaluate")
	}
	if len(actual) != len(predicted) {
		return domain.EvaluationMetrics{}, fmt.Errorf("regression: %d actual values but %d predictions", len(actual), len(predicted))
	}

	mean, err := stats.Mean(actual)
	if err != nil {
		return domain.EvaluationMetrics{}, fmt.Errorf("regression: mean of targets: %w", err)
	}

	absErrors := make(stats.Float64Data, len(actual))
	sqErrors := make(stats.Float64Data, len(actual))
	ssTot := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		absErrors[i] = math.Abs(diff)
		sqErrors[i] = diff * diff
		ssTot += (actual[i] - mean) * (actual[i] - mean)
	}

	mae, _ := stats.Mean(absErrors)
	mse, _ := stats.Mean(sqErrors)
	ssRes, _ := stats.Sum(sqErrors)

	return domain.EvaluationMetrics{
		R2:   r2(ssRes, ssTot),
		MAE:  mae,
		RMSE: math.Sqrt(mse),
	}, nil
}

// r2 для константной выборки: 1 при точном совпадении, иначе 0
func r2(ssRes, ssTot float64) float64 {
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

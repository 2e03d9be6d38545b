// Package regression - линейная регрессия с one-hot кодированием категорий.
package regression

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// rcond - относительный порог, ниже которого сингулярные числа считаются нулевыми
const rcond = 1e-10

var ErrEmptyTrainingSet = errors.New("regression: empty training set")

// LinearModel - обученная модель. После Fit не меняется.
type LinearModel struct {
	encoder   *OneHotEncoder
	coef      []float64
	intercept float64
}

// Fit обучает МНК-регрессию со свободным членом.
// Данные центрируются, коэффициенты - решение минимальной нормы через SVD,
// поэтому линейно зависимые one-hot колонки не ломают решение.
func Fit(features []Features, targets []float64) (*LinearModel, error) {
	n := len(features)
	if n == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(targets) != n {
		return nil, fmt.Errorf("regression: %d feature rows but %d targets", n, len(targets))
	}

	encoder := FitEncoder(features)
	p := encoder.Width()

	x := mat.NewDense(n, p, nil)
	row := make([]float64, p)
	for i, f := range features {
		encoder.Encode(f, row)
		x.SetRow(i, row)
	}

	xMeans := make([]float64, p)
	for j := 0; j < p; j++ {
		xMeans[j] = mat.Sum(x.ColView(j)) / float64(n)
	}
	yMean := 0.0
	for _, y := range targets {
		yMean += y
	}
	yMean /= float64(n)

	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			x.Set(i, j, x.At(i, j)-xMeans[j])
		}
		y.Set(i, 0, targets[i]-yMean)
	}

	coef := make([]float64, p)

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, errors.New("regression: SVD factorization failed")
	}
	// rank 0 - все признаки константны, модель предсказывает среднее
	if rank := svd.Rank(rcond); rank > 0 {
		var beta mat.Dense
		svd.SolveTo(&beta, y, rank)
		for j := 0; j < p; j++ {
			coef[j] = beta.At(j, 0)
		}
	}

	intercept := yMean
	for j := 0; j < p; j++ {
		intercept -= coef[j] * xMeans[j]
	}

	return &LinearModel{
		encoder:   encoder,
		coef:      coef,
		intercept: intercept,
	}, nil
}

// Predict возвращает предсказания в том же порядке, что и признаки.
func (m *LinearModel) Predict(features []Features) []float64 {
	out := make([]float64, len(features))
	row := make([]float64, m.encoder.Width())
	for i, f := range features {
		m.encoder.Encode(f, row)
		out[i] = m.intercept + mat.Dot(mat.NewVecDense(len(row), row), mat.NewVecDense(len(m.coef), m.coef))
	}
	return out
}

func (m *LinearModel) Encoder() *OneHotEncoder { return m.encoder }

func (m *LinearModel) Intercept() float64 { return m.intercept }

// Coefficients возвращает копию коэффициентов в порядке колонок энкодера.
func (m *LinearModel) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}

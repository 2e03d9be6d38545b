package regression

import (
	"math"
	"math/rand"

	"price-estimation-service/internal/core/domain"
)

const (
	DefaultTestSize  = 0.2
	DefaultSplitSeed = 42
)

// TrainTestSplit перемешивает строки с фиксированным seed и откладывает
// ceil(testSize*n) строк на проверку. В обучающей части всегда остается хотя бы одна строка.
func TrainTestSplit(rows []domain.CleanedRecord, testSize float64, seed int64) (train, test []domain.CleanedRecord) {
	n := len(rows)
	if n == 0 {
		return nil, nil
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest < 0 {
		nTest = 0
	}
	if nTest > n-1 {
		nTest = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	test = make([]domain.CleanedRecord, 0, nTest)
	for _, idx := range perm[:nTest] {
		test = append(test, rows[idx])
	}
	train = make([]domain.CleanedRecord, 0, n-nTest)
	for _, idx := range perm[nTest:] {
		train = append(train, rows[idx])
	}
	return train, test
}

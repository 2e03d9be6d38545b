package regression

import (
	"sort"

	"price-estimation-service/internal/core/domain"
)

// Features - строка признаков без целевой переменной
type Features struct {
	TotalSqft float64
	Bath      int
	BHK       int
	AreaType  string
	Location  string
}

// SplitXY отделяет признаки от цены.
func SplitXY(rows []domain.CleanedRecord) ([]Features, []float64) {
	features := make([]Features, len(rows))
	targets := make([]float64, len(rows))
	for i, r := range rows {
		features[i] = Features{
			TotalSqft: r.TotalSqft,
			Bath:      r.Bath,
			BHK:       r.BHK,
			AreaType:  r.AreaType,
			Location:  r.Location,
		}
		targets[i] = r.Price
	}
	return features, targets
}

// FeaturesOf возвращает признаки одной очищенной строки.
func FeaturesOf(r domain.CleanedRecord) Features {
	features, _ := SplitXY([]domain.CleanedRecord{r})
	return features[0]
}

const numericColumns = 3

// OneHotEncoder кодирует area_type и location в one-hot, числовые колонки
// (total_sqft, bath, bhk) идут следом без изменений.
// Неизвестная при обучении категория кодируется нулями.
type OneHotEncoder struct {
	areaTypes []string
	locations []string
	areaIndex map[string]int
	locIndex  map[string]int
}

// FitEncoder запоминает отсортированные категории обучающей выборки.
func FitEncoder(features []Features) *OneHotEncoder {
	areaSet := make(map[string]struct{})
	locSet := make(map[string]struct{})
	for _, f := range features {
		areaSet[f.AreaType] = struct{}{}
		locSet[f.Location] = struct{}{}
	}

	e := &OneHotEncoder{
		areaTypes: sortedKeys(areaSet),
		locations: sortedKeys(locSet),
	}
	e.areaIndex = indexOf(e.areaTypes)
	e.locIndex = indexOf(e.locations)
	return e
}

// Width - количество колонок после кодирования
func (e *OneHotEncoder) Width() int {
	return len(e.areaTypes) + len(e.locations) + numericColumns
}

func (e *OneHotEncoder) AreaTypes() []string { return append([]string(nil), e.areaTypes...) }

func (e *OneHotEncoder) Locations() []string { return append([]string(nil), e.locations...) }

// Encode пишет закодированную строку в dst (len(dst) == Width()).
func (e *OneHotEncoder) Encode(f Features, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	if i, ok := e.areaIndex[f.AreaType]; ok {
		dst[i] = 1
	}
	offset := len(e.areaTypes)
	if i, ok := e.locIndex[f.Location]; ok {
		dst[offset+i] = 1
	}
	offset += len(e.locations)
	dst[offset] = f.TotalSqft
	dst[offset+1] = float64(f.Bath)
	dst[offset+2] = float64(f.BHK)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(values []string) map[string]int {
	idx := make(map[string]int, len(values))
	for i, v := range values {
		idx[v] = i
	}
	return idx
}

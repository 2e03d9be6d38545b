// Package cleaning превращает сырые объявления в таблицу, пригодную для модели.
// Все функции пакета чистые: результат зависит только от переданного батча
// (и словаря локаций, если он задан).
package cleaning

import (
	"math"
	"strconv"

	"price-estimation-service/internal/core/domain"
)

const (
	// DefaultMinLocationCount - порог редкости локации по умолчанию
	DefaultMinLocationCount = 10
	// OtherLocation - значение, в которое сворачиваются редкие локации
	OtherLocation = "other"
	// UnknownLocation - значение для пустой строки локации
	UnknownLocation = "unknown"

	minSqftPerRoom = 300.0
	maxExtraBaths  = 2
	lakh           = 100000.0
)

// parsedListing - строка после разбора, все обязательные поля на месте
type parsedListing struct {
	areaType     string
	location     string
	totalSqft    float64
	bath         int
	bhk          int
	price        float64
	pricePerSqft float64
}

// Options управляет прогоном пайплайна
type Options struct {
	MinLocationCount int
	// Vocabulary, если задан, заменяет подсчет частот по батчу
	Vocabulary *LocationVocabulary
}

// Stats - сколько строк пережило каждый шаг
type Stats struct {
	Input          int `json:"input"`
	Complete       int `json:"complete"`
	OtherLocations int `json:"other_locations"`
	AfterFloorArea int `json:"after_floor_area"`
	AfterOutliers  int `json:"after_outliers"`
	Output         int `json:"output"`
}

// CleanAndEngineer очищает батч с частотами локаций, посчитанными по самому батчу.
func CleanAndEngineer(batch []domain.RawListing, minLocCount int) []domain.CleanedRecord {
	out, _ := Run(batch, Options{MinLocationCount: minLocCount})
	return out
}

// CleanWithVocabulary очищает батч, канонизируя локации по словарю обучения.
func CleanWithVocabulary(batch []domain.RawListing, vocab *LocationVocabulary) []domain.CleanedRecord {
	out, _ := Run(batch, Options{Vocabulary: vocab})
	return out
}

// Run выполняет все шаги очистки по порядку и возвращает статистику по шагам.
// Пустой результат - не ошибка.
func Run(batch []domain.RawListing, opts Options) ([]domain.CleanedRecord, Stats) {
	stats := Stats{Input: len(batch)}

	rows := parseListings(batch)
	stats.Complete = len(rows)

	if opts.Vocabulary != nil {
		stats.OtherLocations = opts.Vocabulary.apply(rows)
	} else {
		stats.OtherLocations = binRareLocations(rows, opts.MinLocationCount)
	}

	for i := range rows {
		rows[i].pricePerSqft = rows[i].price * lakh / rows[i].totalSqft
	}

	rows = filterFloorArea(rows)
	stats.AfterFloorArea = len(rows)

	rows = removePricePerSqftOutliers(rows)
	stats.AfterOutliers = len(rows)

	rows = filterBathrooms(rows)
	stats.Output = len(rows)

	return project(rows), stats
}

// parseListings извлекает BHK, нормализует площадь и отбрасывает неполные строки.
func parseListings(batch []domain.RawListing) []parsedListing {
	rows := make([]parsedListing, 0, len(batch))
	for _, raw := range batch {
		row, ok := parseListing(raw)
		if ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func parseListing(raw domain.RawListing) (parsedListing, bool) {
	bhk, ok := extractBHK(raw.Size)
	if !ok {
		return parsedListing{}, false
	}
	sqft, ok := NormalizeArea(raw.TotalSqft)
	if !ok {
		return parsedListing{}, false
	}
	if raw.Price == nil || math.IsNaN(*raw.Price) {
		return parsedListing{}, false
	}
	if raw.Location == nil || raw.AreaType == nil {
		return parsedListing{}, false
	}
	if raw.Bath == nil || *raw.Bath < 0 {
		return parsedListing{}, false
	}

	return parsedListing{
		areaType:  *raw.AreaType,
		location:  canonicalLocation(*raw.Location),
		totalSqft: sqft,
		bath:      *raw.Bath,
		bhk:       bhk,
		price:     *raw.Price,
	}, true
}

// extractBHK берет первую последовательность цифр из size ("3 BHK", "4 Bedroom").
func extractBHK(size *string) (int, bool) {
	if size == nil {
		return 0, false
	}
	s := *size
	start := -1
	for i := 0; i < len(s); i++ {
		isDigit := s[i] >= '0' && s[i] <= '9'
		if isDigit && start < 0 {
			start = i
		}
		if !isDigit && start >= 0 {
			return atoiRun(s[start:i])
		}
	}
	if start < 0 {
		return 0, false
	}
	return atoiRun(s[start:])
}

func atoiRun(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func filterFloorArea(rows []parsedListing) []parsedListing {
	kept := make([]parsedListing, 0, len(rows))
	for _, r := range rows {
		if r.bhk < 1 || r.totalSqft/float64(r.bhk) < minSqftPerRoom {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func filterBathrooms(rows []parsedListing) []parsedListing {
	kept := make([]parsedListing, 0, len(rows))
	for _, r := range rows {
		if r.bath > r.bhk+maxExtraBaths {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func project(rows []parsedListing) []domain.CleanedRecord {
	out := make([]domain.CleanedRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.CleanedRecord{
			TotalSqft: r.totalSqft,
			Bath:      r.bath,
			BHK:       r.bhk,
			AreaType:  r.areaType,
			Location:  r.location,
			Price:     r.price,
		})
	}
	return out
}

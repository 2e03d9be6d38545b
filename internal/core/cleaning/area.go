package cleaning

import (
	"math"
	"strconv"
	"strings"

	"price-estimation-service/internal/core/domain"
)

// areaUnit - множитель перевода единицы площади в квадратные футы
type areaUnit struct {
	marker string
	factor float64
}

// Порядок важен: побеждает первое совпадение.
var areaUnits = []areaUnit{
	{"sq. meter", 10.7639},
	{"sq. meters", 10.7639},
	{"sq. yard", 9.0},
	{"sq. yards", 9.0},
	{"acre", 43560.0},
	{"acres", 43560.0},
	{"cents", 435.6},
	{"guntha", 1089.0},
	{"perch", 272.25},
	{"ground", 2400.0},
	{"grounds", 2400.0},
	{"sq. ft", 1.0},
	{"sqft", 1.0},
}

// NormalizeArea переводит значение total_sqft в квадратные футы.
// Второе значение false означает, что площадь отсутствует или не распознана.
func NormalizeArea(in domain.AreaInput) (float64, bool) {
	if v, ok := in.Number(); ok {
		// NaN из числового источника - то же самое, что пустое значение
		return v, !math.IsNaN(v)
	}

	raw, ok := in.Text()
	if !ok {
		return 0, false
	}

	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")

	// Диапазон вида "2100 - 2850" - берем среднее концов
	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		low, okLow := parseFinite(parts[0])
		high, okHigh := parseFinite(parts[1])
		if !okLow || !okHigh {
			return 0, false
		}
		return (low + high) / 2.0, true
	}

	lower := strings.ToLower(s)
	for _, unit := range areaUnits {
		if !strings.Contains(lower, unit.marker) {
			continue
		}
		num, ok := parseFinite(numericPart(s))
		if !ok {
			return 0, false
		}
		return num * unit.factor, true
	}

	return parseFinite(s)
}

// numericPart оставляет только цифры, точки и минусы.
// Хвостовые точки остаются от самой единицы ("34.46Sq. Meter" -> "34.46.").
func numericPart(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), ".")
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

package cleaning

import (
	"sort"
	"strings"

	"price-estimation-service/internal/core/domain"
)

func canonicalLocation(raw string) string {
	loc := strings.TrimSpace(raw)
	if loc == "" {
		return UnknownLocation
	}
	return loc
}

func countLocations(rows []parsedListing) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.location]++
	}
	return counts
}

// binRareLocations сворачивает в "other" локации, встретившиеся в батче реже minCount раз.
// Возвращает количество переписанных строк.
func binRareLocations(rows []parsedListing, minCount int) int {
	counts := countLocations(rows)
	rewritten := 0
	for i := range rows {
		if counts[rows[i].location] < minCount {
			rows[i].location = OtherLocation
			rewritten++
		}
	}
	return rewritten
}

// LocationVocabulary - замороженный набор "частых" локаций обучающего батча.
// После создания не меняется, безопасен для конкурентного чтения.
type LocationVocabulary struct {
	common map[string]struct{}
}

// NewLocationVocabulary создает словарь из готового списка локаций.
func NewLocationVocabulary(locations []string) *LocationVocabulary {
	v := &LocationVocabulary{common: make(map[string]struct{}, len(locations))}
	for _, loc := range locations {
		v.common[canonicalLocation(loc)] = struct{}{}
	}
	return v
}

// BuildLocationVocabulary повторяет шаги 1-4 пайплайна на обучающем батче
// и запоминает локации, которые не были свернуты в "other".
func BuildLocationVocabulary(batch []domain.RawListing, minCount int) *LocationVocabulary {
	counts := countLocations(parseListings(batch))
	v := &LocationVocabulary{common: make(map[string]struct{})}
	for loc, n := range counts {
		if n >= minCount {
			v.common[loc] = struct{}{}
		}
	}
	return v
}

// Canonicalize возвращает локацию из словаря или "other".
func (v *LocationVocabulary) Canonicalize(raw string) string {
	loc := canonicalLocation(raw)
	if _, ok := v.common[loc]; ok {
		return loc
	}
	return OtherLocation
}

func (v *LocationVocabulary) Contains(location string) bool {
	_, ok := v.common[location]
	return ok
}

// Locations возвращает отсортированный список локаций словаря.
func (v *LocationVocabulary) Locations() []string {
	out := make([]string, 0, len(v.common))
	for loc := range v.common {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

func (v *LocationVocabulary) Len() int { return len(v.common) }

func (v *LocationVocabulary) apply(rows []parsedListing) int {
	rewritten := 0
	for i := range rows {
		if _, ok := v.common[rows[i].location]; !ok {
			rows[i].location = OtherLocation
			rewritten++
		}
	}
	return rewritten
}

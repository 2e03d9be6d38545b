package domain

import "strconv"

// areaKind описывает, в каком виде пришло значение площади
type areaKind int

const (
	areaMissing areaKind = iota
	areaNumber
	areaText
)

// AreaInput - сырое значение total_sqft: число, строка или отсутствующее значение.
type AreaInput struct {
	kind   areaKind
	number float64
	text   string
}

// AreaFromNumber создает уже числовое значение площади
func AreaFromNumber(v float64) AreaInput {
	return AreaInput{kind: areaNumber, number: v}
}

// AreaFromText создает текстовое значение площади ("2100 - 2850", "34.46Sq. Meter", ...)
func AreaFromText(s string) AreaInput {
	return AreaInput{kind: areaText, text: s}
}

// MissingArea - отсутствующее значение (пустая ячейка CSV, NULL в базе)
func MissingArea() AreaInput {
	return AreaInput{kind: areaMissing}
}

func (a AreaInput) IsMissing() bool { return a.kind == areaMissing }

// Number возвращает число, если значение пришло числом.
func (a AreaInput) Number() (float64, bool) {
	return a.number, a.kind == areaNumber
}

// Text возвращает строку, если значение пришло строкой.
func (a AreaInput) Text() (string, bool) {
	return a.text, a.kind == areaText
}

func (a AreaInput) String() string {
	switch a.kind {
	case areaNumber:
		return strconv.FormatFloat(a.number, 'f', -1, 64)
	case areaText:
		return a.text
	default:
		return ""
	}
}

// RawListing - строка объявления в том виде, в котором она пришла из источника.
// nil означает отсутствующее значение.
type RawListing struct {
	AreaType  *string
	Location  *string
	Size      *string
	TotalSqft AreaInput
	Bath      *int
	Price     *float64 // в лакхах (100 000)
}

// CleanedRecord - строка, готовая для модели. Колонки в порядке проекции.
type CleanedRecord struct {
	TotalSqft float64 `json:"total_sqft"`
	Bath      int     `json:"bath"`
	BHK       int     `json:"bhk"`
	AreaType  string  `json:"area_type"`
	Location  string  `json:"location"`
	Price     float64 `json:"price"`
}

// EstimateRequest - параметры одного объекта для оценки цены
type EstimateRequest struct {
	AreaType  string
	Location  string
	TotalSqft AreaInput
	Bath      int
	BHK       int
}

// ToRawListing собирает строку для пайплайна так же, как это делает форма:
// size = "{bhk} BHK", цена - заглушка 0.
func (r EstimateRequest) ToRawListing() RawListing {
	areaType := r.AreaType
	location := r.Location
	size := strconv.Itoa(r.BHK) + " BHK"
	bath := r.Bath
	price := 0.0

	return RawListing{
		AreaType:  &areaType,
		Location:  &location,
		Size:      &size,
		TotalSqft: r.TotalSqft,
		Bath:      &bath,
		Price:     &price,
	}
}

// Estimate - результат оценки
type Estimate struct {
	PriceLakhs   float64
	Formatted    string
	ModelVersion string
	Cleaned      CleanedRecord
}

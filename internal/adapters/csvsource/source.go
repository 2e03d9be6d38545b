// Package csvsource читает исторические объявления из CSV-выгрузки
// (формат Bengaluru_House_Data.csv: area_type, location, size, total_sqft, bath, price и др.).
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/port"
)

const (
	colAreaType  = "area_type"
	colLocation  = "location"
	colSize      = "size"
	colTotalSqft = "total_sqft"
	colBath      = "bath"
	colPrice     = "price"
)

var requiredColumns = []string{colAreaType, colLocation, colSize, colTotalSqft, colBath, colPrice}

// ListingSource - файловый источник объявлений
type ListingSource struct {
	path string
}

func NewListingSource(path string) *ListingSource {
	return &ListingSource{path: path}
}

func (s *ListingSource) Name() string { return "csv:" + s.path }

// Load читает весь файл. Отсутствующий файл оборачивает domain.ErrSourceUnavailable.
func (s *ListingSource) Load(ctx context.Context) ([]domain.RawListing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "CSVListingSource",
		"path":      s.path,
	})

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: csv file %s not found", domain.ErrSourceUnavailable, s.path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrSourceUnavailable, s.path, err)
	}
	defer f.Close()

	listings, skipped, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if skipped > 0 {
		logger.Warn("Malformed CSV rows skipped", port.Fields{"skipped": skipped})
	}
	logger.Debug("CSV loaded", port.Fields{"rows": len(listings)})
	return listings, nil
}

// Parse разбирает CSV с заголовком. Пустые ячейки становятся отсутствующими значениями.
// Возвращает число пропущенных строк с неверным количеством колонок.
func Parse(ctx context.Context, r io.Reader) ([]domain.RawListing, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, fmt.Errorf("csv is empty")
		}
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, 0, fmt.Errorf("csv header lacks column %q", col)
		}
	}

	var (
		listings []domain.RawListing
		skipped  int
	)
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, skipped, err
			}
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(row) < len(header) {
			skipped++
			continue
		}

		cell := func(col string) string { return strings.TrimSpace(row[index[col]]) }

		listings = append(listings, domain.RawListing{
			AreaType:  optionalString(row[index[colAreaType]]),
			Location:  optionalString(row[index[colLocation]]),
			Size:      optionalString(row[index[colSize]]),
			TotalSqft: areaCell(cell(colTotalSqft)),
			Bath:      integralCell(cell(colBath)),
			Price:     floatCell(cell(colPrice)),
		})
	}

	return listings, skipped, nil
}

// optionalString сохраняет пробелы: их обрезает пайплайн очистки
func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func areaCell(v string) domain.AreaInput {
	if v == "" {
		return domain.MissingArea()
	}
	return domain.AreaFromText(v)
}

// integralCell понимает "2" и "2.0", дробные и нечисловые значения считает отсутствующими
func integralCell(v string) *int {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

func floatCell(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

package postgres

import (
	"context"
	"fmt"
	"math"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/port"

	"github.com/jackc/pgx/v5/pgxpool"
)

const selectRawListings = `
	SELECT area_type, location, size, total_sqft, bath, price
	FROM raw_listings
	ORDER BY id`

// ListingSource читает исторические объявления из таблицы raw_listings.
// total_sqft хранится как текст, так же как в исходной выгрузке.
type ListingSource struct {
	pool *pgxpool.Pool
}

func NewListingSource(pool *pgxpool.Pool) (*ListingSource, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &ListingSource{pool: pool}, nil
}

func (s *ListingSource) Name() string { return "postgres:raw_listings" }

func (s *ListingSource) Load(ctx context.Context) ([]domain.RawListing, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "PostgresListingSource"})

	rows, err := s.pool.Query(ctx, selectRawListings)
	if err != nil {
		return nil, fmt.Errorf("%w: query raw_listings: %v", domain.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var listings []domain.RawListing
	for rows.Next() {
		var (
			areaType, location, size, totalSqft *string
			bath, price                         *float64
		)
		if err := rows.Scan(&areaType, &location, &size, &totalSqft, &bath, &price); err != nil {
			return nil, fmt.Errorf("scan raw_listings row: %w", err)
		}
		listings = append(listings, toRawListing(areaType, location, size, totalSqft, bath, price))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate raw_listings: %v", domain.ErrSourceUnavailable, err)
	}

	logger.Debug("Listings loaded from database", port.Fields{"rows": len(listings)})
	return listings, nil
}

// toRawListing переводит NULL в отсутствующие значения. Дробное число ванных считается отсутствующим.
func toRawListing(areaType, location, size, totalSqft *string, bath, price *float64) domain.RawListing {
	listing := domain.RawListing{
		AreaType:  areaType,
		Location:  location,
		Size:      size,
		TotalSqft: domain.MissingArea(),
		Price:     price,
	}
	if totalSqft != nil {
		listing.TotalSqft = domain.AreaFromText(*totalSqft)
	}
	if bath != nil && *bath == math.Trunc(*bath) && !math.IsInf(*bath, 0) {
		n := int(*bath)
		listing.Bath = &n
	}
	return listing
}

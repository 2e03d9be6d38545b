package usecase

import (
	"context"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/cleaning"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/port"
)

// CleanListingsUseCase прогоняет произвольный батч через пайплайн очистки.
type CleanListingsUseCase struct{}

func NewCleanListingsUseCase() *CleanListingsUseCase {
	return &CleanListingsUseCase{}
}

func (uc *CleanListingsUseCase) Execute(ctx context.Context, batch []domain.RawListing, minLocationCount int) ([]domain.CleanedRecord, cleaning.Stats) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":           "CleanListings",
		"batch_size":         len(batch),
		"min_location_count": minLocationCount,
	})

	cleaned, stats := cleaning.Run(batch, cleaning.Options{MinLocationCount: minLocationCount})

	ucLogger.Info("Batch cleaned", port.Fields{
		"complete":        stats.Complete,
		"other_locations": stats.OtherLocations,
		"output":          stats.Output,
	})
	return cleaned, stats
}

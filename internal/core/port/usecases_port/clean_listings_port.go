package usecases_port

import (
	"context"
	"price-estimation-service/internal/core/cleaning"
	"price-estimation-service/internal/core/domain"
)

type CleanListingsUseCase interface {
	Execute(ctx context.Context, batch []domain.RawListing, minLocationCount int) ([]domain.CleanedRecord, cleaning.Stats)
}

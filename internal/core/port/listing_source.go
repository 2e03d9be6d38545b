package port

import (
	"context"
	"price-estimation-service/internal/core/domain"
)

// ListingSourcePort - источник исторических объявлений для обучения.
// Если данные недоступны, ошибка должна оборачивать domain.ErrSourceUnavailable.
type ListingSourcePort interface {
	Load(ctx context.Context) ([]domain.RawListing, error)
	Name() string
}

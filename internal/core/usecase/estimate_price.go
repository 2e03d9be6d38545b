package usecase

import (
	"context"
	"errors"
	"fmt"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/port"
	usecases_port "price-estimation-service/internal/core/port/usecases_port"
)

// EstimatePriceUseCase оценивает цену одного объекта текущей моделью.
type EstimatePriceUseCase struct {
	models usecases_port.ModelProviderPort
}

func NewEstimatePriceUseCase(models usecases_port.ModelProviderPort) *EstimatePriceUseCase {
	return &EstimatePriceUseCase{models: models}
}

func (uc *EstimatePriceUseCase) Execute(ctx context.Context, req domain.EstimateRequest) (*domain.Estimate, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":  "EstimatePrice",
		"location":  req.Location,
		"area_type": req.AreaType,
		"bhk":       req.BHK,
	})

	model, err := uc.models.Get(ctx)
	if err != nil {
		ucLogger.Error("Model is not available", err, nil)
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	estimate, err := model.Estimate(req)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedInput) {
			ucLogger.Warn("Input rejected by cleaning pipeline", port.Fields{"total_sqft": req.TotalSqft.String(), "bath": req.Bath})
		}
		return nil, err
	}

	ucLogger.Info("Price estimated", port.Fields{
		"price_lakhs":   estimate.PriceLakhs,
		"model_version": estimate.ModelVersion,
		"location_used": estimate.Cleaned.Location,
	})
	return estimate, nil
}

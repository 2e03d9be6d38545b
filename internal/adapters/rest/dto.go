package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"price-estimation-service/internal/core/domain"
	usecases_port "price-estimation-service/internal/core/port/usecases_port"
)

// areaDTO принимает total_sqft числом, строкой или null
type areaDTO struct {
	value domain.AreaInput
}

func (a *areaDTO) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		a.value = domain.MissingArea()
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		a.value = domain.AreaFromText(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return fmt.Errorf("total_sqft must be a number or a string")
	}
	a.value = domain.AreaFromNumber(f)
	return nil
}

// EstimateRequestDTO - тело POST /estimates
type EstimateRequestDTO struct {
	AreaType  string  `json:"area_type"`
	Location  string  `json:"location"`
	TotalSqft areaDTO `json:"total_sqft"`
	Bath      int     `json:"bath"`
	BHK       int     `json:"bhk"`
}

func (d EstimateRequestDTO) toDomain() domain.EstimateRequest {
	return domain.EstimateRequest{
		AreaType:  d.AreaType,
		Location:  d.Location,
		TotalSqft: d.TotalSqft.value,
		Bath:      d.Bath,
		BHK:       d.BHK,
	}
}

type EstimateResponseDTO struct {
	PriceLakhs   float64              `json:"price_lakhs"`
	Formatted    string               `json:"formatted"`
	ModelVersion string               `json:"model_version"`
	Cleaned      domain.CleanedRecord `json:"cleaned"`
}

func toEstimateResponse(e *domain.Estimate) EstimateResponseDTO {
	return EstimateResponseDTO{
		PriceLakhs:   e.PriceLakhs,
		Formatted:    e.Formatted,
		ModelVersion: e.ModelVersion,
		Cleaned:      e.Cleaned,
	}
}

// RawListingDTO - строка батча для POST /listings/clean. Любое поле может быть null.
type RawListingDTO struct {
	AreaType  *string  `json:"area_type"`
	Location  *string  `json:"location"`
	Size      *string  `json:"size"`
	TotalSqft areaDTO  `json:"total_sqft"`
	Bath      *float64 `json:"bath"`
	Price     *float64 `json:"price"`
}

func (d RawListingDTO) toDomain() domain.RawListing {
	listing := domain.RawListing{
		AreaType:  d.AreaType,
		Location:  d.Location,
		Size:      d.Size,
		TotalSqft: d.TotalSqft.value,
		Price:     d.Price,
	}
	if d.Bath != nil && *d.Bath == float64(int(*d.Bath)) {
		n := int(*d.Bath)
		listing.Bath = &n
	}
	return listing
}

type CleanStatsDTO struct {
	Input          int `json:"input"`
	Complete       int `json:"complete"`
	OtherLocations int `json:"other_locations"`
	AfterFloorArea int `json:"after_floor_area"`
	AfterOutliers  int `json:"after_outliers"`
	Output         int `json:"output"`
}

type CleanResponseDTO struct {
	Records []domain.CleanedRecord `json:"records"`
	Stats   CleanStatsDTO          `json:"stats"`
}

type MetricsDTO struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
}

type TrainingRunDTO struct {
	ModelVersion string     `json:"model_version"`
	TrainedAt    time.Time  `json:"trained_at"`
	Source       string     `json:"source"`
	RawRows      int        `json:"raw_rows"`
	CleanedRows  int        `json:"cleaned_rows"`
	TrainRows    int        `json:"train_rows"`
	TestRows     int        `json:"test_rows"`
	Binning      string     `json:"binning"`
	Locations    int        `json:"locations"`
	Metrics      MetricsDTO `json:"metrics"`
}

func toTrainingRunDTO(run domain.TrainingRun) TrainingRunDTO {
	return TrainingRunDTO{
		ModelVersion: run.ID.String(),
		TrainedAt:    run.TrainedAt,
		Source:       run.Source,
		RawRows:      run.RawRows,
		CleanedRows:  run.CleanedRows,
		TrainRows:    run.TrainRows,
		TestRows:     run.TestRows,
		Binning:      string(run.Binning),
		Locations:    run.Locations,
		Metrics: MetricsDTO{
			R2:   run.Metrics.R2,
			MAE:  run.Metrics.MAE,
			RMSE: run.Metrics.RMSE,
		},
	}
}

type ModelInfoDTO struct {
	Current    TrainingRunDTO   `json:"current"`
	RecentRuns []TrainingRunDTO `json:"recent_runs"`
}

func toModelInfoDTO(info *usecases_port.ModelInfo) ModelInfoDTO {
	dto := ModelInfoDTO{
		Current:    toTrainingRunDTO(info.Current),
		RecentRuns: make([]TrainingRunDTO, 0, len(info.RecentRuns)),
	}
	for _, run := range info.RecentRuns {
		dto.RecentRuns = append(dto.RecentRuns, toTrainingRunDTO(run))
	}
	return dto
}

type OptionsDTO struct {
	AreaTypes []string `json:"area_types"`
	Locations []string `json:"locations"`
}

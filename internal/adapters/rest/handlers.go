package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/contracts"
	"price-estimation-service/internal/core/cleaning"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/port"
	usecases_port "price-estimation-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

const (
	maxEstimateBody = 16 << 10
	maxCleanBody    = 32 << 20

	// Текст для комбинаций, которые пайплайн очистки отбрасывает
	UnsupportedInputMessage = "Sorry, this combination of inputs is not supported."
)

type EstimationHandlers struct {
	estimateUC  usecases_port.EstimatePriceUseCase
	cleanUC     usecases_port.CleanListingsUseCase
	modelInfoUC usecases_port.GetModelInfoUseCase
	retrainUC   usecases_port.RetrainModelUseCase
	models      usecases_port.ModelProviderPort
}

func NewEstimationHandlers(
	estimateUC usecases_port.EstimatePriceUseCase,
	cleanUC usecases_port.CleanListingsUseCase,
	modelInfoUC usecases_port.GetModelInfoUseCase,
	retrainUC usecases_port.RetrainModelUseCase,
	models usecases_port.ModelProviderPort,
) *EstimationHandlers {
	return &EstimationHandlers{
		estimateUC:  estimateUC,
		cleanUC:     cleanUC,
		modelInfoUC: modelInfoUC,
		retrainUC:   retrainUC,
		models:      models,
	}
}

// HandleEstimate - POST /api/v1/estimates
func (h *EstimationHandlers) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleEstimate"})

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEstimateBody))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(body) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
		return
	}

	if err := contracts.Validate(contracts.EstimatePriceRequest, contracts.Version1, body); err != nil {
		logger.Warn("Estimate request rejected by schema", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	var reqDTO EstimateRequestDTO
	if err := json.Unmarshal(body, &reqDTO); err != nil {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	estimate, err := h.estimateUC.Execute(r.Context(), reqDTO.toDomain())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedInput):
			WriteJSONError(w, http.StatusUnprocessableEntity, UnsupportedInputMessage)
		case isModelUnavailable(err):
			logger.Error("Model is not available", err, nil)
			WriteJSONError(w, http.StatusServiceUnavailable, "Model is not available yet")
		default:
			logger.Error("Use case execution failed", err, nil)
			WriteJSONError(w, http.StatusInternalServerError, "Failed to estimate price")
		}
		return
	}

	RespondWithJSON(w, http.StatusOK, toEstimateResponse(estimate))
}

// HandleCleanListings - POST /api/v1/listings/clean?min_loc_count=N
func (h *EstimationHandlers) HandleCleanListings(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleCleanListings"})

	minLocCount := cleaning.DefaultMinLocationCount
	if raw := r.URL.Query().Get("min_loc_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteJSONError(w, http.StatusBadRequest, "Query parameter 'min_loc_count' must be a positive integer")
			return
		}
		minLocCount = n
	}

	var batchDTO []RawListingDTO
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCleanBody)).Decode(&batchDTO); err != nil {
		if errors.Is(err, io.EOF) {
			WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		logger.Warn("Failed to decode listings batch", port.Fields{"error": err.Error()})
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	batch := make([]domain.RawListing, 0, len(batchDTO))
	for _, d := range batchDTO {
		batch = append(batch, d.toDomain())
	}

	records, stats := h.cleanUC.Execute(r.Context(), batch, minLocCount)
	if records == nil {
		records = []domain.CleanedRecord{}
	}

	RespondWithJSON(w, http.StatusOK, CleanResponseDTO{
		Records: records,
		Stats: CleanStatsDTO{
			Input:          stats.Input,
			Complete:       stats.Complete,
			OtherLocations: stats.OtherLocations,
			AfterFloorArea: stats.AfterFloorArea,
			AfterOutliers:  stats.AfterOutliers,
			Output:         stats.Output,
		},
	})
}

// HandleGetModel - GET /api/v1/model
func (h *EstimationHandlers) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	info, err := h.modelInfoUC.Execute(r.Context())
	if err != nil {
		if isModelUnavailable(err) {
			WriteJSONError(w, http.StatusServiceUnavailable, "Model is not available yet")
			return
		}
		contextkeys.LoggerFromContext(r.Context()).Error("Failed to get model info", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to get model info")
		return
	}
	RespondWithJSON(w, http.StatusOK, toModelInfoDTO(info))
}

// HandleRetrain - POST /api/v1/model/retrain. Параллельные вызовы получают результат одного обучения.
func (h *EstimationHandlers) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleRetrain"})

	taskID := uuid.New()
	run, err := h.retrainUC.Execute(r.Context(), taskID)
	if err != nil {
		logger.Error("Retrain failed", err, port.Fields{"task_id": taskID.String()})
		if isModelUnavailable(err) {
			WriteJSONError(w, http.StatusServiceUnavailable, "Training data is not available")
			return
		}
		WriteJSONError(w, http.StatusInternalServerError, "Failed to retrain model")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": taskID.String(),
		"run":     toTrainingRunDTO(*run),
	})
}

// HandleGetOptions - GET /api/v1/options
func (h *EstimationHandlers) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	model, err := h.models.Current()
	if err != nil {
		WriteJSONError(w, http.StatusServiceUnavailable, "Model is not available yet")
		return
	}
	opts := model.Options()
	RespondWithJSON(w, http.StatusOK, OptionsDTO{AreaTypes: opts.AreaTypes, Locations: opts.Locations})
}

// HandleHealth - GET /health
func (h *EstimationHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := h.models.Current()
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"model_ready": err == nil,
	})
}

func isModelUnavailable(err error) bool {
	return errors.Is(err, domain.ErrModelNotReady) ||
		errors.Is(err, domain.ErrSourceUnavailable) ||
		errors.Is(err, domain.ErrNoTrainingData)
}

package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"price-estimation-service/internal/contextkeys"
	"price-estimation-service/internal/core/domain"
	"price-estimation-service/internal/core/estimator"
	"price-estimation-service/internal/core/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	rows []domain.RawListing
	err  error
}

func (s *staticSource) Load(ctx context.Context) ([]domain.RawListing, error) { return s.rows, s.err }
func (s *staticSource) Name() string                                          { return "static" }

func listing(location string, bhk int, sqft float64, bath int, price float64) domain.RawListing {
	areaType := "Super built-up  Area"
	size := fmt.Sprintf("%d BHK", bhk)
	return domain.RawListing{
		AreaType:  &areaType,
		Location:  &location,
		Size:      &size,
		TotalSqft: domain.AreaFromNumber(sqft),
		Bath:      &bath,
		Price:     &price,
	}
}

func trainingRows() []domain.RawListing {
	var rows []domain.RawListing
	for _, loc := range []string{"Whitefield", "Hebbal"} {
		for i := 0; i < 12; i++ {
			sqft := 800 + float64(i)*100
			rows = append(rows, listing(loc, 1+i%3, sqft, 1+i%2, sqft*(5000+float64(i%4)*25)/100000))
		}
	}
	return rows
}

type testEnv struct {
	router   http.Handler
	provider *usecase.ModelProvider
}

func newTestEnv(t *testing.T, source *staticSource, train bool) testEnv {
	t.Helper()

	provider := usecase.NewModelProvider(usecase.NewTrainModelUseCase(source, nil, estimator.DefaultTrainConfig()))
	if train {
		_, err := provider.Get(context.Background())
		require.NoError(t, err)
	}

	handlers := NewEstimationHandlers(
		usecase.NewEstimatePriceUseCase(provider),
		usecase.NewCleanListingsUseCase(),
		usecase.NewGetModelInfoUseCase(provider, nil),
		usecase.NewRetrainModelUseCase(provider, nil),
		provider,
	)
	return testEnv{
		router:   NewRouter(handlers, contextkeys.NoopLogger(), []string{"*"}),
		provider: provider,
	}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestEstimate_OK(t *testing.T) {
	env := newTestEnv(t, &staticSource{rows: trainingRows()}, true)

	rec := do(t, env.router, http.MethodPost, "/api/v1/estimates",
		`{"area_type":"Super built-up  Area","location":"Whitefield","total_sqft":"1000 - 1200","bath":2,"bhk":2}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.NotEmpty(t, body["formatted"])
	cleaned := body["cleaned"].(map[string]interface{})
	assert.Equal(t, 1100.0, cleaned["total_sqft"])
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestEstimate_Unsupported(t *testing.T) {
	env := newTestEnv(t, &staticSource{rows: trainingRows()}, true)

	// 5 ванных при 1 спальне не проходят фильтр
	rec := do(t, env.router, http.MethodPost, "/api/v1/estimates",
		`{"area_type":"Super built-up  Area","location":"Whitefield","total_sqft":900,"bath":5,"bhk":1}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, UnsupportedInputMessage, decode(t, rec)["error"])
}

func TestEstimate_SchemaViolation(t *testing.T) {
	env := newTestEnv(t, &staticSource{rows: trainingRows()}, true)

	rec := do(t, env.router, http.MethodPost, "/api/v1/estimates", `{"location":"Whitefield","total_sqft":900}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, env.router, http.MethodPost, "/api/v1/estimates", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEstimate_ModelUnavailable(t *testing.T) {
	env := newTestEnv(t, &staticSource{err: domain.ErrSourceUnavailable}, false)

	rec := do(t, env.router, http.MethodPost, "/api/v1/estimates",
		`{"area_type":"Plot  Area","location":"Whitefield","total_sqft":900,"bath":1,"bhk":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCleanListings(t *testing.T) {
	env := newTestEnv(t, &staticSource{rows: trainingRows()}, false)

	batch := `[
		{"area_type":"Plot  Area","location":"Hebbal","size":"2 BHK","total_sqft":"1200","bath":2,"price":60},
		{"area_type":"Plot  Area","location":"Hebbal","size":"2 BHK","total_sqft":null,"bath":2,"price":60},
		{"area_type":"Plot  Area","location":" Hebbal ","size":"3 Bedroom","total_sqft":1500,"bath":2.0,"price":75}
	]`
	rec := do(t, env.router, http.MethodPost, "/api/v1/listings/clean?min_loc_count=2", batch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CleanResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Stats.Input)
	assert.Equal(t, 2, resp.Stats.Complete)
	require.Len(t, resp.Records, 2)
	for _, r := range resp.Records {
		assert.Equal(t, "Hebbal", r.Location)
	}
}

func TestCleanListings_BadQuery(t *testing.T) {
	env := newTestEnv(t, &staticSource{}, false)

	rec := do(t, env.router, http.MethodPost, "/api/v1/listings/clean?min_loc_count=zero", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanListings_EmptyBatch(t *testing.T) {
	env := newTestEnv(t, &staticSource{}, false)

	rec := do(t, env.router, http.MethodPost, "/api/v1/listings/clean", `[]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"records":[],"stats":{"input":0,"complete":0,"other_locations":0,"after_floor_area":0,"after_outliers":0,"output":0}}`, rec.Body.String())
}

func TestModelInfoAndOptions(t *testing.T) {
	env := newTestEnv(t, &staticSource{rows: trainingRows()}, false)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, env.router, http.MethodGet, "/api/v1/model", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, env.router, http.MethodGet, "/api/v1/options", "").Code)

	health := decode(t, do(t, env.router, http.MethodGet, "/health", ""))
	assert.Equal(t, false, health["model_ready"])

	rec := do(t, env.router, http.MethodPost, "/api/v1/model/retrain", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, env.router, http.MethodGet, "/api/v1/model", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info ModelInfoDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 24, info.Current.RawRows)
	assert.Equal(t, "batch", info.Current.Binning)

	rec = do(t, env.router, http.MethodGet, "/api/v1/options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var opts OptionsDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"Super built-up  Area"}, opts.AreaTypes)

	health = decode(t, do(t, env.router, http.MethodGet, "/health", ""))
	assert.Equal(t, true, health["model_ready"])
}

func TestRetrain_SourceUnavailable(t *testing.T) {
	env := newTestEnv(t, &staticSource{err: domain.ErrSourceUnavailable}, false)

	rec := do(t, env.router, http.MethodPost, "/api/v1/model/retrain", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package cleaning

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"price-estimation-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func listing(areaType, location, size, sqft string, bath int, price float64) domain.RawListing {
	return domain.RawListing{
		AreaType:  strPtr(areaType),
		Location:  strPtr(location),
		Size:      strPtr(size),
		TotalSqft: domain.AreaFromText(sqft),
		Bath:      intPtr(bath),
		Price:     floatPtr(price),
	}
}

// repeat создает n одинаковых строк с одним и тем же price_per_sqft
func repeat(n int, location string, sqft string, price float64) []domain.RawListing {
	out := make([]domain.RawListing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, listing("Super built-up  Area", location, "2 BHK", sqft, 2, price))
	}
	return out
}

func toRaw(records []domain.CleanedRecord) []domain.RawListing {
	out := make([]domain.RawListing, 0, len(records))
	for _, r := range records {
		out = append(out, domain.RawListing{
			AreaType:  strPtr(r.AreaType),
			Location:  strPtr(r.Location),
			Size:      strPtr(fmt.Sprintf("%d BHK", r.BHK)),
			TotalSqft: domain.AreaFromNumber(r.TotalSqft),
			Bath:      intPtr(r.Bath),
			Price:     floatPtr(r.Price),
		})
	}
	return out
}

func TestCleanAndEngineer_EmptyBatch(t *testing.T) {
	out := CleanAndEngineer(nil, DefaultMinLocationCount)
	assert.Empty(t, out)

	out = CleanAndEngineer([]domain.RawListing{}, DefaultMinLocationCount)
	assert.Empty(t, out)
}

func TestCleanAndEngineer_DropsIncompleteRows(t *testing.T) {
	complete := listing("Plot  Area", "Hebbal", "3 BHK", "1500", 2, 80)

	noSize := complete
	noSize.Size = nil
	noDigits := complete
	noDigits.Size = strPtr("BHK")
	noPrice := complete
	noPrice.Price = nil
	noLocation := complete
	noLocation.Location = nil
	noAreaType := complete
	noAreaType.AreaType = nil
	noBath := complete
	noBath.Bath = nil
	badSqft := complete
	badSqft.TotalSqft = domain.AreaFromText("abc")
	noSqft := complete
	noSqft.TotalSqft = domain.MissingArea()

	batch := []domain.RawListing{noSize, noDigits, noPrice, noLocation, noAreaType, noBath, badSqft, noSqft, complete}
	out, stats := Run(batch, Options{MinLocationCount: 1})

	require.Len(t, out, 1)
	assert.Equal(t, domain.CleanedRecord{
		TotalSqft: 1500, Bath: 2, BHK: 3, AreaType: "Plot  Area", Location: "Hebbal", Price: 80,
	}, out[0])
	assert.Equal(t, 9, stats.Input)
	assert.Equal(t, 1, stats.Complete)
	assert.Equal(t, 1, stats.Output)
}

func TestCleanAndEngineer_BHKFromFreeText(t *testing.T) {
	batch := []domain.RawListing{
		listing("Plot  Area", "A", "4 Bedroom", "2400", 4, 100),
		listing("Plot  Area", "A", "  12BHK", "9600", 12, 400),
	}
	out := CleanAndEngineer(batch, 1)

	require.Len(t, out, 2)
	assert.Equal(t, 4, out[0].BHK)
	assert.Equal(t, 12, out[1].BHK)
}

func TestCleanAndEngineer_SingletonLocationBecomesOther(t *testing.T) {
	batch := repeat(10, "Whitefield", "1000", 50)
	batch = append(batch, listing("Plot  Area", "Hebbal", "2 BHK", "1200", 2, 70))

	out := CleanAndEngineer(batch, DefaultMinLocationCount)

	var locations []string
	for _, r := range out {
		locations = append(locations, r.Location)
	}
	assert.Contains(t, locations, OtherLocation)
	assert.NotContains(t, locations, "Hebbal")
	assert.Contains(t, locations, "Whitefield")
}

func TestCleanAndEngineer_LocationTrimAndUnknown(t *testing.T) {
	batch := []domain.RawListing{
		listing("Plot  Area", "  Whitefield ", "2 BHK", "1000", 2, 50),
		listing("Plot  Area", "Whitefield", "2 BHK", "1000", 2, 50),
		listing("Plot  Area", "   ", "2 BHK", "1000", 2, 50),
		listing("Plot  Area", "", "2 BHK", "1000", 2, 50),
	}

	out := CleanAndEngineer(batch, 2)

	require.Len(t, out, 4)
	counts := map[string]int{}
	for _, r := range out {
		counts[r.Location]++
	}
	assert.Equal(t, map[string]int{"Whitefield": 2, UnknownLocation: 2}, counts)
}

func TestCleanAndEngineer_FloorAreaPerRoom(t *testing.T) {
	batch := []domain.RawListing{
		listing("Plot  Area", "A", "2 BHK", "500", 2, 30),
		listing("Plot  Area", "A", "2 BHK", "600", 2, 36),
		listing("Plot  Area", "A", "0 BHK", "600", 0, 36),
		{
			AreaType:  strPtr("Plot  Area"),
			Location:  strPtr("A"),
			Size:      strPtr("1 BHK"),
			TotalSqft: domain.AreaFromNumber(-400),
			Bath:      intPtr(1),
			Price:     floatPtr(10),
		},
	}

	out := CleanAndEngineer(batch, 1)

	require.Len(t, out, 1)
	assert.Equal(t, 600.0, out[0].TotalSqft)
}

func TestCleanAndEngineer_BathPlausibility(t *testing.T) {
	batch := []domain.RawListing{
		listing("Plot  Area", "A", "2 BHK", "1000", 4, 50),
		listing("Plot  Area", "A", "2 BHK", "1000", 5, 50),
	}

	out := CleanAndEngineer(batch, 1)

	require.Len(t, out, 1)
	assert.Equal(t, 4, out[0].Bath)
}

func TestCleanAndEngineer_IdenticalPricePerSqftKept(t *testing.T) {
	batch := []domain.RawListing{
		listing("Plot  Area", "A", "2 BHK", "1000", 2, 50),
		listing("Plot  Area", "A", "3 BHK", "2000", 2, 100),
		listing("Plot  Area", "A", "2 BHK", "1000", 2, 50),
		listing("Plot  Area", "A", "4 BHK", "3000", 3, 150),
	}

	out := CleanAndEngineer(batch, 1)
	assert.Len(t, out, 4)
}

func TestCleanAndEngineer_RemovesPricePerSqftOutliers(t *testing.T) {
	batch := repeat(4, "A", "1000", 50)
	// price_per_sqft 20000 против 5000 у остальных
	batch = append(batch, listing("Plot  Area", "A", "2 BHK", "1000", 2, 200))

	out := CleanAndEngineer(batch, 1)

	require.Len(t, out, 4)
	for _, r := range out {
		assert.Equal(t, 50.0, r.Price)
	}
}

func TestCleanAndEngineer_GroupsAreOrderedByLocation(t *testing.T) {
	batch := []domain.RawListing{
		listing("Plot  Area", "B", "2 BHK", "1000", 2, 50),
		listing("Plot  Area", "A", "2 BHK", "1100", 2, 55),
		listing("Plot  Area", "B", "2 BHK", "1200", 2, 60),
		listing("Plot  Area", "A", "2 BHK", "1300", 2, 65),
	}

	out := CleanAndEngineer(batch, 1)

	require.Len(t, out, 4)
	assert.Equal(t, []string{"A", "A", "B", "B"}, []string{out[0].Location, out[1].Location, out[2].Location, out[3].Location})
	assert.Equal(t, 1100.0, out[0].TotalSqft)
	assert.Equal(t, 1300.0, out[1].TotalSqft)
	assert.Equal(t, 1000.0, out[2].TotalSqft)
}

func TestCleanAndEngineer_InvariantsHoldOnRandomBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	locations := []string{"Whitefield", "Sarjapur Road", "Electronic City", "Hebbal", "Yelahanka", " Koramangala "}
	areaTypes := []string{"Super built-up  Area", "Built-up  Area", "Plot  Area", "Carpet  Area"}

	batch := make([]domain.RawListing, 0, 500)
	for i := 0; i < 500; i++ {
		loc := locations[rng.Intn(len(locations))]
		if rng.Intn(20) == 0 {
			loc = fmt.Sprintf("Rare place %d", i)
		}
		bhk := 1 + rng.Intn(5)
		sqft := 200 + rng.Intn(3000)
		batch = append(batch, listing(
			areaTypes[rng.Intn(len(areaTypes))],
			loc,
			fmt.Sprintf("%d BHK", bhk),
			fmt.Sprintf("%d", sqft),
			rng.Intn(8),
			10+rng.Float64()*300,
		))
	}

	frequency := map[string]int{}
	for _, r := range batch {
		frequency[strings.TrimSpace(*r.Location)]++
	}

	out := CleanAndEngineer(batch, DefaultMinLocationCount)
	require.NotEmpty(t, out)

	for _, r := range out {
		assert.Greater(t, r.TotalSqft, 0.0)
		assert.GreaterOrEqual(t, r.BHK, 1)
		assert.GreaterOrEqual(t, r.TotalSqft/float64(r.BHK), 300.0)
		assert.LessOrEqual(t, r.Bath, r.BHK+2)
		if r.Location != OtherLocation {
			assert.GreaterOrEqual(t, frequency[r.Location], DefaultMinLocationCount, r.Location)
		}
	}
}

func TestCleanAndEngineer_IsDeterministic(t *testing.T) {
	batch := append(repeat(12, "Whitefield", "1000", 50), repeat(3, "Hebbal", "1500", 90)...)
	batch = append(batch, listing("Plot  Area", "Whitefield", "2 BHK", "1000", 2, 300))

	first := CleanAndEngineer(batch, DefaultMinLocationCount)
	second := CleanAndEngineer(batch, DefaultMinLocationCount)
	assert.Equal(t, first, second)
}

func TestCleanAndEngineer_FixedPointBatch(t *testing.T) {
	batch := append(repeat(10, "Whitefield", "1000", 50), repeat(10, "Hebbal", "1500", 90)...)

	once := CleanAndEngineer(batch, DefaultMinLocationCount)
	require.Len(t, once, 20)

	twice := CleanAndEngineer(toRaw(once), DefaultMinLocationCount)
	assert.Equal(t, once, twice)
}

func TestCleanAndEngineer_WhitefieldInferenceRow(t *testing.T) {
	// Батч чистого инференса: у всех строк цена-заглушка 0, поэтому price_per_sqft
	// в группе одинаковый и фильтр выбросов ничего не удаляет.
	batch := make([]domain.RawListing, 0, 11)
	for i := 0; i < 10; i++ {
		batch = append(batch, listing("Built-up  Area", "Whitefield", "2 BHK", fmt.Sprintf("%d", 1100+i*10), 2, 0))
	}
	batch = append(batch, listing("Super built-up  Area", "Whitefield", "3 BHK", "1500", 3, 0))

	out := CleanAndEngineer(batch, DefaultMinLocationCount)

	var found *domain.CleanedRecord
	for i := range out {
		if out[i].AreaType == "Super built-up  Area" {
			found = &out[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 3, found.BHK)
	assert.Equal(t, 1500.0, found.TotalSqft)
	assert.Equal(t, "Whitefield", found.Location)
}

func TestCleanWithVocabulary_KeepsTrainingLocations(t *testing.T) {
	training := append(repeat(10, "Whitefield", "1000", 50), repeat(3, "Hebbal", "1500", 90)...)
	vocab := BuildLocationVocabulary(training, DefaultMinLocationCount)

	assert.True(t, vocab.Contains("Whitefield"))
	assert.False(t, vocab.Contains("Hebbal"))
	assert.Equal(t, []string{"Whitefield"}, vocab.Locations())

	single := []domain.RawListing{listing("Super built-up  Area", " Whitefield", "3 BHK", "1500", 3, 0)}
	out := CleanWithVocabulary(single, vocab)
	require.Len(t, out, 1)
	assert.Equal(t, "Whitefield", out[0].Location)

	// В режиме батча та же строка превращается в "other"
	out = CleanAndEngineer(single, DefaultMinLocationCount)
	require.Len(t, out, 1)
	assert.Equal(t, OtherLocation, out[0].Location)

	rare := []domain.RawListing{listing("Plot  Area", "Hebbal", "2 BHK", "1500", 2, 0)}
	out = CleanWithVocabulary(rare, vocab)
	require.Len(t, out, 1)
	assert.Equal(t, OtherLocation, out[0].Location)
}

func TestRun_Stats(t *testing.T) {
	batch := repeat(10, "Whitefield", "1000", 50)
	batch = append(batch,
		listing("Plot  Area", "Hebbal", "2 BHK", "1000", 2, 50),
		listing("Plot  Area", "Whitefield", "2 BHK", "400", 2, 20),
		listing("Plot  Area", "Whitefield", "2 BHK", "1000", 6, 50),
		listing("Plot  Area", "Whitefield", "", "1000", 2, 50),
	)

	out, stats := Run(batch, Options{MinLocationCount: DefaultMinLocationCount})

	assert.Equal(t, Stats{
		Input:          14,
		Complete:       13,
		OtherLocations: 1,
		AfterFloorArea: 12,
		AfterOutliers:  12,
		Output:         11,
	}, stats)
	assert.Len(t, out, 11)
}

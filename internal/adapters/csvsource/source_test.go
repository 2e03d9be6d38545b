package csvsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"price-estimation-service/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `area_type,availability,location,size,society,total_sqft,bath,balcony,price
Super built-up  Area,19-Dec,Electronic City Phase II,2 BHK,Coomee ,1056,2.0,1.0,39.07
Plot  Area,Ready To Move,Chikka Tirupathi,4 Bedroom,Theanmp,2600,5.0,3.0,120
Built-up  Area,Ready To Move,Uttarahalli,3 BHK,,2100 - 2850,,3.0,62
Super built-up  Area,Ready To Move,,2 BHK,,34.46Sq. Meter,1.5,,51
`

func TestParse_Cells(t *testing.T) {
	listings, skipped, err := Parse(context.Background(), strings.NewReader(sample))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, listings, 4)

	first := listings[0]
	require.NotNil(t, first.Location)
	assert.Equal(t, "Electronic City Phase II", *first.Location)
	assert.Equal(t, "2 BHK", *first.Size)
	text, ok := first.TotalSqft.Text()
	require.True(t, ok)
	assert.Equal(t, "1056", text)
	require.NotNil(t, first.Bath)
	assert.Equal(t, 2, *first.Bath)
	assert.InDelta(t, 39.07, *first.Price, 1e-9)

	// пустая ванная
	assert.Nil(t, listings[2].Bath)
	rangeText, _ := listings[2].TotalSqft.Text()
	assert.Equal(t, "2100 - 2850", rangeText)

	// пустая локация и дробная ванная
	assert.Nil(t, listings[3].Location)
	assert.Nil(t, listings[3].Bath)
}

func TestParse_MissingColumn(t *testing.T) {
	_, _, err := Parse(context.Background(), strings.NewReader("area_type,location,size\nx,y,z\n"))
	assert.ErrorContains(t, err, "total_sqft")
}

func TestParse_ShortRowSkipped(t *testing.T) {
	data := "area_type,location,size,total_sqft,bath,price\nPlot  Area,Hebbal,2 BHK,1200,2,80\nPlot  Area,Hebbal\n"
	listings, skipped, err := Parse(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.Equal(t, 1, skipped)
}

func TestListingSource_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	_, err := NewListingSource(path).Load(context.Background())

	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), path)
}

func TestListingSource_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "houses.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	source := NewListingSource(path)
	listings, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 4)
	assert.Equal(t, "csv:"+path, source.Name())
}

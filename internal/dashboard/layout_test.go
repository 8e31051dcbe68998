package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/treecover.report/internal/dataset"
)

func TestNewLayout(t *testing.T) {
	l, err := NewLayout(scenarioDataset(t), "Global Deforestation Analysis")
	require.NoError(t, err)

	assert.Equal(t, "Global Deforestation Analysis", l.Title)
	assert.Equal(t, []string{"deforestation-bar-chart", "deforestation-line-chart", "co2-deforestation-scatter"}, l.ChartIDs)
	assert.Equal(t, "map", l.MapID)
	assert.Equal(t, "year-slider", l.Slider.ID)
	assert.Equal(t, []int{2010, 2011}, l.Slider.Stops)
	assert.Equal(t, 2010, l.InitialYear())
	assert.Equal(t, 2010, l.Slider.Min())
	assert.Equal(t, 2011, l.Slider.Max())
	assert.Equal(t, []string{"2010", "2011"}, l.Slider.Marks())
}

func TestLayout_ValidYear(t *testing.T) {
	ds := datasetOf(t, []dataset.LossRecord{
		{ISO: "BRA", Year: 2015}, {ISO: "BRA", Year: 2001}, {ISO: "IDN", Year: 2008},
	})
	l, err := NewLayout(ds, "t")
	require.NoError(t, err)

	assert.Equal(t, []int{2001, 2008, 2015}, l.Slider.Stops, "stops are sorted, gaps allowed")
	assert.Equal(t, 2001, l.InitialYear())
	for _, y := range []int{2001, 2008, 2015} {
		assert.True(t, l.ValidYear(y), "%d", y)
	}
	for _, y := range []int{0, 2000, 2005, 2016} {
		assert.False(t, l.ValidYear(y), "%d", y)
	}
	assert.Equal(t, 1, l.Slider.Index(2008))
	assert.Equal(t, -1, l.Slider.Index(2009))
}

func TestNewLayout_NoYears(t *testing.T) {
	_, err := NewLayout(datasetOf(t, nil), "t")
	assert.ErrorIs(t, err, ErrNoYears)
}

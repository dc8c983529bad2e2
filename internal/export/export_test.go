package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/lifeexp-cli/internal/analysis"
	"github.com/KaramelBytes/lifeexp-cli/internal/cleaning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResults() *analysis.Results {
	return &analysis.Results{
		Records:      3,
		GDPThreshold: 1500,
		Trend: []analysis.TrendRow{
			{Country: "Afghanistan", MinLifeExpectancy: 58.8, MaxLifeExpectancy: 65, LifeIncrease: 6.2},
		},
		YearlyAverage: []analysis.YearlyAverageRow{{Year: 2014, AvgLifeExpectancy: 71.5}},
		GDPBucket:     analysis.GDPBucket{HighCount: 1, HighAvgLifeExpectancy: 80, LowCount: 2, LowAvgLifeExpectancy: 60.25},
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"markdown", "csv", "xlsx", "json"} {
		assert.True(t, ValidFormat(f), f)
	}
	assert.False(t, ValidFormat("html"))
}

func TestCSVDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := CSVDir(dir, sampleResults().Tables())
	require.NoError(t, err)
	require.Len(t, paths, 7)

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	assert.Equal(t, []string{
		"trend.csv", "yearly_average.csv", "gdp_correlation.csv", "gdp_bucket.csv",
		"status_comparison.csv", "bmi_correlation.csv", "mortality_rolling_total.csv",
	}, names)

	b, err := os.ReadFile(filepath.Join(dir, "trend.csv"))
	require.NoError(t, err)
	assert.Equal(t, "country,min_life_expectancy,max_life_expectancy,life_increase\nAfghanistan,58.8,65,6.2\n", string(b))

	b, err = os.ReadFile(filepath.Join(dir, "gdp_bucket.csv"))
	require.NoError(t, err)
	assert.Equal(t, "high_count,high_avg_life_expectancy,low_count,low_avg_life_expectancy\n1,80,2,60.25\n", string(b))

	b, err = os.ReadFile(filepath.Join(dir, "bmi_correlation.csv"))
	require.NoError(t, err)
	assert.Equal(t, "country,avg_life_expectancy,avg_bmi\n", string(b))
}

func TestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, XLSX(path, sampleResults().Tables(), "run-123"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"trend", "yearly_average", "gdp_correlation", "gdp_bucket",
		"status_comparison", "bmi_correlation", "mortality_rolling_total",
	}, f.GetSheetList())

	rows, err := f.GetRows("yearly_average")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"year", "avg_life_expectancy"}, rows[0])
	assert.Equal(t, []string{"2014", "71.5"}, rows[1])

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "run-123", props.Identifier)
}

func TestJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	doc := Document{
		RunID:    "run-123",
		Source:   "life.csv",
		Cleaning: &cleaning.Result{RunID: "run-123", Diagnostics: cleaning.Diagnostics{Records: 3}},
		Results:  sampleResults(),
	}
	require.NoError(t, JSON(path, doc))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "run-123", got["run_id"])
	results := got["results"].(map[string]any)
	assert.EqualValues(t, 1500, results["gdp_threshold"])
	bucket := results["gdp_bucket"].(map[string]any)
	assert.EqualValues(t, 2, bucket["low_count"])
	diag := got["cleaning"].(map[string]any)["diagnostics"].(map[string]any)
	assert.EqualValues(t, 3, diag["records"])
}

package analysis

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []dataset.Record{
	{ID: 1, Country: "A", Year: 2010, Status: dataset.StatusDeveloping, LifeExpectancy: 60, AdultMortality: 200, GDP: 1000, BMI: 20},
	{ID: 2, Country: "A", Year: 2011, Status: dataset.StatusDeveloping, LifeExpectancy: 64, AdultMortality: 180, GDP: 1500, BMI: 22},
	{ID: 3, Country: "B", Year: 2011, Status: dataset.StatusDeveloped, LifeExpectancy: 80, AdultMortality: 60, GDP: 40000, BMI: 26},
	{ID: 4, Country: "B", Year: 2010, Status: dataset.StatusDeveloped, LifeExpectancy: 79, AdultMortality: 0, GDP: 0, BMI: 0},
	{ID: 5, Country: "C", Year: 2010, LifeExpectancy: 0, AdultMortality: 300, GDP: 500, BMI: 18},
	{ID: 6, Country: "C", Year: 2011, LifeExpectancy: 55, AdultMortality: 310, GDP: 600, BMI: 19},
}

func TestTrend(t *testing.T) {
	got := Trend(sample)
	require.Len(t, got, 2, "C has a missing year and is excluded")
	assert.Equal(t, TrendRow{Country: "A", MinLifeExpectancy: 60, MaxLifeExpectancy: 64, LifeIncrease: 4}, got[0])
	assert.Equal(t, TrendRow{Country: "B", MinLifeExpectancy: 79, MaxLifeExpectancy: 80, LifeIncrease: 1}, got[1])
}

func TestYearlyAverage(t *testing.T) {
	got := YearlyAverage(sample)
	require.Len(t, got, 2)
	assert.Equal(t, 2010, got[0].Year)
	assert.InDelta(t, (60.0+79.0)/2, got[0].AvgLifeExpectancy, 1e-9)
	assert.Equal(t, 2011, got[1].Year)
	assert.InDelta(t, (64.0+80.0+55.0)/3, got[1].AvgLifeExpectancy, 1e-9)
}

func TestGDPCorrelation(t *testing.T) {
	got := GDPCorrelation(sample)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{got[0].Country, got[1].Country, got[2].Country})
	assert.Equal(t, GDPCorrelationRow{Country: "C", AvgLifeExpectancy: 55, AvgGDP: 600}, got[0])
	assert.Equal(t, GDPCorrelationRow{Country: "A", AvgLifeExpectancy: 62, AvgGDP: 1250}, got[1])
	assert.Equal(t, GDPCorrelationRow{Country: "B", AvgLifeExpectancy: 80, AvgGDP: 40000}, got[2])
}

func TestBMICorrelation(t *testing.T) {
	got := BMICorrelation(sample)
	require.Len(t, got, 3)
	assert.Equal(t, BMICorrelationRow{Country: "B", AvgLifeExpectancy: 80, AvgBMI: 26}, got[0])
	assert.Equal(t, BMICorrelationRow{Country: "A", AvgLifeExpectancy: 62, AvgBMI: 21}, got[1])
	assert.Equal(t, BMICorrelationRow{Country: "C", AvgLifeExpectancy: 55, AvgBMI: 19}, got[2])
}

func TestBucketThresholdInclusion(t *testing.T) {
	got := Bucket(sample, 1500)
	// A/2011 sits exactly on the threshold and lands in both buckets.
	assert.Equal(t, 2, got.HighCount)
	assert.InDelta(t, (64.0+80.0)/2, got.HighAvgLifeExpectancy, 1e-9)
	assert.Equal(t, 3, got.LowCount)
	assert.InDelta(t, (60.0+64.0+55.0)/3, got.LowAvgLifeExpectancy, 1e-9)

	only := Bucket([]dataset.Record{{Country: "X", Year: 1, LifeExpectancy: 70, GDP: 1500}}, 1500)
	assert.Equal(t, GDPBucket{HighCount: 1, HighAvgLifeExpectancy: 70, LowCount: 1, LowAvgLifeExpectancy: 70}, only)
}

func TestStatusComparison(t *testing.T) {
	got := StatusComparison(sample)
	require.Len(t, got, 2)
	assert.Equal(t, StatusComparisonRow{Status: dataset.StatusDeveloped, DistinctCountryCount: 1, AvgLifeExpectancy: 79.5}, got[0])
	assert.Equal(t, StatusComparisonRow{Status: dataset.StatusDeveloping, DistinctCountryCount: 1, AvgLifeExpectancy: 62}, got[1])
}

func TestStatusComparisonCountsCountriesWithoutLifeExpectancy(t *testing.T) {
	got := StatusComparison([]dataset.Record{
		{ID: 1, Country: "A", Year: 2010, Status: dataset.StatusDeveloping, LifeExpectancy: 60},
		{ID: 2, Country: "Cook Islands", Year: 2013, Status: dataset.StatusDeveloping},
	})
	require.Len(t, got, 1)
	assert.Equal(t, StatusComparisonRow{Status: dataset.StatusDeveloping, DistinctCountryCount: 2, AvgLifeExpectancy: 60}, got[0])
}

func TestMortalityRollingTotal(t *testing.T) {
	got := MortalityRollingTotal(sample)
	require.Len(t, got, len(sample))
	want := []MortalityRollingRow{
		{Country: "A", Year: 2010, LifeExpectancy: 60, AdultMortality: 200, RollingTotal: 200},
		{Country: "A", Year: 2011, LifeExpectancy: 64, AdultMortality: 180, RollingTotal: 380},
		{Country: "B", Year: 2010, LifeExpectancy: 79, AdultMortality: 0, RollingTotal: 0},
		{Country: "B", Year: 2011, LifeExpectancy: 80, AdultMortality: 60, RollingTotal: 60},
		{Country: "C", Year: 2010, LifeExpectancy: 0, AdultMortality: 300, RollingTotal: 300},
		{Country: "C", Year: 2011, LifeExpectancy: 55, AdultMortality: 310, RollingTotal: 610},
	}
	assert.Equal(t, want, got)

	for i := 1; i < len(got); i++ {
		if got[i].Country == got[i-1].Country {
			assert.GreaterOrEqual(t, got[i].RollingTotal, got[i-1].RollingTotal)
			assert.Greater(t, got[i].Year, got[i-1].Year)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	assert.Empty(t, Trend(nil))
	assert.Empty(t, YearlyAverage(nil))
	assert.Empty(t, GDPCorrelation(nil))
	assert.Empty(t, BMICorrelation(nil))
	assert.Empty(t, StatusComparison(nil))
	assert.Empty(t, MortalityRollingTotal(nil))
	assert.Equal(t, GDPBucket{}, Bucket(nil, 1500))
}

func TestEngineRun(t *testing.T) {
	ctx := context.Background()
	s := dataset.NewMemStore()
	for _, r := range sample {
		_, err := s.Insert(ctx, r)
		require.NoError(t, err)
	}
	e := NewEngine(0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := e.Run(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, len(sample), res.Records)
	assert.Equal(t, DefaultGDPThreshold, res.GDPThreshold)
	assert.Equal(t, Trend(sample), res.Trend)
	assert.Equal(t, YearlyAverage(sample), res.YearlyAverage)
	assert.Equal(t, GDPCorrelation(sample), res.GDPCorrelation)
	assert.Equal(t, Bucket(sample, 1500), res.GDPBucket)
	assert.Equal(t, StatusComparison(sample), res.StatusComparison)
	assert.Equal(t, BMICorrelation(sample), res.BMICorrelation)
	assert.Equal(t, MortalityRollingTotal(sample), res.MortalityRollingTotal)

	res, err = NewEngine(50000, nil).Run(ctx, s)
	require.NoError(t, err)
	assert.Zero(t, res.GDPBucket.HighCount)
	assert.Equal(t, 4, res.GDPBucket.LowCount)
}

func TestEngineRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := dataset.NewMemStore()
	_, _ = s.Insert(context.Background(), sample[0])
	_, err := (&Engine{}).Run(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTablesAndMarkdown(t *testing.T) {
	res := &Results{
		Records:       len(sample),
		GDPThreshold:  1500,
		Trend:         Trend(sample),
		GDPBucket:     Bucket(sample, 1500),
		YearlyAverage: YearlyAverage(sample),
	}
	tables := res.Tables()
	require.Len(t, tables, 7)
	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = tb.Name
		for _, row := range tb.Rows {
			assert.Len(t, row, len(tb.Columns), tb.Name)
		}
	}
	assert.Equal(t, []string{"trend", "yearly_average", "gdp_correlation", "gdp_bucket",
		"status_comparison", "bmi_correlation", "mortality_rolling_total"}, names)

	md := res.Markdown()
	for _, want := range []string{
		"[LIFE EXPECTANCY SUMMARY]",
		"Records: 6",
		"GDP threshold: 1500",
		"[TREND]",
		"| country | min_life_expectancy | max_life_expectancy | life_increase |",
		"| A | 60 | 64 | 4 |",
		"| 2010 | 69.5 |",
		"[GDP BUCKET]",
		"| 2 | 72 | 3 | 59.67 |",
		"[BMI CORRELATION]\n(no rows)",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{1500.0, "1500"},
		{0.0, "0"},
		{59.666666, "59.67"},
		{69.5, "69.5"},
		{42, "42"},
		{"Developing", "Developing"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCell(tt.in))
	}
}

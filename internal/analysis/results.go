package analysis

import "github.com/KaramelBytes/lifeexp-cli/internal/dataset"

// TrendRow is the life-expectancy spread of one country.
type TrendRow struct {
	Country           string  `json:"country"`
	MinLifeExpectancy float64 `json:"min_life_expectancy"`
	MaxLifeExpectancy float64 `json:"max_life_expectancy"`
	LifeIncrease      float64 `json:"life_increase"`
}

type YearlyAverageRow struct {
	Year              int     `json:"year"`
	AvgLifeExpectancy float64 `json:"avg_life_expectancy"`
}

type GDPCorrelationRow struct {
	Country           string  `json:"country"`
	AvgLifeExpectancy float64 `json:"avg_life_expectancy"`
	AvgGDP            float64 `json:"avg_gdp"`
}

// GDPBucket splits rows at the GDP threshold. A row exactly at the
// threshold counts in both buckets.
type GDPBucket struct {
	HighCount             int     `json:"high_count"`
	HighAvgLifeExpectancy float64 `json:"high_avg_life_expectancy"`
	LowCount              int     `json:"low_count"`
	LowAvgLifeExpectancy  float64 `json:"low_avg_life_expectancy"`
}

type StatusComparisonRow struct {
	Status               dataset.Status `json:"status"`
	DistinctCountryCount int            `json:"distinct_country_count"`
	AvgLifeExpectancy    float64        `json:"avg_life_expectancy"`
}

type BMICorrelationRow struct {
	Country           string  `json:"country"`
	AvgLifeExpectancy float64 `json:"avg_life_expectancy"`
	AvgBMI            float64 `json:"avg_bmi"`
}

// MortalityRollingRow carries the cumulative adult mortality of a country
// up to and including Year.
type MortalityRollingRow struct {
	Country        string  `json:"country"`
	Year           int     `json:"year"`
	LifeExpectancy float64 `json:"life_expectancy"`
	AdultMortality float64 `json:"adult_mortality"`
	RollingTotal   float64 `json:"rolling_total"`
}

// Results holds the seven analytical views over a cleaned dataset.
type Results struct {
	Records               int                   `json:"records"`
	GDPThreshold          float64               `json:"gdp_threshold"`
	Trend                 []TrendRow            `json:"trend"`
	YearlyAverage         []YearlyAverageRow    `json:"yearly_average"`
	GDPCorrelation        []GDPCorrelationRow   `json:"gdp_correlation"`
	GDPBucket             GDPBucket             `json:"gdp_bucket"`
	StatusComparison      []StatusComparisonRow `json:"status_comparison"`
	BMICorrelation        []BMICorrelationRow   `json:"bmi_correlation"`
	MortalityRollingTotal []MortalityRollingRow `json:"mortality_rolling_total"`
}

// Table is a named, column-ordered view of one result set. Cell values are
// string, int or float64.
type Table struct {
	Name    string
	Title   string
	Columns []string
	Rows    [][]any
}

// Tables returns the seven result sets in a fixed order with the column
// names used by every output format.
func (r *Results) Tables() []Table {
	trend := Table{Name: "trend", Title: "TREND",
		Columns: []string{"country", "min_life_expectancy", "max_life_expectancy", "life_increase"}}
	for _, x := range r.Trend {
		trend.Rows = append(trend.Rows, []any{x.Country, x.MinLifeExpectancy, x.MaxLifeExpectancy, x.LifeIncrease})
	}
	yearly := Table{Name: "yearly_average", Title: "YEARLY AVERAGE",
		Columns: []string{"year", "avg_life_expectancy"}}
	for _, x := range r.YearlyAverage {
		yearly.Rows = append(yearly.Rows, []any{x.Year, x.AvgLifeExpectancy})
	}
	gdp := Table{Name: "gdp_correlation", Title: "GDP CORRELATION",
		Columns: []string{"country", "avg_life_expectancy", "avg_gdp"}}
	for _, x := range r.GDPCorrelation {
		gdp.Rows = append(gdp.Rows, []any{x.Country, x.AvgLifeExpectancy, x.AvgGDP})
	}
	b := r.GDPBucket
	bucket := Table{Name: "gdp_bucket", Title: "GDP BUCKET",
		Columns: []string{"high_count", "high_avg_life_expectancy", "low_count", "low_avg_life_expectancy"},
		Rows:    [][]any{{b.HighCount, b.HighAvgLifeExpectancy, b.LowCount, b.LowAvgLifeExpectancy}}}
	status := Table{Name: "status_comparison", Title: "STATUS COMPARISON",
		Columns: []string{"status", "distinct_country_count", "avg_life_expectancy"}}
	for _, x := range r.StatusComparison {
		status.Rows = append(status.Rows, []any{string(x.Status), x.DistinctCountryCount, x.AvgLifeExpectancy})
	}
	bmi := Table{Name: "bmi_correlation", Title: "BMI CORRELATION",
		Columns: []string{"country", "avg_life_expectancy", "avg_bmi"}}
	for _, x := range r.BMICorrelation {
		bmi.Rows = append(bmi.Rows, []any{x.Country, x.AvgLifeExpectancy, x.AvgBMI})
	}
	rolling := Table{Name: "mortality_rolling_total", Title: "MORTALITY ROLLING TOTAL",
		Columns: []string{"country", "year", "life_expectancy", "adult_mortality", "rolling_total"}}
	for _, x := range r.MortalityRollingTotal {
		rolling.Rows = append(rolling.Rows, []any{x.Country, x.Year, x.LifeExpectancy, x.AdultMortality, x.RollingTotal})
	}
	return []Table{trend, yearly, gdp, bucket, status, bmi, rolling}
}

package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/lifeexp-cli/internal/dataset"
)

// Each query takes the full record set and excludes the missing sentinel
// (zero) from the metrics it aggregates.

// meanAcc accumulates a running mean.
type meanAcc struct {
	n   int
	sum float64
}

func (a *meanAcc) add(x float64) {
	a.n++
	a.sum += x
}

func (a meanAcc) mean() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// pairAcc accumulates two means over the same rows, grouped by country.
type pairAcc struct {
	life  meanAcc
	other meanAcc
}

// Trend reports max-min life expectancy per country, largest increase first.
// A missing value participates as zero, so a country with any missing year
// has a zero extreme and is excluded.
func Trend(recs []dataset.Record) []TrendRow {
	type span struct{ min, max float64 }
	spans := map[string]*span{}
	var order []string
	for _, r := range recs {
		sp := spans[r.Country]
		if sp == nil {
			sp = &span{min: math.Inf(1), max: math.Inf(-1)}
			spans[r.Country] = sp
			order = append(order, r.Country)
		}
		if r.LifeExpectancy < sp.min {
			sp.min = r.LifeExpectancy
		}
		if r.LifeExpectancy > sp.max {
			sp.max = r.LifeExpectancy
		}
	}
	out := make([]TrendRow, 0, len(order))
	for _, c := range order {
		sp := spans[c]
		if sp.min <= 0 || sp.max <= 0 {
			continue
		}
		out = append(out, TrendRow{Country: c, MinLifeExpectancy: sp.min, MaxLifeExpectancy: sp.max, LifeIncrease: sp.max - sp.min})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LifeIncrease == out[j].LifeIncrease {
			return out[i].Country < out[j].Country
		}
		return out[i].LifeIncrease > out[j].LifeIncrease
	})
	return out
}

// YearlyAverage averages life expectancy per year, ascending by year.
func YearlyAverage(recs []dataset.Record) []YearlyAverageRow {
	years := map[int]*meanAcc{}
	for _, r := range recs {
		if !r.HasLifeExpectancy() {
			continue
		}
		a := years[r.Year]
		if a == nil {
			a = &meanAcc{}
			years[r.Year] = a
		}
		a.add(r.LifeExpectancy)
	}
	out := make([]YearlyAverageRow, 0, len(years))
	for y, a := range years {
		out = append(out, YearlyAverageRow{Year: y, AvgLifeExpectancy: a.mean()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// correlate averages life expectancy and one other measure per country over
// rows where both are present.
func correlate(recs []dataset.Record, other func(dataset.Record) float64) map[string]*pairAcc {
	groups := map[string]*pairAcc{}
	for _, r := range recs {
		x := other(r)
		if !r.HasLifeExpectancy() || x <= 0 {
			continue
		}
		ga := groups[r.Country]
		if ga == nil {
			ga = &pairAcc{}
			groups[r.Country] = ga
		}
		ga.life.add(r.LifeExpectancy)
		ga.other.add(x)
	}
	return groups
}

// GDPCorrelation pairs average life expectancy with average GDP per country,
// ascending by GDP.
func GDPCorrelation(recs []dataset.Record) []GDPCorrelationRow {
	groups := correlate(recs, func(r dataset.Record) float64 { return r.GDP })
	out := make([]GDPCorrelationRow, 0, len(groups))
	for c, ga := range groups {
		out = append(out, GDPCorrelationRow{Country: c, AvgLifeExpectancy: ga.life.mean(), AvgGDP: ga.other.mean()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgGDP == out[j].AvgGDP {
			return out[i].Country < out[j].Country
		}
		return out[i].AvgGDP < out[j].AvgGDP
	})
	return out
}

// BMICorrelation pairs average life expectancy with average BMI per country,
// descending by BMI.
func BMICorrelation(recs []dataset.Record) []BMICorrelationRow {
	groups := correlate(recs, func(r dataset.Record) float64 { return r.BMI })
	out := make([]BMICorrelationRow, 0, len(groups))
	for c, ga := range groups {
		out = append(out, BMICorrelationRow{Country: c, AvgLifeExpectancy: ga.life.mean(), AvgBMI: ga.other.mean()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgBMI == out[j].AvgBMI {
			return out[i].Country < out[j].Country
		}
		return out[i].AvgBMI > out[j].AvgBMI
	})
	return out
}

// Bucket counts rows with gdp >= threshold as high and gdp <= threshold as
// low. Both bounds are inclusive. Rows missing life expectancy or GDP are
// skipped.
func Bucket(recs []dataset.Record, threshold float64) GDPBucket {
	var high, low meanAcc
	for _, r := range recs {
		if !r.HasLifeExpectancy() || !r.HasGDP() {
			continue
		}
		if r.GDP >= threshold {
			high.add(r.LifeExpectancy)
		}
		if r.GDP <= threshold {
			low.add(r.LifeExpectancy)
		}
	}
	return GDPBucket{
		HighCount:             high.n,
		HighAvgLifeExpectancy: high.mean(),
		LowCount:              low.n,
		LowAvgLifeExpectancy:  low.mean(),
	}
}

// StatusComparison reports, per known status, the number of distinct
// countries and the average life expectancy over rows with a recorded
// life expectancy. A country counts even when none of its rows has a life
// expectancy. Rows with an unknown status are skipped.
func StatusComparison(recs []dataset.Record) []StatusComparisonRow {
	type acc struct {
		life      meanAcc
		countries map[string]struct{}
	}
	groups := map[dataset.Status]*acc{}
	for _, r := range recs {
		if !r.Status.Known() {
			continue
		}
		a := groups[r.Status]
		if a == nil {
			a = &acc{countries: map[string]struct{}{}}
			groups[r.Status] = a
		}
		a.countries[r.Country] = struct{}{}
		if r.HasLifeExpectancy() {
			a.life.add(r.LifeExpectancy)
		}
	}
	out := make([]StatusComparisonRow, 0, len(groups))
	for st, a := range groups {
		out = append(out, StatusComparisonRow{Status: st, DistinctCountryCount: len(a.countries), AvgLifeExpectancy: a.life.mean()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

// MortalityRollingTotal orders each country's records by year and carries a
// cumulative sum of adult mortality that resets at every country.
func MortalityRollingTotal(recs []dataset.Record) []MortalityRollingRow {
	sorted := make([]dataset.Record, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Country != sorted[j].Country {
			return sorted[i].Country < sorted[j].Country
		}
		return sorted[i].Year < sorted[j].Year
	})
	out := make([]MortalityRollingRow, 0, len(sorted))
	var country string
	var total float64
	for i, r := range sorted {
		if i == 0 || r.Country != country {
			country = r.Country
			total = 0
		}
		total += r.AdultMortality
		out = append(out, MortalityRollingRow{
			Country:        r.Country,
			Year:           r.Year,
			LifeExpectancy: r.LifeExpectancy,
			AdultMortality: r.AdultMortality,
			RollingTotal:   total,
		})
	}
	return out
}

package dataset

import (
	"fmt"
	"math"
	"strings"
)

// RowID is the surrogate identity assigned to a record at ingestion.
// IDs are never reused within a store.
type RowID int64

// Status is the development classification of a country.
type Status string

const (
	StatusUnknown    Status = ""
	StatusDeveloping Status = "Developing"
	StatusDeveloped  Status = "Developed"
)

// ParseStatus normalizes a raw status value. Anything other than the two
// known classifications maps to StatusUnknown.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "developing":
		return StatusDeveloping
	case "developed":
		return StatusDeveloped
	default:
		return StatusUnknown
	}
}

// Known reports whether s is one of the known classifications.
func (s Status) Known() bool { return s == StatusDeveloping || s == StatusDeveloped }

// Record is one observation for a country in a year.
// A zero LifeExpectancy, GDP or BMI means the value was not recorded.
// AdultMortality may legitimately be zero.
type Record struct {
	ID             RowID   `json:"row_id"`
	Country        string  `json:"country"`
	Year           int     `json:"year"`
	Status         Status  `json:"status"`
	LifeExpectancy float64 `json:"life_expectancy"`
	AdultMortality float64 `json:"adult_mortality"`
	GDP            float64 `json:"gdp"`
	BMI            float64 `json:"bmi"`
}

// Key is the business key of a record.
type Key struct {
	Country string
	Year    int
}

func (k Key) String() string { return fmt.Sprintf("%s/%d", k.Country, k.Year) }

func (r Record) Key() Key { return Key{Country: r.Country, Year: r.Year} }

func (r Record) HasLifeExpectancy() bool { return r.LifeExpectancy > 0 }
func (r Record) HasGDP() bool            { return r.GDP > 0 }
func (r Record) HasBMI() bool            { return r.BMI > 0 }

// Patch carries the mutable fields of a record. Nil fields are left as-is.
// Country, Year and ID are never patched.
type Patch struct {
	Status         *Status
	LifeExpectancy *float64
	GDP            *float64
	BMI            *float64
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.LifeExpectancy == nil && p.GDP == nil && p.BMI == nil
}

func (p Patch) apply(r *Record) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.LifeExpectancy != nil {
		r.LifeExpectancy = *p.LifeExpectancy
	}
	if p.GDP != nil {
		r.GDP = *p.GDP
	}
	if p.BMI != nil {
		r.BMI = *p.BMI
	}
}

// Round1 rounds x to one decimal place, halves away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

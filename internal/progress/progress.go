// Package progress rolls monthly actual/target entries up into KPI, goal and
// manager progress. Everything here is a pure function of its arguments.
package progress

import (
	"sort"

	"github.com/arnold/kpigo-api/internal/models"
)

// Resolve returns the record for (year, month), if the KPI has one.
func Resolve(kpi models.KPI, year, month int) (models.MonthlyProgress, bool) {
	for _, p := range kpi.MonthlyProgress {
		if p.Year == year && p.Month == month {
			return p, true
		}
	}
	return models.MonthlyProgress{}, false
}

// Period is Resolve with the zero record standing in for missing data.
func Period(kpi models.KPI, year, month int) models.MonthlyProgress {
	p, _ := Resolve(kpi, year, month)
	return p
}

// Percent is actual/target*100. A non-positive target never reads as progress.
// The result is not clamped.
func Percent(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return actual / target * 100
}

type Status int

const (
	StatusNoTarget Status = iota
	StatusUnmet
	StatusMet
	StatusExceeded
)

// Classify compares actual against target exactly, with no tolerance band.
func Classify(actual, target float64) Status {
	switch {
	case target <= 0:
		return StatusNoTarget
	case actual > target:
		return StatusExceeded
	case actual == target:
		return StatusMet
	default:
		return StatusUnmet
	}
}

// Label is the badge text; NoTarget has none.
func (s Status) Label() string {
	switch s {
	case StatusExceeded:
		return "Exceeded"
	case StatusMet:
		return "Target Met"
	case StatusUnmet:
		return "In Progress"
	}
	return ""
}

func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusExceeded:
		return []byte("exceeded"), nil
	case StatusMet:
		return []byte("met"), nil
	case StatusUnmet:
		return []byte("unmet"), nil
	}
	return []byte("no_target"), nil
}

// GoalProgress is the weight-normalized average of the KPIs' percents for the
// period. Unweighted KPIs are left out of both sums, and a goal with no
// weight at all scores 0. Overweight goals (total > 100) still get the
// normalized average; see GoalWeighting to detect them.
func GoalProgress(kpis []models.KPI, year, month int) float64 {
	return weightedAverage(kpis, year, month)
}

// Weighting describes a goal's weight configuration.
type Weighting struct {
	Total      float64 `json:"total"`
	Overweight bool    `json:"overweight"`
}

func GoalWeighting(kpis []models.KPI) Weighting {
	var total float64
	for _, k := range kpis {
		total += k.WeightValue()
	}
	return Weighting{Total: total, Overweight: total > MaxWeight}
}

func weightedAverage(kpis []models.KPI, year, month int) float64 {
	var weightedSum, totalWeight float64
	for _, k := range kpis {
		w := k.WeightValue()
		if w <= 0 {
			continue
		}
		p := Period(k, year, month)
		weightedSum += Percent(p.Actual, p.Target) * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// Series returns the KPI's records for one year ordered by month.
func Series(kpi models.KPI, year int) []models.MonthlyProgress {
	out := make([]models.MonthlyProgress, 0, 12)
	for _, p := range kpi.MonthlyProgress {
		if p.Year == year {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// SeedYear builds the twelve empty records a new KPI starts with.
func SeedYear(year int, target float64) []models.MonthlyProgress {
	out := make([]models.MonthlyProgress, 12)
	for i := range out {
		out[i] = models.MonthlyProgress{Year: year, Month: i + 1, Target: target}
	}
	return out
}

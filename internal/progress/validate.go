package progress

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
)

// MaxWeight is the most a goal's KPI weights may add up to.
const MaxWeight = 100

// WeightError is a rejected weight, reported against the form field.
type WeightError struct {
	Field     string
	Message   string
	Remaining float64
}

func (e *WeightError) Error() string { return e.Message }

var ErrInvalidActual = errors.New("Please enter a valid positive number for the actual value.")

// ValidateWeight checks a proposed weight for a KPI on goalID against the
// weights already used by its siblings. excludingKPIID is the KPI being
// edited, or uuid.Nil on create. Other KPIs are never rescaled.
func ValidateWeight(candidate *float64, goalID, excludingKPIID uuid.UUID, existing []models.KPI) error {
	if candidate == nil || math.IsNaN(*candidate) || *candidate <= 0 || *candidate > MaxWeight {
		return &WeightError{Field: "weight", Message: "Weight must be between 1 and 100."}
	}

	var used float64
	for _, k := range existing {
		if k.GoalID != goalID || k.ID == excludingKPIID {
			continue
		}
		used += k.WeightValue()
	}

	if used+*candidate <= MaxWeight {
		return nil
	}
	remaining := math.Round((MaxWeight-used)*100) / 100
	if remaining <= 0 {
		return &WeightError{
			Field:   "weight",
			Message: "This goal's KPIs already use the full 100% weight.",
		}
	}
	return &WeightError{
		Field:     "weight",
		Message:   fmt.Sprintf("Total weight for this goal cannot exceed 100%%. Only %s%% remaining.", formatNumber(remaining)),
		Remaining: remaining,
	}
}

// ValidateActual rejects a missing, non-numeric or negative actual value.
func ValidateActual(v *float64) error {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return ErrInvalidActual
	}
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package progress

import (
	"errors"
	"math"
	"testing"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWeightRange(t *testing.T) {
	goal := uuid.New()
	for _, w := range []*float64{nil, weight(0), weight(-3), weight(100.5), weight(math.NaN())} {
		err := ValidateWeight(w, goal, uuid.Nil, nil)
		var werr *WeightError
		require.True(t, errors.As(err, &werr))
		assert.Equal(t, "weight", werr.Field)
		assert.Equal(t, "Weight must be between 1 and 100.", werr.Message)
	}
	assert.NoError(t, ValidateWeight(weight(100), goal, uuid.Nil, nil))
}

func TestValidateWeightHeadroom(t *testing.T) {
	goal := uuid.New()
	existing := []models.KPI{
		kpi(goal, weight(50)),
		kpi(goal, weight(30)),
		kpi(uuid.New(), weight(90)),
	}

	err := ValidateWeight(weight(25), goal, uuid.Nil, existing)
	var werr *WeightError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, 20.0, werr.Remaining)
	assert.Equal(t, "Total weight for this goal cannot exceed 100%. Only 20% remaining.", werr.Message)

	assert.NoError(t, ValidateWeight(weight(20), goal, uuid.Nil, existing))
}

func TestValidateWeightExcludesEditedKPI(t *testing.T) {
	goal := uuid.New()
	existing := []models.KPI{kpi(goal, weight(50)), kpi(goal, weight(30))}

	assert.NoError(t, ValidateWeight(weight(70), goal, existing[0].ID, existing))
	assert.Error(t, ValidateWeight(weight(70), goal, existing[1].ID, existing))
}

func TestValidateWeightRoundsRemaining(t *testing.T) {
	goal := uuid.New()
	existing := []models.KPI{kpi(goal, weight(33.3)), kpi(goal, weight(33.3))}

	err := ValidateWeight(weight(33.5), goal, uuid.Nil, existing)
	var werr *WeightError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, 33.4, werr.Remaining)
	assert.Equal(t, "Total weight for this goal cannot exceed 100%. Only 33.4% remaining.", werr.Message)
}

func TestValidateWeightNoHeadroom(t *testing.T) {
	goal := uuid.New()
	existing := []models.KPI{kpi(goal, weight(60)), kpi(goal, weight(40))}

	err := ValidateWeight(weight(1), goal, uuid.Nil, existing)
	var werr *WeightError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, "This goal's KPIs already use the full 100% weight.", werr.Message)
}

func TestValidateActual(t *testing.T) {
	assert.ErrorIs(t, ValidateActual(nil), ErrInvalidActual)
	assert.ErrorIs(t, ValidateActual(weight(-1)), ErrInvalidActual)
	assert.ErrorIs(t, ValidateActual(weight(math.NaN())), ErrInvalidActual)
	assert.NoError(t, ValidateActual(weight(0)))
	assert.NoError(t, ValidateActual(weight(12.5)))
}

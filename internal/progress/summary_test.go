package progress

import (
	"testing"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	goal := uuid.New()
	kpis := []models.KPI{
		kpi(goal, nil, rec(2024, 9, 100, 75)), // exactly on track
		kpi(goal, nil, rec(2024, 9, 100, 50)),
		kpi(goal, nil, rec(2024, 9, 0, 50)),
		kpi(goal, nil), // no data for the month
	}

	s := Summarize(kpis, 2024, 9)
	assert.Equal(t, 4, s.TotalKPIs)
	assert.Equal(t, 1, s.OnTrack)
	assert.InDelta(t, (0.75+0.5)/4*100, s.OverallProgress, 1e-9)

	assert.Equal(t, Summary{}, Summarize(nil, 2024, 9))
}

func TestBar(t *testing.T) {
	assert.Equal(t, BarStyle{Width: 0, Color: "danger"}, Bar(-20, nil))
	assert.Equal(t, BarStyle{Width: 39, Color: "danger"}, Bar(39, nil))
	assert.Equal(t, BarStyle{Width: 40, Color: "secondary"}, Bar(40, nil))
	assert.Equal(t, BarStyle{Width: 75, Color: "accent"}, Bar(75, nil))
	assert.Equal(t, BarStyle{Width: 100, Color: "accent"}, Bar(140, nil))

	blue := "#3498db"
	assert.Equal(t, BarStyle{Width: 10, Color: blue}, Bar(10, &blue))
	empty := ""
	assert.Equal(t, "danger", Bar(10, &empty).Color)
}

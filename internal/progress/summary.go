package progress

import "github.com/arnold/kpigo-api/internal/models"

// onTrackRatio is the actual/target ratio from which a KPI counts as on track.
const onTrackRatio = 0.75

type Summary struct {
	TotalKPIs       int     `json:"totalKpis"`
	OnTrack         int     `json:"onTrack"`
	OverallProgress float64 `json:"overallProgress"`
}

// Summarize computes the dashboard header. KPIs without a record for the
// period still count towards the total, dragging the overall figure down.
func Summarize(kpis []models.KPI, year, month int) Summary {
	s := Summary{TotalKPIs: len(kpis)}
	var total float64
	for _, k := range kpis {
		p, ok := Resolve(k, year, month)
		if !ok {
			continue
		}
		ratio := Percent(p.Actual, p.Target) / 100
		if ratio >= onTrackRatio {
			s.OnTrack++
		}
		total += ratio
	}
	if s.TotalKPIs > 0 {
		s.OverallProgress = total / float64(s.TotalKPIs) * 100
	}
	return s
}

// BarStyle is how a progress bar should be drawn.
type BarStyle struct {
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

// Bar clamps the percent for display and picks the traffic-light colour,
// unless the KPI carries its own colour.
func Bar(percent float64, override *string) BarStyle {
	width := percent
	if width < 0 {
		width = 0
	}
	if width > 100 {
		width = 100
	}

	color := "accent"
	switch {
	case override != nil && *override != "":
		color = *override
	case percent < 40:
		color = "danger"
	case percent < 75:
		color = "secondary"
	}
	return BarStyle{Width: width, Color: color}
}

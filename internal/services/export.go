package services

import (
	"fmt"
	"io"
	"math"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/progress"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Goals"
	progressSheet = "Progress"
)

// ExportKPIs writes an xlsx workbook with one goal summary sheet for the
// reference month and one row per KPI per month of the year.
func ExportKPIs(w io.Writer, goals []models.Goal, kpis []models.KPI, users []models.User, year, month int) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(progressSheet); err != nil {
		return err
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID.String()] = u.Name
	}

	if err := setRow(f, summarySheet, 1, "Goal", "Manager", "KPIs", "Total Weight", "Overweight", fmt.Sprintf("Progress %d-%02d", year, month)); err != nil {
		return err
	}
	for i, g := range goals {
		goalKPIs := kpisOf(kpis, g)
		weighting := progress.GoalWeighting(goalKPIs)
		err := setRow(f, summarySheet, i+2,
			g.Title,
			names[g.ManagerID.String()],
			len(goalKPIs),
			weighting.Total,
			weighting.Overweight,
			round(progress.GoalProgress(goalKPIs, year, month)),
		)
		if err != nil {
			return err
		}
	}

	if err := setRow(f, progressSheet, 1, "Goal", "KPI", "Owner", "Unit", "Weight", "Year", "Month", "Target", "Actual", "Progress %", "Status", "Notes"); err != nil {
		return err
	}
	row := 2
	for _, g := range goals {
		for _, k := range kpisOf(kpis, g) {
			var weight interface{}
			if k.Weight != nil {
				weight = *k.Weight
			}
			for _, p := range progress.Series(k, year) {
				notes := ""
				if p.Notes != nil {
					notes = *p.Notes
				}
				err := setRow(f, progressSheet, row,
					g.Title, k.Title, names[k.OwnerID.String()], k.Unit, weight,
					p.Year, p.Month, p.Target, p.Actual,
					round(progress.Percent(p.Actual, p.Target)),
					progress.Classify(p.Actual, p.Target).Label(),
					notes,
				)
				if err != nil {
					return err
				}
				row++
			}
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("%s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func kpisOf(kpis []models.KPI, g models.Goal) []models.KPI {
	var out []models.KPI
	for _, k := range kpis {
		if k.GoalID == g.ID {
			out = append(out, k)
		}
	}
	return out
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

package store

import (
	"context"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Apply loads the company snapshot, reduces the action against it and writes
// the change, all in one transaction.
func Apply(ctx context.Context, db *gorm.DB, companyID uuid.UUID, a Action) (State, Event, error) {
	var next State
	var ev Event
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := Load(ctx, tx, companyID)
		if err != nil {
			return err
		}
		next, ev, err = Reduce(s, a)
		if err != nil {
			return err
		}
		return persist(tx, ev)
	})
	if err != nil {
		return State{}, Event{}, err
	}
	return next, ev, nil
}

func persist(tx *gorm.DB, ev Event) error {
	switch ev.Type {
	case EventGoalCreated:
		return tx.Create(ev.Goal).Error

	case EventGoalUpdated:
		g := ev.Goal
		if err := tx.Model(&models.Goal{}).Where("id = ?", g.ID).Updates(map[string]interface{}{
			"title":       g.Title,
			"description": g.Description,
			"manager_id":  g.ManagerID,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", g.ID).Delete(&models.GoalStaff{}).Error; err != nil {
			return err
		}
		if len(g.Staff) == 0 {
			return nil
		}
		return tx.Create(&g.Staff).Error

	case EventGoalDeleted:
		if err := tx.Where("goal_id = ?", ev.Goal.ID).Delete(&models.GoalStaff{}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", ev.Goal.ID).Delete(&models.KPI{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Goal{}, "id = ?", ev.Goal.ID).Error; err != nil {
			return err
		}
		return savePositions(tx, ev.Order)

	case EventGoalsReordered:
		return savePositions(tx, ev.Order)

	case EventKPICreated:
		return tx.Create(ev.KPI).Error

	case EventKPIUpdated:
		k := ev.KPI
		return tx.Model(&models.KPI{}).Where("id = ?", k.ID).Updates(map[string]interface{}{
			"title":              k.Title,
			"unit":               k.Unit,
			"frequency":          k.Frequency,
			"owner_id":           k.OwnerID,
			"weight":             k.Weight,
			"progress_bar_color": k.ProgressBarColor,
		}).Error

	case EventKPIDeleted:
		return tx.Delete(&models.KPI{}, "id = ?", ev.KPI.ID).Error

	case EventProgressLogged:
		p := ev.Progress
		if !ev.NewRecord {
			return tx.Model(&models.MonthlyProgress{}).
				Where("kpi_id = ? AND year = ? AND month = ?", p.KPIID, p.Year, p.Month).
				Updates(map[string]interface{}{
					"target": p.Target,
					"actual": p.Actual,
					"notes":  p.Notes,
				}).Error
		}
		// a concurrent first log for the same month lands on the unique index
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kpi_id"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"target", "actual", "notes", "updated_at"}),
		}).Create(p).Error
	}
	return nil
}

func savePositions(tx *gorm.DB, order []uuid.UUID) error {
	for i, id := range order {
		if err := tx.Model(&models.Goal{}).Where("id = ?", id).Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}

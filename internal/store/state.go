// Package store holds the company snapshot the aggregation code works on and
// the reducer that turns user actions into new snapshots.
package store

import (
	"context"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// State is everything one company's dashboard is computed from. Goals are in
// display order.
type State struct {
	CompanyID uuid.UUID
	Users     []models.User
	Goals     []models.Goal
	KPIs      []models.KPI
}

// Load reads a company snapshot.
func Load(ctx context.Context, db *gorm.DB, companyID uuid.UUID) (State, error) {
	s := State{CompanyID: companyID}
	tx := db.WithContext(ctx)

	if err := tx.Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&s.Users).Error; err != nil {
		return State{}, err
	}

	if err := tx.Where("company_id = ?", companyID).
		Preload("Staff").
		Order("position ASC").
		Order("created_at ASC").
		Find(&s.Goals).Error; err != nil {
		return State{}, err
	}

	if len(s.Goals) == 0 {
		return s, nil
	}
	goalIDs := make([]uuid.UUID, len(s.Goals))
	for i, g := range s.Goals {
		goalIDs[i] = g.ID
	}

	if err := tx.Where("goal_id IN ?", goalIDs).
		Preload("MonthlyProgress").
		Order("created_at ASC").
		Find(&s.KPIs).Error; err != nil {
		return State{}, err
	}
	return s, nil
}

func (s State) User(id uuid.UUID) (models.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (s State) Goal(id uuid.UUID) (models.Goal, bool) {
	for _, g := range s.Goals {
		if g.ID == id {
			return g, true
		}
	}
	return models.Goal{}, false
}

func (s State) KPI(id uuid.UUID) (models.KPI, bool) {
	for _, k := range s.KPIs {
		if k.ID == id {
			return k, true
		}
	}
	return models.KPI{}, false
}

// KPIsOf returns the goal's KPIs in creation order.
func (s State) KPIsOf(goalID uuid.UUID) []models.KPI {
	var out []models.KPI
	for _, k := range s.KPIs {
		if k.GoalID == goalID {
			out = append(out, k)
		}
	}
	return out
}

// audience is everyone with a stake in the goal, plus the company's elevated
// users, minus the actor. Order is stable: manager, staff, KPI owners, admins.
func (s State) audience(goal models.Goal, actorID uuid.UUID) []models.User {
	var ids []uuid.UUID
	ids = append(ids, goal.ManagerID)
	ids = append(ids, goal.StaffIDs()...)
	for _, k := range s.KPIsOf(goal.ID) {
		ids = append(ids, k.OwnerID)
	}
	for _, u := range s.Users {
		if u.Role.Elevated() {
			ids = append(ids, u.ID)
		}
	}

	seen := map[uuid.UUID]bool{actorID: true}
	var out []models.User
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := s.User(id); ok {
			out = append(out, u)
		}
	}
	return out
}

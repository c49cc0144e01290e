package progress

import (
	"github.com/arnold/kpigo-api/internal/access"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
)

// Achievement is one manager card.
type Achievement struct {
	Manager          models.User `json:"manager"`
	TeamSize         int         `json:"teamSize"`
	TotalKPIsManaged int         `json:"totalKpisManaged"`
	AverageProgress  float64     `json:"averageProgress"`
}

// ManagerAchievement summarises every goal managed by managerID. Team size is
// the deduplicated union of the goals' staff. The average is pooled over all
// the manager's weighted KPIs rather than averaged per goal.
func ManagerAchievement(managerID uuid.UUID, goals []models.Goal, kpis []models.KPI, users []models.User, year, month int) Achievement {
	managed := make(map[uuid.UUID]bool)
	team := make(map[uuid.UUID]bool)
	for _, g := range goals {
		if g.ManagerID != managerID {
			continue
		}
		managed[g.ID] = true
		for _, s := range g.Staff {
			team[s.UserID] = true
		}
	}

	var owned []models.KPI
	for _, k := range kpis {
		if managed[k.GoalID] {
			owned = append(owned, k)
		}
	}

	a := Achievement{
		TeamSize:         len(team),
		TotalKPIsManaged: len(owned),
		AverageProgress:  weightedAverage(owned, year, month),
	}
	if u, ok := findUser(users, managerID); ok {
		a.Manager = u
	} else {
		a.Manager = models.User{ID: managerID}
	}
	return a
}

// Managers lists an achievement per distinct goal manager, in the order they
// first appear. Viewers without an elevated role only ever see themselves.
func Managers(viewer models.User, goals []models.Goal, kpis []models.KPI, users []models.User, year, month int) []Achievement {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, g := range goals {
		if seen[g.ManagerID] {
			continue
		}
		seen[g.ManagerID] = true
		ids = append(ids, g.ManagerID)
	}

	out := make([]Achievement, 0, len(ids))
	for _, id := range ids {
		if !access.CanView(viewer, access.ManagerResource{ManagerID: id}) {
			continue
		}
		out = append(out, ManagerAchievement(id, goals, kpis, users, year, month))
	}
	return out
}

func findUser(users []models.User, id uuid.UUID) (models.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

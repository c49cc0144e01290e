// Package access decides who may see and change what, from the viewer's role
// and their relationship to the resource.
package access

import (
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
)

// Resource is one of the kinds of thing a permission can be asked about.
type Resource interface {
	resource()
}

// GoalResource is a goal together with its KPIs; KPI ownership grants view access.
type GoalResource struct {
	Goal models.Goal
	KPIs []models.KPI
}

type KPIResource struct {
	KPI  models.KPI
	Goal models.Goal
}

// ManagerResource is a manager's achievement summary.
type ManagerResource struct {
	ManagerID uuid.UUID
}

type UserResource struct {
	User models.User
}

// TeamResource covers team-wide management such as invites.
type TeamResource struct{}

// GoalOrderResource is the company-wide goal ordering.
type GoalOrderResource struct{}

func (GoalResource) resource()      {}
func (KPIResource) resource()       {}
func (ManagerResource) resource()   {}
func (UserResource) resource()      {}
func (TeamResource) resource()      {}
func (GoalOrderResource) resource() {}

// CanView reports whether user may see the resource.
func CanView(user models.User, r Resource) bool {
	if u, ok := r.(UserResource); ok && u.User.CompanyID != user.CompanyID {
		return false
	}
	if user.Role.Elevated() {
		return true
	}
	switch r := r.(type) {
	case GoalResource:
		return involved(user.ID, r.Goal, r.KPIs)
	case KPIResource:
		return r.KPI.OwnerID == user.ID || involved(user.ID, r.Goal, nil)
	case ManagerResource:
		return r.ManagerID == user.ID
	case UserResource:
		// the team directory is company-wide
		return true
	}
	return false
}

// CanEdit reports whether user may change the resource. For a GoalResource
// this also covers adding KPIs to the goal.
func CanEdit(user models.User, r Resource) bool {
	if u, ok := r.(UserResource); ok && u.User.CompanyID != user.CompanyID {
		return false
	}
	if user.Role.Elevated() {
		return true
	}
	switch r := r.(type) {
	case GoalResource:
		return r.Goal.ManagerID == user.ID
	case KPIResource:
		return r.Goal.ManagerID == user.ID || r.KPI.OwnerID == user.ID
	case UserResource:
		return r.User.ID == user.ID
	}
	return false
}

// CanLog reports whether user may log progress against the KPI: anyone who
// can see its goal.
func CanLog(user models.User, kpi models.KPI, goal models.Goal, siblings []models.KPI) bool {
	if kpi.OwnerID == user.ID {
		return true
	}
	return CanView(user, GoalResource{Goal: goal, KPIs: siblings})
}

// CanCreateGoal allows elevated users to create any goal and managers to
// create goals they manage themselves.
func CanCreateGoal(user models.User, managerID uuid.UUID) bool {
	if user.Role.Elevated() {
		return true
	}
	return user.Role == models.RoleManager && managerID == user.ID
}

// CanChangeRole is separate from CanEdit: users may edit their own profile
// but never their own role.
func CanChangeRole(user models.User) bool {
	return user.Role.Elevated()
}

func involved(userID uuid.UUID, goal models.Goal, kpis []models.KPI) bool {
	if goal.ManagerID == userID || goal.HasStaff(userID) {
		return true
	}
	for _, k := range kpis {
		if k.GoalID == goal.ID && k.OwnerID == userID {
			return true
		}
	}
	return false
}

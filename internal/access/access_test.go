package access

import (
	"testing"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fixture struct {
	company uuid.UUID
	goal    models.Goal
	kpi     models.KPI

	admin, manager, staff, owner, other models.User
}

func newFixture() fixture {
	company := uuid.New()
	user := func(role models.Role) models.User {
		return models.User{ID: uuid.New(), CompanyID: company, Role: role}
	}
	f := fixture{
		company: company,
		admin:   user(models.RoleAdmin),
		manager: user(models.RoleManager),
		staff:   user(models.RoleStaff),
		owner:   user(models.RoleStaff),
		other:   user(models.RoleStaff),
	}
	f.goal = models.Goal{ID: uuid.New(), CompanyID: company, ManagerID: f.manager.ID}
	f.goal.SetStaff([]uuid.UUID{f.staff.ID})
	f.kpi = models.KPI{ID: uuid.New(), GoalID: f.goal.ID, OwnerID: f.owner.ID}
	return f
}

func TestGoalVisibility(t *testing.T) {
	f := newFixture()
	r := GoalResource{Goal: f.goal, KPIs: []models.KPI{f.kpi}}

	assert.True(t, CanView(f.admin, r))
	assert.True(t, CanView(f.manager, r))
	assert.True(t, CanView(f.staff, r))
	assert.True(t, CanView(f.owner, r))
	assert.False(t, CanView(f.other, r))

	superAdmin := f.other
	superAdmin.Role = models.RoleSuperAdmin
	assert.True(t, CanView(superAdmin, r))
}

func TestGoalEdit(t *testing.T) {
	f := newFixture()
	r := GoalResource{Goal: f.goal, KPIs: []models.KPI{f.kpi}}

	assert.True(t, CanEdit(f.admin, r))
	assert.True(t, CanEdit(f.manager, r))
	assert.False(t, CanEdit(f.staff, r))
	assert.False(t, CanEdit(f.owner, r))
}

func TestKPIEditAndLog(t *testing.T) {
	f := newFixture()
	r := KPIResource{KPI: f.kpi, Goal: f.goal}
	siblings := []models.KPI{f.kpi}

	assert.True(t, CanEdit(f.manager, r))
	assert.True(t, CanEdit(f.owner, r))
	assert.False(t, CanEdit(f.staff, r))

	assert.True(t, CanLog(f.staff, f.kpi, f.goal, siblings))
	assert.True(t, CanLog(f.owner, f.kpi, f.goal, siblings))
	assert.False(t, CanLog(f.other, f.kpi, f.goal, siblings))
}

func TestElevatedOnlyResources(t *testing.T) {
	f := newFixture()
	for _, r := range []Resource{GoalOrderResource{}, TeamResource{}} {
		assert.True(t, CanEdit(f.admin, r))
		assert.False(t, CanEdit(f.manager, r))
		assert.False(t, CanEdit(f.staff, r))
	}
}

func TestCanCreateGoal(t *testing.T) {
	f := newFixture()

	assert.True(t, CanCreateGoal(f.admin, f.manager.ID))
	assert.True(t, CanCreateGoal(f.manager, f.manager.ID))
	assert.False(t, CanCreateGoal(f.manager, f.staff.ID))
	assert.False(t, CanCreateGoal(f.staff, f.staff.ID))
}

func TestManagerSummary(t *testing.T) {
	f := newFixture()
	r := ManagerResource{ManagerID: f.manager.ID}

	assert.True(t, CanView(f.admin, r))
	assert.True(t, CanView(f.manager, r))
	assert.False(t, CanView(f.staff, r))
}

func TestUserEdit(t *testing.T) {
	f := newFixture()

	assert.True(t, CanEdit(f.staff, UserResource{User: f.staff}))
	assert.False(t, CanEdit(f.staff, UserResource{User: f.other}))
	assert.True(t, CanEdit(f.admin, UserResource{User: f.other}))
	assert.True(t, CanView(f.staff, UserResource{User: f.other}))

	outsider := models.User{ID: uuid.New(), CompanyID: uuid.New()}
	assert.False(t, CanView(f.admin, UserResource{User: outsider}))
	assert.False(t, CanEdit(f.admin, UserResource{User: outsider}))

	assert.True(t, CanChangeRole(f.admin))
	assert.False(t, CanChangeRole(f.manager))
}

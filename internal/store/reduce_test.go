package store

import (
	"errors"
	"testing"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/progress"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type world struct {
	state                        State
	admin, manager, staff, other models.User
	goal                         models.Goal
	kpi                          models.KPI
}

func newWorld() world {
	company := uuid.New()
	user := func(name string, role models.Role) models.User {
		return models.User{ID: uuid.New(), CompanyID: company, Name: name, Role: role, Notify: models.DefaultNotifyPrefs()}
	}
	w := world{
		admin:   user("Eleanor Vance", models.RoleSuperAdmin),
		manager: user("Marcus Reyes", models.RoleManager),
		staff:   user("Chloe Dubois", models.RoleStaff),
		other:   user("Kenji Tanaka", models.RoleStaff),
	}
	w.goal = models.Goal{ID: uuid.New(), CompanyID: company, Title: "Increase Quarterly Revenue", ManagerID: w.manager.ID}
	w.goal.SetStaff([]uuid.UUID{w.staff.ID})
	w.kpi = models.KPI{
		ID: uuid.New(), GoalID: w.goal.ID, Title: "New Sales Revenue", OwnerID: w.manager.ID,
		Weight: ptr(80.0), DefaultTarget: 100,
		MonthlyProgress: progress.SeedYear(2024, 100),
	}
	w.state = State{
		CompanyID: company,
		Users:     []models.User{w.admin, w.manager, w.staff, w.other},
		Goals:     []models.Goal{w.goal},
		KPIs:      []models.KPI{w.kpi},
	}
	return w
}

func TestAddGoal(t *testing.T) {
	w := newWorld()

	next, ev, err := Reduce(w.state, AddGoal{Actor: w.manager, Request: models.CreateGoalRequest{
		Title: " Expand Market Reach ", ManagerID: w.manager.ID, StaffIDs: []uuid.UUID{w.staff.ID, w.staff.ID},
	}})
	require.NoError(t, err)
	require.Len(t, next.Goals, 2)
	assert.Len(t, w.state.Goals, 1, "input state must not change")

	g := next.Goals[1]
	assert.Equal(t, "Expand Market Reach", g.Title)
	assert.Equal(t, 1, g.Position)
	assert.Equal(t, []uuid.UUID{w.staff.ID}, g.StaffIDs())

	assert.Equal(t, EventGoalCreated, ev.Type)
	assert.Equal(t, `added a new goal: "Expand Market Reach"`, ev.Message)
	assert.ElementsMatch(t, []uuid.UUID{w.staff.ID, w.admin.ID}, userIDs(ev.Recipients))
}

func TestAddGoalRejectsOutsiders(t *testing.T) {
	w := newWorld()

	_, _, err := Reduce(w.state, AddGoal{Actor: w.staff, Request: models.CreateGoalRequest{Title: "x", ManagerID: w.staff.ID}})
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = Reduce(w.state, AddGoal{Actor: w.admin, Request: models.CreateGoalRequest{Title: "x", ManagerID: uuid.New()}})
	var ferr *FieldError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "managerId", ferr.Field)
}

func TestUpdateGoalPermissions(t *testing.T) {
	w := newWorld()
	title := "Grow Revenue"

	_, _, err := Reduce(w.state, UpdateGoal{Actor: w.staff, GoalID: w.goal.ID, Request: models.UpdateGoalRequest{Title: &title}})
	assert.ErrorIs(t, err, ErrForbidden)

	// goals the actor cannot see are reported missing
	_, _, err = Reduce(w.state, UpdateGoal{Actor: w.other, GoalID: w.goal.ID, Request: models.UpdateGoalRequest{Title: &title}})
	assert.ErrorIs(t, err, ErrNotFound)

	next, ev, err := Reduce(w.state, UpdateGoal{Actor: w.manager, GoalID: w.goal.ID, Request: models.UpdateGoalRequest{
		Title: &title, StaffIDs: &[]uuid.UUID{w.other.ID},
	}})
	require.NoError(t, err)
	assert.Equal(t, title, next.Goals[0].Title)
	assert.Equal(t, []uuid.UUID{w.other.ID}, next.Goals[0].StaffIDs())
	assert.Equal(t, []uuid.UUID{w.staff.ID}, w.state.Goals[0].StaffIDs())
	assert.Equal(t, `updated the goal: "Grow Revenue"`, ev.Message)
}

func TestReorderGoals(t *testing.T) {
	w := newWorld()
	s := w.state
	for _, title := range []string{"B", "C"} {
		var err error
		s, _, err = Reduce(s, AddGoal{Actor: w.admin, Request: models.CreateGoalRequest{Title: title, ManagerID: w.manager.ID}})
		require.NoError(t, err)
	}
	a, b, c := s.Goals[0].ID, s.Goals[1].ID, s.Goals[2].ID

	_, _, err := Reduce(s, ReorderGoals{Actor: w.manager, GoalIDs: []uuid.UUID{c, b, a}})
	assert.ErrorIs(t, err, ErrForbidden)

	next, ev, err := Reduce(s, ReorderGoals{Actor: w.admin, GoalIDs: []uuid.UUID{c, a}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c, a, b}, ev.Order)
	for i, g := range next.Goals {
		assert.Equal(t, i, g.Position)
	}

	_, _, err = Reduce(s, ReorderGoals{Actor: w.admin, GoalIDs: []uuid.UUID{c, c}})
	assert.Error(t, err)
}

func TestAddKPIWeightHeadroom(t *testing.T) {
	w := newWorld()
	req := models.CreateKPIRequest{Title: "Upsell Revenue", OwnerID: w.staff.ID, MonthlyTarget: 50, Weight: ptr(25.0)}

	_, _, err := Reduce(w.state, AddKPI{Actor: w.manager, GoalID: w.goal.ID, Year: 2024, Request: req})
	var werr *progress.WeightError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, 20.0, werr.Remaining)

	req.Weight = ptr(20.0)
	next, ev, err := Reduce(w.state, AddKPI{Actor: w.manager, GoalID: w.goal.ID, Year: 2024, Request: req})
	require.NoError(t, err)
	require.Len(t, next.KPIs, 2)
	k := next.KPIs[1]
	assert.Len(t, k.MonthlyProgress, 12)
	assert.Equal(t, models.FrequencyMonthly, k.Frequency)
	assert.Equal(t, `added a new KPI: "Upsell Revenue" to goal "Increase Quarterly Revenue"`, ev.Message)
}

func TestAddKPIWithoutWeight(t *testing.T) {
	w := newWorld()
	req := models.CreateKPIRequest{Title: "Leads", OwnerID: w.staff.ID, MonthlyTarget: 10}

	_, _, err := Reduce(w.state, AddKPI{Actor: w.staff, GoalID: w.goal.ID, Year: 2024, Request: req})
	assert.ErrorIs(t, err, ErrForbidden)

	next, _, err := Reduce(w.state, AddKPI{Actor: w.admin, GoalID: w.goal.ID, Year: 2024, Request: req})
	require.NoError(t, err)
	assert.Nil(t, next.KPIs[1].Weight)
}

func TestUpdateKPIWeightExcludesItself(t *testing.T) {
	w := newWorld()

	next, ev, err := Reduce(w.state, UpdateKPI{Actor: w.manager, KPIID: w.kpi.ID, Request: models.UpdateKPIRequest{Weight: ptr(100.0)}})
	require.NoError(t, err)
	assert.Equal(t, 100.0, next.KPIs[0].WeightValue())
	assert.Equal(t, 80.0, w.state.KPIs[0].WeightValue())
	assert.Equal(t, `updated the KPI: "New Sales Revenue"`, ev.Message)

	_, _, err = Reduce(w.state, UpdateKPI{Actor: w.staff, KPIID: w.kpi.ID, Request: models.UpdateKPIRequest{Weight: ptr(10.0)}})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLogProgressUpdatesExistingMonth(t *testing.T) {
	w := newWorld()
	req := models.LogProgressRequest{Year: 2024, Month: 9, Actual: ptr(75.0), Notes: ptr("strong finish")}

	next, ev, err := Reduce(w.state, LogProgress{Actor: w.staff, KPIID: w.kpi.ID, Request: req})
	require.NoError(t, err)
	assert.False(t, ev.NewRecord)
	assert.Len(t, next.KPIs[0].MonthlyProgress, 12)

	p := progress.Period(next.KPIs[0], 2024, 9)
	assert.Equal(t, 75.0, p.Actual)
	assert.Equal(t, 100.0, p.Target)
	assert.Equal(t, 0.0, progress.Period(w.state.KPIs[0], 2024, 9).Actual)

	assert.Equal(t, `logged progress for KPI: "New Sales Revenue"`, ev.Message)
	assert.ElementsMatch(t, []uuid.UUID{w.manager.ID, w.admin.ID}, userIDs(ev.Recipients))

	again, _, err := Reduce(next, LogProgress{Actor: w.staff, KPIID: w.kpi.ID, Request: req})
	require.NoError(t, err)
	assert.Len(t, again.KPIs[0].MonthlyProgress, 12)
}

func TestLogProgressNewMonth(t *testing.T) {
	w := newWorld()

	next, ev, err := Reduce(w.state, LogProgress{Actor: w.manager, KPIID: w.kpi.ID, Request: models.LogProgressRequest{
		Year: 2025, Month: 1, Actual: ptr(10.0), Target: ptr(40.0),
	}})
	require.NoError(t, err)
	assert.True(t, ev.NewRecord)
	assert.Len(t, next.KPIs[0].MonthlyProgress, 13)
	assert.Equal(t, 40.0, ev.Progress.Target)
}

func TestLogProgressValidation(t *testing.T) {
	w := newWorld()

	_, _, err := Reduce(w.state, LogProgress{Actor: w.staff, KPIID: w.kpi.ID, Request: models.LogProgressRequest{Year: 2024, Month: 9, Actual: ptr(-1.0)}})
	var ferr *FieldError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "actual", ferr.Field)
	assert.Equal(t, progress.ErrInvalidActual.Error(), ferr.Message)

	_, _, err = Reduce(w.state, LogProgress{Actor: w.staff, KPIID: w.kpi.ID, Request: models.LogProgressRequest{Year: 2024, Month: 13, Actual: ptr(1.0)}})
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "month", ferr.Field)

	_, _, err = Reduce(w.state, LogProgress{Actor: w.other, KPIID: w.kpi.ID, Request: models.LogProgressRequest{Year: 2024, Month: 9, Actual: ptr(1.0)}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteGoalDropsKPIs(t *testing.T) {
	w := newWorld()

	_, _, err := Reduce(w.state, DeleteGoal{Actor: w.staff, GoalID: w.goal.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	next, ev, err := Reduce(w.state, DeleteGoal{Actor: w.manager, GoalID: w.goal.ID})
	require.NoError(t, err)
	assert.Empty(t, next.Goals)
	assert.Empty(t, next.KPIs)
	assert.Empty(t, ev.Message)
	assert.Len(t, w.state.KPIs, 1)
}

func TestSetKPIColor(t *testing.T) {
	w := newWorld()

	next, _, err := Reduce(w.state, SetKPIColor{Actor: w.manager, KPIID: w.kpi.ID, Color: ptr("#3498db")})
	require.NoError(t, err)
	require.NotNil(t, next.KPIs[0].ProgressBarColor)
	assert.Equal(t, "#3498db", *next.KPIs[0].ProgressBarColor)

	cleared, _, err := Reduce(next, SetKPIColor{Actor: w.manager, KPIID: w.kpi.ID, Color: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.KPIs[0].ProgressBarColor)
}

func userIDs(users []models.User) []uuid.UUID {
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

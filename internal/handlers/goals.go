package handlers

import (
	"github.com/arnold/kpigo-api/internal/access"
	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/progress"
	"github.com/arnold/kpigo-api/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type goalSummary struct {
	models.Goal
	StaffIDs []uuid.UUID `json:"staffIds"`
}

func newGoalSummary(g models.Goal) goalSummary {
	return goalSummary{Goal: g, StaffIDs: g.StaffIDs()}
}

// goalView is a goal card as the dashboard draws it for one month.
type goalView struct {
	goalSummary
	Progress  float64            `json:"progress"`
	Weighting progress.Weighting `json:"weighting"`
	Bar       progress.BarStyle  `json:"bar"`
	KPIs      []kpiView          `json:"kpis"`
}

type kpiView struct {
	models.KPI
	Current     models.MonthlyProgress `json:"current"`
	Percent     float64                `json:"percent"`
	Status      progress.Status        `json:"status"`
	StatusLabel string                 `json:"statusLabel"`
	Bar         progress.BarStyle      `json:"bar"`
}

func newKPIView(k models.KPI, year, month int) kpiView {
	cur, ok := progress.Resolve(k, year, month)
	if !ok {
		cur = models.MonthlyProgress{Year: year, Month: month}
	}
	pct := progress.Percent(cur.Actual, cur.Target)
	status := progress.Classify(cur.Actual, cur.Target)
	return kpiView{
		KPI:         k,
		Current:     cur,
		Percent:     pct,
		Status:      status,
		StatusLabel: status.Label(),
		Bar:         progress.Bar(pct, k.ProgressBarColor),
	}
}

func newGoalView(s store.State, g models.Goal, year, month int) goalView {
	kpis := s.KPIsOf(g.ID)
	pct := progress.GoalProgress(kpis, year, month)
	v := goalView{
		goalSummary: newGoalSummary(g),
		Progress:    pct,
		Weighting:   progress.GoalWeighting(kpis),
		Bar:         progress.Bar(pct, nil),
		KPIs:        make([]kpiView, 0, len(kpis)),
	}
	for _, k := range kpis {
		v.KPIs = append(v.KPIs, newKPIView(k, year, month))
	}
	return v
}

// visibleGoals keeps display order.
func visibleGoals(s store.State, viewer models.User) []models.Goal {
	var out []models.Goal
	for _, g := range s.Goals {
		if access.CanView(viewer, access.GoalResource{Goal: g, KPIs: s.KPIsOf(g.ID)}) {
			out = append(out, g)
		}
	}
	return out
}

// GetGoals lists the goals the caller can see with their progress for ?year=&month=
func GetGoals(c *fiber.Ctx) error {
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	s, user, err := companyState(c)
	if err != nil {
		return respondError(c, err)
	}

	goals := visibleGoals(s, user)
	views := make([]goalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, newGoalView(s, g, year, month))
	}

	return c.JSON(fiber.Map{
		"goals": views,
		"year":  year,
		"month": month,
	})
}

func GetGoal(c *fiber.Ctx) error {
	goalID, err := paramID(c, "id", "goal")
	if err != nil {
		return respondError(c, err)
	}
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	s, user, err := companyState(c)
	if err != nil {
		return respondError(c, err)
	}

	// Goals the caller cannot see are reported as missing
	goal, ok := s.Goal(goalID)
	if !ok || !access.CanView(user, access.GoalResource{Goal: goal, KPIs: s.KPIsOf(goal.ID)}) {
		return respondError(c, notFound("Goal not found"))
	}

	return c.JSON(newGoalView(s, goal, year, month))
}

func CreateGoal(c *fiber.Ctx) error {
	var req models.CreateGoalRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	s, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.AddGoal{Actor: user, Request: req})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	return c.Status(fiber.StatusCreated).JSON(newGoalView(s, *ev.Goal, year, month))
}

func UpdateGoal(c *fiber.Ctx) error {
	goalID, err := paramID(c, "id", "goal")
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateGoalRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	s, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.UpdateGoal{Actor: user, GoalID: goalID, Request: req})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	return c.JSON(newGoalView(s, *ev.Goal, year, month))
}

// DeleteGoal removes the goal with its KPIs and closes the gap in positions
func DeleteGoal(c *fiber.Ctx) error {
	goalID, err := paramID(c, "id", "goal")
	if err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	_, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.DeleteGoal{Actor: user, GoalID: goalID})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	return c.SendStatus(fiber.StatusNoContent)
}

// ReorderGoals applies a drag-and-drop order. Goals missing from the list
// keep their relative order after the listed ones.
func ReorderGoals(c *fiber.Ctx) error {
	var req models.ReorderGoalsRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	s, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.ReorderGoals{Actor: user, GoalIDs: req.GoalIDs})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	goals := make([]goalSummary, 0, len(s.Goals))
	for _, g := range s.Goals {
		goals = append(goals, newGoalSummary(g))
	}
	return c.JSON(fiber.Map{"goals": goals})
}

package handlers

import (
	"github.com/arnold/kpigo-api/internal/access"
	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/progress"
	"github.com/arnold/kpigo-api/internal/store"
	"github.com/gofiber/fiber/v2"
)

// CreateKPI adds a KPI to a goal with the months of ?year= (default: this
// year) pre-filled at the monthly target
func CreateKPI(c *fiber.Ctx) error {
	goalID, err := paramID(c, "id", "goal")
	if err != nil {
		return respondError(c, err)
	}
	var req models.CreateKPIRequest
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

	_, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.AddKPI{
		Actor:   user,
		GoalID:  goalID,
		Year:    year,
		Request: req,
	})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	return c.Status(fiber.StatusCreated).JSON(newKPIView(*ev.KPI, year, month))
}

// findVisibleKPI resolves :id to a KPI the caller may see. Anything else is
// reported as not found.
func findVisibleKPI(c *fiber.Ctx) (store.State, models.User, models.KPI, models.Goal, error) {
	kpiID, err := paramID(c, "id", "KPI")
	if err != nil {
		return store.State{}, models.User{}, models.KPI{}, models.Goal{}, err
	}
	s, user, err := companyState(c)
	if err != nil {
		return store.State{}, models.User{}, models.KPI{}, models.Goal{}, err
	}

	kpi, ok := s.KPI(kpiID)
	if !ok {
		return store.State{}, models.User{}, models.KPI{}, models.Goal{}, notFound("KPI not found")
	}
	goal, _ := s.Goal(kpi.GoalID)
	if !access.CanLog(user, kpi, goal, s.KPIsOf(goal.ID)) {
		return store.State{}, models.User{}, models.KPI{}, models.Goal{}, notFound("KPI not found")
	}
	return s, user, kpi, goal, nil
}

func GetKPI(c *fiber.Ctx) error {
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	s, user, kpi, goal, err := findVisibleKPI(c)
	if err != nil {
		return respondError(c, err)
	}
	owner, _ := s.User(kpi.OwnerID)

	return c.JSON(fiber.Map{
		"kpi":     newKPIView(kpi, year, month),
		"goal":    newGoalSummary(goal),
		"owner":   owner,
		"canEdit": access.CanEdit(user, access.KPIResource{KPI: kpi, Goal: goal}),
	})
}

func UpdateKPI(c *fiber.Ctx) error {
	kpiID, err := paramID(c, "id", "KPI")
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateKPIRequest
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

	_, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.UpdateKPI{Actor: user, KPIID: kpiID, Request: req})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	return c.JSON(newKPIView(*ev.KPI, year, month))
}

// UpdateKPIColor sets the progress bar colour; a null or empty colour
// restores the default
func UpdateKPIColor(c *fiber.Ctx) error {
	kpiID, err := paramID(c, "id", "KPI")
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateKPIColorRequest
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

	_, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.SetKPIColor{Actor: user, KPIID: kpiID, Color: req.Color})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	return c.JSON(newKPIView(*ev.KPI, year, month))
}

func DeleteKPI(c *fiber.Ctx) error {
	kpiID, err := paramID(c, "id", "KPI")
	if err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	_, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.DeleteKPI{Actor: user, KPIID: kpiID})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	return c.SendStatus(fiber.StatusNoContent)
}

// LogProgress records the actual for one month, creating the month's record
// if the KPI has none yet
func LogProgress(c *fiber.Ctx) error {
	kpiID, err := paramID(c, "id", "KPI")
	if err != nil {
		return respondError(c, err)
	}
	var req models.LogProgressRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	s, ev, err := store.Apply(c.UserContext(), database.DB, user.CompanyID, store.LogProgress{Actor: user, KPIID: kpiID, Request: req})
	if err != nil {
		return respondError(c, err)
	}
	publish(user.CompanyID, ev)

	status := fiber.StatusOK
	if ev.NewRecord {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"progress":     ev.Progress,
		"kpi":          newKPIView(*ev.KPI, req.Year, req.Month),
		"goalProgress": progress.GoalProgress(s.KPIsOf(ev.KPI.GoalID), req.Year, req.Month),
	})
}

type seriesPoint struct {
	Month   int             `json:"month"`
	Target  float64         `json:"target"`
	Actual  float64         `json:"actual"`
	Percent float64         `json:"percent"`
	Status  progress.Status `json:"status"`
	Notes   *string         `json:"notes,omitempty"`
}

// GetKPISeries returns the chart data for one KPI and ?year=
func GetKPISeries(c *fiber.Ctx) error {
	year, _, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	_, _, kpi, _, err := findVisibleKPI(c)
	if err != nil {
		return respondError(c, err)
	}

	records := progress.Series(kpi, year)
	points := make([]seriesPoint, 0, len(records))
	for _, p := range records {
		points = append(points, seriesPoint{
			Month:   p.Month,
			Target:  p.Target,
			Actual:  p.Actual,
			Percent: progress.Percent(p.Actual, p.Target),
			Status:  progress.Classify(p.Actual, p.Target),
			Notes:   p.Notes,
		})
	}

	return c.JSON(fiber.Map{
		"kpiId":  kpi.ID,
		"year":   year,
		"unit":   kpi.Unit,
		"series": points,
	})
}

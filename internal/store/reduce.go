package store

import (
	"fmt"
	"strings"

	"github.com/arnold/kpigo-api/internal/access"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/progress"
	"github.com/google/uuid"
)

// Event types, shared with the realtime feed and the audit log.
const (
	EventGoalCreated    = "goal_created"
	EventGoalUpdated    = "goal_updated"
	EventGoalDeleted    = "goal_deleted"
	EventGoalsReordered = "goals_reordered"
	EventKPICreated     = "kpi_created"
	EventKPIUpdated     = "kpi_updated"
	EventKPIDeleted     = "kpi_deleted"
	EventProgressLogged = "progress_logged"
)

// Event describes what a successful action changed. Message and Recipients
// are empty when the change is not announced in the notification feed.
type Event struct {
	Type       string
	Actor      models.User
	Message    string
	Recipients []models.User

	Goal     *models.Goal
	KPI      *models.KPI
	Progress *models.MonthlyProgress
	// NewRecord is set when Progress has no row yet.
	NewRecord bool
	Order     []uuid.UUID
}

// TargetID is the id the audit log records for the event.
func (e Event) TargetID() *uuid.UUID {
	switch {
	case e.KPI != nil:
		return &e.KPI.ID
	case e.Goal != nil:
		return &e.Goal.ID
	}
	return nil
}

// Action is a single user-triggered change.
type Action interface {
	reduce(s State) (State, Event, error)
}

// Reduce applies a to s. s is never modified; on error the returned state is
// the zero value.
func Reduce(s State, a Action) (State, Event, error) {
	next, ev, err := a.reduce(s)
	if err != nil {
		return State{}, Event{}, err
	}
	return next, ev, nil
}

type AddGoal struct {
	Actor   models.User
	Request models.CreateGoalRequest
}

func (a AddGoal) reduce(s State) (State, Event, error) {
	req := a.Request
	if !access.CanCreateGoal(a.Actor, req.ManagerID) {
		return State{}, Event{}, forbidden("You can only create goals you manage")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return State{}, Event{}, &FieldError{Field: "title", Message: "Title is required"}
	}
	if err := s.checkMembers(req.ManagerID, req.StaffIDs); err != nil {
		return State{}, Event{}, err
	}

	goal := models.Goal{
		ID:          uuid.New(),
		CompanyID:   s.CompanyID,
		Title:       title,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		Position:    len(s.Goals),
	}
	goal.SetStaff(req.StaffIDs)

	next := s.clone()
	next.Goals = append(next.Goals, goal)

	return next, Event{
		Type:       EventGoalCreated,
		Actor:      a.Actor,
		Message:    fmt.Sprintf("added a new goal: \"%s\"", goal.Title),
		Recipients: next.audience(goal, a.Actor.ID),
		Goal:       &goal,
	}, nil
}

type UpdateGoal struct {
	Actor   models.User
	GoalID  uuid.UUID
	Request models.UpdateGoalRequest
}

func (a UpdateGoal) reduce(s State) (State, Event, error) {
	i, goal, err := s.visibleGoal(a.Actor, a.GoalID)
	if err != nil {
		return State{}, Event{}, err
	}
	if !access.CanEdit(a.Actor, access.GoalResource{Goal: goal, KPIs: s.KPIsOf(goal.ID)}) {
		return State{}, Event{}, forbidden("Only the goal's manager or an admin can edit this goal")
	}

	req := a.Request
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return State{}, Event{}, &FieldError{Field: "title", Message: "Title is required"}
		}
		goal.Title = title
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.ManagerID != nil {
		goal.ManagerID = *req.ManagerID
	}
	staff := goal.StaffIDs()
	if req.StaffIDs != nil {
		staff = *req.StaffIDs
	}
	if err := s.checkMembers(goal.ManagerID, staff); err != nil {
		return State{}, Event{}, err
	}
	goal.SetStaff(staff)

	next := s.clone()
	next.Goals[i] = goal

	return next, Event{
		Type:       EventGoalUpdated,
		Actor:      a.Actor,
		Message:    fmt.Sprintf("updated the goal: \"%s\"", goal.Title),
		Recipients: next.audience(goal, a.Actor.ID),
		Goal:       &goal,
	}, nil
}

type DeleteGoal struct {
	Actor  models.User
	GoalID uuid.UUID
}

func (a DeleteGoal) reduce(s State) (State, Event, error) {
	i, goal, err := s.visibleGoal(a.Actor, a.GoalID)
	if err != nil {
		return State{}, Event{}, err
	}
	if !access.CanEdit(a.Actor, access.GoalResource{Goal: goal}) {
		return State{}, Event{}, forbidden("Only the goal's manager or an admin can delete this goal")
	}

	next := s.clone()
	next.Goals = append(next.Goals[:i:i], next.Goals[i+1:]...)
	for j := range next.Goals {
		next.Goals[j].Position = j
	}
	kpis := next.KPIs[:0:0]
	for _, k := range next.KPIs {
		if k.GoalID != goal.ID {
			kpis = append(kpis, k)
		}
	}
	next.KPIs = kpis

	return next, Event{Type: EventGoalDeleted, Actor: a.Actor, Goal: &goal, Order: next.goalOrder()}, nil
}

// ReorderGoals moves the listed goals to the front in the given order. Goals
// left out keep their relative order behind them.
type ReorderGoals struct {
	Actor   models.User
	GoalIDs []uuid.UUID
}

func (a ReorderGoals) reduce(s State) (State, Event, error) {
	if !access.CanEdit(a.Actor, access.GoalOrderResource{}) {
		return State{}, Event{}, forbidden("Only admins can reorder goals")
	}

	listed := make(map[uuid.UUID]bool, len(a.GoalIDs))
	goals := make([]models.Goal, 0, len(s.Goals))
	for _, id := range a.GoalIDs {
		if listed[id] {
			return State{}, Event{}, &FieldError{Field: "goalIds", Message: "Goal IDs must not repeat"}
		}
		listed[id] = true
		g, ok := s.Goal(id)
		if !ok {
			return State{}, Event{}, notFound("Goal not found")
		}
		goals = append(goals, g)
	}
	for _, g := range s.Goals {
		if !listed[g.ID] {
			goals = append(goals, g)
		}
	}
	for i := range goals {
		goals[i].Position = i
	}

	next := s.clone()
	next.Goals = goals

	return next, Event{Type: EventGoalsReordered, Actor: a.Actor, Order: next.goalOrder()}, nil
}

// AddKPI creates a KPI on a goal with the twelve months of Year pre-seeded
// at the monthly target.
type AddKPI struct {
	Actor   models.User
	GoalID  uuid.UUID
	Year    int
	Request models.CreateKPIRequest
}

func (a AddKPI) reduce(s State) (State, Event, error) {
	_, goal, err := s.visibleGoal(a.Actor, a.GoalID)
	if err != nil {
		return State{}, Event{}, err
	}
	if !access.CanEdit(a.Actor, access.GoalResource{Goal: goal, KPIs: s.KPIsOf(goal.ID)}) {
		return State{}, Event{}, forbidden("Only the goal's manager or an admin can add KPIs")
	}

	req := a.Request
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return State{}, Event{}, &FieldError{Field: "title", Message: "Title is required"}
	}
	if req.MonthlyTarget <= 0 {
		return State{}, Event{}, &FieldError{Field: "monthlyTarget", Message: "Monthly target must be greater than 0"}
	}
	if _, ok := s.User(req.OwnerID); !ok {
		return State{}, Event{}, &FieldError{Field: "ownerId", Message: "Owner is not a member of this company"}
	}
	if req.Weight != nil {
		if err := progress.ValidateWeight(req.Weight, goal.ID, uuid.Nil, s.KPIs); err != nil {
			return State{}, Event{}, err
		}
	}

	frequency := req.Frequency
	if frequency == "" {
		frequency = models.FrequencyMonthly
	}
	kpi := models.KPI{
		ID:              uuid.New(),
		GoalID:          goal.ID,
		Title:           title,
		Unit:            req.Unit,
		Frequency:       frequency,
		OwnerID:         req.OwnerID,
		Weight:          req.Weight,
		DefaultTarget:   req.MonthlyTarget,
		MonthlyProgress: progress.SeedYear(a.Year, req.MonthlyTarget),
	}
	for i := range kpi.MonthlyProgress {
		kpi.MonthlyProgress[i].KPIID = kpi.ID
	}

	next := s.clone()
	next.KPIs = append(next.KPIs, kpi)

	return next, Event{
		Type:       EventKPICreated,
		Actor:      a.Actor,
		Message:    fmt.Sprintf("added a new KPI: \"%s\" to goal \"%s\"", kpi.Title, goal.Title),
		Recipients: next.audience(goal, a.Actor.ID),
		Goal:       &goal,
		KPI:        &kpi,
	}, nil
}

type UpdateKPI struct {
	Actor   models.User
	KPIID   uuid.UUID
	Request models.UpdateKPIRequest
}

func (a UpdateKPI) reduce(s State) (State, Event, error) {
	i, kpi, goal, err := s.editableKPI(a.Actor, a.KPIID)
	if err != nil {
		return State{}, Event{}, err
	}

	req := a.Request
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return State{}, Event{}, &FieldError{Field: "title", Message: "Title is required"}
		}
		kpi.Title = title
	}
	if req.Unit != nil {
		kpi.Unit = *req.Unit
	}
	if req.Frequency != nil {
		kpi.Frequency = *req.Frequency
	}
	if req.OwnerID != nil {
		if _, ok := s.User(*req.OwnerID); !ok {
			return State{}, Event{}, &FieldError{Field: "ownerId", Message: "Owner is not a member of this company"}
		}
		kpi.OwnerID = *req.OwnerID
	}
	if req.Weight != nil {
		if err := progress.ValidateWeight(req.Weight, kpi.GoalID, kpi.ID, s.KPIs); err != nil {
			return State{}, Event{}, err
		}
		w := *req.Weight
		kpi.Weight = &w
	}

	return s.replaceKPI(i, kpi, goal, a.Actor)
}

// SetKPIColor overrides the KPI's progress bar colour; nil or empty restores
// the default traffic-light colouring.
type SetKPIColor struct {
	Actor models.User
	KPIID uuid.UUID
	Color *string
}

func (a SetKPIColor) reduce(s State) (State, Event, error) {
	i, kpi, goal, err := s.editableKPI(a.Actor, a.KPIID)
	if err != nil {
		return State{}, Event{}, err
	}
	kpi.ProgressBarColor = nil
	if a.Color != nil && *a.Color != "" {
		c := *a.Color
		kpi.ProgressBarColor = &c
	}
	return s.replaceKPI(i, kpi, goal, a.Actor)
}

type DeleteKPI struct {
	Actor models.User
	KPIID uuid.UUID
}

func (a DeleteKPI) reduce(s State) (State, Event, error) {
	i, kpi, goal, err := s.editableKPI(a.Actor, a.KPIID)
	if err != nil {
		return State{}, Event{}, err
	}
	if !access.CanEdit(a.Actor, access.GoalResource{Goal: goal}) {
		return State{}, Event{}, forbidden("Only the goal's manager or an admin can delete KPIs")
	}

	next := s.clone()
	next.KPIs = append(next.KPIs[:i:i], next.KPIs[i+1:]...)
	return next, Event{Type: EventKPIDeleted, Actor: a.Actor, Goal: &goal, KPI: &kpi}, nil
}

// LogProgress records an actual for one month. An existing record for the
// month is updated in place, so a KPI never has two records for one period.
type LogProgress struct {
	Actor   models.User
	KPIID   uuid.UUID
	Request models.LogProgressRequest
}

func (a LogProgress) reduce(s State) (State, Event, error) {
	i, kpi, ok := s.kpiIndex(a.KPIID)
	if !ok {
		return State{}, Event{}, notFound("KPI not found")
	}
	goal, _ := s.Goal(kpi.GoalID)
	if !access.CanLog(a.Actor, kpi, goal, s.KPIsOf(goal.ID)) {
		return State{}, Event{}, notFound("KPI not found")
	}

	req := a.Request
	if req.Month < 1 || req.Month > 12 {
		return State{}, Event{}, &FieldError{Field: "month", Message: "Month must be between 1 and 12"}
	}
	if err := progress.ValidateActual(req.Actual); err != nil {
		return State{}, Event{}, &FieldError{Field: "actual", Message: err.Error()}
	}

	records := make([]models.MonthlyProgress, len(kpi.MonthlyProgress))
	copy(records, kpi.MonthlyProgress)

	rec, exists := progress.Resolve(kpi, req.Year, req.Month)
	if !exists {
		rec = models.MonthlyProgress{
			ID:     uuid.New(),
			KPIID:  kpi.ID,
			Year:   req.Year,
			Month:  req.Month,
			Target: kpi.DefaultTarget,
		}
	}
	rec.Actual = *req.Actual
	if req.Target != nil {
		rec.Target = *req.Target
	}
	if req.Notes != nil {
		notes := *req.Notes
		rec.Notes = &notes
	}

	if exists {
		for j := range records {
			if records[j].Year == rec.Year && records[j].Month == rec.Month {
				records[j] = rec
			}
		}
	} else {
		records = append(records, rec)
	}
	kpi.MonthlyProgress = records

	next := s.clone()
	next.KPIs[i] = kpi

	return next, Event{
		Type:       EventProgressLogged,
		Actor:      a.Actor,
		Message:    fmt.Sprintf("logged progress for KPI: \"%s\"", kpi.Title),
		Recipients: next.audience(goal, a.Actor.ID),
		Goal:       &goal,
		KPI:        &kpi,
		Progress:   &rec,
		NewRecord:  !exists,
	}, nil
}

func (s State) clone() State {
	next := s
	next.Users = append([]models.User(nil), s.Users...)
	next.Goals = append([]models.Goal(nil), s.Goals...)
	next.KPIs = append([]models.KPI(nil), s.KPIs...)
	return next
}

// visibleGoal finds a goal the actor may at least see. Goals the actor cannot
// see are reported as missing.
func (s State) visibleGoal(actor models.User, id uuid.UUID) (int, models.Goal, error) {
	for i, g := range s.Goals {
		if g.ID != id {
			continue
		}
		if !access.CanView(actor, access.GoalResource{Goal: g, KPIs: s.KPIsOf(g.ID)}) {
			break
		}
		return i, g, nil
	}
	return 0, models.Goal{}, notFound("Goal not found")
}

func (s State) kpiIndex(id uuid.UUID) (int, models.KPI, bool) {
	for i, k := range s.KPIs {
		if k.ID == id {
			return i, k, true
		}
	}
	return 0, models.KPI{}, false
}

func (s State) editableKPI(actor models.User, id uuid.UUID) (int, models.KPI, models.Goal, error) {
	i, kpi, ok := s.kpiIndex(id)
	if !ok {
		return 0, models.KPI{}, models.Goal{}, notFound("KPI not found")
	}
	goal, _ := s.Goal(kpi.GoalID)
	if !access.CanLog(actor, kpi, goal, s.KPIsOf(goal.ID)) {
		return 0, models.KPI{}, models.Goal{}, notFound("KPI not found")
	}
	if !access.CanEdit(actor, access.KPIResource{KPI: kpi, Goal: goal}) {
		return 0, models.KPI{}, models.Goal{}, forbidden("Only the KPI owner, the goal's manager or an admin can edit this KPI")
	}
	return i, kpi, goal, nil
}

func (s State) replaceKPI(i int, kpi models.KPI, goal models.Goal, actor models.User) (State, Event, error) {
	next := s.clone()
	next.KPIs[i] = kpi
	return next, Event{
		Type:       EventKPIUpdated,
		Actor:      actor,
		Message:    fmt.Sprintf("updated the KPI: \"%s\"", kpi.Title),
		Recipients: next.audience(goal, actor.ID),
		Goal:       &goal,
		KPI:        &kpi,
	}, nil
}

func (s State) checkMembers(managerID uuid.UUID, staff []uuid.UUID) error {
	if _, ok := s.User(managerID); !ok {
		return &FieldError{Field: "managerId", Message: "Manager is not a member of this company"}
	}
	for _, id := range staff {
		if _, ok := s.User(id); !ok {
			return &FieldError{Field: "staffIds", Message: "Staff must be members of this company"}
		}
	}
	return nil
}

func (s State) goalOrder() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.Goals))
	for i, g := range s.Goals {
		ids[i] = g.ID
	}
	return ids
}

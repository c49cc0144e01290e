package handlers

import (
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/progress"
	"github.com/gofiber/fiber/v2"
)

type kpiCard struct {
	kpiView
	GoalTitle string `json:"goalTitle"`
	OwnerName string `json:"ownerName"`
}

// GetDashboard returns the summary header and one card per visible KPI for ?year=&month=
func GetDashboard(c *fiber.Ctx) error {
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	s, user, err := companyState(c)
	if err != nil {
		return respondError(c, err)
	}

	goals := visibleGoals(s, user)
	var kpis []models.KPI
	cards := make([]kpiCard, 0)
	for _, g := range goals {
		for _, k := range s.KPIsOf(g.ID) {
			owner, _ := s.User(k.OwnerID)
			kpis = append(kpis, k)
			cards = append(cards, kpiCard{
				kpiView:   newKPIView(k, year, month),
				GoalTitle: g.Title,
				OwnerName: owner.Name,
			})
		}
	}

	return c.JSON(fiber.Map{
		"summary":    progress.Summarize(kpis, year, month),
		"kpis":       cards,
		"totalGoals": len(goals),
		"year":       year,
		"month":      month,
	})
}

// GetManagers returns one achievement card per goal manager. Users without
// an elevated role only get their own card.
func GetManagers(c *fiber.Ctx) error {
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	s, user, err := companyState(c)
	if err != nil {
		return respondError(c, err)
	}

	managers := progress.Managers(user, s.Goals, s.KPIs, s.Users, year, month)
	if managers == nil {
		managers = []progress.Achievement{}
	}
	return c.JSON(fiber.Map{
		"managers": managers,
		"year":     year,
		"month":    month,
	})
}

package handlers

import (
	"bytes"
	"fmt"

	"github.com/arnold/kpigo-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportKPIs downloads the visible goals and KPIs for ?year= as a workbook.
// ?month= picks the month the goal sheet summarises.
func ExportKPIs(c *fiber.Ctx) error {
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	s, user, err := companyState(c)
	if err != nil {
		return respondError(c, err)
	}

	goals := visibleGoals(s, user)
	var buf bytes.Buffer
	if err := services.ExportKPIs(&buf, goals, s.KPIs, s.Users, year, month); err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="kpis-%d.xlsx"`, year))
	return c.Send(buf.Bytes())
}

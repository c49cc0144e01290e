package database

import (
	"testing"

	"github.com/arnold/kpigo-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultFixture(t *testing.T) {
	db, err := OpenMemory(t.Name())
	require.NoError(t, err)

	f, err := LoadFixture("")
	require.NoError(t, err)

	company, err := Seed(db, f, 2024, 30)
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "kpigo", company.Subdomain)
	assert.Equal(t, models.SubscriptionActive, company.SubscriptionStatus)

	var users []models.User
	require.NoError(t, db.Where("company_id = ?", company.ID).Find(&users).Error)
	assert.Len(t, users, 4)

	var goals []models.Goal
	require.NoError(t, db.Preload("Staff").Order("position").Find(&goals).Error)
	require.Len(t, goals, 3)
	assert.Equal(t, "Increase Quarterly Revenue", goals[0].Title)
	assert.Len(t, goals[1].StaffIDs(), 2)

	var kpi models.KPI
	require.NoError(t, db.Preload("MonthlyProgress").Where("title = ?", "New Sales Revenue").First(&kpi).Error)
	assert.Len(t, kpi.MonthlyProgress, 12)

	var sept models.MonthlyProgress
	require.NoError(t, db.Where("kpi_id = ? AND year = ? AND month = ?", kpi.ID, 2024, 9).First(&sept).Error)
	assert.Equal(t, 100000.0, sept.Actual)

	again, err := Seed(db, f, 2024, 30)
	require.NoError(t, err)
	assert.Nil(t, again)
}

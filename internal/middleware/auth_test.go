package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/arnold/kpigo-api/internal/config"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensUseConfiguredSecret(t *testing.T) {
	t.Cleanup(func() { SetSecret("") })
	user := models.User{ID: uuid.New(), CompanyID: uuid.New(), Email: "a@b.co", Role: models.RoleStaff}

	SetSecret("first")
	token, err := GenerateToken(user)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.CompanyID, claims.CompanyID)

	SetSecret("second")
	_, err = ParseToken(token)
	assert.Error(t, err)

	SetSecret("")
	assert.Equal(t, []byte(config.DefaultJWTSecret), secret)
}

func TestProtectedSetsLocals(t *testing.T) {
	t.Cleanup(func() { SetSecret("") })
	SetSecret("from-config")
	user := models.User{ID: uuid.New(), CompanyID: uuid.New(), Role: models.RoleAdmin}
	token, err := GenerateToken(user)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", Protected(), func(c *fiber.Ctx) error {
		return c.SendString(GetUserID(c).String() + " " + GetCompanyID(c).String())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

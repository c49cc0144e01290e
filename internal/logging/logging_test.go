package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := GetLogger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	l := New("debug")
	l.SetOutput(&buf)
	SetLogger(l)
	return &buf
}

func TestNewFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, New("loud").GetLevel())
	assert.Equal(t, logrus.WarnLevel, New("warn").GetLevel())
}

func TestLogErrorFields(t *testing.T) {
	buf := capture(t)

	LogError("store", "Apply", "persist", "goal-1", errors.New("boom"))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "boom", line["msg"])
	assert.Equal(t, "store", line["module"])
	assert.Equal(t, "Apply", line["funcName"])
	assert.Equal(t, "goal-1", line["data"])
}

func TestMiddlewareLogsRequest(t *testing.T) {
	buf := capture(t)

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["msg"])
	assert.Equal(t, "/ping", line["path"])
	assert.Equal(t, float64(fiber.StatusTeapot), line["status"])
}

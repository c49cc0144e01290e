package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/arnold/kpigo-api/internal/config"
	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/arnold/kpigo-api/internal/middleware"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/progress"
	"github.com/arnold/kpigo-api/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var settings = &config.Config{TrialDays: 30, UploadDir: "uploads"}

// Configure hands the runtime settings to the handlers. Call it before
// serving requests.
func Configure(cfg *config.Config) {
	settings = cfg
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names so errors line up with the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestError is a failure detected before any domain code runs.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{status: fiber.StatusBadRequest, msg: msg}
}

func notFound(msg string) error {
	return &requestError{status: fiber.StatusNotFound, msg: msg}
}

func forbidden(msg string) error {
	return &requestError{status: fiber.StatusForbidden, msg: msg}
}

// validationErrors maps json field names to messages.
type validationErrors map[string]string

func (v validationErrors) Error() string { return "validation failed" }

// parseAndValidate decodes the body into req and runs its validate tags.
func parseAndValidate(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return badRequest("Invalid request body")
	}

	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := validationErrors{}
	for _, fe := range fieldErrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	kind := fe.Kind()
	if kind == reflect.Ptr {
		kind = fe.Type().Elem().Kind()
	}
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
		}
		return "Must be at least " + fe.Param()
	case "max":
		if kind == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return "Must be at most " + fe.Param()
	case "gt":
		return "Must be greater than " + fe.Param()
	case "gte":
		return "Must be at least " + fe.Param()
	case "lte":
		return "Must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), "'", "")
	case "hexcolor":
		return "Must be a hex colour such as #22c55e"
	}
	return "Invalid value"
}

// respondError renders err with the status its kind calls for. Anything
// unrecognised is logged and reported as a 500.
func respondError(c *fiber.Ctx, err error) error {
	var (
		reqErr    *requestError
		fields    validationErrors
		weightErr *progress.WeightError
		fieldErr  *store.FieldError
	)
	switch {
	case errors.As(err, &reqErr):
		return c.Status(reqErr.status).JSON(fiber.Map{"error": reqErr.msg})
	case errors.As(err, &fields):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": fields})
	case errors.As(err, &weightErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors":    fiber.Map{weightErr.Field: weightErr.Message},
			"remaining": weightErr.Remaining,
		})
	case errors.As(err, &fieldErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"errors": fiber.Map{fieldErr.Field: fieldErr.Message},
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, store.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	logging.LogError("handlers", "respondError", c.Method()+" "+c.Path(), nil, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Something went wrong",
	})
}

// companyState loads the caller's company and finds the caller in it.
func companyState(c *fiber.Ctx) (store.State, models.User, error) {
	s, err := store.Load(c.UserContext(), database.DB, middleware.GetCompanyID(c))
	if err != nil {
		return store.State{}, models.User{}, err
	}
	user, ok := s.User(middleware.GetUserID(c))
	if !ok {
		return store.State{}, models.User{}, &requestError{status: fiber.StatusUnauthorized, msg: "User not found"}
	}
	return s, user, nil
}

// currentUser loads the caller without the rest of the company.
func currentUser(c *fiber.Ctx) (models.User, error) {
	var user models.User
	err := database.DB.Where("id = ? AND company_id = ?", middleware.GetUserID(c), middleware.GetCompanyID(c)).
		First(&user).Error
	if err != nil {
		return models.User{}, &requestError{status: fiber.StatusUnauthorized, msg: "User not found"}
	}
	return user, nil
}

func paramID(c *fiber.Ctx, name, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, badRequest("Invalid " + label + " ID")
	}
	return id, nil
}

// period reads ?year=&month=, defaulting to the current month.
func period(c *fiber.Ctx) (int, int, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1970 || n > 9999 {
			return 0, 0, badRequest("Invalid year")
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return 0, 0, badRequest("Invalid month")
		}
		month = n
	}
	return year, month, nil
}

// pagination reads ?page=&limit= the way every list endpoint does.
func pagination(c *fiber.Ctx) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	limit, _ = strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

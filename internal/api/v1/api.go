// Package v1 implements the JSON endpoints under /api/v1.
package v1

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/errors"
	"github.com/tphakala/bonsai-go/internal/logger"
)

// Prefix is the route prefix of every endpoint in this package.
const Prefix = "/api/v1"

// GetLogger returns the v1 API logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api.v1")
}

// Controller serves the collection over HTTP.
type Controller struct {
	Group   *echo.Group
	service *collection.Service
}

// New registers all endpoints on e and returns the controller.
func New(e *echo.Echo, service *collection.Service) *Controller {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	c := &Controller{
		Group:   e.Group(Prefix),
		service: service,
	}
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	g := c.Group

	g.GET("/trees", c.ListTrees)
	g.POST("/trees", c.CreateTree)
	g.GET("/trees/next-number", c.NextTreeNumber)
	g.GET("/trees/number/:number", c.GetTreeByNumber)
	g.GET("/trees/:id", c.GetTree)
	g.PUT("/trees/:id", c.UpdateTree)
	g.POST("/trees/:id/archive", c.ArchiveTree)
	g.POST("/trees/:id/unarchive", c.UnarchiveTree)
	g.DELETE("/trees/:id", c.DeleteTree)

	g.GET("/trees/:id/updates", c.ListUpdates)
	g.POST("/trees/:id/updates", c.RecordUpdate)
	g.PUT("/updates/:id", c.EditUpdate)
	g.DELETE("/updates/:id", c.DeleteUpdate)

	g.GET("/trees/:id/photos", c.ListPhotos)
	g.POST("/trees/:id/photos", c.AddPhotos)
	g.GET("/photos/:id/file", c.PhotoFile)
	g.PUT("/photos/:id/star", c.StarPhoto)
	g.DELETE("/photos/:id", c.DeletePhoto)

	g.GET("/reminders", c.ListReminders)
	g.GET("/reminders/due", c.DueReminders)
	g.POST("/trees/:id/reminders", c.AddReminder)
	g.POST("/reminders/:id/complete", c.CompleteReminder)
	g.DELETE("/reminders/:id", c.DeleteReminder)

	g.GET("/species", c.ListSpecies)
	g.GET("/species/names", c.SpeciesNames)
	g.DELETE("/species/:id", c.DeleteSpecies)

	g.GET("/settings", c.GetSettings)
	g.PUT("/settings", c.SaveSettings)

	g.POST("/export", c.Export)
	g.POST("/import", c.Import)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError logs err and writes it as an ErrorResponse. When code is 0
// the status is derived from the error category.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	if code == 0 {
		code = statusFor(err)
	}

	resp := &ErrorResponse{
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Error = message
	}

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.String("error", resp.Error),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
	}
	if code >= http.StatusInternalServerError {
		GetLogger().Error("API error", fields...)
	} else {
		GetLogger().Debug("API error", fields...)
	}

	return ctx.JSON(code, resp)
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return http.StatusInternalServerError
	}

	switch ee.Category {
	case errors.CategoryValidation, errors.CategoryImage:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryDiskUsage:
		return http.StatusInsufficientStorage
	case errors.CategoryConfiguration, errors.CategoryCancellation:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// idParam parses the :id path parameter.
func (c *Controller) idParam(ctx echo.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Newf("invalid id %q", ctx.Param("id")).
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	return uint(id), nil
}

// boolQuery reads a boolean query parameter, false when absent or invalid.
func boolQuery(ctx echo.Context, name string) bool {
	v, err := strconv.ParseBool(ctx.QueryParam(name))
	return err == nil && v
}

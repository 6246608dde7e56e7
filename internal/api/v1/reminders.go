package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/bonsai-go/internal/collection"
)

// ListReminders handles GET /reminders. Query: tree_id, include_completed.
func (c *Controller) ListReminders(ctx echo.Context) error {
	filter := collection.ReminderFilter{IncludeCompleted: boolQuery(ctx, "include_completed")}
	if s := ctx.QueryParam("tree_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.HandleError(ctx, err, "invalid tree_id", http.StatusBadRequest)
		}
		filter.TreeID = uint(id)
	}

	reminders, err := c.service.ListReminders(ctx.Request().Context(), filter)
	if err != nil {
		return c.HandleError(ctx, err, "failed to list reminders", 0)
	}
	return ctx.JSON(http.StatusOK, reminders)
}

// DueReminders handles GET /reminders/due: pending reminders dated today or earlier.
func (c *Controller) DueReminders(ctx echo.Context) error {
	reminders, err := c.service.DueReminders(ctx.Request().Context(), c.service.Now())
	if err != nil {
		return c.HandleError(ctx, err, "failed to list due reminders", 0)
	}
	return ctx.JSON(http.StatusOK, reminders)
}

// AddReminder handles POST /trees/:id/reminders.
func (c *Controller) AddReminder(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}

	var req ReminderRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "invalid reminder", http.StatusBadRequest)
	}
	if err := ctx.Validate(&req); err != nil {
		return c.HandleError(ctx, err, "invalid reminder", http.StatusBadRequest)
	}
	date, err := parseDate(req.ReminderDate)
	if err != nil {
		return c.HandleError(ctx, err, "invalid reminder", http.StatusBadRequest)
	}

	reminder, err := c.service.AddReminder(ctx.Request().Context(), id,
		collection.ReminderInput{ReminderDate: date, Message: req.Message})
	if err != nil {
		return c.HandleError(ctx, err, "failed to add reminder", 0)
	}
	return ctx.JSON(http.StatusCreated, reminder)
}

// CompleteReminder handles POST /reminders/:id/complete.
func (c *Controller) CompleteReminder(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid reminder id", http.StatusBadRequest)
	}
	if err := c.service.CompleteReminder(ctx.Request().Context(), id); err != nil {
		return c.HandleError(ctx, err, "failed to complete reminder", 0)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// DeleteReminder handles DELETE /reminders/:id.
func (c *Controller) DeleteReminder(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid reminder id", http.StatusBadRequest)
	}
	if err := c.service.DeleteReminder(ctx.Request().Context(), id); err != nil {
		return c.HandleError(ctx, err, "failed to delete reminder", 0)
	}
	return ctx.NoContent(http.StatusNoContent)
}

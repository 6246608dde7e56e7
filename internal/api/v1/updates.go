package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/bonsai-go/internal/collection"
)

// ListUpdates handles GET /trees/:id/updates, newest first.
func (c *Controller) ListUpdates(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}
	updates, err := c.service.ListUpdates(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "failed to list updates", 0)
	}
	return ctx.JSON(http.StatusOK, updates)
}

// RecordUpdate handles POST /trees/:id/updates. It accepts JSON, or a
// multipart form with the same fields plus photo files.
func (c *Controller) RecordUpdate(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}

	var (
		req     UpdateRequest
		uploads []collection.Upload
	)
	if isMultipart(ctx) {
		var closeUploads func()
		uploads, closeUploads, err = openUploads(ctx)
		if err != nil {
			return c.HandleError(ctx, err, "invalid upload", http.StatusBadRequest)
		}
		defer closeUploads()
		req, err = updateRequestFromForm(ctx)
	} else {
		err = ctx.Bind(&req)
	}
	if err != nil {
		return c.HandleError(ctx, err, "invalid update", http.StatusBadRequest)
	}

	in, err := c.validatedUpdate(ctx, &req)
	if err != nil {
		return c.HandleError(ctx, err, "invalid update", http.StatusBadRequest)
	}
	in.Photos = uploads

	update, err := c.service.RecordUpdate(ctx.Request().Context(), id, in)
	if err != nil {
		return c.HandleError(ctx, err, "failed to record update", 0)
	}
	return ctx.JSON(http.StatusCreated, update)
}

// EditUpdate handles PUT /updates/:id.
func (c *Controller) EditUpdate(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid update id", http.StatusBadRequest)
	}

	var req UpdateRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "invalid update", http.StatusBadRequest)
	}
	in, err := c.validatedUpdate(ctx, &req)
	if err != nil {
		return c.HandleError(ctx, err, "invalid update", http.StatusBadRequest)
	}

	update, err := c.service.EditUpdate(ctx.Request().Context(), id, in)
	if err != nil {
		return c.HandleError(ctx, err, "failed to edit update", 0)
	}
	return ctx.JSON(http.StatusOK, update)
}

// DeleteUpdate handles DELETE /updates/:id.
func (c *Controller) DeleteUpdate(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid update id", http.StatusBadRequest)
	}
	if err := c.service.DeleteUpdate(ctx.Request().Context(), id); err != nil {
		return c.HandleError(ctx, err, "failed to delete update", 0)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) validatedUpdate(ctx echo.Context, req *UpdateRequest) (collection.UpdateInput, error) {
	if err := ctx.Validate(req); err != nil {
		return collection.UpdateInput{}, err
	}
	return req.input()
}

package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListPhotos handles GET /trees/:id/photos, starred first.
func (c *Controller) ListPhotos(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}
	photos, err := c.service.ListPhotos(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "failed to list photos", 0)
	}
	return ctx.JSON(http.StatusOK, photos)
}

// AddPhotos handles POST /trees/:id/photos with a multipart form holding
// photo files and an optional description.
func (c *Controller) AddPhotos(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}
	if !isMultipart(ctx) {
		return c.HandleError(ctx, nil, "photos must be sent as multipart/form-data", http.StatusUnsupportedMediaType)
	}

	uploads, closeUploads, err := openUploads(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid upload", http.StatusBadRequest)
	}
	defer closeUploads()

	photos, err := c.service.AddPhotos(ctx.Request().Context(), id, uploads, ctx.FormValue("description"))
	if err != nil {
		return c.HandleError(ctx, err, "failed to add photos", 0)
	}
	return ctx.JSON(http.StatusCreated, photos)
}

// PhotoFile handles GET /photos/:id/file and streams the image.
func (c *Controller) PhotoFile(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid photo id", http.StatusBadRequest)
	}
	photo, err := c.service.GetPhoto(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "failed to load photo", 0)
	}
	if !c.service.Images().Contains(photo.FilePath) {
		return c.HandleError(ctx, nil, "photo file is outside the image directory", http.StatusNotFound)
	}
	return ctx.File(photo.FilePath)
}

// StarPhoto handles PUT /photos/:id/star. Starring a photo unstars the
// tree's other photos.
func (c *Controller) StarPhoto(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid photo id", http.StatusBadRequest)
	}
	var req StarRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "invalid request", http.StatusBadRequest)
	}
	if err := c.service.StarPhoto(ctx.Request().Context(), id, req.Starred); err != nil {
		return c.HandleError(ctx, err, "failed to star photo", 0)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// DeletePhoto handles DELETE /photos/:id.
func (c *Controller) DeletePhoto(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid photo id", http.StatusBadRequest)
	}
	if err := c.service.DeletePhoto(ctx.Request().Context(), id); err != nil {
		return c.HandleError(ctx, err, "failed to delete photo", 0)
	}
	return ctx.NoContent(http.StatusNoContent)
}

package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// ListSpecies handles GET /species.
func (c *Controller) ListSpecies(ctx echo.Context) error {
	species, err := c.service.ListSpecies(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "failed to list species", 0)
	}
	return ctx.JSON(http.StatusOK, species)
}

// SpeciesNames handles GET /species/names, used for autocompletion.
func (c *Controller) SpeciesNames(ctx echo.Context) error {
	names, err := c.service.SpeciesNames(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "failed to list species names", 0)
	}
	return ctx.JSON(http.StatusOK, names)
}

// DeleteSpecies handles DELETE /species/:id. Species still used by a tree
// cannot be deleted.
func (c *Controller) DeleteSpecies(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid species id", http.StatusBadRequest)
	}
	if err := c.service.DeleteSpecies(ctx.Request().Context(), id); err != nil {
		return c.HandleError(ctx, err, "failed to delete species", 0)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// GetSettings handles GET /settings.
func (c *Controller) GetSettings(ctx echo.Context) error {
	setting, err := c.service.Settings(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "failed to load settings", 0)
	}
	return ctx.JSON(http.StatusOK, setting)
}

// SaveSettings handles PUT /settings.
func (c *Controller) SaveSettings(ctx echo.Context) error {
	var req SettingsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "invalid settings", http.StatusBadRequest)
	}
	if err := ctx.Validate(&req); err != nil {
		return c.HandleError(ctx, err, "invalid settings", http.StatusBadRequest)
	}

	setting := &entities.AppSetting{AppTitle: req.AppTitle, SidebarImage: req.SidebarImage}
	if err := c.service.SaveSettings(ctx.Request().Context(), setting); err != nil {
		return c.HandleError(ctx, err, "failed to save settings", 0)
	}
	return ctx.JSON(http.StatusOK, setting)
}

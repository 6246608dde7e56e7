package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/bonsai-go/internal/collection"
	"github.com/tphakala/bonsai-go/internal/datastore/entities"
)

// TreeResponse is a tree with its derived ages in years.
type TreeResponse struct {
	*entities.Tree
	SpeciesName string  `json:"species_name"`
	TrainingAge float64 `json:"training_age"`
	TrueAge     float64 `json:"true_age"`
}

// TreeDetailResponse is a tree with its history.
type TreeDetailResponse struct {
	TreeResponse
	Updates   []*entities.TreeUpdate `json:"updates"`
	Photos    []*entities.Photo      `json:"photos"`
	Reminders []*entities.Reminder   `json:"reminders"`
}

func newTreeResponse(tree *entities.Tree, now time.Time) TreeResponse {
	return TreeResponse{
		Tree:        tree,
		SpeciesName: tree.SpeciesName(),
		TrainingAge: collection.RoundYears(collection.TrainingAge(tree, now)),
		TrueAge:     collection.RoundYears(collection.TrueAge(tree, now)),
	}
}

// ListTrees handles GET /trees. Query: include_archived, archived, species_id, q.
func (c *Controller) ListTrees(ctx echo.Context) error {
	filter := collection.TreeFilter{
		IncludeArchived: boolQuery(ctx, "include_archived"),
		ArchivedOnly:    boolQuery(ctx, "archived"),
		Search:          ctx.QueryParam("q"),
	}
	if s := ctx.QueryParam("species_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.HandleError(ctx, err, "invalid species_id", http.StatusBadRequest)
		}
		filter.SpeciesID = uint(id)
	}

	trees, err := c.service.ListTrees(ctx.Request().Context(), filter)
	if err != nil {
		return c.HandleError(ctx, err, "failed to list trees", 0)
	}

	now := c.service.Now()
	resp := make([]TreeResponse, len(trees))
	for i, t := range trees {
		resp[i] = newTreeResponse(t, now)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// CreateTree handles POST /trees.
func (c *Controller) CreateTree(ctx echo.Context) error {
	in, err := c.bindTree(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree", http.StatusBadRequest)
	}

	tree, err := c.service.CreateTree(ctx.Request().Context(), in)
	if err != nil {
		return c.HandleError(ctx, err, "failed to create tree", 0)
	}
	return ctx.JSON(http.StatusCreated, newTreeResponse(tree, c.service.Now()))
}

// NextTreeNumber handles GET /trees/next-number.
func (c *Controller) NextTreeNumber(ctx echo.Context) error {
	number, err := c.service.GenerateTreeNumber(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "failed to generate tree number", 0)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"tree_number": number})
}

// GetTree handles GET /trees/:id and returns the tree with its history.
func (c *Controller) GetTree(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}

	detail, err := c.service.GetTreeDetail(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "failed to load tree", 0)
	}
	return ctx.JSON(http.StatusOK, TreeDetailResponse{
		TreeResponse: newTreeResponse(detail.Tree, c.service.Now()),
		Updates:      detail.Updates,
		Photos:       detail.Photos,
		Reminders:    detail.Reminders,
	})
}

// GetTreeByNumber handles GET /trees/number/:number.
func (c *Controller) GetTreeByNumber(ctx echo.Context) error {
	tree, err := c.service.GetTreeByNumber(ctx.Request().Context(), ctx.Param("number"))
	if err != nil {
		return c.HandleError(ctx, err, "failed to load tree", 0)
	}
	return ctx.JSON(http.StatusOK, newTreeResponse(tree, c.service.Now()))
}

// UpdateTree handles PUT /trees/:id.
func (c *Controller) UpdateTree(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}
	in, err := c.bindTree(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree", http.StatusBadRequest)
	}

	tree, err := c.service.UpdateTree(ctx.Request().Context(), id, in)
	if err != nil {
		return c.HandleError(ctx, err, "failed to update tree", 0)
	}
	return ctx.JSON(http.StatusOK, newTreeResponse(tree, c.service.Now()))
}

// ArchiveTree handles POST /trees/:id/archive.
func (c *Controller) ArchiveTree(ctx echo.Context) error {
	return c.setArchived(ctx, true)
}

// UnarchiveTree handles POST /trees/:id/unarchive.
func (c *Controller) UnarchiveTree(ctx echo.Context) error {
	return c.setArchived(ctx, false)
}

func (c *Controller) setArchived(ctx echo.Context, archived bool) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}
	if err := c.service.SetArchived(ctx.Request().Context(), id, archived); err != nil {
		return c.HandleError(ctx, err, "failed to change archive state", 0)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// DeleteTree handles DELETE /trees/:id.
func (c *Controller) DeleteTree(ctx echo.Context) error {
	id, err := c.idParam(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid tree id", http.StatusBadRequest)
	}
	if err := c.service.DeleteTree(ctx.Request().Context(), id); err != nil {
		return c.HandleError(ctx, err, "failed to delete tree", 0)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) bindTree(ctx echo.Context) (collection.TreeInput, error) {
	var req TreeRequest
	if err := ctx.Bind(&req); err != nil {
		return collection.TreeInput{}, err
	}
	if err := ctx.Validate(&req); err != nil {
		return collection.TreeInput{}, err
	}
	return req.input()
}

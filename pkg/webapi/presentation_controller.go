package webapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcslides/pkg/clog"
	"github.com/materials-commons/mcslides/pkg/stor"
)

type PresentationController struct {
	presentations stor.PresentationStor
}

func NewPresentationController(presentations stor.PresentationStor) *PresentationController {
	return &PresentationController{presentations: presentations}
}

func (c *PresentationController) GetPresentation(ctx echo.Context) error {
	p, err := c.presentations.Get(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusNotFound, "Presentation not found")
	}

	return ctx.JSON(http.StatusOK, p)
}

func (c *PresentationController) ListPresentations(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.presentations.List())
}

func (c *PresentationController) DeletePresentation(ctx echo.Context) error {
	id := ctx.Param("id")
	err := c.presentations.Delete(id)
	switch {
	case errors.Is(err, stor.ErrNotFound):
		return errorResponse(ctx, http.StatusNotFound, "Presentation not found")
	case err != nil:
		clog.Global().Errorf("Unable to delete presentation %s: %s", id, err)
		return errorResponse(ctx, http.StatusInternalServerError, "Failed to delete presentation")
	}

	return ctx.JSON(http.StatusOK, map[string]bool{"success": true})
}

// RedirectToSlide sends the client to the image for slide n.
func (c *PresentationController) RedirectToSlide(ctx echo.Context) error {
	raw := ctx.Param("n")
	n, err := strconv.Atoi(raw)
	if err != nil || strconv.Itoa(n) != raw {
		return errorResponse(ctx, http.StatusNotFound, "Slide not found")
	}

	url, err := c.presentations.GetSlide(ctx.Param("id"), n)
	if err != nil {
		return errorResponse(ctx, http.StatusNotFound, "Slide not found")
	}

	return ctx.Redirect(http.StatusFound, url)
}

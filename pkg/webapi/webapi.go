package webapi

import (
	"github.com/labstack/echo/v4"
)

func errorResponse(ctx echo.Context, httpError int, msg string) error {
	return ctx.JSON(httpError, map[string]string{"error": msg})
}

package webapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToolchainStatus reports on the external converter.
type ToolchainStatus interface {
	IsAvailable() bool
	ConverterPath() string
	Version(ctx context.Context) (string, error)
}

type ToolchainController struct {
	probe ToolchainStatus
}

func NewToolchainController(probe ToolchainStatus) *ToolchainController {
	return &ToolchainController{probe: probe}
}

type ToolchainResponse struct {
	Available bool   `json:"available"`
	Converter string `json:"converter"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}

func (c *ToolchainController) GetToolchain(ctx echo.Context) error {
	resp := ToolchainResponse{
		Available: c.probe.IsAvailable(),
		Converter: c.probe.ConverterPath(),
	}

	if resp.Available {
		version, err := c.probe.Version(ctx.Request().Context())
		if err != nil {
			resp.Error = err.Error()
		}
		resp.Version = version
	}

	return ctx.JSON(http.StatusOK, resp)
}

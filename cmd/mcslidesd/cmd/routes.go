package cmd

import (
	"fmt"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/materials-commons/mcslides/pkg/clog"
	"github.com/materials-commons/mcslides/pkg/config"
	"github.com/materials-commons/mcslides/pkg/stor"
	"github.com/materials-commons/mcslides/pkg/toolchain"
	"github.com/materials-commons/mcslides/pkg/tusupload"
	"github.com/materials-commons/mcslides/pkg/webapi"
)

type RouteDependencies struct {
	e             *echo.Echo
	settings      *config.Settings
	converter     webapi.Converter
	presentations stor.PresentationStor
	probe         *toolchain.Probe
	uploads       *tusupload.Uploads
	logs          *webapi.LogController
}

func setupRoutes(deps RouteDependencies) {
	deps.e.Use(middleware.Recover())
	deps.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := clog.UsingCtx(clog.HTTPCtx).WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			})
			if v.Error != nil {
				entry.Errorf("Request failed: %s", v.Error)
				return nil
			}
			entry.Info("Request")
			return nil
		},
	}))

	// Multipart framing needs some room over the file itself.
	bodyLimit := middleware.BodyLimit(fmt.Sprintf("%dM", deps.settings.MaxUploadBytes>>20+1))

	convertController := webapi.NewConvertController(deps.converter, deps.uploads, deps.settings.UploadsDir, deps.settings.MaxUploadBytes)
	deps.e.POST("/convert", convertController.Convert, bodyLimit)
	deps.e.POST("/convert/uploads/:uploadID", convertController.ConvertTusUpload)

	tusHandler := echo.WrapHandler(deps.uploads.Handler())
	deps.e.Any("/uploads", tusHandler)
	deps.e.Any("/uploads/*", tusHandler)

	presentationController := webapi.NewPresentationController(deps.presentations)
	deps.e.GET("/presentation/:id", presentationController.GetPresentation)
	deps.e.DELETE("/presentation/:id", presentationController.DeletePresentation)
	deps.e.GET("/presentations", presentationController.ListPresentations)
	deps.e.GET("/slides/:id/:n", presentationController.RedirectToSlide)

	toolchainController := webapi.NewToolchainController(deps.probe)
	deps.e.GET("/toolchain", toolchainController.GetToolchain)

	deps.e.Static(deps.settings.StaticPrefix, deps.settings.SlidesDir)

	g := deps.e.Group("/api")
	g.POST("/logging", deps.logs.SetLogging)
	g.GET("/logging", deps.logs.ShowLogging)
}

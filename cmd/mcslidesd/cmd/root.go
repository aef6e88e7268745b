package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcslides/pkg/clog"
	"github.com/materials-commons/mcslides/pkg/config"
	"github.com/materials-commons/mcslides/pkg/convert"
	"github.com/materials-commons/mcslides/pkg/stor"
	"github.com/materials-commons/mcslides/pkg/toolchain"
	"github.com/materials-commons/mcslides/pkg/tusupload"
	"github.com/materials-commons/mcslides/pkg/webapi"
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcslidesd",
	Short: "Convert presentations into slide images",
	Long: `mcslidesd accepts uploaded presentations, converts each slide to an image with
LibreOffice and poppler, and serves the slides and their metadata over HTTP. When the
converter is missing or fails, placeholder slides are served instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion server (the default)",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func runServe() {
	settings := config.MustLoadSettings(cfgFile)
	if err := Run(context.Background(), settings); err != nil {
		log.Fatalf("mcslidesd: %s", err)
	}
}

// Run serves until SIGINT or SIGTERM.
func Run(ctx context.Context, settings *config.Settings) error {
	logs, err := setupLogging(settings)
	if err != nil {
		return err
	}

	// Scratch space from a previous run is never picked up again.
	if err := os.RemoveAll(settings.WorkDir); err != nil {
		clog.Global().Warnf("Unable to clear work dir %s: %s", settings.WorkDir, err)
	}

	for _, dir := range settings.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("unable to create %s: %w", dir, err)
		}
	}

	probe := newProbe(settings)
	presentations := stor.NewInMemoryPresentationStor(settings.SlidesDir)
	converter := convert.NewConverter(convert.Options{
		WorkDir:               settings.WorkDir,
		StaticPrefix:          settings.StaticPrefix,
		Pdftoppm:              settings.Pdftoppm,
		Pdfinfo:               settings.Pdfinfo,
		RenderDPI:             settings.RenderDPI,
		PageWorkers:           settings.PageWorkers,
		DirectPadCount:        settings.DirectPadCount,
		FallbackCount:         settings.FallbackCount,
		MissingToolchainCount: settings.MissingToolchainCount,
	}, toolchain.NewExecRunner(settings.ToolTimeout), probe, presentations)

	uploads, err := tusupload.New(settings.TusDir, "/uploads/", settings.MaxUploadBytes)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupRoutes(RouteDependencies{
		e:             e,
		settings:      settings,
		converter:     converter,
		presentations: presentations,
		probe:         probe,
		uploads:       uploads,
		logs:          logs,
	})

	go probe.LogStatus(ctx)

	go func() {
		clog.Global().Infof("Listening on port %d, data in %s", settings.Port, settings.DataDir)
		if err := e.Start(fmt.Sprintf(":%d", settings.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Unable to start web server: %s", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	clog.Global().Infof("Got %s signal, shutting down...", sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return e.Shutdown(shutdownCtx)
}

func newProbe(settings *config.Settings) *toolchain.Probe {
	return toolchain.NewProbe(settings.Converters, settings.InstallCmd, toolchain.NewExecRunner(settings.InstallTimeout))
}

func setupLogging(settings *config.Settings) (*webapi.LogController, error) {
	logs := webapi.NewLogController()
	if _, err := logs.Apply(webapi.LogSetting{Context: clog.GlobalLoggerCtx, Level: settings.LogLevel}); err != nil {
		return nil, err
	}

	if settings.ConvertLog != "" {
		if _, err := logs.Apply(webapi.LogSetting{Context: clog.ConvertCtx, Level: settings.LogLevel, Output: settings.ConvertLog}); err != nil {
			return nil, err
		}
	}

	return logs, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default reads MC_DOTENV_PATH and the environment)")
	rootCmd.AddCommand(serveCmd)
}

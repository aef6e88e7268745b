package webapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/materials-commons/mcslides/pkg/clog"
	"github.com/pkg/errors"
)

// LogSetting is the level and destination of one logging context.
type LogSetting struct {
	Context string `json:"context"`
	Level   string `json:"level"`
	Output  string `json:"output"`
}

// LogController changes logging levels and outputs per context while the daemon runs.
type LogController struct {
	mu       sync.Mutex
	settings map[string]LogSetting
}

var loggingContexts = []string{clog.GlobalLoggerCtx, clog.ConvertCtx, clog.ToolchainCtx, clog.HTTPCtx}

func NewLogController() *LogController {
	c := &LogController{settings: make(map[string]LogSetting)}
	c.settings[clog.GlobalLoggerCtx] = LogSetting{Context: clog.GlobalLoggerCtx, Level: "info", Output: "stdout"}
	return c
}

// Apply sets the level and output for a context. An empty level or output leaves that part as
// it is. Contexts without their own output log through the global logger.
func (c *LogController) Apply(setting LogSetting) (LogSetting, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !isLoggingContext(setting.Context) {
		return LogSetting{}, fmt.Errorf("unknown logging context %q", setting.Context)
	}

	current, exists := c.settings[setting.Context]
	if !exists {
		current = LogSetting{Context: setting.Context, Level: c.settings[clog.GlobalLoggerCtx].Level, Output: "global"}
	}

	var level log.Level
	if setting.Level != "" {
		var err error
		if level, err = log.ParseLevel(setting.Level); err != nil {
			return LogSetting{}, errors.Wrapf(err, "invalid log level %s", setting.Level)
		}
	}

	if setting.Output != "" {
		w, err := openLogOutput(setting.Output)
		if err != nil {
			return LogSetting{}, err
		}

		switch {
		case setting.Context == clog.GlobalLoggerCtx || exists && current.Output != "global":
			if err := clog.SetOutput(setting.Context, w); err != nil {
				return LogSetting{}, err
			}
		default:
			clog.AddLoggingContext(setting.Context, w)
			clog.SetLevel(setting.Context, levelOrInfo(current.Level))
		}
		current.Output = setting.Output
	}

	if setting.Level != "" {
		if current.Output == "global" {
			return LogSetting{}, fmt.Errorf("context %s logs through the global logger, set an output first", setting.Context)
		}
		clog.SetLevel(setting.Context, level)
		current.Level = level.String()
	}

	c.settings[setting.Context] = current
	return current, nil
}

// SetLogging takes a LogSetting as JSON.
func (c *LogController) SetLogging(ctx echo.Context) error {
	var req LogSetting
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "Invalid logging request")
	}

	if req.Context == "" {
		req.Context = clog.GlobalLoggerCtx
	}

	setting, err := c.Apply(req)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	return ctx.JSON(http.StatusOK, setting)
}

func (c *LogController) ShowLogging(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.Settings())
}

// Settings lists the contexts that have been configured, sorted by name.
func (c *LogController) Settings() []LogSetting {
	c.mu.Lock()
	defer c.mu.Unlock()

	settings := make([]LogSetting, 0, len(c.settings))
	for _, s := range c.settings {
		settings = append(settings, s)
	}

	sort.Slice(settings, func(i, j int) bool { return settings[i].Context < settings[j].Context })
	return settings
}

func isLoggingContext(ctx string) bool {
	for _, known := range loggingContexts {
		if ctx == known {
			return true
		}
	}

	return false
}

func openLogOutput(output string) (io.WriteCloser, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log output %s", output)
	}

	return f, nil
}

func levelOrInfo(s string) log.Level {
	level, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}

	return level
}

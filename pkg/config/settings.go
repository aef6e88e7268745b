package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

const (
	PortKey                  = "MCSLIDES_PORT"
	DataDirKey               = "MCSLIDES_DATA_DIR"
	ConvertersKey            = "MCSLIDES_CONVERTERS"
	PdftoppmKey              = "MCSLIDES_PDFTOPPM"
	PdfinfoKey               = "MCSLIDES_PDFINFO"
	InstallCmdKey            = "MCSLIDES_INSTALL_CMD"
	ToolTimeoutKey           = "MCSLIDES_TOOL_TIMEOUT_SECONDS"
	InstallTimeoutKey        = "MCSLIDES_INSTALL_TIMEOUT_SECONDS"
	PageWorkersKey           = "MCSLIDES_PAGE_WORKERS"
	RenderDPIKey             = "MCSLIDES_RENDER_DPI"
	MaxUploadMBKey           = "MCSLIDES_MAX_UPLOAD_MB"
	DirectPadCountKey        = "MCSLIDES_DIRECT_PAD_COUNT"
	FallbackCountKey         = "MCSLIDES_FALLBACK_COUNT"
	MissingToolchainCountKey = "MCSLIDES_MISSING_TOOLCHAIN_COUNT"
	StaticPrefixKey          = "MCSLIDES_STATIC_PREFIX"
	LogLevelKey              = "MCSLIDES_LOG_LEVEL"
	ConvertLogKey            = "MCSLIDES_CONVERT_LOG"
	ServerURLKey             = "MCSLIDES_URL"
)

// DefaultInstallCmd installs the converter and poppler on Debian based hosts. Setting
// MCSLIDES_INSTALL_CMD to "none" disables installs.
const DefaultInstallCmd = "apt-get install -y libreoffice-impress poppler-utils"

// Settings is the typed view of the service configuration.
type Settings struct {
	Port    int
	DataDir string

	// Directories under DataDir.
	SlidesDir  string
	UploadsDir string
	WorkDir    string
	TusDir     string

	Converters []string
	Pdftoppm   string
	Pdfinfo    string
	InstallCmd []string

	ToolTimeout    time.Duration
	InstallTimeout time.Duration

	PageWorkers           int
	RenderDPI             int
	MaxUploadBytes        int64
	DirectPadCount        int
	FallbackCount         int
	MissingToolchainCount int
	StaticPrefix          string

	LogLevel   string
	ConvertLog string
}

// LoadSettings reads every key from c, filling in defaults. Paths may start with ~.
func LoadSettings(c Configer) (*Settings, error) {
	dataDir, err := homedir.Expand(c.GetKeyWithDefault(DataDirKey, "~/.mcslides"))
	if err != nil {
		return nil, fmt.Errorf("unable to expand %s: %w", DataDirKey, err)
	}

	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve %s: %w", DataDirKey, err)
	}

	convertLog := c.GetKey(ConvertLogKey)
	if convertLog != "" {
		if convertLog, err = homedir.Expand(convertLog); err != nil {
			return nil, fmt.Errorf("unable to expand %s: %w", ConvertLogKey, err)
		}
	}

	s := &Settings{
		Port:                  c.GetIntKeyWithDefault(PortKey, 1360),
		DataDir:               dataDir,
		SlidesDir:             filepath.Join(dataDir, "slides"),
		UploadsDir:            filepath.Join(dataDir, "uploads"),
		WorkDir:               filepath.Join(dataDir, "work"),
		TusDir:                filepath.Join(dataDir, "tus"),
		Converters:            splitList(c.GetKeyWithDefault(ConvertersKey, "soffice,libreoffice"), ","),
		Pdftoppm:              c.GetKeyWithDefault(PdftoppmKey, "pdftoppm"),
		Pdfinfo:               c.GetKeyWithDefault(PdfinfoKey, "pdfinfo"),
		InstallCmd:            installCommand(c.GetKeyWithDefault(InstallCmdKey, DefaultInstallCmd)),
		ToolTimeout:           time.Duration(c.GetIntKeyWithDefault(ToolTimeoutKey, 120)) * time.Second,
		InstallTimeout:        time.Duration(c.GetIntKeyWithDefault(InstallTimeoutKey, 900)) * time.Second,
		PageWorkers:           c.GetIntKeyWithDefault(PageWorkersKey, 4),
		RenderDPI:             c.GetIntKeyWithDefault(RenderDPIKey, 150),
		MaxUploadBytes:        int64(c.GetIntKeyWithDefault(MaxUploadMBKey, 50)) << 20,
		DirectPadCount:        c.GetIntKeyWithDefault(DirectPadCountKey, 23),
		FallbackCount:         c.GetIntKeyWithDefault(FallbackCountKey, 23),
		MissingToolchainCount: c.GetIntKeyWithDefault(MissingToolchainCountKey, 5),
		StaticPrefix:          "/" + strings.Trim(c.GetKeyWithDefault(StaticPrefixKey, "/static/slides"), "/"),
		LogLevel:              c.GetKeyWithDefault(LogLevelKey, "info"),
		ConvertLog:            convertLog,
	}

	switch {
	case s.Port <= 0 || s.Port > 65535:
		return nil, fmt.Errorf("%s out of range: %d", PortKey, s.Port)
	case len(s.Converters) == 0:
		return nil, fmt.Errorf("%s lists no converters", ConvertersKey)
	case s.ToolTimeout <= 0:
		return nil, fmt.Errorf("%s must be positive", ToolTimeoutKey)
	case s.MaxUploadBytes <= 0:
		return nil, fmt.Errorf("%s must be positive", MaxUploadMBKey)
	case s.StaticPrefix == "/":
		return nil, fmt.Errorf("%s cannot be the root path", StaticPrefixKey)
	}

	return s, nil
}

// Dirs lists the directories the service writes to.
func (s *Settings) Dirs() []string {
	return []string{s.SlidesDir, s.UploadsDir, s.WorkDir, s.TusDir}
}

func installCommand(s string) []string {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return nil
	}

	return strings.Fields(s)
}

func splitList(s, sep string) []string {
	var items []string
	for _, item := range strings.Split(s, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

package convert

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-uuid"
	"github.com/materials-commons/mcslides/pkg/clog"
	"github.com/materials-commons/mcslides/pkg/mcmodel"
	"github.com/materials-commons/mcslides/pkg/stor"
	"github.com/materials-commons/mcslides/pkg/toolchain"
	"github.com/pkg/errors"
)

// ToolchainProbe is the part of toolchain.Probe the converter needs.
type ToolchainProbe interface {
	IsAvailable() bool
	Install(ctx context.Context) bool
	ConverterPath() string
}

// Converter turns an uploaded presentation into slide images and registers the result.
type Converter struct {
	opts          Options
	runner        toolchain.Runner
	probe         ToolchainProbe
	pageCounter   PageCounter
	presentations stor.PresentationStor

	newID func() (string, error)
	now   func() time.Time
}

func NewConverter(opts Options, runner toolchain.Runner, probe ToolchainProbe, presentations stor.PresentationStor) *Converter {
	opts = opts.withDefaults()
	return &Converter{
		opts:   opts,
		runner: runner,
		probe:  probe,
		pageCounter: ChainPageCounter{
			NewPdfinfoPageCounter(runner, opts.Pdfinfo),
			PDFReaderPageCounter{},
		},
		presentations: presentations,
		newID:         uuid.GenerateUUID,
		now:           time.Now,
	}
}

type slide struct {
	file        string
	placeholder bool
}

// attempt is the state of one Convert call.
type attempt struct {
	id           string
	inputPath    string
	originalName string
	outDir       string
	workDir      string
	converter    string

	slides     []slide
	status     mcmodel.ConversionStatus
	finishedBy string

	// What the placeholders stage produces when it is reached.
	fallbackCount  int
	fallbackStatus mcmodel.ConversionStatus
	fallbackReason string

	baseLog *log.Entry
	log     *log.Entry
}

func (a *attempt) placeholder(n int, reason string) (slide, error) {
	name, err := writePlaceholder(a.outDir, n, a.originalName, reason)
	if err != nil {
		return slide{}, err
	}

	return slide{file: name, placeholder: true}, nil
}

func (a *attempt) presentation(staticPrefix string, convertedAt time.Time) *mcmodel.Presentation {
	p := &mcmodel.Presentation{
		ID:           a.id,
		OriginalName: a.originalName,
		Slides:       make([]string, 0, len(a.slides)),
		ConvertedAt:  convertedAt,
		Status:       a.status,
	}

	for _, s := range a.slides {
		p.Slides = append(p.Slides, path.Join(staticPrefix, a.id, s.file))
		if s.placeholder {
			p.IsPlaceholder = true
		}
	}
	p.SlideCount = len(p.Slides)

	return p
}

// Convert produces the slides for inputPath and stores the resulting presentation.
// Conversion problems degrade to placeholder slides; an error is only returned when the
// output or working directories can't be set up. inputPath is removed before returning.
func (c *Converter) Convert(ctx context.Context, inputPath, originalName string) (*mcmodel.Presentation, error) {
	defer removeInput(inputPath)

	id, err := c.newID()
	if err != nil {
		return nil, errors.Wrap(err, "unable to generate presentation id")
	}

	a, err := c.setup(id, inputPath, originalName)
	if err != nil {
		return nil, err
	}
	defer a.removeWorkDir()

	a.baseLog.Info("Starting conversion")
	start := c.now()

	if err := runStages(ctx, c.stages(), a); err != nil {
		a.discardOutput()
		return nil, errors.Wrapf(err, "conversion of %s failed", originalName)
	}

	p := a.presentation(c.opts.StaticPrefix, c.now())
	if err := c.presentations.Put(p); err != nil {
		a.discardOutput()
		return nil, errors.Wrapf(err, "unable to register presentation %s", id)
	}

	a.baseLog.WithFields(log.Fields{
		"slides":      p.SlideCount,
		"status":      p.Status,
		"placeholder": p.IsPlaceholder,
		"stage":       a.finishedBy,
		"duration":    c.now().Sub(start).Round(time.Millisecond),
	}).Info("Conversion finished")

	return p, nil
}

func (c *Converter) setup(id, inputPath, originalName string) (*attempt, error) {
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve %s", inputPath)
	}

	outDir := c.presentations.SlideDir(id)
	workRoot := c.opts.WorkDir
	if workRoot == "" {
		// Next to the slides dir so renders can be renamed into place.
		workRoot = filepath.Join(filepath.Dir(filepath.Dir(outDir)), defaultWorkDirName)
	}

	workDir, err := filepath.Abs(filepath.Join(workRoot, id))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve work dir for %s", id)
	}

	a := &attempt{
		id:             id,
		inputPath:      absInput,
		originalName:   originalName,
		outDir:         outDir,
		workDir:        workDir,
		fallbackCount:  c.opts.FallbackCount,
		fallbackStatus: mcmodel.StatusFallbackPlaceholders,
		fallbackReason: reasonConversionFailed,
		baseLog: clog.Convert().WithFields(log.Fields{
			"presentation_id": id,
			"original_name":   originalName,
		}),
	}
	a.log = a.baseLog

	if err := os.MkdirAll(a.outDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create slide dir %s", a.outDir)
	}

	if err := os.MkdirAll(a.workDir, 0755); err != nil {
		a.discardOutput()
		return nil, errors.Wrapf(err, "unable to create work dir %s", a.workDir)
	}

	return a, nil
}

func (a *attempt) removeWorkDir() {
	if err := os.RemoveAll(a.workDir); err != nil {
		a.baseLog.Warnf("Unable to remove work dir %s: %s", a.workDir, err)
	}
}

func (a *attempt) discardOutput() {
	if err := os.RemoveAll(a.outDir); err != nil {
		a.baseLog.Warnf("Unable to remove slide dir %s: %s", a.outDir, err)
	}
}

func removeInput(inputPath string) {
	if err := os.Remove(inputPath); err != nil && !os.IsNotExist(err) {
		clog.Convert().Warnf("Unable to remove upload %s: %s", inputPath, err)
	}
}

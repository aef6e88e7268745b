package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apex/log"
	"github.com/materials-commons/mcslides/pkg/mcmodel"
	"golang.org/x/sync/errgroup"
)

const (
	stageToolchain    = "toolchain"
	stagePDF          = "pdf"
	stageDirect       = "direct"
	stagePlaceholders = "placeholders"
)

type outcome int

const (
	// outcomeDone means the attempt has its slides.
	outcomeDone outcome = iota

	// outcomeFallthrough hands the attempt to the next stage, or to skipTo when set.
	outcomeFallthrough

	// outcomeFatal stops the conversion with err.
	outcomeFatal
)

type stageResult struct {
	outcome outcome
	skipTo  string
	err     error
}

func done() stageResult {
	return stageResult{outcome: outcomeDone}
}

// fallthroughWith moves on to the next stage. err is the reason, nil when the stage simply
// has nothing more to do.
func fallthroughWith(err error) stageResult {
	return stageResult{outcome: outcomeFallthrough, err: err}
}

func skipTo(stage string, err error) stageResult {
	return stageResult{outcome: outcomeFallthrough, skipTo: stage, err: err}
}

func fatal(err error) stageResult {
	return stageResult{outcome: outcomeFatal, err: err}
}

type stage struct {
	name string
	run  func(ctx context.Context, a *attempt) stageResult
}

// runStages evaluates stages in order until one is done or fatal. Jumps only go forward.
func runStages(ctx context.Context, stages []stage, a *attempt) error {
	for i := 0; i < len(stages); {
		s := stages[i]
		a.log = a.baseLog.WithField("stage", s.name)
		r := s.run(ctx, a)

		switch r.outcome {
		case outcomeDone:
			a.finishedBy = s.name
			return nil

		case outcomeFatal:
			a.log.Errorf("Conversion aborted: %s", r.err)
			return r.err

		case outcomeFallthrough:
			if r.err != nil {
				a.log.Warnf("Stage failed, falling through: %s", r.err)
			}

			if r.skipTo == "" {
				i++
				continue
			}

			next := stageIndex(stages, r.skipTo)
			if next <= i {
				return fmt.Errorf("stage %s cannot skip to %s", s.name, r.skipTo)
			}
			i = next
		}
	}

	return errors.New("no conversion stage produced slides")
}

func stageIndex(stages []stage, name string) int {
	for i, s := range stages {
		if s.name == name {
			return i
		}
	}

	return -1
}

func (c *Converter) stages() []stage {
	return []stage{
		{name: stageToolchain, run: c.checkToolchain},
		{name: stagePDF, run: c.convertViaPDF},
		{name: stageDirect, run: c.rasterizeDirect},
		{name: stagePlaceholders, run: c.createPlaceholders},
	}
}

// checkToolchain makes sure a converter exists, trying an install when it doesn't. Without
// one the PDF and direct stages are skipped.
func (c *Converter) checkToolchain(ctx context.Context, a *attempt) stageResult {
	if !c.probe.IsAvailable() {
		a.log.Warn("Converter not found, attempting install")
		if !c.probe.Install(ctx) {
			a.fallbackCount = c.opts.MissingToolchainCount
			a.fallbackStatus = mcmodel.StatusPlaceholdersCreated
			a.fallbackReason = reasonToolchainMissing
			return skipTo(stagePlaceholders, errors.New("converter unavailable"))
		}
	}

	a.converter = c.probe.ConverterPath()
	if a.converter == "" {
		a.fallbackCount = c.opts.MissingToolchainCount
		a.fallbackStatus = mcmodel.StatusPlaceholdersCreated
		a.fallbackReason = reasonToolchainMissing
		return skipTo(stagePlaceholders, errors.New("converter disappeared after probe"))
	}

	return fallthroughWith(nil)
}

// convertViaPDF exports the deck to PDF and rasterizes every page. A page that fails to
// render becomes a placeholder; the rest of the pages still go ahead.
func (c *Converter) convertViaPDF(ctx context.Context, a *attempt) stageResult {
	pdfPath, err := c.exportPDF(ctx, a)
	if err != nil {
		return fallthroughWith(err)
	}

	pageCount, err := c.pageCounter.PageCount(ctx, pdfPath)
	switch {
	case err != nil:
		return fallthroughWith(fmt.Errorf("unable to read page count of %s: %w", filepath.Base(pdfPath), err))
	case pageCount <= 0:
		return fallthroughWith(fmt.Errorf("%s has no pages", filepath.Base(pdfPath)))
	}

	a.log.WithField("pages", pageCount).Info("Rasterizing pages")
	slides, err := c.rasterizePages(ctx, a, pdfPath, pageCount)
	if err != nil {
		return fatal(err)
	}

	a.slides = slides
	a.status = mcmodel.StatusSuccess
	return done()
}

func (c *Converter) exportPDF(ctx context.Context, a *attempt) (string, error) {
	result, err := c.runner.Run(ctx, a.converter,
		"--headless", profileURL(a.workDir),
		"--convert-to", "pdf",
		"--outdir", a.workDir,
		a.inputPath)
	if err != nil {
		a.log.WithField("output", result.Output()).Debug("PDF export output")
		return "", fmt.Errorf("pdf export failed: %w", err)
	}

	pdfPath := filepath.Join(a.workDir, stem(a.inputPath)+".pdf")
	if !hasOutput(pdfPath) {
		a.log.WithField("output", result.Output()).Debug("PDF export output")
		return "", fmt.Errorf("pdf export exited cleanly but %s was not written", filepath.Base(pdfPath))
	}

	return pdfPath, nil
}

func (c *Converter) rasterizePages(ctx context.Context, a *attempt, pdfPath string, pageCount int) ([]slide, error) {
	pagesDir := filepath.Join(a.workDir, "pages")
	if err := os.MkdirAll(pagesDir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create page dir: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(pagesDir); err != nil {
			a.log.Warnf("Unable to remove page dir %s: %s", pagesDir, err)
		}
	}()

	slides := make([]slide, pageCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.PageWorkers)

	for n := 1; n <= pageCount; n++ {
		n := n
		g.Go(func() error {
			s, err := c.rasterizePage(gctx, a, pdfPath, pagesDir, n)
			if err != nil {
				return err
			}

			slides[n-1] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return slides, nil
}

// rasterizePage only returns an error when not even a placeholder could be written.
func (c *Converter) rasterizePage(ctx context.Context, a *attempt, pdfPath, pagesDir string, n int) (slide, error) {
	page := strconv.Itoa(n)
	prefix := filepath.Join(pagesDir, "page-"+page)
	rendered := prefix + ".png"

	result, err := c.runner.Run(ctx, c.opts.Pdftoppm,
		"-png", "-r", strconv.Itoa(c.opts.RenderDPI),
		"-f", page, "-l", page,
		"-singlefile",
		pdfPath, prefix)

	if err == nil && !hasOutput(rendered) {
		err = fmt.Errorf("%s exited cleanly but wrote no image", c.opts.Pdftoppm)
	}

	if err == nil {
		name := slideFileName(n, ".png")
		if err = os.Rename(rendered, filepath.Join(a.outDir, name)); err == nil {
			return slide{file: name}, nil
		}
	}

	a.log.WithFields(log.Fields{"page": n, "output": result.Output()}).Warnf("Page failed, using placeholder: %s", err)
	return a.placeholder(n, reasonPageFailed)
}

// rasterizeDirect asks the converter for images straight from the deck. Converters often
// collapse a deck into one image; that case is padded out with placeholders.
func (c *Converter) rasterizeDirect(ctx context.Context, a *attempt) stageResult {
	directDir := filepath.Join(a.workDir, "direct")
	if err := os.MkdirAll(directDir, 0755); err != nil {
		return fatal(fmt.Errorf("unable to create direct render dir: %w", err))
	}

	result, err := c.runner.Run(ctx, a.converter,
		"--headless", profileURL(a.workDir),
		"--convert-to", "png",
		"--outdir", directDir,
		a.inputPath)
	if err != nil {
		a.log.WithField("output", result.Output()).Debug("Direct render output")
		return fallthroughWith(fmt.Errorf("direct render failed: %w", err))
	}

	images, err := collectImages(directDir)
	switch {
	case err != nil:
		return fallthroughWith(fmt.Errorf("unable to list direct render output: %w", err))
	case len(images) == 0:
		a.log.WithField("output", result.Output()).Debug("Direct render output")
		return fallthroughWith(errors.New("direct render exited cleanly but produced no images"))
	}

	slides := make([]slide, 0, len(images))
	for i, image := range images {
		name := slideFileName(i+1, filepath.Ext(image))
		if err := os.Rename(filepath.Join(directDir, image), filepath.Join(a.outDir, name)); err != nil {
			a.log.WithField("image", image).Warnf("Unable to move image into place, using placeholder: %s", err)
			s, err := a.placeholder(i+1, reasonPageFailed)
			if err != nil {
				return fatal(err)
			}
			slides = append(slides, s)
			continue
		}
		slides = append(slides, slide{file: name})
	}

	if len(slides) == 1 {
		a.log.Infof("Direct render produced a single image, padding to %d slides", c.opts.DirectPadCount)
		for n := 2; n <= c.opts.DirectPadCount; n++ {
			s, err := a.placeholder(n, reasonEstimated)
			if err != nil {
				return fatal(err)
			}
			slides = append(slides, s)
		}
	}

	a.slides = slides
	a.status = mcmodel.StatusSuccess
	return done()
}

func (c *Converter) createPlaceholders(_ context.Context, a *attempt) stageResult {
	a.log.Infof("Creating %d placeholder slides", a.fallbackCount)

	slides := make([]slide, 0, a.fallbackCount)
	for n := 1; n <= a.fallbackCount; n++ {
		s, err := a.placeholder(n, a.fallbackReason)
		if err != nil {
			return fatal(err)
		}
		slides = append(slides, s)
	}

	a.slides = slides
	a.status = a.fallbackStatus
	return done()
}

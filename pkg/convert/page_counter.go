package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/materials-commons/mcslides/pkg/toolchain"
	"rsc.io/pdf"
)

// PageCounter reports how many pages a PDF has.
type PageCounter interface {
	PageCount(ctx context.Context, pdfPath string) (int, error)
}

// PdfinfoPageCounter reads the "Pages:" line printed by poppler's pdfinfo.
type PdfinfoPageCounter struct {
	runner toolchain.Runner
	bin    string
}

func NewPdfinfoPageCounter(runner toolchain.Runner, bin string) *PdfinfoPageCounter {
	return &PdfinfoPageCounter{runner: runner, bin: bin}
}

func (c *PdfinfoPageCounter) PageCount(ctx context.Context, pdfPath string) (int, error) {
	result, err := c.runner.Run(ctx, c.bin, pdfPath)
	if err != nil {
		return 0, err
	}

	return parsePdfinfoPages(result.Stdout)
}

func parsePdfinfoPages(output string) (int, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found || strings.TrimSpace(key) != "Pages" {
			continue
		}

		pages, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("bad page count %q: %w", strings.TrimSpace(value), err)
		}

		return pages, nil
	}

	return 0, errors.New("pdfinfo output has no Pages line")
}

// PDFReaderPageCounter parses the PDF in process. It covers hosts that have the converter
// but not poppler's pdfinfo.
type PDFReaderPageCounter struct{}

func (PDFReaderPageCounter) PageCount(_ context.Context, pdfPath string) (pages int, err error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	finfo, err := f.Stat()
	if err != nil {
		return 0, err
	}

	// rsc.io/pdf panics on some malformed files instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("unreadable pdf %s: %v", pdfPath, r)
		}
	}()

	reader, err := pdf.NewReader(f, finfo.Size())
	if err != nil {
		return 0, err
	}

	return reader.NumPage(), nil
}

// ChainPageCounter asks each counter in turn and returns the first answer.
type ChainPageCounter []PageCounter

func (c ChainPageCounter) PageCount(ctx context.Context, pdfPath string) (int, error) {
	var errs []error
	for _, counter := range c {
		pages, err := counter.PageCount(ctx, pdfPath)
		if err == nil {
			return pages, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return 0, errors.New("no page counters configured")
	}

	return 0, errors.Join(errs...)
}

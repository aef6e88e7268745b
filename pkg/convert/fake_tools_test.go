package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/materials-commons/mcslides/pkg/toolchain"
)

// fakeTools stands in for soffice, pdfinfo and pdftoppm. It writes the files the real tools
// would write so the converter's output checks run against real files.
type fakeTools struct {
	mu    sync.Mutex
	calls []string

	pages int

	exportFails       bool
	exportWritesNoPDF bool
	pdfinfoFails      bool
	failPages         map[int]bool

	directFails  bool
	directImages int
}

func (f *fakeTools) Run(_ context.Context, name string, args ...string) (toolchain.ToolResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()

	switch filepath.Base(name) {
	case "soffice", "libreoffice":
		return f.soffice(args)
	case "pdfinfo":
		return f.pdfinfo()
	case "pdftoppm":
		return f.pdftoppm(args)
	}

	return failed(name), fmt.Errorf("%s: not found", name)
}

func (f *fakeTools) soffice(args []string) (toolchain.ToolResult, error) {
	format := argAfter(args, "--convert-to")
	outDir := argAfter(args, "--outdir")
	input := args[len(args)-1]

	switch format {
	case "pdf":
		if f.exportFails {
			return failed("soffice"), fmt.Errorf("soffice failed (exit 1)")
		}

		if !f.exportWritesNoPDF {
			if err := os.WriteFile(filepath.Join(outDir, stem(input)+".pdf"), []byte("%PDF-1.4 fake"), 0644); err != nil {
				return failed("soffice"), err
			}
		}

	case "png":
		if f.directFails {
			return failed("soffice"), fmt.Errorf("soffice failed (exit 1)")
		}

		for i := 1; i <= f.directImages; i++ {
			name := stem(input) + ".png"
			if f.directImages > 1 {
				name = fmt.Sprintf("%s%d.png", stem(input), i)
			}

			if err := os.WriteFile(filepath.Join(outDir, name), []byte("png"), 0644); err != nil {
				return failed("soffice"), err
			}
		}
	}

	return toolchain.ToolResult{Command: "soffice", ExitCode: 0}, nil
}

func (f *fakeTools) pdfinfo() (toolchain.ToolResult, error) {
	if f.pdfinfoFails {
		return failed("pdfinfo"), fmt.Errorf("pdfinfo failed (exit 1)")
	}

	return toolchain.ToolResult{
		Command:  "pdfinfo",
		Stdout:   fmt.Sprintf("Producer:       LibreOffice\nPages:          %d\nEncrypted:      no\n", f.pages),
		ExitCode: 0,
	}, nil
}

func (f *fakeTools) pdftoppm(args []string) (toolchain.ToolResult, error) {
	page, err := strconv.Atoi(argAfter(args, "-f"))
	if err != nil {
		return failed("pdftoppm"), err
	}

	if f.failPages[page] {
		return failed("pdftoppm"), fmt.Errorf("pdftoppm failed (exit 99)")
	}

	prefix := args[len(args)-1]
	if err := os.WriteFile(prefix+".png", []byte(fmt.Sprintf("page %d", page)), 0644); err != nil {
		return failed("pdftoppm"), err
	}

	return toolchain.ToolResult{Command: "pdftoppm", ExitCode: 0}, nil
}

func (f *fakeTools) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, call := range f.calls {
		if filepath.Base(call) == name {
			n++
		}
	}

	return n
}

func failed(name string) toolchain.ToolResult {
	return toolchain.ToolResult{Command: name, ExitCode: 1, Stderr: name + " broke"}
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}

	return ""
}

type fakeProbe struct {
	mu           sync.Mutex
	available    bool
	installWorks bool
	installCalls int
}

func (p *fakeProbe) IsAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

func (p *fakeProbe) Install(_ context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.installCalls++
	if p.installWorks {
		p.available = true
	}

	return p.available
}

func (p *fakeProbe) ConverterPath() string {
	if p.IsAvailable() {
		return "/usr/bin/soffice"
	}

	return ""
}

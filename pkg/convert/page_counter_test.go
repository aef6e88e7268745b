package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePdfinfoPages(t *testing.T) {
	pages, err := parsePdfinfoPages("Title:          deck\nPages:          12\nEncrypted:      no\n")
	require.NoError(t, err)
	assert.Equal(t, 12, pages)

	_, err = parsePdfinfoPages("Title: deck\n")
	assert.Error(t, err)

	_, err = parsePdfinfoPages("Pages: many\n")
	assert.Error(t, err)
}

func TestPdfinfoPageCounter(t *testing.T) {
	counter := NewPdfinfoPageCounter(&fakeTools{pages: 9}, "pdfinfo")
	pages, err := counter.PageCount(context.Background(), "deck.pdf")
	require.NoError(t, err)
	assert.Equal(t, 9, pages)

	counter = NewPdfinfoPageCounter(&fakeTools{pdfinfoFails: true}, "pdfinfo")
	_, err = counter.PageCount(context.Background(), "deck.pdf")
	assert.Error(t, err)
}

// writeTestPDF writes a minimal PDF with pageCount empty pages and a correct xref table.
func writeTestPDF(t *testing.T, pageCount int) string {
	t.Helper()

	var b bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")
	object("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < pageCount; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pageCount))

	for i := 0; i < pageCount; i++ {
		object("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xrefOffset := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(offsets)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)

	path := filepath.Join(t.TempDir(), "test.pdf")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0644))
	return path
}

func TestPDFReaderPageCounter(t *testing.T) {
	pages, err := PDFReaderPageCounter{}.PageCount(context.Background(), writeTestPDF(t, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, pages)

	garbage := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("not a pdf"), 0644))
	_, err = PDFReaderPageCounter{}.PageCount(context.Background(), garbage)
	assert.Error(t, err)

	_, err = PDFReaderPageCounter{}.PageCount(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestChainPageCounter(t *testing.T) {
	path := writeTestPDF(t, 2)

	chain := ChainPageCounter{
		NewPdfinfoPageCounter(&fakeTools{pdfinfoFails: true}, "pdfinfo"),
		PDFReaderPageCounter{},
	}
	pages, err := chain.PageCount(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)

	chain = ChainPageCounter{NewPdfinfoPageCounter(&fakeTools{pages: 5}, "pdfinfo"), PDFReaderPageCounter{}}
	pages, err = chain.PageCount(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 5, pages)

	_, err = ChainPageCounter{}.PageCount(context.Background(), path)
	assert.Error(t, err)
}

package readers

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

type pageSource interface {
	PageCount(data []byte) (int, error)
	PageText(data []byte, page int) (string, error)
}

// PdfFileReader extracts text page by page. A page that fails to extract
// contributes an empty string; the rest of the document is kept.
type PdfFileReader struct {
	log   *slog.Logger
	pages pageSource
}

func NewPdfFileReader(log *slog.Logger) *PdfFileReader {
	return &PdfFileReader{
		log:   log,
		pages: &pdfcpuPages{conf: model.NewDefaultConfiguration()},
	}
}

func (r *PdfFileReader) Format() Format {
	return FormatPDF
}

func (r *PdfFileReader) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pdf file: %w", err)
	}

	n, err := r.pages.PageCount(data)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf document: %w", err)
	}

	texts := make([]string, 0, n)
	for page := 1; page <= n; page++ {
		text, err := r.pages.PageText(data, page)
		if err != nil {
			r.log.Warn("pdf page extraction failed", "file", path, "page", page, "error", err)
			text = ""
		}
		texts = append(texts, text)
	}

	return NormalizeLines(strings.Join(texts, "\n")), nil
}

// pdfcpuPages isolates each page into its own single-page PDF with pdfcpu and
// converts it to text with docconv.
type pdfcpuPages struct {
	conf *model.Configuration
}

func (p *pdfcpuPages) PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), p.conf)
}

func (p *pdfcpuPages) PageText(data []byte, page int) (string, error) {
	var single bytes.Buffer
	err := api.Trim(bytes.NewReader(data), &single, []string{strconv.Itoa(page)}, p.conf)
	if err != nil {
		return "", fmt.Errorf("isolating page %d: %w", page, err)
	}

	return convertPDF(&single)
}

func convertPDF(r io.Reader) (string, error) {
	text, _, err := docconv.ConvertPDF(r)
	if err != nil {
		return "", fmt.Errorf("converting page: %w", err)
	}

	return text, nil
}

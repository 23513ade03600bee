// Package pdftext extracts plain text from PDF documents.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned for data without a %PDF- header.
var ErrNotPDF = errors.New("not a PDF document")

// IsPDF reports whether data starts with the PDF magic bytes.
func IsPDF(data []byte) bool {
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}

// Extract returns the text of every page in order, one page per line block.
// Pages whose text cannot be decoded are skipped. The pdf library panics on
// some malformed files; that is reported as an error.
func Extract(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}
	if !IsPDF(data) {
		return "", ErrNotPDF
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}

	var sb strings.Builder
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("skipping page without extractable text", "page", i, "error", err)
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	slog.Debug("extracted pdf text", "pages", pages, "bytes", sb.Len())
	return sb.String(), nil
}

// ExtractFile reads a PDF from disk and extracts its text.
func ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return Extract(data)
}

// Package export renders the full task list, in insertion order, to
// CSV, JSON or PDF.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ldi/todo/pkg/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPDF  Format = "pdf"
)

// ParseFormat is case-insensitive; an empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatPDF:
		return f, nil
	}
	return "", &models.ValidationError{Field: "format", Reason: fmt.Sprintf("unknown export format %q", s)}
}

// FormatFromPath guesses the format from the file extension, defaulting to
// CSV.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatCSV
	}
	return f
}

// WithExtension appends ".<format>" unless path already ends with it.
func WithExtension(path string, f Format) string {
	ext := "." + string(f)
	if strings.HasSuffix(strings.ToLower(path), ext) {
		return path
	}
	return path + ext
}

// Write renders tasks in the given format.
func Write(w io.Writer, f Format, tasks []*models.Task) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, tasks)
	case FormatJSON:
		return WriteJSON(w, tasks)
	case FormatPDF:
		return WritePDF(w, tasks)
	}
	return fmt.Errorf("unknown format %s", f)
}

// ToFile writes tasks to path, adding the format's extension when it is
// missing. It returns the path actually written.
func ToFile(path string, f Format, tasks []*models.Task) (string, error) {
	path = WithExtension(path, f)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return path, &models.IOError{Op: "export", Path: path, Err: err}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return path, &models.IOError{Op: "export", Path: path, Err: err}
	}

	w := bufio.NewWriter(file)
	if err := Write(w, f, tasks); err != nil {
		file.Close()
		return path, &models.IOError{Op: "export", Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return path, &models.IOError{Op: "export", Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return path, &models.IOError{Op: "export", Path: path, Err: err}
	}
	return path, nil
}

// Package output writes validated products to disk.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts the names used on the command line.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, markdown or csv)", s)
}

func (f Format) ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	default:
		return ".json"
	}
}

// Filename is 1688_<productId>_<unixMillis> plus the format's extension.
func Filename(p *models.Product1688, at time.Time, f Format) string {
	return fmt.Sprintf("1688_%s_%d%s", p.ProductID, at.UnixMilli(), f.ext())
}

// WriteJSON encodes v as UTF-8 JSON indented by two spaces.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Save writes p into dir and returns the file path.
func Save(p *models.Product1688, dir string, f Format, at time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, Filename(p, at, f))

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	switch f {
	case FormatMarkdown:
		err = WriteMarkdown(file, p)
	case FormatCSV:
		err = WriteCSV(file, p)
	default:
		err = WriteJSON(file, p)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, file.Close()
}

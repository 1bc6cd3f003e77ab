package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/law-makers/screengrab/pkg/models"
)

// Format is an export file format
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts a format name or a file extension
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "html", "htm":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported export format %q (json, csv, html, md)", s)
}

// FormatFromPath infers the format from a file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return FormatJSON
}

// Write writes collections to w in the given format
func Write(w io.Writer, format Format, collections []models.ScreenCollection) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, collections)
	case FormatCSV:
		return WriteCSV(w, collections)
	case FormatHTML:
		return WriteHTML(w, collections)
	case FormatMarkdown:
		return WriteMarkdown(w, collections)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// Save writes collections to path in the given format
func Save(path string, format Format, collections []models.ScreenCollection) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, format, collections); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

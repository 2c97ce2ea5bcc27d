package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrUnknownFormat = errors.New("unknown file format")
	ErrNoHeader      = errors.New("no header row found")
	ErrEmpty         = errors.New("file contains no transactions")
	ErrMalformed     = errors.New("malformed file")
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromFilename picks the format by file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Row is one transaction line of an import file. The hierarchy is referenced
// by name, not by id.
type Row struct {
	Line        int // 1-based line in the source file
	Date        string
	Status      string
	Type        string
	Category    string
	Subcategory string
	Amount      string
	Comment     string
}

type Parser interface {
	Parse(r io.Reader) ([]Row, error)
}

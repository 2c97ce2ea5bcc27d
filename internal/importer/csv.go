package importer

import (
	"bufio"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	enc "github.com/MrJamesThe3rd/cashflow/internal/encoding"
)

// CSVParser reads delimited text exports. The encoding and the delimiter
// (';', ',' or tab) are detected from the content.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(r io.Reader) ([]Row, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r, nil)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	slog.Debug("decoding csv", "charset", charset.Name)

	br := bufio.NewReader(utf8r)

	reader := stdcsv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows  [][]string
		lines []int
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %w", ErrMalformed, err)
		}

		line, _ := reader.FieldPos(0)

		rows = append(rows, record)
		lines = append(lines, line)
	}

	return parseTable(rows, lines)
}

// sniffDelimiter picks the candidate that occurs most often in the first
// kilobyte, defaulting to ';'.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(1024)
	sample := string(head)

	best, bestCount := ';', 0

	for _, c := range []rune{';', ',', '\t'} {
		if n := strings.Count(sample, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}

	return best
}

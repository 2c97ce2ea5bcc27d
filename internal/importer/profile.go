package importer

import "strings"

// Profile names the header of each column in one export language.
// Adding a language is just adding a Profile to the profiles slice.
type Profile struct {
	Name        string
	Date        string
	Status      string
	Type        string
	Category    string
	Subcategory string
	Amount      string
	Comment     string // optional
}

func (p Profile) requiredCols() []string {
	return []string{p.Date, p.Status, p.Type, p.Category, p.Subcategory, p.Amount}
}

var profiles = []Profile{
	{
		Name:        "en",
		Date:        "date",
		Status:      "status",
		Type:        "type",
		Category:    "category",
		Subcategory: "subcategory",
		Amount:      "amount",
		Comment:     "comment",
	},
	{
		Name:        "ru",
		Date:        "дата",
		Status:      "статус",
		Type:        "тип",
		Category:    "категория",
		Subcategory: "подкатегория",
		Amount:      "сумма",
		Comment:     "комментарий",
	},
}

// colIndex maps normalized column names to their index in the row.
type colIndex map[string]int

func headerKey(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := headerKey(cell); name != "" {
				if _, dup := cols[name]; !dup {
					cols[name] = i
				}
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseTable turns raw cells into Rows. Lines before the header and blank
// lines are skipped. lines holds the source line of each row; when nil the
// row index is used.
func parseTable(rows [][]string, lines []int) ([]Row, error) {
	p, cols, headerIdx := detectProfile(rows)
	if p == nil {
		return nil, ErrNoHeader
	}

	idx := func(name string) int {
		if i, ok := cols[name]; ok {
			return i
		}

		return -1
	}

	var out []Row

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}

		line := i + 1
		if i < len(lines) {
			line = lines[i]
		}

		out = append(out, Row{
			Line:        line,
			Date:        cellValue(row, idx(p.Date)),
			Status:      cellValue(row, idx(p.Status)),
			Type:        cellValue(row, idx(p.Type)),
			Category:    cellValue(row, idx(p.Category)),
			Subcategory: cellValue(row, idx(p.Subcategory)),
			Amount:      normalizeAmount(cellValue(row, idx(p.Amount))),
			Comment:     cellValue(row, idx(p.Comment)),
		})
	}

	return out, nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// normalizeAmount rewrites locale formatted numbers to the plain form the
// validator accepts: "1 234,56" and "1.234,56" become "1234.56". Anything it
// does not recognize is returned unchanged for the validator to reject.
func normalizeAmount(s string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\'':
			return -1
		}

		return r
	}, s)

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	return clean
}

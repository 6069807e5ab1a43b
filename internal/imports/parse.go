package imports

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row keyed by the header row, 1-based RowNo counting
// data rows only.
type Row struct {
	RowNo  int
	Values map[string]string
}

func (r Row) get(field string) string {
	return strings.TrimSpace(r.Values[field])
}

func (r Row) raw() map[string]any {
	out := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		out[k] = v
	}
	return out
}

func parseFile(path, sourceType string) ([]Row, error) {
	if sourceType == SourceCSV {
		return parseCSV(path)
	}
	return parseExcel(path)
}

func parseExcel(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("imports: open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("imports: read sheet %q: %w", sheet, err)
	}
	return tabulate(records), nil
}

func parseCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imports: open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("imports: read csv: %w", err)
	}
	return tabulate(records), nil
}

func tabulate(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		values := make(map[string]string, len(header))
		empty := true
		for j, h := range header {
			if h == "" {
				continue
			}
			var v string
			if j < len(record) {
				v = record[j]
			}
			values[h] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, Row{RowNo: i + 1, Values: values})
	}
	return rows
}

package survey

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DefaultHeaderRow is the zero-based index of the header row in the published
// workbook. The rows above it hold title and legend text.
const DefaultHeaderRow = 11

// ParseReport reads the first sheet of an xlsx workbook into rows keyed by
// normalized header. The row at headerRow names the columns; everything below
// it is data. Rows with no non-empty cells are dropped.
func ParseReport(data []byte, headerRow int) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	// Raw cell values keep dates as serial numbers instead of whatever
	// display format the workbook carries.
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if headerRow < 0 || headerRow >= len(raw) {
		return nil, fmt.Errorf("sheet %q has no header at row %d", sheet, headerRow)
	}

	headers := make([]string, len(raw[headerRow]))
	for i, cell := range raw[headerRow] {
		headers[i] = normalizeName(cell)
	}

	rows := make([]Row, 0, len(raw)-headerRow-1)
	for _, cells := range raw[headerRow+1:] {
		row := make(Row, len(headers))
		for i, cell := range cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			row[headers[i]] = value
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// dateLayouts covers the textual forms seen in date cells when the workbook
// stores them as strings rather than serial numbers.
var dateLayouts = []string{"02/01/2006", "2006-01-02", "02/01/06"}

// ParseDate interprets a date cell. Excel serial numbers go through the
// workbook epoch, textual dates through the known Brazilian and ISO layouts.
// The result is truncated to a date at midnight UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date cell")
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date serial %q: %w", value, err)
		}
		return toUTCDate(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return toUTCDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date cell %q", value)
}

func toUTCDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParsePrice interprets a price cell as a finite number. The source mixes dot
// and comma decimal separators, so commas are normalized before parsing.
func ParsePrice(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	value = strings.ReplaceAll(value, ",", ".")
	price, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	return price, true
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

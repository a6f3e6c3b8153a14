package knowledge

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// LoadXLSX reads every sheet of a workbook, in workbook order, as a matrix.
// No row is treated as a header.
func LoadXLSX(path string) (*Base, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open workbook: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%s: sheet %s: %w", filepath.Base(path), name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: matrix(rows)})
	}
	return FromSheets(sheets), nil
}

// matrix crops rows to their data bounding box, pads the result to a
// rectangle with "" and types every cell.
func matrix(rows [][]string) [][]any {
	minRow, maxRow, minCol, maxCol := findDataBounds(rows)
	if minRow < 0 {
		return [][]any{}
	}
	out := make([][]any, 0, maxRow-minRow+1)
	for r := minRow; r <= maxRow; r++ {
		row := make([]any, maxCol-minCol+1)
		for c := minCol; c <= maxCol; c++ {
			v := ""
			if r < len(rows) && c < len(rows[r]) {
				v = rows[r][c]
			}
			row[c-minCol] = parseValue(v)
		}
		out = append(out, row)
	}
	return out
}

// findDataBounds finds the bounding box of non-empty cells. All bounds are
// -1 when there is no data.
func findDataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if minRow < 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}
	return
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the NFC-normalized
// string. Values with a leading zero such as phone numbers and postcodes stay
// strings.
func parseValue(s string) any {
	if s == "" {
		return ""
	}
	if !hasLeadingZero(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXpP_") && !isSpecialFloat(s) {
			return f
		}
	}
	return norm.NFC.String(s)
}

func hasLeadingZero(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

func isSpecialFloat(s string) bool {
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "inf", "infinity", "nan":
		return true
	}
	return false
}

// Package spreadsheet reads the first worksheet of an uploaded file into rows.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"excel_analytics/internal/model"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFileType = errors.New("invalid file format. only .xlsx, .xls and .csv are allowed")
	ErrMalformedFile       = errors.New("unable to read spreadsheet")
)

// Sheet is the array-of-arrays view of a worksheet. Rows[0] is the header row.
type Sheet struct {
	Type model.FileType
	Rows [][]any
}

// Headers returns the first row, or nil for an empty sheet.
func (s *Sheet) Headers() []any {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// DataRowCount is the number of rows after the header.
func (s *Sheet) DataRowCount() int {
	if len(s.Rows) == 0 {
		return 0
	}
	return len(s.Rows) - 1
}

// DetectType maps a file name's extension to a supported format.
func DetectType(fileName string) (model.FileType, error) {
	ft := model.FileType(strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), "."))
	if !ft.Valid() {
		return "", ErrUnsupportedFileType
	}
	return ft, nil
}

// Parse reads the first worksheet of content. Numeric-looking cells become
// float64, empty cells nil, everything else stays a string.
func Parse(fileName string, content []byte) (*Sheet, error) {
	fileType, err := DetectType(fileName)
	if err != nil {
		return nil, err
	}

	var raw [][]string
	switch fileType {
	case model.FileTypeXLSX:
		raw, err = readXLSX(content)
	case model.FileTypeXLS:
		raw, err = readXLS(content)
	case model.FileTypeCSV:
		raw, err = readCSV(content)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	rows := make([][]any, 0, len(raw))
	for _, record := range raw {
		if blank(record) {
			continue
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = inferCell(cell)
		}
		rows = append(rows, row)
	}
	return &Sheet{Type: fileType, Rows: rows}, nil
}

func readXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readXLS(content []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errors.New("xls: no workbook stream")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, xlsCell(row.Col(j)))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// xlsRow returns nil for rows the sheet has no record of.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// xlsCell undoes the library's rendering: numbers under custom formats come
// back as RFC 3339 timestamps and formulas as a fixed placeholder.
func xlsCell(s string) string {
	if s == "FormulaCol" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		serial := float64(t.Unix()-excelEpoch.Unix()) / 86400
		return strconv.FormatFloat(serial, 'f', -1, 64)
	}
	return s
}

func readCSV(content []byte) ([][]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func inferCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return cell
}

// Package tabular reads header-keyed tables from CSV and XLSX payloads.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header row plus data rows keyed by header name
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ParseError means the payload could not be read as a table at all
type ParseError struct {
	Diagnostics []string
}

func (e *ParseError) Error() string {
	return "malformed table: " + strings.Join(e.Diagnostics, "; ")
}

// Format names a supported payload format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// zip local file header, the first bytes of every XLSX workbook
var xlsxMagic = []byte{'P', 'K', 0x03, 0x04}

// DetectFormat picks the format from the file extension, falling back to the content.
func DetectFormat(filename string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatCSV
	}
	if bytes.HasPrefix(data, xlsxMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// Parse reads data as CSV or XLSX according to DetectFormat
func Parse(filename string, data []byte) (*Table, error) {
	if DetectFormat(filename, data) == FormatXLSX {
		return ParseXLSX(data)
	}
	return ParseCSV(data)
}

// ParseCSV reads a comma-separated table whose first record is the header.
// Records with a field count different from the header are reported together
// as one ParseError; blank lines and records with only empty fields are skipped.
func ParseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Diagnostics: []string{"input is empty"}}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err != nil {
		return nil, &ParseError{Diagnostics: []string{describeCSVError(err)}}
	}

	table := &Table{Headers: normalizeHeaders(header)}
	var diagnostics []string

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			diagnostics = append(diagnostics, describeCSVError(err))
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				continue
			}
			break
		}
		if row := table.rowFrom(record); row != nil {
			table.Rows = append(table.Rows, row)
		}
	}

	if len(diagnostics) > 0 {
		return nil, &ParseError{Diagnostics: diagnostics}
	}
	return table, nil
}

// ParseXLSX reads the first worksheet of a workbook whose first row is the header.
// Short rows are padded with empty values and empty rows are skipped.
func ParseXLSX(data []byte) (*Table, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Diagnostics: []string{fmt.Sprintf("failed to open Excel file: %v", err)}}
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Diagnostics: []string{"workbook has no worksheets"}}
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Diagnostics: []string{fmt.Sprintf("failed to get rows: %v", err)}}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Diagnostics: []string{"worksheet has no header row"}}
	}

	table := &Table{Headers: normalizeHeaders(rows[0])}
	for _, record := range rows[1:] {
		if len(record) > len(table.Headers) {
			record = record[:len(table.Headers)]
		}
		if row := table.rowFrom(record); row != nil {
			table.Rows = append(table.Rows, row)
		}
	}
	return table, nil
}

// rowFrom maps record onto the headers. It returns nil when every value is blank.
func (t *Table) rowFrom(record []string) map[string]string {
	row := make(map[string]string, len(t.Headers))
	blank := true
	for i, header := range t.Headers {
		value := ""
		if i < len(record) {
			value = record[i]
		}
		if strings.TrimSpace(value) != "" {
			blank = false
		}
		if header == "" {
			continue
		}
		if _, seen := row[header]; !seen {
			row[header] = value
		}
	}
	if blank {
		return nil
	}
	return row
}

func normalizeHeaders(header []string) []string {
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

func describeCSVError(err error) string {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Sprintf("line %d, column %d: %v", parseErr.Line, parseErr.Column, parseErr.Err)
	}
	return err.Error()
}

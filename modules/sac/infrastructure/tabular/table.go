// Package tabular turns raw CSV/XLSX upload bytes into header-keyed rows.
// Source exports are not guaranteed UTF-8 and switch between comma and
// semicolon delimiters, so both are detected defensively.
package tabular

import (
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrEmptyFile            = errors.New("empty file")
	ErrFileTooLarge         = errors.New("file exceeds size limit")
	ErrNoSheet              = errors.New("workbook has no sheets")
)

type Row map[string]string

// Get returns the trimmed cell under the header, or "" when absent.
func (r Row) Get(header string) string {
	return r[header]
}

type Table struct {
	Headers []string
	Rows    []Row
}

// Validate runs the cheap gates that must fail before any parsing: file
// extension, empty payload, size limit.
func Validate(filename string, raw []byte, maxBytes int64) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx":
	default:
		return ErrUnsupportedExtension
	}
	if len(raw) == 0 {
		return ErrEmptyFile
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return ErrFileTooLarge
	}
	return nil
}

// Decode parses the payload into a Table. Validate is applied first, so
// callers may rely on Decode alone.
func Decode(filename string, raw []byte, maxBytes int64) (*Table, error) {
	if err := Validate(filename, raw, maxBytes); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return decodeXLSX(raw)
	}
	return decodeCSV(raw)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText strips a UTF-8 BOM and falls back to ISO-8859-1 when the bytes
// are not valid UTF-8 (legacy telephony exports).
func decodeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// detectDelimiter counts candidates on the header line; semicolon wins when
// nothing is found, matching the most common source export.
func detectDelimiter(text string) rune {
	firstLine, _, _ := strings.Cut(text, "\n")
	commas := strings.Count(firstLine, ",")
	semicolons := strings.Count(firstLine, ";")
	if commas > semicolons {
		return ','
	}
	return ';'
}

func decodeCSV(raw []byte) (*Table, error) {
	text := decodeText(raw)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRecord, err := reader.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	headers := make([]string, len(headerRecord))
	for i, h := range headerRecord {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading row")
		}
		row := make(Row, len(headers))
		empty := true
		for i, h := range headers {
			var value string
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			if value != "" {
				empty = false
			}
			row[h] = value
		}
		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func decodeXLSX(raw []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading sheet")
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	headers := make([]string, 0, len(records[0]))
	for _, h := range records[0] {
		if strings.TrimSpace(h) == "" {
			continue
		}
		headers = append(headers, strings.TrimSpace(h))
	}

	table := &Table{Headers: headers}
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		empty := true
		for i, h := range headers {
			var value string
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			if value != "" {
				empty = false
			}
			row[h] = value
		}
		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte("PK\x03\x04")

// Sheet is the content of the first worksheet: a header row plus data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Decoder turns an uploaded file into a Sheet.
type Decoder interface {
	Decode(data []byte) (*Sheet, error)
}

// SpreadsheetDecoder reads XLSX workbooks, detected by their zip signature,
// and falls back to CSV for anything else.
type SpreadsheetDecoder struct{}

func (SpreadsheetDecoder) Decode(data []byte) (*Sheet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &model.ParseError{Reason: "file is empty"}
	}
	if bytes.HasPrefix(data, zipMagic) {
		return decodeXLSX(data)
	}
	return decodeCSV(data)
}

func decodeXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &model.ParseError{Reason: "not a readable workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &model.ParseError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &model.ParseError{Reason: "cannot read sheet " + sheets[0], Err: err}
	}
	return newSheet(sheets[0], rows)
}

func decodeCSV(data []byte) (*Sheet, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &model.ParseError{Reason: "not a readable CSV file", Err: err}
		}
		rows = append(rows, rec)
	}
	return newSheet("", rows)
}

func newSheet(name string, rows [][]string) (*Sheet, error) {
	if len(rows) == 0 || blank(rows[0]) {
		return nil, &model.ParseError{Reason: "missing header row"}
	}
	return &Sheet{Name: name, Header: rows[0], Rows: rows[1:]}, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

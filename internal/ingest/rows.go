package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// Row is one decoded data row. Number is the 1-based spreadsheet row, so
// the first data row under the header is 2.
type Row struct {
	Number int
	Record model.OrderRecord
}

// canonicalHeader maps header cells onto record storage names. Cells that
// name no field keep their text and end up in Extras; blank or repeated
// names are made unique.
func canonicalHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if f, ok := model.ParseField(name); ok && !seen[string(f)] {
			name = string(f)
		} else if name == "" {
			name = "column" + strconv.Itoa(i+1)
		}
		for base, n := name, 2; seen[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// sheetReader feeds sheet rows to csvutil, skipping blank rows and padding
// short ones to the header width.
type sheetReader struct {
	rows    [][]string
	width   int
	next    int
	current int
}

func (r *sheetReader) Read() ([]string, error) {
	for r.next < len(r.rows) {
		row := r.rows[r.next]
		r.next++
		if blank(row) {
			continue
		}
		r.current = r.next + 1
		if len(row) > r.width {
			if !blank(row[r.width:]) {
				return nil, &model.DecodeError{
					Row:    r.current,
					Reason: fmt.Sprintf("%d cells but only %d header columns", len(row), r.width),
				}
			}
			row = row[:r.width]
		}
		if len(row) < r.width {
			padded := make([]string, r.width)
			copy(padded, row)
			row = padded
		}
		return row, nil
	}
	return nil, io.EOF
}

// DecodeRows maps every non-blank data row of s onto an OrderRecord.
func DecodeRows(s *Sheet) ([]Row, error) {
	header := canonicalHeader(s.Header)
	r := &sheetReader{rows: s.Rows, width: len(header)}

	dec, err := csvutil.NewDecoder(r, header...)
	if err != nil {
		return nil, &model.ParseError{Reason: "invalid header row", Err: err}
	}

	var out []Row
	for {
		var rec model.OrderRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var de *model.DecodeError
			if errors.As(err, &de) {
				return nil, de
			}
			return nil, &model.DecodeError{Row: r.current, Reason: err.Error(), Err: err}
		}

		record := dec.Record()
		for _, i := range dec.Unused() {
			if v := strings.TrimSpace(record[i]); v != "" {
				if rec.Extras == nil {
					rec.Extras = make(map[string]string)
				}
				rec.Extras[strings.TrimSpace(header[i])] = v
			}
		}
		out = append(out, Row{Number: r.current, Record: rec})
	}
	return out, nil
}

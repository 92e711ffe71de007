// internal/app/system/csvutil/rows.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrTooManyRows is returned when input exceeds the row limit.
var ErrTooManyRows = errors.New("csv has too many rows")

// ParseRows reads header-keyed records from r. The first row is the header;
// blank header cells are skipped, as are rows whose cells are all empty.
// Cells are trimmed. maxRows <= 0 uses MaxRows.
func ParseRows(r io.Reader, maxRows int) ([]map[string]string, error) {
	if maxRows <= 0 {
		maxRows = MaxRows
	}
	reader := csv.NewReader(io.LimitReader(r, MaxUploadSize))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows := []map[string]string{}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		empty := true
		for i, key := range header {
			if key == "" {
				continue
			}
			var val string
			if i < len(rec) {
				val = strings.TrimSpace(rec[i])
			}
			if val != "" {
				empty = false
			}
			row[key] = val
		}
		if empty {
			continue
		}
		if len(rows) >= maxRows {
			return nil, ErrTooManyRows
		}
		rows = append(rows, row)
	}
	return rows, nil
}

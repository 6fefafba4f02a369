// Package dataset turns a CSV or XLSX export into the ordered rows every
// derived view consumes.
package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Row is one record keyed by header.
type Row map[string]string

// Dataset is one loaded export. ID identifies the row set; it changes on
// every load, so it can key memoized views.
type Dataset struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Headers  []string  `json:"headers"`
	Rows     []Row     `json:"-"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Empty reports whether the dataset loaded but holds no rows.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// New builds a Dataset from a header record and data records. Short records
// are padded with "", extra fields are dropped, and duplicate headers get a
// "_N" suffix so no column shadows another.
func New(source string, header []string, records [][]string) *Dataset {
	headers := uniqueHeaders(header)
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, MapRow(headers, rec))
	}
	return &Dataset{
		ID:       uuid.New().String(),
		Source:   source,
		Headers:  headers,
		Rows:     rows,
		LoadedAt: time.Now().UTC(),
	}
}

// FromRecords splits records into header and data rows. Nil or empty input
// yields an empty dataset with no headers.
func FromRecords(source string, records [][]string) *Dataset {
	if len(records) == 0 {
		return New(source, nil, nil)
	}
	return New(source, records[0], records[1:])
}

// MapRow pairs each header with the value at the same position.
func MapRow(headers []string, record []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if i < len(record) {
			row[h] = record[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		name := h
		for n := 1; ; n++ {
			if _, taken := seen[name]; !taken {
				break
			}
			name = h + "_" + strconv.Itoa(n)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out
}

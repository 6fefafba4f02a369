package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter  rune // 0 = detect from the header line
	Comment    rune // 0 = none
	LazyQuotes bool
	TrimSpace  bool
}

// delimiterCandidates are tried by DetectDelimiter; earlier entries win ties.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

const bom = "\ufeff"

// ReadCSV reads every record from r, header row included. A leading UTF-8
// BOM is dropped and records may have varying field counts.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([][]string, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "csv: read header line")
	}
	first = strings.TrimPrefix(first, bom)

	reader := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	reader.Comma = opts.Delimiter
	if reader.Comma == 0 {
		reader.Comma = DetectDelimiter(first)
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	var records [][]string
	for n := 0; ; n++ {
		if n%512 == 0 && ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// DetectDelimiter picks the candidate delimiter that occurs most often
// outside quotes in line. Defaults to ','.
func DetectDelimiter(line string) rune {
	counts := make(map[rune]int, len(delimiterCandidates))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, c := range delimiterCandidates {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

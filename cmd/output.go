package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatCSV  = "csv"
)

var formatFlag string

func validFormat(f string) (string, error) {
	switch f = strings.ToLower(strings.TrimSpace(f)); f {
	case "", formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	case formatCSV:
		return formatCSV, nil
	}
	return "", eris.Errorf("unknown format %q (want json, yaml or csv)", f)
}

// writeOutput encodes v as JSON or YAML, or records as CSV. records must be
// a slice of structs.
func writeOutput(w io.Writer, format string, v any, records any) error {
	f, err := validFormat(format)
	if err != nil {
		return err
	}

	switch f {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "output: encode yaml")
		}
		return eris.Wrap(enc.Close(), "output: close yaml")
	case formatCSV:
		b, err := csvutil.Marshal(records)
		if err != nil {
			return eris.Wrap(err, "output: encode csv")
		}
		_, err = w.Write(b)
		return eris.Wrap(err, "output: write csv")
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "output: encode json")
	}
}

package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/postmetrics/internal/fetcher"
)

// LoadError reports that a source could not be obtained or decoded. It is
// distinct from a dataset that loaded with zero rows.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return "load " + e.Source + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is (or wraps) a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// LoadOptions configures Load.
type LoadOptions struct {
	CSV   fetcher.CSVOptions
	XLSX  fetcher.XLSXOptions
	Fetch fetcher.Options
}

// Load reads src (path or http/https/ftp URL, CSV or XLSX) into a Dataset.
// Every failure is returned as a *LoadError.
func Load(ctx context.Context, src string, opts LoadOptions) (*Dataset, error) {
	var (
		records [][]string
		err     error
	)
	if fetcher.IsXLSX(src) {
		records, err = loadXLSX(ctx, src, opts)
	} else {
		records, err = loadCSV(ctx, src, opts)
	}
	if err != nil {
		return nil, &LoadError{Source: src, Err: err}
	}

	ds := FromRecords(src, records)
	zap.L().Info("dataset loaded",
		zap.String("source", src),
		zap.String("dataset_id", ds.ID),
		zap.Int("headers", len(ds.Headers)),
		zap.Int("rows", ds.Len()),
	)
	return ds, nil
}

func loadCSV(ctx context.Context, src string, opts LoadOptions) ([][]string, error) {
	rc, err := fetcher.Open(ctx, src, opts.Fetch)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	return fetcher.ReadCSV(ctx, rc, opts.CSV)
}

func loadXLSX(ctx context.Context, src string, opts LoadOptions) ([][]string, error) {
	if !fetcher.IsRemote(src) {
		path := src
		if fetcher.Scheme(src) == "file" {
			path = src[len("file://"):]
		}
		return fetcher.ReadXLSX(path, opts.XLSX)
	}

	f, err := fetcher.ForScheme(src, opts.Fetch)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "postmetrics-*")
	if err != nil {
		return nil, eris.Wrap(err, "dataset: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	path := filepath.Join(dir, "source.xlsx")
	if _, err := fetcher.DownloadToFile(ctx, f, src, path); err != nil {
		return nil, err
	}
	return fetcher.ReadXLSX(path, opts.XLSX)
}

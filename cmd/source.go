package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/postmetrics/internal/config"
	"github.com/sells-group/postmetrics/internal/dataset"
	"github.com/sells-group/postmetrics/internal/fetcher"
)

var (
	sourceFlag    string
	delimiterFlag string
)

// applySourceFlags lets --source and --delimiter override the config file,
// then validates the result for mode.
func applySourceFlags(c *config.Config, mode string) error {
	if c == nil {
		return eris.New("config not loaded")
	}
	if s := strings.TrimSpace(sourceFlag); s != "" {
		c.Source.Path = s
	}
	if delimiterFlag != "" {
		c.Source.Delimiter = delimiterFlag
	}
	return c.Validate(mode)
}

// loadOptions maps config onto dataset load options.
func loadOptions(c *config.Config) dataset.LoadOptions {
	return dataset.LoadOptions{
		CSV: fetcher.CSVOptions{
			Delimiter:  c.Source.DelimiterRune(),
			LazyQuotes: true,
		},
		XLSX: fetcher.XLSXOptions{
			SheetName: c.Source.Sheet,
		},
		Fetch: fetcher.Options{
			HTTP: fetcher.HTTPOptions{
				UserAgent:      c.Fetch.UserAgent,
				Timeout:        c.Fetch.Timeout(),
				MaxRetries:     c.Fetch.MaxRetries,
				InitialBackoff: time.Duration(c.Fetch.InitialBackoffMs) * time.Millisecond,
				RatePerSec:     c.Fetch.RatePerSec,
			},
			FTP: fetcher.FTPOptions{
				Timeout:    c.Fetch.Timeout(),
				Username:   c.Fetch.FTPUser,
				Password:   c.Fetch.FTPPassword,
				MaxRetries: c.Fetch.MaxRetries,
			},
		},
	}
}

// loadSource reads the configured source.
func loadSource(ctx context.Context, c *config.Config) (*dataset.Dataset, error) {
	return dataset.Load(ctx, c.Source.Path, loadOptions(c))
}

// Package fetcher opens dataset sources (local files, HTTP, FTP) and decodes
// their CSV or XLSX content into raw records.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a remote source.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Options configures every supported transport.
type Options struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// Scheme returns the lower-cased transport scheme of src: "http", "https",
// "ftp", "file", or "" for a plain filesystem path.
func Scheme(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	switch s := strings.ToLower(u.Scheme); s {
	case "http", "https", "ftp", "file":
		return s
	default:
		return ""
	}
}

// IsRemote reports whether src has to be downloaded.
func IsRemote(src string) bool {
	switch Scheme(src) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// IsXLSX reports whether src names an Excel workbook, ignoring any query string.
func IsXLSX(src string) bool {
	p := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.EqualFold(path.Ext(p), ".xlsx")
}

// Open returns a reader over the bytes of src. The caller must close it.
func Open(ctx context.Context, src string, opts Options) (io.ReadCloser, error) {
	switch Scheme(src) {
	case "http", "https":
		return NewHTTPFetcher(opts.HTTP).Download(ctx, src)
	case "ftp":
		return NewFTPFetcher(opts.FTP).Download(ctx, src)
	case "file":
		u, _ := url.Parse(src)
		return openFile(u.Path)
	default:
		return openFile(src)
	}
}

func openFile(p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", p)
	}
	return f, nil
}

// DownloadToFile copies a remote source to path. Returns bytes written.
func DownloadToFile(ctx context.Context, f Fetcher, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}

// ForScheme returns the Fetcher for a remote src.
func ForScheme(src string, opts Options) (Fetcher, error) {
	switch Scheme(src) {
	case "http", "https":
		return NewHTTPFetcher(opts.HTTP), nil
	case "ftp":
		return NewFTPFetcher(opts.FTP), nil
	default:
		return nil, eris.Errorf("fetcher: %q is not a remote source", src)
	}
}

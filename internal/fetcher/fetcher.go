// Package fetcher opens dataset sources: local files, HTTP(S) URLs, and
// FTP URLs. Remote fetches are rate limited and retried with backoff.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Opener resolves a dataset source string to a readable stream.
type Opener struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// NewOpener creates an Opener with default HTTP and FTP fetchers.
func NewOpener() *Opener {
	return &Opener{
		http: NewHTTPFetcher(HTTPOptions{}),
		ftp:  NewFTPFetcher(FTPOptions{}),
	}
}

// Open dispatches on the source scheme. A source without a scheme is treated
// as a local file path. The caller must close the returned ReadCloser.
func (o *Opener) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if source == "" {
		return nil, eris.New("fetcher: empty source")
	}

	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Not a URL (single-letter schemes are Windows drive paths).
		return openLocal(source)
	}

	switch u.Scheme {
	case "http", "https":
		return o.http.Download(ctx, source)
	case "ftp":
		return o.ftp.Download(ctx, source)
	case "file":
		return openLocal(u.Path)
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
	}
}

// SourceName returns a human-readable dataset name derived from the source:
// the base filename without its extension.
func SourceName(source string) string {
	base := source
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		base = u.Path
	}
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

func openLocal(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open local file")
	}
	return f, nil
}

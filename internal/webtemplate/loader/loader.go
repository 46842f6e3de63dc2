package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-ehrform/pkg/webtemplate"
)

// Loader implements webtemplate.Loader by delegating to file, fs.FS, or HTTP
// strategies and parsing the payload.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

var _ webtemplate.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options webtemplate.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
	}
}

// Load fetches the template and parses it.
func (l *Loader) Load(ctx context.Context, src webtemplate.Source) (*webtemplate.Template, error) {
	if src == nil {
		return nil, errors.New("webtemplate loader: source is nil")
	}

	var (
		data []byte
		err  error
	)

	switch src.Kind() {
	case webtemplate.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case webtemplate.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case webtemplate.SourceKindURL:
		if !l.allowHTTP {
			return nil, errors.New("webtemplate loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = errors.New("webtemplate loader: unsupported source kind")
	}
	if err != nil {
		return nil, err
	}

	tmpl, err := webtemplate.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("webtemplate loader: %s: %w", src.Location(), err)
	}
	return tmpl, nil
}

package download

import (
	"context"
	"io"
	"net/http"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// Ensure handles implement the domain contracts.
var (
	_ domain.BufferedHandle = Buffer{}
	_ domain.DownloadHandle = Request{}
	_ domain.OpenHandle     = Func{}
	_ domain.SaveHandle     = Saver{}
)

// Buffer is a handle whose bytes were fetched while listing.
type Buffer struct {
	Name string
	Data []byte
}

// Describe implements domain.DownloadHandle.
func (b Buffer) Describe() string { return b.Name }

// Bytes implements domain.BufferedHandle.
func (b Buffer) Bytes() []byte { return b.Data }

// Request is an authenticated GET. The materializer sends it through a
// retrying client built on Client, so cookies of the site session apply.
type Request struct {
	URL    string
	Header http.Header
	// Client is the site session. Nil uses a default client.
	Client *http.Client
}

// Describe implements domain.DownloadHandle.
func (r Request) Describe() string { return r.URL }

// Func streams the document through a provider-specific call.
type Func struct {
	Name string
	Fn   func(ctx context.Context) (io.ReadCloser, error)
}

// Describe implements domain.DownloadHandle.
func (f Func) Describe() string { return f.Name }

// Open implements domain.OpenHandle.
func (f Func) Open(ctx context.Context) (io.ReadCloser, error) { return f.Fn(ctx) }

// Saver writes the document to a path, like a triggered browser download.
type Saver struct {
	Name string
	Fn   func(ctx context.Context, path string) error
}

// Describe implements domain.DownloadHandle.
func (s Saver) Describe() string { return s.Name }

// SaveAs implements domain.SaveHandle.
func (s Saver) SaveAs(ctx context.Context, path string) error { return s.Fn(ctx, path) }

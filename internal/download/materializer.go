package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/logger"
)

// Ensure Materializer implements the interface.
var _ driven.Materializer = (*Materializer)(nil)

const (
	// DefaultMaxSize caps a single document.
	DefaultMaxSize = 64 << 20

	// DefaultRetries is the number of retries for Request handles.
	DefaultRetries = 3
)

var pdfcpuOnce sync.Once

// Options tunes a Materializer.
type Options struct {
	// Retries for Request handles on network errors, 5xx and 429.
	Retries int
	// Timeout bounds one materialisation. Zero means no timeout.
	Timeout time.Duration
	// ValidatePDF rejects PDF documents pdfcpu cannot parse.
	ValidatePDF bool
	// TempDir hosts Saver downloads. Empty uses the OS default.
	TempDir string
	// MaxSize caps a document in bytes. Zero uses DefaultMaxSize.
	MaxSize int64
}

// OptionsFromSettings builds Options from the fetch settings.
func OptionsFromSettings(s domain.FetchSettings) Options {
	return Options{
		Retries:     s.MaxRetries,
		Timeout:     s.RequestTimeout,
		ValidatePDF: s.ValidatePDF,
	}
}

// Materializer resolves download handles into validated bytes.
type Materializer struct {
	opts Options
}

// NewMaterializer creates a materializer.
func NewMaterializer(opts Options) *Materializer {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Materializer{opts: opts}
}

// Materialize obtains the bytes of d's handle. Any failure, including a
// document that is not the PDF it claims to be, is reported as
// domain.ErrMaterializationFailed so no partial file ever reaches storage.
func (m *Materializer) Materialize(ctx context.Context, d *domain.InvoiceDescriptor) ([]byte, error) {
	if d.Handle == nil {
		return nil, m.fail(d, fmt.Errorf("no download handle"))
	}

	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	data, err := m.resolve(ctx, d.Handle)
	if err != nil {
		return nil, m.fail(d, err)
	}
	if len(data) == 0 {
		return nil, m.fail(d, fmt.Errorf("empty document"))
	}
	if err := m.check(data, d.ContentType()); err != nil {
		return nil, m.fail(d, err)
	}
	return data, nil
}

func (m *Materializer) fail(d *domain.InvoiceDescriptor, err error) error {
	label := d.Description
	if d.Handle != nil && label == "" {
		label = d.Handle.Describe()
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrMaterializationFailed, label, err)
}

func (m *Materializer) resolve(ctx context.Context, h domain.DownloadHandle) ([]byte, error) {
	switch h := h.(type) {
	case domain.BufferedHandle:
		return h.Bytes(), nil
	case Request:
		return m.fetch(ctx, h)
	case *Request:
		return m.fetch(ctx, *h)
	case domain.OpenHandle:
		rc, err := h.Open(ctx)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return m.read(rc)
	case domain.SaveHandle:
		return m.saveAndRead(ctx, h)
	default:
		return nil, fmt.Errorf("unsupported handle %T", h)
	}
}

func (m *Materializer) fetch(ctx context.Context, r Request) ([]byte, error) {
	client := retryablehttp.NewClient()
	if r.Client != nil {
		client.HTTPClient = r.Client
	}
	client.RetryMax = m.opts.Retries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = logger.Leveled{}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %d", r.URL, resp.StatusCode)
	}
	return m.read(resp.Body)
}

func (m *Materializer) saveAndRead(ctx context.Context, h domain.SaveHandle) ([]byte, error) {
	dir, err := os.MkdirTemp(m.opts.TempDir, "factura-download-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("remove temp download %s: %v", dir, err)
		}
	}()

	path := filepath.Join(dir, "document")
	if err := h.SaveAs(ctx, path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return m.read(f)
}

func (m *Materializer) read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, m.opts.MaxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > m.opts.MaxSize {
		return nil, fmt.Errorf("document exceeds %d bytes", m.opts.MaxSize)
	}
	return data, nil
}

// check rejects bytes that do not match the declared PDF content type.
func (m *Materializer) check(data []byte, mimeType string) error {
	if mimeType != domain.MIMETypePDF {
		return nil
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return fmt.Errorf("not a PDF document")
	}
	if !m.opts.ValidatePDF {
		return nil
	}

	pdfcpuOnce.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}

// Persist writes data to path atomically, creating parent directories.
func (m *Materializer) Persist(data []byte, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

package domain

import (
	"context"
	"io"
	"time"
)

// InvoiceDescriptor is the normalised unit produced by a provider.
// Descriptors live only for the duration of a fetch session.
type InvoiceDescriptor struct {
	// Description is a human label, usually the invoice number.
	Description string

	// Date is the invoice date. Nil for dateless providers.
	Date *time.Time

	// SiteName is the display name of the site that produced the invoice.
	SiteName string

	// FileName is the suggested file name without directory.
	FileName string

	// MIMEType of the document. Empty means application/pdf.
	MIMEType string

	// Handle obtains the document bytes.
	Handle DownloadHandle
}

// ContentType returns the MIME type, defaulting to PDF.
func (d *InvoiceDescriptor) ContentType() string {
	if d.MIMEType == "" {
		return MIMETypePDF
	}
	return d.MIMEType
}

// MIMETypePDF is the content type of PDF documents.
const MIMETypePDF = "application/pdf"

// DownloadHandle is a way to obtain the bytes of one document.
// Every handle implements at least one of BufferedHandle, OpenHandle or SaveHandle;
// the download materializer picks the cheapest one available.
type DownloadHandle interface {
	// Describe returns a short label for logs and error messages.
	Describe() string
}

// BufferedHandle is a handle whose bytes are already in memory.
type BufferedHandle interface {
	DownloadHandle
	Bytes() []byte
}

// OpenHandle streams the document, e.g. through an authenticated request.
type OpenHandle interface {
	DownloadHandle
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SaveHandle writes the document to a path, e.g. a triggered browser download.
type SaveHandle interface {
	DownloadHandle
	SaveAs(ctx context.Context, path string) error
}

// Invoice is a stored invoice record.
// The document bytes are kept separately, keyed by ID.
type Invoice struct {
	// ID is assigned when the record is stored.
	ID string

	// SiteID references the site that produced the invoice.
	SiteID string

	// SiteName is the site's display name at fetch time.
	SiteName string

	// Description is a human label, usually the invoice number.
	Description string

	// Date is the invoice date. Nil for dateless providers.
	Date *time.Time

	// FileName is the suggested file name.
	FileName string

	// MIMEType of the stored document.
	MIMEType string

	// Size of the document in bytes.
	Size int

	// CreatedAt is when the record was stored.
	CreatedAt time.Time
}

package driven

import (
	"context"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// Materializer turns a descriptor's download handle into document bytes.
type Materializer interface {
	// Materialize obtains the bytes of d's handle.
	// Failures match domain.ErrMaterializationFailed.
	Materialize(ctx context.Context, d *domain.InvoiceDescriptor) ([]byte, error)

	// Persist writes data to path.
	Persist(data []byte, path string) error
}

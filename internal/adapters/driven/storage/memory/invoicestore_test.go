package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

func TestInvoiceStore_StorageOrder(t *testing.T) {
	store := NewInvoiceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Invoice{ID: "2", SiteID: "b"}))
	require.NoError(t, store.Save(ctx, domain.Invoice{ID: "1", SiteID: "a"}))
	require.NoError(t, store.Save(ctx, domain.Invoice{ID: "3", SiteID: "a"}))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2", all[0].ID)
	assert.Equal(t, "3", all[2].ID)

	bySite, err := store.ListBySite(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, bySite, 2)
}

func TestInvoiceStore_ReplaceAndGet(t *testing.T) {
	store := NewInvoiceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Invoice{ID: "1", Description: "old"}))
	require.NoError(t, store.Save(ctx, domain.Invoice{ID: "1", Description: "new"}))

	got, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Description)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceStore_DeleteAll(t *testing.T) {
	store := NewInvoiceStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, domain.Invoice{ID: "1"}))

	require.NoError(t, store.DeleteAll(ctx))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

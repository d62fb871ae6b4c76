package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// ==================== Site Store ====================

// siteStore implements driven.SiteStore.
type siteStore struct {
	store *Store
}

var _ driven.SiteStore = (*siteStore)(nil)

const siteColumns = `id, name, provider_key, username, password, account_id,
	auth_failed, fetch_failed, position, created_at, updated_at`

// Save stores or updates a site.
func (s *siteStore) Save(ctx context.Context, site domain.Site) error {
	now := time.Now().UTC()
	if site.CreatedAt.IsZero() {
		site.CreatedAt = now
	}
	if site.UpdatedAt.IsZero() {
		site.UpdatedAt = now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sites (`+siteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			provider_key = excluded.provider_key,
			username = excluded.username,
			password = excluded.password,
			account_id = excluded.account_id,
			auth_failed = excluded.auth_failed,
			fetch_failed = excluded.fetch_failed,
			position = excluded.position,
			updated_at = excluded.updated_at
	`, site.ID, site.Name, site.ProviderKey,
		site.Credentials.Username, site.Credentials.Password, site.Credentials.AccountID,
		site.AuthFailed, site.FetchFailed, site.Position, site.CreatedAt, site.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving site: %w", err)
	}
	return nil
}

// Get retrieves a site by ID.
func (s *siteStore) Get(ctx context.Context, id string) (*domain.Site, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = ?`, id)
	site, err := scanSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning site: %w", err)
	}
	return site, nil
}

// Delete removes a site.
func (s *siteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM sites WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting site: %w", err)
	}
	return nil
}

// List returns all sites ordered by position, then insertion order.
func (s *siteStore) List(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY position, rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying sites: %w", err)
	}
	defer rows.Close()

	var sites []domain.Site //nolint:prealloc // size unknown from query
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		sites = append(sites, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sites: %w", err)
	}
	return sites, nil
}

// UpdateFlags sets the sticky failure flags of a site.
func (s *siteStore) UpdateFlags(ctx context.Context, id string, authFailed, fetchFailed bool) error {
	res, err := s.store.db.ExecContext(ctx,
		"UPDATE sites SET auth_failed = ?, fetch_failed = ? WHERE id = ?",
		authFailed, fetchFailed, id)
	if err != nil {
		return fmt.Errorf("updating site flags: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating site flags: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSite(row scanner) (*domain.Site, error) {
	var site domain.Site
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&site.ID, &site.Name, &site.ProviderKey,
		&site.Credentials.Username, &site.Credentials.Password, &site.Credentials.AccountID,
		&site.AuthFailed, &site.FetchFailed, &site.Position, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		site.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		site.UpdatedAt = updatedAt.Time
	}
	return &site, nil
}

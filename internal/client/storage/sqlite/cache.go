package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

// PutResponse stores or overwrites a cached response (last write wins)
func (s *Storage) PutResponse(ctx context.Context, entry *models.CachedResponse) error {
	query := `
		INSERT INTO cached_responses (cache_key, resource, method, path, payload, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			resource = excluded.resource,
			method = excluded.method,
			path = excluded.path,
			payload = excluded.payload,
			stored_at = excluded.stored_at
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.CacheKey,
		string(entry.Resource),
		entry.Method,
		entry.Path,
		entry.Payload,
		entry.StoredAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to put cached response: %w", err)
	}

	return nil
}

// GetResponse retrieves a cached response by exact cache key
func (s *Storage) GetResponse(ctx context.Context, cacheKey string) (*models.CachedResponse, error) {
	query := `
		SELECT cache_key, resource, method, path, payload, stored_at
		FROM cached_responses
		WHERE cache_key = ?
	`

	return s.scanResponse(s.db.QueryRowContext(ctx, query, cacheKey))
}

// FindByResource returns cached responses matching resource type and method, newest first
func (s *Storage) FindByResource(ctx context.Context, resource models.ResourceType, method string) ([]*models.CachedResponse, error) {
	query := `
		SELECT cache_key, resource, method, path, payload, stored_at
		FROM cached_responses
		WHERE resource = ? AND method = ?
		ORDER BY stored_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, string(resource), method)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached responses: %w", err)
	}
	defer rows.Close()

	var entries []*models.CachedResponse
	for rows.Next() {
		entry, err := s.scanResponse(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached responses: %w", err)
	}

	return entries, nil
}

// DeleteResponse removes a single entry by exact cache key
func (s *Storage) DeleteResponse(ctx context.Context, cacheKey string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cached_responses WHERE cache_key = ?`, cacheKey)
	if err != nil {
		return fmt.Errorf("failed to delete cached response: %w", err)
	}
	return nil
}

// DeleteByResource removes all entries of the given resource type
func (s *Storage) DeleteByResource(ctx context.Context, resource models.ResourceType) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cached_responses WHERE resource = ?`, string(resource))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cached responses by resource: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted responses: %w", err)
	}
	return n, nil
}

// PurgeAll removes every cached response
func (s *Storage) PurgeAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cached_responses`); err != nil {
		return fmt.Errorf("failed to purge cached responses: %w", err)
	}
	return nil
}

// rowScanner покрывает и *sql.Row, и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanResponse(row rowScanner) (*models.CachedResponse, error) {
	entry := &models.CachedResponse{}
	var resource string
	var storedAt int64

	err := row.Scan(
		&entry.CacheKey,
		&resource,
		&entry.Method,
		&entry.Path,
		&entry.Payload,
		&storedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to scan cached response: %w", err)
	}

	entry.Resource = models.ResourceType(resource)
	entry.StoredAt = time.Unix(storedAt, 0).UTC()
	return entry, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iudanet/possync/internal/client/storage"
)

const (
	keyLeaseRecord       = "sync_lease"
	keySessionToken      = "session_token"
	keyLastRefreshPrefix = "last_refresh:"
)

// SaveLastRefresh saves the time of the last successful refresh for a data class
func (s *Storage) SaveLastRefresh(ctx context.Context, dataClass string, at time.Time) error {
	return s.setMetaValue(ctx, keyLastRefreshPrefix+dataClass, strconv.FormatInt(at.UnixMilli(), 10))
}

// GetLastRefresh retrieves the time of the last successful refresh.
// Returns zero time if the data class was never refreshed.
func (s *Storage) GetLastRefresh(ctx context.Context, dataClass string) (time.Time, error) {
	value, err := s.getMetaValue(ctx, keyLastRefreshPrefix+dataClass)
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last refresh value: %w", err)
	}
	return time.UnixMilli(millis).UTC(), nil
}

// AcquireLease atomically takes the sync lease for ownerID.
// Lease читается и перезаписывается в одной транзакции: два процесса,
// претендующие на один истекший lease, не могут выиграть оба.
func (s *Storage) AcquireLease(ctx context.Context, ownerID string, ttl time.Duration) (*storage.SyncLease, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current storage.SyncLease
	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM sync_metadata WHERE key = ?`, keyLeaseRecord,
	).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// lease никогда не записывался - захватываем
	case err != nil:
		return nil, fmt.Errorf("failed to read lease: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lease: %w", err)
		}
		fresh := time.Since(current.AcquiredAt) < ttl
		if fresh && current.OwnerID != ownerID {
			return nil, storage.ErrLeaseHeld
		}
	}

	lease := &storage.SyncLease{
		OwnerID:    ownerID,
		AcquiredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(lease)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lease: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sync_metadata (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, keyLeaseRecord, string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to write lease: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit lease: %w", err)
	}

	return lease, nil
}

// GetLease returns the current lease, or nil if none was ever written
func (s *Storage) GetLease(ctx context.Context) (*storage.SyncLease, error) {
	raw, err := s.getMetaValue(ctx, keyLeaseRecord)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	lease := &storage.SyncLease{}
	if err := json.Unmarshal([]byte(raw), lease); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lease: %w", err)
	}
	return lease, nil
}

// ReleaseLease drops the lease if ownerID holds it. Проверка владельца
// выполняется внутри DELETE: между чтением и удалением другой процесс
// мог успеть перехватить истекший lease.
func (s *Storage) ReleaseLease(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_metadata
		WHERE key = ? AND json_extract(value, '$.owner_id') = ?
	`, keyLeaseRecord, ownerID)
	if err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

// SaveSessionToken stores the API session token ("" clears it)
func (s *Storage) SaveSessionToken(ctx context.Context, token string) error {
	if token == "" {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM sync_metadata WHERE key = ?`, keySessionToken)
		if err != nil {
			return fmt.Errorf("failed to clear session token: %w", err)
		}
		return nil
	}
	return s.setMetaValue(ctx, keySessionToken, token)
}

// GetSessionToken returns the stored session token, "" if none
func (s *Storage) GetSessionToken(ctx context.Context) (string, error) {
	return s.getMetaValue(ctx, keySessionToken)
}

func (s *Storage) setMetaValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_metadata (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata %q: %w", key, err)
	}
	return nil
}

func (s *Storage) getMetaValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sync_metadata WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get metadata %q: %w", key, err)
	}
	return value, nil
}

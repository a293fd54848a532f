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

// InsertOperation appends an operation and assigns a monotonic local id
func (s *Storage) InsertOperation(ctx context.Context, op *models.PendingOperation) (*models.PendingOperation, error) {
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}
	if op.Status == "" {
		op.Status = models.OperationStatusPending
	}

	query := `
		INSERT INTO pending_operations (
			idempotency_key, type, method, endpoint, body,
			status, priority, retry_count, created_at,
			last_attempt_at, last_error, entity_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		op.IdempotencyKey,
		op.Type,
		op.Method,
		op.Endpoint,
		op.Body,
		string(op.Status),
		op.Priority,
		op.RetryCount,
		op.CreatedAt.UnixMilli(),
		lastAttemptMilli(op.LastAttemptAt),
		op.LastError,
		op.EntityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert operation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get operation id: %w", err)
	}

	stored := *op
	stored.ID = id
	return &stored, nil
}

// GetPendingByKey returns the pending operation with the given idempotency key
func (s *Storage) GetPendingByKey(ctx context.Context, idempotencyKey string) (*models.PendingOperation, error) {
	query := selectOperation + ` WHERE idempotency_key = ? AND status = 'pending'`
	return s.scanOperation(s.db.QueryRowContext(ctx, query, idempotencyKey))
}

// GetOperation returns operation by local id
func (s *Storage) GetOperation(ctx context.Context, id int64) (*models.PendingOperation, error) {
	query := selectOperation + ` WHERE id = ?`
	return s.scanOperation(s.db.QueryRowContext(ctx, query, id))
}

// ListPending returns pending operations in drain order:
// приоритет по убыванию, внутри одного приоритета - FIFO по времени создания.
func (s *Storage) ListPending(ctx context.Context, limit int) ([]*models.PendingOperation, error) {
	query := selectOperation + `
		WHERE status = 'pending'
		ORDER BY priority DESC, created_at ASC, id ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryOperations(ctx, query, args...)
}

// ListByStatus returns operations with the given status, oldest first
func (s *Storage) ListByStatus(ctx context.Context, status models.OperationStatus) ([]*models.PendingOperation, error) {
	query := selectOperation + ` WHERE status = ? ORDER BY created_at ASC, id ASC`
	return s.queryOperations(ctx, query, string(status))
}

// UpdateOperation persists mutable fields of an existing operation
func (s *Storage) UpdateOperation(ctx context.Context, op *models.PendingOperation) error {
	query := `
		UPDATE pending_operations
		SET status = ?, retry_count = ?, last_attempt_at = ?, last_error = ?, entity_id = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		string(op.Status),
		op.RetryCount,
		lastAttemptMilli(op.LastAttemptAt),
		op.LastError,
		op.EntityID,
		op.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated operation: %w", err)
	}
	if n == 0 {
		return storage.ErrOperationNotFound
	}

	return nil
}

// CountPending returns the number of pending operations
func (s *Storage) CountPending(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_operations WHERE status = 'pending'`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending operations: %w", err)
	}
	return count, nil
}

// PruneTerminal removes terminal operations created before the cutoff
func (s *Storage) PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM pending_operations
		WHERE status IN ('completed', 'failed') AND created_at < ?
	`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune operations: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned operations: %w", err)
	}
	return n, nil
}

const selectOperation = `
	SELECT id, idempotency_key, type, method, endpoint, body,
	       status, priority, retry_count, created_at,
	       last_attempt_at, last_error, entity_id
	FROM pending_operations
`

func (s *Storage) queryOperations(ctx context.Context, query string, args ...any) ([]*models.PendingOperation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var ops []*models.PendingOperation
	for rows.Next() {
		op, err := s.scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operations: %w", err)
	}

	return ops, nil
}

func (s *Storage) scanOperation(row rowScanner) (*models.PendingOperation, error) {
	op := &models.PendingOperation{}
	var status string
	var createdAt, lastAttemptAt int64

	err := row.Scan(
		&op.ID,
		&op.IdempotencyKey,
		&op.Type,
		&op.Method,
		&op.Endpoint,
		&op.Body,
		&status,
		&op.Priority,
		&op.RetryCount,
		&createdAt,
		&lastAttemptAt,
		&op.LastError,
		&op.EntityID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrOperationNotFound
		}
		return nil, fmt.Errorf("failed to scan operation: %w", err)
	}

	op.Status = models.OperationStatus(status)
	op.CreatedAt = time.UnixMilli(createdAt).UTC()
	if lastAttemptAt > 0 {
		op.LastAttemptAt = time.UnixMilli(lastAttemptAt).UTC()
	}

	return op, nil
}

func lastAttemptMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

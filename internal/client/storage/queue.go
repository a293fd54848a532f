package storage

import (
	"context"
	"time"

	"github.com/iudanet/possync/internal/models"
)

//go:generate moq -out queuestorage_mock.go . QueueStorage

// QueueStorage defines interface for the pending operation queue
type QueueStorage interface {
	// InsertOperation appends an operation and assigns a monotonic local id.
	// Возвращает заполненную запись (с id и created_at).
	InsertOperation(ctx context.Context, op *models.PendingOperation) (*models.PendingOperation, error)

	// GetPendingByKey returns the pending (not terminal) operation with the
	// given idempotency key. Returns ErrOperationNotFound if none exists.
	GetPendingByKey(ctx context.Context, idempotencyKey string) (*models.PendingOperation, error)

	// GetOperation returns operation by local id
	GetOperation(ctx context.Context, id int64) (*models.PendingOperation, error)

	// ListPending returns pending operations ordered by priority descending,
	// then creation time ascending. limit <= 0 means no limit.
	ListPending(ctx context.Context, limit int) ([]*models.PendingOperation, error)

	// ListByStatus returns operations with the given status, oldest first
	ListByStatus(ctx context.Context, status models.OperationStatus) ([]*models.PendingOperation, error)

	// UpdateOperation persists mutable fields (status, retry count, last error,
	// last attempt time) of an existing operation
	UpdateOperation(ctx context.Context, op *models.PendingOperation) error

	// CountPending returns the number of pending operations
	CountPending(ctx context.Context) (int, error)

	// PruneTerminal removes terminal (completed/failed) operations created
	// before the cutoff. Returns number of removed rows.
	PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

package storage

import (
	"context"
	"time"
)

//go:generate moq -out metadatastorage_mock.go . MetadataStorage

// SyncLease запись о владении циклом синхронизации.
// Lease старше таймаута считается истекшим и может быть перехвачен
// любым процессом; продлевать lease может только текущий владелец.
type SyncLease struct {
	AcquiredAt time.Time `json:"acquired_at"`
	OwnerID    string    `json:"owner_id"`
}

// MetadataStorage defines interface for sync metadata (key/value table)
type MetadataStorage interface {
	// SaveLastRefresh saves the time of the last successful refresh
	// for a data class ("reference", "orders", "customers", ...)
	SaveLastRefresh(ctx context.Context, dataClass string, at time.Time) error

	// GetLastRefresh retrieves the time of the last successful refresh.
	// Returns zero time if the data class was never refreshed.
	GetLastRefresh(ctx context.Context, dataClass string) (time.Time, error)

	// AcquireLease atomically takes the sync lease for ownerID.
	// Succeeds when no lease exists, the current lease is older than ttl,
	// or ownerID already holds it (extension). Returns ErrLeaseHeld when
	// a fresh lease belongs to another owner.
	AcquireLease(ctx context.Context, ownerID string, ttl time.Duration) (*SyncLease, error)

	// GetLease returns the current lease, or nil if none was ever written
	GetLease(ctx context.Context) (*SyncLease, error)

	// ReleaseLease drops the lease if ownerID holds it. Missing or foreign
	// lease is not an error: выход из строя владельца и так приводит
	// к истечению lease по таймауту.
	ReleaseLease(ctx context.Context, ownerID string) error

	// SaveSessionToken stores the API session token ("" clears it)
	SaveSessionToken(ctx context.Context, token string) error

	// GetSessionToken returns the stored session token, "" if none
	GetSessionToken(ctx context.Context) (string, error)
}

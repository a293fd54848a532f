package storage

import "errors"

// Common client storage errors
var (
	// ErrCacheMiss indicates that no cached response matched the lookup
	ErrCacheMiss = errors.New("cache entry not found")

	// ErrOperationNotFound indicates that pending operation was not found
	ErrOperationNotFound = errors.New("pending operation not found")

	// ErrRecordNotFound indicates that domain record was not found
	ErrRecordNotFound = errors.New("record not found")

	// ErrLeaseHeld возвращается при попытке захватить lease,
	// которым владеет другой процесс и срок которого еще не истек.
	ErrLeaseHeld = errors.New("sync lease held by another owner")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)

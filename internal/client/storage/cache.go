package storage

import (
	"context"

	"github.com/iudanet/possync/internal/models"
)

//go:generate moq -out cachestorage_mock.go . CacheStorage

// CacheStorage defines interface for storing cached server responses
type CacheStorage interface {
	// PutResponse stores or overwrites a cached response (last write wins)
	PutResponse(ctx context.Context, entry *models.CachedResponse) error

	// GetResponse retrieves a cached response by exact cache key
	// Returns ErrCacheMiss if no entry exists
	GetResponse(ctx context.Context, cacheKey string) (*models.CachedResponse, error)

	// FindByResource returns cached responses matching resource type and method,
	// newest first. Used for fallback lookup when no exact key matches.
	FindByResource(ctx context.Context, resource models.ResourceType, method string) ([]*models.CachedResponse, error)

	// DeleteResponse removes a single entry by exact cache key
	DeleteResponse(ctx context.Context, cacheKey string) error

	// DeleteByResource removes all entries of the given resource type
	DeleteByResource(ctx context.Context, resource models.ResourceType) (int64, error)

	// PurgeAll removes every cached response
	PurgeAll(ctx context.Context) error
}

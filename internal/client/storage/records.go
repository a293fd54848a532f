package storage

import (
	"context"
	"time"

	"github.com/iudanet/possync/internal/models"
)

//go:generate moq -out recordstorage_mock.go . RecordStorage

// RecordStorage defines interface for domain record snapshots.
// Снимки создаются фоновым обновлением и выборочно перезаписываются
// по решению резолвера конфликтов; хранилище само решений не принимает.
type RecordStorage interface {
	// SaveOrder stores or overwrites an order snapshot by id
	SaveOrder(ctx context.Context, order *models.Order) error

	// GetOrder returns an order by id (server id or local temp id)
	// Returns ErrRecordNotFound if order doesn't exist
	GetOrder(ctx context.Context, id string) (*models.Order, error)

	// ListOrders returns orders, optionally filtered by type, newest first.
	// orderType == "" means all types.
	ListOrders(ctx context.Context, orderType models.OrderType) ([]*models.Order, error)

	// ListUnsyncedOrders returns orders created offline that still carry
	// a local temp id
	ListUnsyncedOrders(ctx context.Context) ([]*models.Order, error)

	// ReplaceOrderID rebinds an order from its local temp id to the
	// server-issued id, marking it synced
	ReplaceOrderID(ctx context.Context, localID, serverID string) error

	// DeleteOrder removes an order snapshot
	DeleteOrder(ctx context.Context, id string) error

	// SaveCustomer stores or overwrites a customer with its addresses
	SaveCustomer(ctx context.Context, customer *models.Customer) error

	// GetCustomer returns a customer with addresses
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)

	// ListCustomers returns all customers with addresses
	ListCustomers(ctx context.Context) ([]*models.Customer, error)

	// DeleteAddress removes a single customer address
	DeleteAddress(ctx context.Context, addressID string) error

	// ReplaceMenu atomically replaces menu items and categories
	// (reference data is refreshed wholesale)
	ReplaceMenu(ctx context.Context, items []*models.MenuItem, categories []*models.Category) error

	// ListMenuItems returns all menu items
	ListMenuItems(ctx context.Context) ([]*models.MenuItem, error)

	// ListCategories returns all categories ordered by position
	ListCategories(ctx context.Context) ([]*models.Category, error)

	// SaveExpenses upserts expense records (per-record mirror of the
	// expenses resource)
	SaveExpenses(ctx context.Context, expenses []*models.Expense) error

	// ListExpenses returns expenses within [from, to), newest first.
	// Zero times disable the corresponding bound.
	ListExpenses(ctx context.Context, from, to time.Time) ([]*models.Expense, error)
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

// SaveOrder stores or overwrites an order snapshot by id
func (s *Storage) SaveOrder(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, local_id, type, status, payment_status, delivery_status,
			customer_id, address_id, table_id, items, total,
			locally_overridden, synced, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			local_id = excluded.local_id,
			type = excluded.type,
			status = excluded.status,
			payment_status = excluded.payment_status,
			delivery_status = excluded.delivery_status,
			customer_id = excluded.customer_id,
			address_id = excluded.address_id,
			table_id = excluded.table_id,
			items = excluded.items,
			total = excluded.total,
			locally_overridden = excluded.locally_overridden,
			synced = excluded.synced,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		order.ID,
		order.LocalID,
		string(order.Type),
		string(order.Status),
		string(order.PaymentStatus),
		string(order.DeliveryStatus),
		order.CustomerID,
		order.AddressID,
		order.TableID,
		string(items),
		order.Total,
		boolToInt(order.LocallyOverridden),
		boolToInt(order.Synced),
		order.CreatedAt.UnixMilli(),
		order.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	return nil
}

// GetOrder returns an order by id (server id or local temp id)
func (s *Storage) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	query := selectOrder + ` WHERE id = ? OR local_id = ?`
	return s.scanOrder(s.db.QueryRowContext(ctx, query, id, id))
}

// ListOrders returns orders, optionally filtered by type, newest first
func (s *Storage) ListOrders(ctx context.Context, orderType models.OrderType) ([]*models.Order, error) {
	query := selectOrder
	args := []any{}
	if orderType != "" {
		query += ` WHERE type = ?`
		args = append(args, string(orderType))
	}
	query += ` ORDER BY created_at DESC`

	return s.queryOrders(ctx, query, args...)
}

// ListUnsyncedOrders returns orders created offline that still carry a local temp id
func (s *Storage) ListUnsyncedOrders(ctx context.Context) ([]*models.Order, error) {
	query := selectOrder + ` WHERE synced = 0 ORDER BY created_at ASC`
	return s.queryOrders(ctx, query)
}

// ReplaceOrderID rebinds an order from its local temp id to the server-issued id.
// Локальный temp id сохраняется в local_id: по нему UI находит заказ,
// созданный до синхронизации.
func (s *Storage) ReplaceOrderID(ctx context.Context, localID, serverID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET id = ?, local_id = ?, synced = 1, updated_at = ?
		WHERE id = ?
	`, serverID, localID, time.Now().UTC().UnixMilli(), localID)
	if err != nil {
		return fmt.Errorf("failed to replace order id: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check replaced order: %w", err)
	}
	if n == 0 {
		return storage.ErrRecordNotFound
	}

	return nil
}

// DeleteOrder removes an order snapshot
func (s *Storage) DeleteOrder(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// SaveCustomer stores or overwrites a customer with its addresses
func (s *Storage) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			email = excluded.email,
			updated_at = excluded.updated_at
	`,
		customer.ID,
		customer.Name,
		customer.Phone,
		customer.Email,
		customer.CreatedAt.UnixMilli(),
		customer.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}

	// Адреса заменяются целиком вместе с клиентом
	if _, err := tx.ExecContext(ctx, `DELETE FROM addresses WHERE customer_id = ?`, customer.ID); err != nil {
		return fmt.Errorf("failed to clear customer addresses: %w", err)
	}

	for _, addr := range customer.Addresses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO addresses (id, customer_id, line, city, notes, is_default)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			addr.ID,
			customer.ID,
			addr.Line,
			addr.City,
			addr.Notes,
			boolToInt(addr.IsDefault),
		)
		if err != nil {
			return fmt.Errorf("failed to save address: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit customer: %w", err)
	}

	return nil
}

// GetCustomer returns a customer with addresses
func (s *Storage) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	customer := &models.Customer{}
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, email, created_at, updated_at
		FROM customers WHERE id = ?
	`, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Phone,
		&customer.Email,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	customer.CreatedAt = time.UnixMilli(createdAt).UTC()
	customer.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	if err := s.loadAddresses(ctx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

// ListCustomers returns all customers with addresses
func (s *Storage) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, email, created_at, updated_at
		FROM customers ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer := &models.Customer{}
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Phone,
			&customer.Email,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customer.CreatedAt = time.UnixMilli(createdAt).UTC()
		customer.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}

	for _, c := range customers {
		if err := s.loadAddresses(ctx, c); err != nil {
			return nil, err
		}
	}

	return customers, nil
}

// loadAddresses подгружает адреса клиента. Дефолтный адрес первым.
func (s *Storage) loadAddresses(ctx context.Context, customer *models.Customer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, line, city, notes, is_default
		FROM addresses WHERE customer_id = ?
		ORDER BY is_default DESC, id ASC
	`, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr models.Address
		var isDefault int
		if err := rows.Scan(
			&addr.ID,
			&addr.CustomerID,
			&addr.Line,
			&addr.City,
			&addr.Notes,
			&isDefault,
		); err != nil {
			return fmt.Errorf("failed to scan address: %w", err)
		}
		addr.IsDefault = isDefault != 0
		customer.Addresses = append(customer.Addresses, addr)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate addresses: %w", err)
	}

	return nil
}

// DeleteAddress removes a single customer address
func (s *Storage) DeleteAddress(ctx context.Context, addressID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, addressID)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// ReplaceMenu atomically replaces menu items and categories
func (s *Storage) ReplaceMenu(ctx context.Context, items []*models.MenuItem, categories []*models.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items`); err != nil {
		return fmt.Errorf("failed to clear menu items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO menu_items (id, category_id, name, description, price, available, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			item.ID,
			item.CategoryID,
			item.Name,
			item.Description,
			item.Price,
			boolToInt(item.Available),
			item.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to save menu item: %w", err)
		}
	}

	for _, category := range categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, position) VALUES (?, ?, ?)
		`, category.ID, category.Name, category.Position)
		if err != nil {
			return fmt.Errorf("failed to save category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit menu: %w", err)
	}

	return nil
}

// ListMenuItems returns all menu items
func (s *Storage) ListMenuItems(ctx context.Context) ([]*models.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, name, description, price, available, updated_at
		FROM menu_items ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []*models.MenuItem
	for rows.Next() {
		item := &models.MenuItem{}
		var available int
		var updatedAt int64
		if err := rows.Scan(
			&item.ID,
			&item.CategoryID,
			&item.Name,
			&item.Description,
			&item.Price,
			&available,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		item.Available = available != 0
		item.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu items: %w", err)
	}

	return items, nil
}

// ListCategories returns all categories ordered by position
func (s *Storage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, position FROM categories ORDER BY position ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.Position); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// SaveExpenses upserts expense records
func (s *Storage) SaveExpenses(ctx context.Context, expenses []*models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, expense := range expenses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, category, description, amount, date, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				category = excluded.category,
				description = excluded.description,
				amount = excluded.amount,
				date = excluded.date
		`,
			expense.ID,
			expense.Category,
			expense.Description,
			expense.Amount,
			expense.Date.UnixMilli(),
			expense.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to save expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit expenses: %w", err)
	}

	return nil
}

// ListExpenses returns expenses within [from, to), newest first
func (s *Storage) ListExpenses(ctx context.Context, from, to time.Time) ([]*models.Expense, error) {
	query := `
		SELECT id, category, description, amount, date, created_at
		FROM expenses
	`
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, `date >= ?`)
		args = append(args, from.UnixMilli())
	}
	if !to.IsZero() {
		conds = append(conds, `date < ?`)
		args = append(args, to.UnixMilli())
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var date, createdAt int64
		if err := rows.Scan(
			&expense.ID,
			&expense.Category,
			&expense.Description,
			&expense.Amount,
			&date,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.Date = time.UnixMilli(date).UTC()
		expense.CreatedAt = time.UnixMilli(createdAt).UTC()
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

const selectOrder = `
	SELECT id, local_id, type, status, payment_status, delivery_status,
	       customer_id, address_id, table_id, items, total,
	       locally_overridden, synced, created_at, updated_at
	FROM orders
`

func (s *Storage) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := s.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

func (s *Storage) scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var (
		orderType, status, paymentStatus, deliveryStatus, items string
		locallyOverridden, synced                               int
		createdAt, updatedAt                                    int64
	)

	err := row.Scan(
		&order.ID,
		&order.LocalID,
		&orderType,
		&status,
		&paymentStatus,
		&deliveryStatus,
		&order.CustomerID,
		&order.AddressID,
		&order.TableID,
		&items,
		&order.Total,
		&locallyOverridden,
		&synced,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	order.Type = models.OrderType(orderType)
	order.Status = models.OrderStatus(status)
	order.PaymentStatus = models.PaymentStatus(paymentStatus)
	order.DeliveryStatus = models.DeliveryStatus(deliveryStatus)
	order.LocallyOverridden = locallyOverridden != 0
	order.Synced = synced != 0
	order.CreatedAt = time.UnixMilli(createdAt).UTC()
	order.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	if err := json.Unmarshal([]byte(items), &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}

	return order, nil
}

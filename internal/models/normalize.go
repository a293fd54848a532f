package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Сервер исторически отдает поля в разных стилях именования
// (snake_case и camelCase вперемешку, в зависимости от endpoint).
// Нормализация происходит один раз, сразу после fetch: дальше по коду
// ходят только канонические структуры, и никакая логика не ветвится
// по тому, в каком виде поле пришло с сервера.

// rawRecord промежуточное представление ответа сервера.
type rawRecord map[string]json.RawMessage

func (r rawRecord) str(keys ...string) string {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		// Числовые id тоже встречаются - приводим к строке
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}
	return ""
}

func (r rawRecord) num(keys ...string) float64 {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return f
		}
	}
	return 0
}

func (r rawRecord) boolean(keys ...string) bool {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return b
		}
	}
	return false
}

func (r rawRecord) when(keys ...string) time.Time {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t
			}
			if t, err := time.Parse("2006-01-02", s); err == nil {
				return t
			}
		}
		var unix int64
		if err := json.Unmarshal(raw, &unix); err == nil && unix > 0 {
			return time.Unix(unix, 0).UTC()
		}
	}
	return time.Time{}
}

// NormalizeOrder приводит ответ сервера к каноническому Order.
func NormalizeOrder(data []byte) (*Order, error) {
	var r rawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode order payload: %w", err)
	}

	order := &Order{
		ID:             r.str("id", "order_id", "orderId"),
		LocalID:        r.str("local_id", "localId"),
		Type:           OrderType(r.str("type", "order_type", "orderType")),
		Status:         OrderStatus(r.str("status", "order_status", "orderStatus")),
		PaymentStatus:  PaymentStatus(r.str("payment_status", "paymentStatus")),
		DeliveryStatus: DeliveryStatus(r.str("delivery_status", "deliveryStatus")),
		CustomerID:     r.str("customer_id", "customerId"),
		AddressID:      r.str("address_id", "addressId"),
		TableID:        r.str("table_id", "tableId"),
		Total:          r.num("total", "total_amount", "totalAmount"),
		CreatedAt:      r.when("created_at", "createdAt"),
		UpdatedAt:      r.when("updated_at", "updatedAt"),
		Synced:         true, // запись пришла с сервера
	}

	if order.ID == "" {
		return nil, fmt.Errorf("order payload has no id")
	}
	if order.Status == "" {
		order.Status = OrderStatusPending
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = PaymentStatusPending
	}

	order.Items = orderItems(r)

	return order, nil
}

// NewLocalOrder строит заказ из тела create-запроса, не дошедшего до
// сервера. Заказ живет под временным локальным id, пока соответствующая
// create-операция из очереди не принесет серверный id.
func NewLocalOrder(localID string, body []byte, now time.Time) (*Order, error) {
	var r rawRecord
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to decode order request: %w", err)
	}

	order := &Order{
		ID:            localID,
		LocalID:       localID,
		Type:          OrderType(r.str("type", "order_type", "orderType")),
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
		CustomerID:    r.str("customer_id", "customerId"),
		AddressID:     r.str("address_id", "addressId"),
		TableID:       r.str("table_id", "tableId"),
		Items:         orderItems(r),
		Total:         r.num("total", "total_amount", "totalAmount"),
		CreatedAt:     now,
		UpdatedAt:     now,
		// Пока сервер не подтвердил создание, refresh не должен трогать запись
		LocallyOverridden: true,
		Synced:            false,
	}

	if order.Type == "" {
		return nil, fmt.Errorf("order request has no type")
	}

	return order, nil
}

func orderItems(r rawRecord) []OrderItem {
	itemsRaw, ok := r["items"]
	if !ok {
		return nil
	}
	var raws []rawRecord
	if err := json.Unmarshal(itemsRaw, &raws); err != nil {
		return nil
	}

	var items []OrderItem
	for _, ir := range raws {
		items = append(items, OrderItem{
			MenuItemID: ir.str("menu_item_id", "menuItemId", "item_id"),
			Name:       ir.str("name", "item_name", "itemName"),
			Quantity:   int(ir.num("quantity", "qty")),
			Price:      ir.num("price", "unit_price", "unitPrice"),
			Notes:      ir.str("notes"),
		})
	}
	return items
}

// NormalizeCustomer приводит ответ сервера к каноническому Customer.
func NormalizeCustomer(data []byte) (*Customer, error) {
	var r rawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode customer payload: %w", err)
	}

	customer := &Customer{
		ID:        r.str("id", "customer_id", "customerId"),
		Name:      r.str("name", "full_name", "fullName"),
		Phone:     r.str("phone", "phone_number", "phoneNumber"),
		Email:     r.str("email"),
		CreatedAt: r.when("created_at", "createdAt"),
		UpdatedAt: r.when("updated_at", "updatedAt"),
	}
	if customer.ID == "" {
		return nil, fmt.Errorf("customer payload has no id")
	}

	if addrsRaw, ok := r["addresses"]; ok {
		var addrs []rawRecord
		if err := json.Unmarshal(addrsRaw, &addrs); err == nil {
			for _, ar := range addrs {
				customer.Addresses = append(customer.Addresses, Address{
					ID:         ar.str("id", "address_id", "addressId"),
					CustomerID: customer.ID,
					Line:       ar.str("line", "address", "address_line", "addressLine"),
					City:       ar.str("city"),
					Notes:      ar.str("notes"),
					IsDefault:  ar.boolean("is_default", "isDefault"),
				})
			}
		}
	}

	return customer, nil
}

// NormalizeMenuItem приводит ответ сервера к каноническому MenuItem.
func NormalizeMenuItem(data []byte) (*MenuItem, error) {
	var r rawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode menu item payload: %w", err)
	}

	item := &MenuItem{
		ID:          r.str("id", "item_id", "itemId"),
		CategoryID:  r.str("category_id", "categoryId"),
		Name:        r.str("name", "item_name", "itemName"),
		Description: r.str("description"),
		Price:       r.num("price"),
		UpdatedAt:   r.when("updated_at", "updatedAt"),
	}
	if item.ID == "" {
		return nil, fmt.Errorf("menu item payload has no id")
	}

	// Доступность по умолчанию true, если поле отсутствует
	if _, ok := r["available"]; ok {
		item.Available = r.boolean("available")
	} else if _, ok := r["is_available"]; ok {
		item.Available = r.boolean("is_available")
	} else if _, ok := r["isAvailable"]; ok {
		item.Available = r.boolean("isAvailable")
	} else {
		item.Available = true
	}

	return item, nil
}

// NormalizeCategory приводит ответ сервера к канонической Category.
func NormalizeCategory(data []byte) (*Category, error) {
	var r rawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode category payload: %w", err)
	}

	category := &Category{
		ID:       r.str("id", "category_id", "categoryId"),
		Name:     r.str("name", "category_name", "categoryName"),
		Position: int(r.num("position", "sort_order", "sortOrder")),
	}
	if category.ID == "" {
		return nil, fmt.Errorf("category payload has no id")
	}

	return category, nil
}

// NormalizeExpense приводит ответ сервера к каноническому Expense.
func NormalizeExpense(data []byte) (*Expense, error) {
	var r rawRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode expense payload: %w", err)
	}

	expense := &Expense{
		ID:          r.str("id", "expense_id", "expenseId"),
		Category:    r.str("category", "expense_category", "expenseCategory"),
		Description: r.str("description", "note"),
		Amount:      r.num("amount"),
		Date:        r.when("date", "expense_date", "expenseDate"),
		CreatedAt:   r.when("created_at", "createdAt"),
	}
	if expense.ID == "" {
		return nil, fmt.Errorf("expense payload has no id")
	}

	return expense, nil
}

// NormalizeList декодирует ответ-список в набор сырых элементов.
// Сервер отдает списки либо голым массивом, либо обернутыми в
// {"data": [...]} или {"<resource>": [...]}.
func NormalizeList(data []byte, resourceKeys ...string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode list payload: %w", err)
	}

	keys := append([]string{"data", "items", "results"}, resourceKeys...)
	for _, k := range keys {
		raw, ok := wrapper[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}

	return nil, fmt.Errorf("list payload has no recognizable collection field")
}

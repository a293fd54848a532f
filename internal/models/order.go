package models

import (
	"strings"
	"time"
)

// OrderType тип заказа: определяет сегмент, в котором заказ
// синхронизируется и отображается.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
)

// Order представляет заказ в локальном хранилище.
// Один и тот же заказ может существовать в двух видах:
// созданный офлайн (ID = локальный temp id, Synced = false) и
// подтвержденный сервером (ID = серверный id, Synced = true).
type Order struct {
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ID             string         `json:"id"`       // серверный id либо локальный temp id
	LocalID        string         `json:"local_id"` // temp id, сохраняется после присвоения серверного id
	Type           OrderType      `json:"type"`
	Status         OrderStatus    `json:"status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	DeliveryStatus DeliveryStatus `json:"delivery_status,omitempty"`
	CustomerID     string         `json:"customer_id,omitempty"`
	AddressID      string         `json:"address_id,omitempty"`
	TableID        string         `json:"table_id,omitempty"`
	Items          []OrderItem    `json:"items"`
	Total          float64        `json:"total"`
	// LocallyOverridden: статус был выставлен локальным действием и не должен
	// перезаписываться обновлением с сервера, пока соответствующая операция
	// из очереди не завершится успешно.
	LocallyOverridden bool `json:"locally_overridden"`
	// Synced: заказ подтвержден сервером (имеет серверный id).
	Synced bool `json:"synced"`
}

// OrderItem позиция заказа.
type OrderItem struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Notes      string  `json:"notes,omitempty"`
}

// LocalIDPrefix префикс локальных temp id заказов, созданных офлайн.
const LocalIDPrefix = "local-"

// HasServerID возвращает true, если заказ уже получил серверный идентификатор.
func (o *Order) HasServerID() bool {
	return o.ID != "" && !strings.HasPrefix(o.ID, LocalIDPrefix)
}

// Clone создает глубокую копию заказа.
func (o *Order) Clone() *Order {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)

	clone := *o
	clone.Items = items
	return &clone
}

package models

// OrderStatus представляет статус заказа в его жизненном цикле.
type OrderStatus string

// PaymentStatus представляет статус оплаты заказа.
type PaymentStatus string

// DeliveryStatus представляет статус доставки (только для заказов типа delivery).
type DeliveryStatus string

// Статусы заказа. Порядок важен: статус может двигаться только "вперед"
// по иерархии, откат назад запрещен правилами разрешения конфликтов.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"

	// OrderStatusCancelled - поглощающее состояние, не участвует в иерархии.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Статусы оплаты.
const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Статусы доставки. Отдельная иерархия: списки статусов заказа и доставки
// не совпадают и не сравниваются между собой.
const (
	DeliveryStatusPending        DeliveryStatus = "pending"
	DeliveryStatusAssigned       DeliveryStatus = "assigned"
	DeliveryStatusPickedUp       DeliveryStatus = "picked_up"
	DeliveryStatusOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryStatusDelivered      DeliveryStatus = "delivered"

	DeliveryStatusCancelled DeliveryStatus = "cancelled"
)

// orderStatusRank задает тотальный порядок на статусах заказа.
// Чем больше значение, тем дальше заказ продвинулся по жизненному циклу.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusConfirmed: 1,
	OrderStatusPreparing: 2,
	OrderStatusReady:     3,
	OrderStatusDelivered: 4,
	OrderStatusCompleted: 5,
}

var deliveryStatusRank = map[DeliveryStatus]int{
	DeliveryStatusPending:        0,
	DeliveryStatusAssigned:       1,
	DeliveryStatusPickedUp:       2,
	DeliveryStatusOutForDelivery: 3,
	DeliveryStatusDelivered:      4,
}

var paymentStatusRank = map[PaymentStatus]int{
	PaymentStatusPending:   0,
	PaymentStatusPartial:   1,
	PaymentStatusCompleted: 2,
}

// IsAheadOf возвращает true, если текущий статус строго дальше other
// по иерархии жизненного цикла. Cancelled ни с чем не сравнивается:
// для него IsAheadOf всегда false.
func (s OrderStatus) IsAheadOf(other OrderStatus) bool {
	sr, ok1 := orderStatusRank[s]
	or, ok2 := orderStatusRank[other]
	if !ok1 || !ok2 {
		return false
	}
	return sr > or
}

// IsTerminal возвращает true для конечных состояний заказа.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsAheadOf возвращает true, если текущий статус доставки строго дальше other.
func (s DeliveryStatus) IsAheadOf(other DeliveryStatus) bool {
	sr, ok1 := deliveryStatusRank[s]
	or, ok2 := deliveryStatusRank[other]
	if !ok1 || !ok2 {
		return false
	}
	return sr > or
}

// IsAheadOf возвращает true, если текущий статус оплаты строго дальше other.
// Refunded, как и cancelled у заказа, стоит вне иерархии.
func (s PaymentStatus) IsAheadOf(other PaymentStatus) bool {
	sr, ok1 := paymentStatusRank[s]
	or, ok2 := paymentStatusRank[other]
	if !ok1 || !ok2 {
		return false
	}
	return sr > or
}

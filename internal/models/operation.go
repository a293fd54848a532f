package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// OperationStatus статус операции в очереди.
type OperationStatus string

const (
	// OperationStatusPending операция ожидает отправки (или повторной попытки).
	OperationStatusPending OperationStatus = "pending"
	// OperationStatusCompleted операция успешно выполнена на сервере.
	OperationStatusCompleted OperationStatus = "completed"
	// OperationStatusFailed операция исчерпала лимит попыток.
	// Терминальное состояние: хранится для диагностики, не повторяется.
	OperationStatusFailed OperationStatus = "failed"
)

// Типы операций (доменные действия, а не HTTP методы).
const (
	OpTypeCreateOrder       = "create_order"
	OpTypeUpdateOrderStatus = "update_order_status"
	OpTypeMarkAsPaid        = "mark_as_paid"
	OpTypeCancelOrder       = "cancel_order"
	OpTypeCreateCustomer    = "create_customer"
	OpTypeCreateAddress     = "create_customer_address"
	OpTypeDeleteAddress     = "delete_customer_address"
	OpTypeCreateExpense     = "create_expense"
)

// PendingOperation представляет отложенную мутацию, созданную пока
// устройство было офлайн. Записи очереди изменяются только координатором
// синхронизации во время drain.
type PendingOperation struct {
	CreatedAt      time.Time       `json:"created_at"`
	LastAttemptAt  time.Time       `json:"last_attempt_at,omitempty"`
	ID             int64           `json:"id"` // локальный монотонный id
	IdempotencyKey string          `json:"idempotency_key"`
	Type           string          `json:"type"`
	Method         string          `json:"method"`
	Endpoint       string          `json:"endpoint"`
	Body           []byte          `json:"body,omitempty"`
	Status         OperationStatus `json:"status"`
	Priority       int             `json:"priority"` // больший приоритет отправляется раньше
	RetryCount     int             `json:"retry_count"`
	LastError      string          `json:"last_error,omitempty"`
	// EntityID локальный id сущности, которую операция создает или меняет.
	// Используется для снятия флага locally_overridden после успеха.
	EntityID string `json:"entity_id,omitempty"`
}

// IsTerminal возвращает true, если операция больше не будет отправляться.
func (op *PendingOperation) IsTerminal() bool {
	return op.Status == OperationStatusCompleted || op.Status == OperationStatusFailed
}

// IdempotencyKey детерминированно выводит ключ идемпотентности из
// метода, endpoint и тела запроса. Одинаковое намерение, отправленное
// дважды, дает одинаковый ключ и схлопывается в одну запись очереди.
func IdempotencyKey(method, endpoint string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

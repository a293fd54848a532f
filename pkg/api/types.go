// Package api содержит wire-типы запросов и ответов backend'а POS.
// Backend - внешний коллаборатор: от него требуются только предсказуемые
// CRUD пути per-ресурс, liveness endpoint для пробы достижимости и
// терпимость к повторной отправке (клиент и так дедуплицирует мутации
// по ключу идемпотентности).
package api

// LoginRequest представляет запрос аутентификации
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse представляет ответ аутентификации
type LoginResponse struct {
	Token string `json:"token"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// CreateOrderRequest представляет запрос на создание заказа
type CreateOrderRequest struct {
	LocalID    string             `json:"local_id,omitempty"` // temp id заказа, созданного офлайн
	Type       string             `json:"type"`
	CustomerID string             `json:"customer_id,omitempty"`
	AddressID  string             `json:"address_id,omitempty"`
	TableID    string             `json:"table_id,omitempty"`
	Items      []OrderItemRequest `json:"items"`
	Total      float64            `json:"total"`
}

// OrderItemRequest позиция заказа в запросе на создание
type OrderItemRequest struct {
	MenuItemID string  `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Notes      string  `json:"notes,omitempty"`
}

// UpdateOrderStatusRequest представляет запрос на смену статуса заказа
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// MarkAsPaidRequest представляет запрос на отметку заказа оплаченным
type MarkAsPaidRequest struct {
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
}

// CreateExpenseRequest представляет запрос на создание расхода
type CreateExpenseRequest struct {
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"` // YYYY-MM-DD
}

// HealthResponse представляет ответ liveness endpoint'а
type HealthResponse struct {
	Status string `json:"status"`
}

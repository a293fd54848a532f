package models

import "time"

// Customer представляет клиента ресторана.
type Customer struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
}

// Address адрес доставки клиента.
type Address struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Line       string `json:"line"`
	City       string `json:"city,omitempty"`
	Notes      string `json:"notes,omitempty"`
	IsDefault  bool   `json:"is_default"`
}

// MenuItem позиция меню (справочные данные, обновляются редко).
type MenuItem struct {
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Available   bool      `json:"available"`
}

// Category категория меню.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Expense расход. Единственный ресурс, который помимо кэша ответов
// зеркалируется в отдельную таблицу: расходы читаются с фильтрами по датам
// высокой кардинальности, и фильтр нужно применять к полному локальному
// набору записей, а не к одному закэшированному ответу.
type Expense struct {
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
}

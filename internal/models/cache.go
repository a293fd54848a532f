package models

import (
	"strings"
	"time"
)

// ResourceType тип ресурса, к которому относится закэшированный ответ.
// Используется для инвалидации кэша по типу и для fallback-поиска.
type ResourceType string

const (
	ResourceOrders     ResourceType = "orders"
	ResourceMenuItems  ResourceType = "menu-items"
	ResourceCategories ResourceType = "categories"
	ResourceCustomers  ResourceType = "customers"
	ResourceExpenses   ResourceType = "expenses"
	ResourceRiders     ResourceType = "riders"
	ResourceBusiness   ResourceType = "business"
	ResourceTables     ResourceType = "tables"
	ResourceUnknown    ResourceType = "unknown"
)

// CachedResponse закэшированный ответ сервера.
// Инвариант: не более одной записи на CacheKey, последняя запись побеждает.
type CachedResponse struct {
	StoredAt time.Time    `json:"stored_at"`
	CacheKey string       `json:"cache_key"`
	Resource ResourceType `json:"resource"`
	Method   string       `json:"method"`
	// Path путь запроса без query-параметров, для fallback-поиска по типу.
	Path    string `json:"path"`
	Payload []byte `json:"payload"`
}

// resourcePrefixes сопоставляет префикс пути API типу ресурса.
// Порядок важен: более специфичные префиксы идут первыми.
var resourcePrefixes = []struct {
	prefix   string
	resource ResourceType
}{
	{"/api/orders", ResourceOrders},
	{"/api/menu-items", ResourceMenuItems},
	{"/api/menu", ResourceMenuItems},
	{"/api/categories", ResourceCategories},
	{"/api/customers", ResourceCustomers},
	{"/api/expenses", ResourceExpenses},
	{"/api/riders", ResourceRiders},
	{"/api/business", ResourceBusiness},
	{"/api/tables", ResourceTables},
}

// ResourceTypeForPath классифицирует путь API по типу ресурса.
func ResourceTypeForPath(path string) ResourceType {
	// Отбрасываем query, если он пришел в составе пути
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, rp := range resourcePrefixes {
		if path == rp.prefix || strings.HasPrefix(path, rp.prefix+"/") {
			return rp.resource
		}
	}
	return ResourceUnknown
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/possync/internal/models"
	"github.com/iudanet/possync/pkg/api"
)

//go:generate moq -out client_mock.go . ClientAPI

// SessionProbePath endpoint проверки сессии. Ошибка авторизации на самом
// probe-запросе не должна приводить к очистке сессии (иначе бесконечный цикл).
const SessionProbePath = "/api/auth/session"

// HealthPath liveness endpoint, используется пробой достижимости.
const HealthPath = "/api/health"

// TokenSource выдает текущий токен сессии для исходящих запросов.
type TokenSource func(ctx context.Context) (string, error)

// ClientAPI определяет интерфейс HTTP клиента backend'а.
// Координатор синхронизации зависит от интерфейса, а не от конкретного
// клиента - в тестах подставляется mock.
type ClientAPI interface {
	// Do выполняет произвольный запрос и возвращает тело ответа.
	// Используется при drain очереди отложенных операций.
	Do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error)

	// Get выполняет GET запрос с параметрами
	Get(ctx context.Context, path string, params map[string]string) ([]byte, error)

	// Health проверяет достижимость backend'а (2xx от liveness endpoint)
	Health(ctx context.Context) error

	// ListOrders возвращает нормализованные заказы указанного типа ("" - все)
	ListOrders(ctx context.Context, orderType models.OrderType) ([]*models.Order, error)

	// ListMenuItems возвращает нормализованные позиции меню
	ListMenuItems(ctx context.Context) ([]*models.MenuItem, error)

	// ListCategories возвращает нормализованные категории
	ListCategories(ctx context.Context) ([]*models.Category, error)

	// ListCustomers возвращает нормализованных клиентов с адресами
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
}

// Client представляет HTTP клиент для взаимодействия с backend'ом
type Client struct {
	httpClient  *http.Client
	probeClient *http.Client
	tokenSource TokenSource
	baseURL     string
}

// NewClient создает новый API клиент.
// tokenSource может быть nil, тогда запросы уходят без авторизации.
func NewClient(baseURL string, tokenSource TokenSource) *Client {
	return &Client{
		baseURL:     baseURL,
		tokenSource: tokenSource,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
		// Проба достижимости живет с жестким коротким таймаутом:
		// локальный сигнал сети может врать, проба - нет
		probeClient: &http.Client{Timeout: 3 * time.Second},
	}
}

// Do выполняет произвольный запрос и возвращает тело ответа
func (c *Client) Do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	return c.doRequest(ctx, method, endpoint, body)
}

// Get выполняет GET запрос с параметрами
func (c *Client) Get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, withParams(path, params), nil)
}

// Health проверяет достижимость backend'а
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: "health probe returned non-2xx"}
	}
	return nil
}

// ListOrders возвращает нормализованные заказы указанного типа
func (c *Client) ListOrders(ctx context.Context, orderType models.OrderType) ([]*models.Order, error) {
	params := map[string]string{}
	if orderType != "" {
		params["type"] = string(orderType)
	}

	payload, err := c.Get(ctx, "/api/orders", params)
	if err != nil {
		return nil, fmt.Errorf("list orders request failed: %w", err)
	}

	raws, err := models.NormalizeList(payload, "orders")
	if err != nil {
		return nil, fmt.Errorf("failed to decode orders list: %w", err)
	}

	orders := make([]*models.Order, 0, len(raws))
	for _, raw := range raws {
		order, err := models.NormalizeOrder(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// ListMenuItems возвращает нормализованные позиции меню
func (c *Client) ListMenuItems(ctx context.Context) ([]*models.MenuItem, error) {
	payload, err := c.Get(ctx, "/api/menu-items", nil)
	if err != nil {
		return nil, fmt.Errorf("list menu items request failed: %w", err)
	}

	raws, err := models.NormalizeList(payload, "menu_items", "menuItems")
	if err != nil {
		return nil, fmt.Errorf("failed to decode menu items list: %w", err)
	}

	items := make([]*models.MenuItem, 0, len(raws))
	for _, raw := range raws {
		item, err := models.NormalizeMenuItem(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize menu item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ListCategories возвращает нормализованные категории
func (c *Client) ListCategories(ctx context.Context) ([]*models.Category, error) {
	payload, err := c.Get(ctx, "/api/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("list categories request failed: %w", err)
	}

	raws, err := models.NormalizeList(payload, "categories")
	if err != nil {
		return nil, fmt.Errorf("failed to decode categories list: %w", err)
	}

	categories := make([]*models.Category, 0, len(raws))
	for _, raw := range raws {
		category, err := models.NormalizeCategory(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// ListCustomers возвращает нормализованных клиентов с адресами
func (c *Client) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	payload, err := c.Get(ctx, "/api/customers", map[string]string{"include": "addresses"})
	if err != nil {
		return nil, fmt.Errorf("list customers request failed: %w", err)
	}

	raws, err := models.NormalizeList(payload, "customers")
	if err != nil {
		return nil, fmt.Errorf("failed to decode customers list: %w", err)
	}

	customers := make([]*models.Customer, 0, len(raws))
	for _, raw := range raws {
		customer, err := models.NormalizeCustomer(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize customer: %w", err)
		}
		customers = append(customers, customer)
	}
	return customers, nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokenSource != nil {
		token, err := c.tokenSource(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get session token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Body: respBody}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			apiErr.Message = errResp.Message
		}
		return nil, apiErr
	}

	return respBody, nil
}

// withParams добавляет параметры к пути в детерминированном порядке
func withParams(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	values := url.Values{}
	for _, name := range names {
		values.Set(name, params[name])
	}

	sep := "?"
	if strings.ContainsRune(path, '?') {
		sep = "&"
	}
	return path + sep + values.Encode()
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Error представляет ответ сервера с неуспешным статусом.
// Наличие Error в цепочке ошибок означает, что ответ от сервера
// был получен - это НЕ ошибка связности.
type Error struct {
	Message    string
	Body       []byte
	StatusCode int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}

// ErrOffline возвращается при явном запросе синхронизации без связи с сервером.
var ErrOffline = errors.New("device is offline")

// IsConnectivity возвращает true для чистых ошибок связности:
// запрос не достиг сервера и никакого ответа получено не было.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrOffline)
}

// IsRetryable возвращает true для ошибок, которые имеет смысл повторять:
// связность, 5xx, таймаут запроса и rate limit.
func IsRetryable(err error) bool {
	if IsConnectivity(err) {
		return true
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 ||
			apiErr.StatusCode == 408 ||
			apiErr.StatusCode == 429
	}

	return false
}

// IsAuth возвращает true для ошибок авторизации.
func IsAuth(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}

// benignConflictMarkers фразы, по которым конфликт признается "доброкачественным":
// намерение операции уже выполнено либо неисполнимо навсегда, повтор бессмысленен.
var benignConflictMarkers = []string{
	"already exists",
	"already occupied",
	"already paid",
	"duplicate",
}

// IsBenignConflict возвращает true для конфликтов, которые очередь должна
// считать выполненными, а не повторять.
func IsBenignConflict(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode != 409 && apiErr.StatusCode != 422 {
		return false
	}

	message := strings.ToLower(apiErr.Message + " " + string(apiErr.Body))
	for _, marker := range benignConflictMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

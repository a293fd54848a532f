package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/possync/internal/client/cache"
	"github.com/iudanet/possync/internal/client/session"
	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

// Interceptor - единая точка прохода всех исходящих запросов.
// На успехе ответ уходит в кэш, зависимые списки инвалидируются.
// На чистой ошибке связности чтение прозрачно подменяется лучшей
// закэшированной записью. Ошибка авторизации чистит локальную сессию,
// кроме двух случаев: сам probe-запрос сессии (иначе бесконечный цикл)
// и чтение, которое уже удовлетворил кэш.
type Interceptor struct {
	client  ClientAPI
	cache   *cache.Service
	session *session.Store
	logger  *slog.Logger
}

// NewInterceptor creates a new network boundary interceptor
func NewInterceptor(client ClientAPI, cacheService *cache.Service, sessionStore *session.Store, logger *slog.Logger) *Interceptor {
	return &Interceptor{
		client:  client,
		cache:   cacheService,
		session: sessionStore,
		logger:  logger,
	}
}

// Result результат перехваченного запроса
type Result struct {
	Payload []byte
	// FromCache: ответ подставлен из кэша, а не получен от сервера
	FromCache bool
}

// Get выполняет чтение через сетевую границу.
func (i *Interceptor) Get(ctx context.Context, path string, params map[string]string) (*Result, error) {
	payload, err := i.client.Get(ctx, path, params)
	if err == nil {
		i.cache.Put(ctx, http.MethodGet, path, params, payload)
		return &Result{Payload: payload}, nil
	}

	if IsConnectivity(err) {
		// Связи нет - пробуем подставить кэш
		cached, cacheErr := i.cache.Get(ctx, http.MethodGet, path, params)
		if cacheErr == nil {
			i.logger.Debug("serving read from cache", "path", path)
			return &Result{Payload: cached, FromCache: true}, nil
		}
		if !errors.Is(cacheErr, storage.ErrCacheMiss) {
			i.logger.Warn("cache fallback failed", "path", path, "error", cacheErr)
		}
		// Кэша нет - оригинальная ошибка уходит вызывающему
		return nil, err
	}

	if IsAuth(err) {
		// Кэш-попадание избавляет от logout: авторизационная ошибка,
		// которой «не было» для вызывающего, не должна рушить сессию
		cached, cacheErr := i.cache.Get(ctx, http.MethodGet, path, params)
		if cacheErr == nil {
			return &Result{Payload: cached, FromCache: true}, nil
		}
		i.clearSessionUnlessProbe(ctx, path)
	}

	return nil, err
}

// Do выполняет мутацию через сетевую границу.
func (i *Interceptor) Do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	payload, err := i.client.Do(ctx, method, endpoint, body)
	if err != nil {
		if IsAuth(err) {
			i.clearSessionUnlessProbe(ctx, endpoint)
		}
		// Ошибки мутаций уходят вызывающему как есть: постановкой
		// в очередь при офлайне занимается слой операций, не граница
		return nil, err
	}

	// Списки и агрегаты, зависящие от измененного ресурса, устарели.
	// Инвалидация до записи: ответ самой мутации кэш переживает.
	if method != http.MethodGet {
		resource := models.ResourceTypeForPath(endpoint)
		if resource != models.ResourceUnknown {
			i.cache.InvalidateResource(ctx, resource)
		}
	}

	i.cache.Put(ctx, method, endpoint, nil, payload)

	return payload, nil
}

func (i *Interceptor) clearSessionUnlessProbe(ctx context.Context, path string) {
	if cache.PathOnly(path) == SessionProbePath {
		return
	}
	if err := i.session.Clear(ctx); err != nil {
		i.logger.Warn("failed to clear session after auth failure", "error", err)
	}
}

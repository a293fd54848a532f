package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

// Service реализует read-through кэш ответов сервера поверх CacheStorage.
// Кэш - оптимизация доступности, а не источник корректности: любые ошибки
// записи и чтения кэша логируются и проглатываются, основной путь
// запроса из-за них не прерывается.
type Service struct {
	cacheStorage  storage.CacheStorage
	recordStorage storage.RecordStorage
	logger        *slog.Logger
}

// NewService creates a new response cache service
func NewService(cacheStorage storage.CacheStorage, recordStorage storage.RecordStorage, logger *slog.Logger) *Service {
	return &Service{
		cacheStorage:  cacheStorage,
		recordStorage: recordStorage,
		logger:        logger,
	}
}

// Get ищет закэшированный ответ: сначала по точному ключу, при промахе -
// fallback-скан по типу ресурса и методу (свежая запись того же ресурса
// лучше, чем ничего: меняем строгую актуальность на доступность).
// Возвращает storage.ErrCacheMiss, если не нашлось ничего.
func (s *Service) Get(ctx context.Context, method, path string, params map[string]string) ([]byte, error) {
	key := BuildKey(method, path, params)

	entry, err := s.cacheStorage.GetResponse(ctx, key)
	if err == nil {
		return entry.Payload, nil
	}
	if !errors.Is(err, storage.ErrCacheMiss) {
		// Ошибка чтения кэша не фатальна, но промах нужно вернуть честно
		s.logger.Warn("cache lookup failed", "key", key, "error", err)
		return nil, storage.ErrCacheMiss
	}

	resource := models.ResourceTypeForPath(path)
	if resource == models.ResourceUnknown {
		return nil, storage.ErrCacheMiss
	}

	candidates, err := s.cacheStorage.FindByResource(ctx, resource, strings.ToUpper(method))
	if err != nil {
		s.logger.Warn("cache fallback scan failed", "resource", resource, "error", err)
		return nil, storage.ErrCacheMiss
	}

	// Из кандидатов берем запись с совпадающим путем (query игнорируется)
	wantPath := PathOnly(path)
	for _, candidate := range candidates {
		if candidate.Path == wantPath {
			s.logger.Debug("cache fallback hit",
				"key", key,
				"matched_key", candidate.CacheKey)
			return candidate.Payload, nil
		}
	}

	return nil, storage.ErrCacheMiss
}

// Put сохраняет успешный ответ в кэш. Ответы endpoint'ов аутентификации
// не кэшируются никогда. Ошибка записи логируется и проглатывается.
func (s *Service) Put(ctx context.Context, method, path string, params map[string]string, payload []byte) {
	if isAuthPath(path) {
		return
	}

	entry := &models.CachedResponse{
		CacheKey: BuildKey(method, path, params),
		Resource: models.ResourceTypeForPath(path),
		Method:   strings.ToUpper(method),
		Path:     PathOnly(path),
		Payload:  payload,
		StoredAt: time.Now().UTC(),
	}

	if err := s.cacheStorage.PutResponse(ctx, entry); err != nil {
		s.logger.Warn("failed to cache response", "key", entry.CacheKey, "error", err)
		return
	}

	// Расходы дополнительно зеркалируются в отдельную таблицу:
	// фильтры по датам применяются к полному локальному набору записей,
	// а не к одному закэшированному ответу
	if entry.Resource == models.ResourceExpenses && entry.Method == "GET" {
		s.mirrorExpenses(ctx, payload)
	}
}

// InvalidateResource удаляет все записи кэша указанного типа ресурса.
func (s *Service) InvalidateResource(ctx context.Context, resource models.ResourceType) {
	deleted, err := s.cacheStorage.DeleteByResource(ctx, resource)
	if err != nil {
		s.logger.Warn("failed to invalidate cache by resource", "resource", resource, "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Debug("cache invalidated", "resource", resource, "entries", deleted)
	}
}

// InvalidateKey удаляет одну запись кэша по точному ключу.
func (s *Service) InvalidateKey(ctx context.Context, method, path string, params map[string]string) {
	key := BuildKey(method, path, params)
	if err := s.cacheStorage.DeleteResponse(ctx, key); err != nil {
		s.logger.Warn("failed to invalidate cache key", "key", key, "error", err)
	}
}

// mirrorExpenses раскладывает ответ-список расходов в таблицу expenses
func (s *Service) mirrorExpenses(ctx context.Context, payload []byte) {
	raws, err := models.NormalizeList(payload, "expenses")
	if err != nil {
		s.logger.Warn("failed to decode expenses payload for mirror", "error", err)
		return
	}

	expenses := make([]*models.Expense, 0, len(raws))
	for _, raw := range raws {
		expense, err := models.NormalizeExpense(raw)
		if err != nil {
			s.logger.Warn("skipping malformed expense record", "error", err)
			continue
		}
		expenses = append(expenses, expense)
	}

	if len(expenses) == 0 {
		return
	}
	if err := s.recordStorage.SaveExpenses(ctx, expenses); err != nil {
		s.logger.Warn("failed to mirror expenses", "error", err)
	}
}

// isAuthPath проверяет, относится ли путь к endpoint'ам аутентификации
func isAuthPath(path string) bool {
	p := PathOnly(path)
	return strings.HasPrefix(p, "/api/auth") || strings.HasPrefix(p, "/api/v1/auth")
}

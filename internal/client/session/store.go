package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/possync/internal/client/storage"
)

// Store хранит токен сессии API в sync-метаданных.
// Клиент не проверяет подпись токена - это работа сервера; здесь токен
// разбирается только ради exp claim, чтобы не отправлять заведомо
// истекшую сессию.
type Store struct {
	metadataStorage storage.MetadataStorage
	logger          *slog.Logger
}

// NewStore creates a new session store
func NewStore(metadataStorage storage.MetadataStorage, logger *slog.Logger) *Store {
	return &Store{
		metadataStorage: metadataStorage,
		logger:          logger,
	}
}

// Token возвращает сохраненный токен сессии, "" если сессии нет.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.metadataStorage.GetSessionToken(ctx)
}

// Save сохраняет токен сессии.
func (s *Store) Save(ctx context.Context, token string) error {
	if err := s.metadataStorage.SaveSessionToken(ctx, token); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

// Clear очищает локальное состояние сессии.
// Вызывается перехватчиком при ошибке авторизации.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.metadataStorage.SaveSessionToken(ctx, ""); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	s.logger.Info("local session cleared")
	return nil
}

// IsValid возвращает true, если сессия существует и токен не истек.
// Токен без разбираемого exp claim считается действующим:
// последнее слово за сервером.
func (s *Store) IsValid(ctx context.Context) (bool, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	expiresAt, ok := tokenExpiry(token)
	if !ok {
		return true, nil
	}
	return time.Now().Before(expiresAt), nil
}

// tokenExpiry извлекает exp claim без проверки подписи
func tokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

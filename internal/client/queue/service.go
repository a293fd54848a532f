package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

const (
	// MaxRetries лимит повторов: после пятой неудачной попытки операция
	// переводится в failed и больше не отправляется.
	MaxRetries = 5

	baseDelay = 2 * time.Second
	maxDelay  = 5 * time.Minute

	// jitterFraction доля положительного разброса поверх базовой задержки.
	// Разброс только вверх: монотонность роста задержек сохраняется.
	jitterFraction = 0.2
)

// Приоритеты операций: заказы важнее справочных мутаций.
const (
	PriorityHigh   = 10
	PriorityNormal = 0
)

// Service управляет очередью отложенных операций: постановка с
// дедупликацией по ключу идемпотентности, выбор готовых к отправке
// и классификация исходов попыток.
type Service struct {
	queueStorage storage.QueueStorage
	logger       *slog.Logger

	// jitter переопределяется в тестах для детерминизма
	jitter func(base time.Duration) time.Duration
	now    func() time.Time
}

// NewService creates a new pending operation queue service
func NewService(queueStorage storage.QueueStorage, logger *slog.Logger) *Service {
	return &Service{
		queueStorage: queueStorage,
		logger:       logger,
		jitter:       randomJitter,
		now:          time.Now,
	}
}

// Enqueue ставит операцию в очередь. Если операция с тем же намерением
// (метод + endpoint + тело) уже ожидает отправки, новая запись не
// создается - возвращается существующая.
func (s *Service) Enqueue(ctx context.Context, op *models.PendingOperation) (*models.PendingOperation, error) {
	if op.Method == "" || op.Endpoint == "" {
		return nil, errors.New("operation method and endpoint are required")
	}

	op.Method = strings.ToUpper(op.Method)
	op.IdempotencyKey = models.IdempotencyKey(op.Method, op.Endpoint, op.Body)
	op.Status = models.OperationStatusPending

	existing, err := s.queueStorage.GetPendingByKey(ctx, op.IdempotencyKey)
	if err == nil {
		s.logger.Debug("duplicate operation coalesced",
			"type", existing.Type,
			"operation_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, storage.ErrOperationNotFound) {
		return nil, fmt.Errorf("failed to check for duplicate operation: %w", err)
	}

	inserted, err := s.queueStorage.InsertOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue operation: %w", err)
	}

	s.logger.Info("operation enqueued",
		"type", inserted.Type,
		"operation_id", inserted.ID,
		"endpoint", inserted.Endpoint)
	return inserted, nil
}

// ListPending возвращает все ожидающие операции в порядке отправки.
func (s *Service) ListPending(ctx context.Context) ([]*models.PendingOperation, error) {
	return s.queueStorage.ListPending(ctx, 0)
}

// ListDue возвращает операции, чье время повторной попытки уже наступило,
// в порядке отправки. Операция без попыток готова сразу.
func (s *Service) ListDue(ctx context.Context, limit int) ([]*models.PendingOperation, error) {
	pending, err := s.queueStorage.ListPending(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending operations: %w", err)
	}

	now := s.now()
	due := make([]*models.PendingOperation, 0, len(pending))
	for _, op := range pending {
		if !s.isDue(op, now) {
			continue
		}
		due = append(due, op)
		if limit > 0 && len(due) >= limit {
			break
		}
	}
	return due, nil
}

// ListFailed возвращает операции, исчерпавшие попытки.
func (s *Service) ListFailed(ctx context.Context) ([]*models.PendingOperation, error) {
	return s.queueStorage.ListByStatus(ctx, models.OperationStatusFailed)
}

// CountPending возвращает количество ожидающих операций.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.queueStorage.CountPending(ctx)
}

// MarkCompleted переводит операцию в completed.
func (s *Service) MarkCompleted(ctx context.Context, op *models.PendingOperation) error {
	op.Status = models.OperationStatusCompleted
	op.LastAttemptAt = s.now().UTC()
	op.LastError = ""

	if err := s.queueStorage.UpdateOperation(ctx, op); err != nil {
		return fmt.Errorf("failed to mark operation completed: %w", err)
	}
	return nil
}

// HandleFailure классифицирует неудачную попытку отправки:
//   - доброкачественный конфликт: намерение уже выполнено, операция completed;
//   - неповторяемая ошибка сервера (4xx): операция сразу failed;
//   - повторяемая ошибка: счетчик попыток растет, на лимите операция failed.
func (s *Service) HandleFailure(ctx context.Context, op *models.PendingOperation, cause error) error {
	op.LastAttemptAt = s.now().UTC()
	op.LastError = cause.Error()

	switch {
	case api.IsBenignConflict(cause):
		// Сервер уже в целевом состоянии - повтор бессмысленен и вреден
		op.Status = models.OperationStatusCompleted
		s.logger.Info("operation completed via benign conflict",
			"operation_id", op.ID,
			"type", op.Type,
			"error", cause.Error())

	case !api.IsRetryable(cause):
		op.Status = models.OperationStatusFailed
		s.logger.Warn("operation permanently failed",
			"operation_id", op.ID,
			"type", op.Type,
			"error", cause.Error())

	default:
		op.RetryCount++
		if op.RetryCount >= MaxRetries {
			op.Status = models.OperationStatusFailed
			s.logger.Warn("operation failed after retry limit",
				"operation_id", op.ID,
				"type", op.Type,
				"retries", op.RetryCount)
		} else {
			op.Status = models.OperationStatusPending
			s.logger.Debug("operation scheduled for retry",
				"operation_id", op.ID,
				"retry", op.RetryCount,
				"next_delay", NextDelay(op.RetryCount))
		}
	}

	if err := s.queueStorage.UpdateOperation(ctx, op); err != nil {
		return fmt.Errorf("failed to record operation attempt: %w", err)
	}
	return nil
}

// Prune удаляет терминальные операции старше cutoff.
func (s *Service) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := s.queueStorage.PruneTerminal(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune operation queue: %w", err)
	}
	if removed > 0 {
		s.logger.Info("pruned terminal operations", "removed", removed)
	}
	return removed, nil
}

// isDue проверяет, наступило ли время очередной попытки
func (s *Service) isDue(op *models.PendingOperation, now time.Time) bool {
	if op.LastAttemptAt.IsZero() || op.RetryCount == 0 {
		return true
	}
	delay := NextDelay(op.RetryCount) + s.jitter(NextDelay(op.RetryCount))
	return !now.Before(op.LastAttemptAt.Add(delay))
}

// NextDelay возвращает базовую задержку перед попыткой с номером
// retryCount (1-based): экспонента от 2s с потолком 5m, без разброса.
func NextDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		return 0
	}

	backoff := retry.WithCappedDuration(maxDelay, retry.NewExponential(baseDelay))
	var delay time.Duration
	for i := 0; i < retryCount; i++ {
		next, stop := backoff.Next()
		if stop {
			break
		}
		delay = next
	}
	return delay
}

// randomJitter возвращает случайную добавку в [0, jitterFraction*base]
func randomJitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	return time.Duration(rand.Float64() * jitterFraction * float64(base))
}

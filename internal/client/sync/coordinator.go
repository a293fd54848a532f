package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/broadcast"
	"github.com/iudanet/possync/internal/client/netstatus"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/client/resolver"
	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

// State состояние координатора синхронизации.
type State string

const (
	StateIdle           State = "idle"
	StateAcquiringLease State = "acquiring_lease"
	StateDrainingQueue  State = "draining_queue"
	StateRefreshingData State = "refreshing_data"
	StateOffline        State = "offline"
)

const (
	// LeaseTTL время жизни lease: упавший владелец освобождает цикл
	// синхронизации не позже чем через этот интервал.
	LeaseTTL = 30 * time.Second

	// syncInterval период фоновых циклов синхронизации
	syncInterval = 30 * time.Second

	drainBatchSize  = 5
	drainBatchPause = 700 * time.Millisecond

	referenceRefreshInterval   = 6 * time.Hour
	operationalRefreshInterval = 2 * time.Minute

	// janitorRetention терминальные операции храним для диагностики,
	// потом подчищаем
	janitorRetention = 7 * 24 * time.Hour
)

// Классы данных для отметок последнего обновления.
const (
	refreshClassReference = "reference"
	refreshClassOrders    = "orders"
	refreshClassCustomers = "customers"
)

// SyncResult итоги одного цикла синхронизации, публикуются на шине
// вместе с событием завершения.
type SyncResult = models.SyncResult

// Config зависимости координатора.
type Config struct {
	Client   api.ClientAPI
	Queue    *queue.Service
	Resolver *resolver.Resolver
	Records  storage.RecordStorage
	Metadata storage.MetadataStorage
	Monitor  *netstatus.Monitor
	Bus      *broadcast.Bus
	Logger   *slog.Logger
}

// Coordinator ведет цикл синхронизации: захват lease, отправка очереди
// отложенных операций, фоновое обновление данных и уборка. В один момент
// времени цикл ведет ровно один процесс - владелец lease; остальные
// пропускают цикл и читают общее хранилище.
type Coordinator struct {
	client   api.ClientAPI
	queue    *queue.Service
	resolver *resolver.Resolver
	records  storage.RecordStorage
	metadata storage.MetadataStorage
	monitor  *netstatus.Monitor
	bus      *broadcast.Bus
	logger   *slog.Logger

	ownerID string
	trigger chan struct{}

	// batchPause сокращается в тестах
	batchPause time.Duration
	now        func() time.Time

	mu    sync.Mutex
	state State
}

// NewCoordinator creates a new sync coordinator
func NewCoordinator(cfg Config) *Coordinator {
	return &Coordinator{
		client:     cfg.Client,
		queue:      cfg.Queue,
		resolver:   cfg.Resolver,
		records:    cfg.Records,
		metadata:   cfg.Metadata,
		monitor:    cfg.Monitor,
		bus:        cfg.Bus,
		logger:     cfg.Logger,
		ownerID:    uuid.NewString(),
		trigger:    make(chan struct{}, 1),
		batchPause: drainBatchPause,
		now:        time.Now,
		state:      StateIdle,
	}
}

// State возвращает текущее состояние координатора.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OwnerID возвращает идентификатор этого координатора в lease.
func (c *Coordinator) OwnerID() string {
	return c.ownerID
}

// Trigger запрашивает внеочередной цикл синхронизации, не дожидаясь
// таймера. Повторный запрос во время ожидания схлопывается.
func (c *Coordinator) Trigger() {
	c.bus.Publish(broadcast.Message{Kind: broadcast.KindRefreshRequested})
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Run ведет фоновые циклы синхронизации до отмены контекста.
// Цикл запускается по таймеру, по Trigger и при восстановлении сети.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	transitions := c.monitor.Subscribe(ctx)

	// Первый цикл сразу: устройство могло накопить очередь до запуска
	c.Trigger()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-c.trigger:
		case online, ok := <-transitions:
			if !ok {
				return ctx.Err()
			}
			if !online {
				c.setState(StateOffline)
				continue
			}
			c.logger.Info("network restored, starting sync cycle")
		}

		if _, err := c.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Warn("sync cycle failed", "error", err)
		}
	}
}

// SyncNow выполняет цикл синхронизации немедленно. Без связи с сервером
// завершается сразу с ErrOffline: вызывающий не должен ждать таймаутов.
func (c *Coordinator) SyncNow(ctx context.Context) (*SyncResult, error) {
	if !c.monitor.Probe(ctx, true) {
		c.setState(StateOffline)
		return nil, api.ErrOffline
	}
	return c.cycle(ctx)
}

// cycle выполняет один полный цикл синхронизации
func (c *Coordinator) cycle(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{}

	if !c.monitor.Online() && !c.monitor.Probe(ctx, false) {
		c.setState(StateOffline)
		return result, nil
	}

	c.setState(StateAcquiringLease)
	if _, err := c.metadata.AcquireLease(ctx, c.ownerID, LeaseTTL); err != nil {
		c.setState(StateIdle)
		if errors.Is(err, storage.ErrLeaseHeld) {
			c.logger.Debug("sync lease held by another process, skipping cycle")
			result.LeaseSkipped = true
			return result, nil
		}
		return nil, fmt.Errorf("failed to acquire sync lease: %w", err)
	}
	defer func() {
		if err := c.metadata.ReleaseLease(context.WithoutCancel(ctx), c.ownerID); err != nil {
			c.logger.Warn("failed to release sync lease", "error", err)
		}
	}()

	c.setState(StateDrainingQueue)
	if err := c.drainQueue(ctx, result); err != nil {
		c.setState(StateOffline)
		return result, err
	}

	c.setState(StateRefreshingData)
	if err := c.refreshData(ctx, result); err != nil {
		c.setState(StateOffline)
		return result, err
	}

	c.runJanitor(ctx)

	c.bus.Publish(broadcast.Message{Kind: broadcast.KindSyncCompleted, Result: result})
	c.setState(StateIdle)

	c.logger.Info("sync cycle completed",
		"drained", result.DrainedOperations,
		"failed", result.FailedOperations,
		"orders_refreshed", result.RefreshedOrders,
		"customers_refreshed", result.RefreshedCustomers,
		"conflicts", result.Conflicts)
	return result, nil
}

// runJanitor подчищает старые терминальные операции
func (c *Coordinator) runJanitor(ctx context.Context) {
	cutoff := c.now().Add(-janitorRetention)
	if _, err := c.queue.Prune(ctx, cutoff); err != nil {
		c.logger.Warn("queue janitor failed", "error", err)
	}
}

func (c *Coordinator) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

package sync

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/broadcast"
	"github.com/iudanet/possync/internal/client/netstatus"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/client/resolver"
	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/client/storage/sqlite"
	"github.com/iudanet/possync/internal/models"
)

// newOnlineMock возвращает мок API: сервер достижим, все списки пустые
func newOnlineMock() *api.ClientAPIMock {
	return &api.ClientAPIMock{
		HealthFunc: func(ctx context.Context) error { return nil },
		ListOrdersFunc: func(ctx context.Context, orderType models.OrderType) ([]*models.Order, error) {
			return nil, nil
		},
		ListMenuItemsFunc: func(ctx context.Context) ([]*models.MenuItem, error) {
			return nil, nil
		},
		ListCategoriesFunc: func(ctx context.Context) ([]*models.Category, error) {
			return nil, nil
		},
		ListCustomersFunc: func(ctx context.Context) ([]*models.Customer, error) {
			return nil, nil
		},
	}
}

func setupCoordinator(t *testing.T, mock *api.ClientAPIMock) (*Coordinator, *sqlite.Storage, *queue.Service) {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	queueSvc := queue.NewService(store, logger)
	bus := broadcast.NewBus(logger)
	t.Cleanup(bus.Close)

	coordinator := NewCoordinator(Config{
		Client:   mock,
		Queue:    queueSvc,
		Resolver: resolver.New(logger),
		Records:  store,
		Metadata: store,
		Monitor:  netstatus.NewMonitor(mock, logger),
		Bus:      bus,
		Logger:   logger,
	})
	coordinator.batchPause = time.Millisecond
	return coordinator, store, queueSvc
}

// TestCoordinator_SyncNow_Offline проверяет быстрый отказ без связи
func TestCoordinator_SyncNow_Offline(t *testing.T) {
	mock := newOnlineMock()
	mock.HealthFunc = func(ctx context.Context) error {
		return errors.New("connection refused")
	}
	coordinator, _, _ := setupCoordinator(t, mock)

	_, err := coordinator.SyncNow(context.Background())
	assert.ErrorIs(t, err, api.ErrOffline)
	assert.Equal(t, StateOffline, coordinator.State())
}

// TestCoordinator_OfflineCreateRecover проверяет полный путь заказа,
// созданного офлайн: drain очереди, подтверждение сервером и перепривязка
// к серверному id
func TestCoordinator_OfflineCreateRecover(t *testing.T) {
	ctx := context.Background()
	mock := newOnlineMock()
	mock.DoFunc = func(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
		return []byte(`{"id":"ord-9"}`), nil
	}
	coordinator, store, queueSvc := setupCoordinator(t, mock)
	events := coordinator.bus.Subscribe(ctx)

	// Заказ создан офлайн
	require.NoError(t, store.SaveOrder(ctx, &models.Order{
		ID:        "local-1",
		LocalID:   "local-1",
		Type:      models.OrderTypeDineIn,
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}))
	_, err := queueSvc.Enqueue(ctx, &models.PendingOperation{
		Type:     models.OpTypeCreateOrder,
		Method:   "POST",
		Endpoint: "/api/orders",
		Body:     []byte(`{"type":"dine_in"}`),
		Priority: queue.PriorityHigh,
		EntityID: "local-1",
	})
	require.NoError(t, err)

	result, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DrainedOperations)
	assert.Zero(t, result.FailedOperations)
	assert.False(t, result.LeaseSkipped)
	assert.Equal(t, StateIdle, coordinator.State())

	// Заказ перепривязан к серверному id
	order, err := store.GetOrder(ctx, "ord-9")
	require.NoError(t, err)
	assert.Equal(t, "local-1", order.LocalID)
	assert.True(t, order.Synced)

	// Очередь пуста
	count, err := queueSvc.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Подтвержденное создание оповещает подписчиков ровно один раз
	created := 0
	for drained := false; !drained; {
		select {
		case msg := <-events:
			if msg.Kind == broadcast.KindDataCreated {
				created++
				assert.Equal(t, "ord-9", msg.EntityID)
			}
		default:
			drained = true
		}
	}
	assert.Equal(t, 1, created)
}

// TestServerIssuedID проверяет извлечение id из разных форм ответа
func TestServerIssuedID(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"flat string id", `{"id":"ord-1"}`, "ord-1"},
		{"flat numeric id", `{"id":42}`, "42"},
		{"data envelope", `{"data":{"id":"ord-2"}}`, "ord-2"},
		{"order envelope numeric", `{"order":{"id":711}}`, "711"},
		{"no id", `{"status":"created"}`, ""},
		{"empty payload", ``, ""},
		{"array payload", `[{"id":"ord-3"}]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serverIssuedID([]byte(tt.payload)))
		})
	}
}

// TestCoordinator_BenignConflictCompletes проверяет, что конфликт
// "уже существует" завершает операцию как успешную
func TestCoordinator_BenignConflictCompletes(t *testing.T) {
	ctx := context.Background()
	mock := newOnlineMock()
	mock.DoFunc = func(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
		return nil, &api.Error{StatusCode: http.StatusConflict, Message: "order already exists"}
	}
	coordinator, _, queueSvc := setupCoordinator(t, mock)

	_, err := queueSvc.Enqueue(ctx, &models.PendingOperation{
		Type:     models.OpTypeCreateOrder,
		Method:   "POST",
		Endpoint: "/api/orders",
		Body:     []byte(`{"type":"takeaway"}`),
	})
	require.NoError(t, err)

	result, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DrainedOperations)
	assert.Zero(t, result.FailedOperations)

	count, err := queueSvc.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// TestCoordinator_DrainAbortsOffline проверяет, что потеря сети во время
// drain оставляет операцию в очереди без потраченной попытки
func TestCoordinator_DrainAbortsOffline(t *testing.T) {
	ctx := context.Background()
	mock := newOnlineMock()
	mock.DoFunc = func(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
		return nil, api.ErrOffline
	}
	coordinator, store, queueSvc := setupCoordinator(t, mock)

	op, err := queueSvc.Enqueue(ctx, &models.PendingOperation{
		Type:     models.OpTypeCreateOrder,
		Method:   "POST",
		Endpoint: "/api/orders",
		Body:     []byte(`{"type":"dine_in"}`),
	})
	require.NoError(t, err)

	_, err = coordinator.SyncNow(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrOffline)

	stored, err := store.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OperationStatusPending, stored.Status)
	assert.Zero(t, stored.RetryCount)
}

// TestCoordinator_LeaseSkip проверяет, что цикл пропускается,
// пока lease держит другой процесс
func TestCoordinator_LeaseSkip(t *testing.T) {
	ctx := context.Background()
	coordinator, store, _ := setupCoordinator(t, newOnlineMock())

	_, err := store.AcquireLease(ctx, "other-process", LeaseTTL)
	require.NoError(t, err)

	result, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)
	assert.True(t, result.LeaseSkipped)

	// Чужой lease остался на месте
	lease, err := store.GetLease(ctx)
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.Equal(t, "other-process", lease.OwnerID)
}

// TestCoordinator_LeaseReleasedAfterCycle проверяет освобождение lease
// после цикла: второй координатор может синхронизироваться сразу
func TestCoordinator_LeaseReleasedAfterCycle(t *testing.T) {
	ctx := context.Background()
	coordinator, store, _ := setupCoordinator(t, newOnlineMock())

	_, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)

	_, err = store.AcquireLease(ctx, "other-process", LeaseTTL)
	assert.NoError(t, err, "lease must be free after a completed cycle")
}

// TestCoordinator_RefreshMergesOrders проверяет слияние серверных заказов
// с локальными по правилам резолвера
func TestCoordinator_RefreshMergesOrders(t *testing.T) {
	ctx := context.Background()
	mock := newOnlineMock()
	mock.ListOrdersFunc = func(ctx context.Context, orderType models.OrderType) ([]*models.Order, error) {
		if orderType != models.OrderTypeDineIn {
			return nil, nil
		}
		return []*models.Order{
			{ID: "ord-1", Type: models.OrderTypeDineIn, Status: models.OrderStatusPending, Synced: true},
		}, nil
	}
	coordinator, store, _ := setupCoordinator(t, mock)

	// Локально заказ уже продвинут кассиром, операция еще не подтверждена
	require.NoError(t, store.SaveOrder(ctx, &models.Order{
		ID:                "ord-1",
		Type:              models.OrderTypeDineIn,
		Status:            models.OrderStatusPreparing,
		LocallyOverridden: true,
		Synced:            true,
	}))

	result, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RefreshedOrders)

	// Отставший серверный статус не откатил локальный
	order, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, order.Status)
	assert.True(t, order.LocallyOverridden)
}

// TestCoordinator_AdoptsTempOrder проверяет привязку офлайн-заказа
// к двойнику, уже появившемуся на сервере
func TestCoordinator_AdoptsTempOrder(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Now().UTC()
	mock := newOnlineMock()
	mock.ListOrdersFunc = func(ctx context.Context, orderType models.OrderType) ([]*models.Order, error) {
		if orderType != models.OrderTypeDelivery {
			return nil, nil
		}
		return []*models.Order{
			{
				ID:         "ord-77",
				Type:       models.OrderTypeDelivery,
				Status:     models.OrderStatusConfirmed,
				CustomerID: "cust-5",
				CreatedAt:  createdAt,
				Synced:     true,
			},
		}, nil
	}
	coordinator, store, _ := setupCoordinator(t, mock)

	require.NoError(t, store.SaveOrder(ctx, &models.Order{
		ID:         "local-7",
		LocalID:    "local-7",
		Type:       models.OrderTypeDelivery,
		Status:     models.OrderStatusPending,
		CustomerID: "cust-5",
		CreatedAt:  createdAt,
	}))

	_, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)

	order, err := store.GetOrder(ctx, "ord-77")
	require.NoError(t, err)
	assert.Equal(t, "local-7", order.LocalID)
	assert.True(t, order.Synced)

	unsynced, err := store.ListUnsyncedOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

// TestCoordinator_DualWriterConvergence проверяет сценарий двух процессов
// над общим хранилищем: оба поставили операции в очередь, лидер отправляет
// обе, и итоговый статус заказа одинаков с точки зрения обоих
func TestCoordinator_DualWriterConvergence(t *testing.T) {
	ctx := context.Background()
	mock := newOnlineMock()
	mock.DoFunc = func(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
		return []byte(`{}`), nil
	}
	leader, store, queueSvc := setupCoordinator(t, mock)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	followerBus := broadcast.NewBus(logger)
	t.Cleanup(followerBus.Close)
	follower := NewCoordinator(Config{
		Client:   mock,
		Queue:    queue.NewService(store, logger),
		Resolver: resolver.New(logger),
		Records:  store,
		Metadata: store,
		Monitor:  netstatus.NewMonitor(mock, logger),
		Bus:      followerBus,
		Logger:   logger,
	})
	follower.batchPause = time.Millisecond

	require.NoError(t, store.SaveOrder(ctx, &models.Order{
		ID:                "ord-1",
		Type:              models.OrderTypeDineIn,
		Status:            models.OrderStatusReady,
		LocallyOverridden: true,
		Synced:            true,
	}))

	// Каждый процесс поставил в очередь свой апдейт того же заказа
	_, err := queueSvc.Enqueue(ctx, &models.PendingOperation{
		Type:     models.OpTypeUpdateOrderStatus,
		Method:   "PUT",
		Endpoint: "/api/orders/ord-1/status",
		Body:     []byte(`{"status":"preparing"}`),
		EntityID: "ord-1",
	})
	require.NoError(t, err)
	_, err = follower.queue.Enqueue(ctx, &models.PendingOperation{
		Type:     models.OpTypeUpdateOrderStatus,
		Method:   "PUT",
		Endpoint: "/api/orders/ord-1/status",
		Body:     []byte(`{"status":"ready"}`),
		EntityID: "ord-1",
	})
	require.NoError(t, err)

	// Пока лидер держит lease, второй процесс пропускает цикл
	_, err = store.AcquireLease(ctx, leader.OwnerID(), LeaseTTL)
	require.NoError(t, err)
	result, err := follower.SyncNow(ctx)
	require.NoError(t, err)
	assert.True(t, result.LeaseSkipped)

	// Лидер отправляет обе операции: очередь общая, ничего не теряется
	result, err = leader.SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.DrainedOperations)
	assert.Len(t, mock.DoCalls(), 2)

	count, err := queueSvc.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Оба процесса читают одно хранилище и видят один и тот же статус
	fromLeader, err := store.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	fromFollower, err := follower.records.GetOrder(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, fromLeader.Status, fromFollower.Status)
	assert.False(t, fromLeader.LocallyOverridden)
}

// TestCoordinator_ReferenceRefreshInterval проверяет, что справочные данные
// не перезапрашиваются раньше своего интервала
func TestCoordinator_ReferenceRefreshInterval(t *testing.T) {
	ctx := context.Background()
	mock := newOnlineMock()
	coordinator, _, _ := setupCoordinator(t, mock)

	first, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)
	assert.True(t, first.ReferenceRefreshed)
	menuCalls := len(mock.ListMenuItemsCalls())

	second, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)
	assert.False(t, second.ReferenceRefreshed)
	assert.Equal(t, menuCalls, len(mock.ListMenuItemsCalls()))
}

// TestCoordinator_PublishesSyncCompleted проверяет оповещение подписчиков
// о завершении цикла
func TestCoordinator_PublishesSyncCompleted(t *testing.T) {
	ctx := context.Background()
	coordinator, _, _ := setupCoordinator(t, newOnlineMock())

	events := coordinator.bus.Subscribe(ctx)

	_, err := coordinator.SyncNow(ctx)
	require.NoError(t, err)

	deadline := time.After(time.Second)
	for {
		select {
		case msg := <-events:
			if msg.Kind == broadcast.KindSyncCompleted {
				require.NotNil(t, msg.Result, "completion event carries cycle results")
				assert.False(t, msg.At.IsZero())
				return
			}
		case <-deadline:
			t.Fatal("sync_completed event was not published")
		}
	}
}

// TestCoordinator_TriggerAnnouncesRefresh проверяет, что запрос
// внеочередного цикла оповещает подписчиков
func TestCoordinator_TriggerAnnouncesRefresh(t *testing.T) {
	ctx := context.Background()
	coordinator, _, _ := setupCoordinator(t, newOnlineMock())

	events := coordinator.bus.Subscribe(ctx)
	coordinator.Trigger()

	select {
	case msg := <-events:
		assert.Equal(t, broadcast.KindRefreshRequested, msg.Kind)
	case <-time.After(time.Second):
		t.Fatal("refresh_requested event was not published")
	}
}

// TestCoordinator_JanitorPrunesOldTerminal проверяет уборку старых
// терминальных операций
func TestCoordinator_JanitorPrunesOldTerminal(t *testing.T) {
	ctx := context.Background()
	coordinator, store, queueSvc := setupCoordinator(t, newOnlineMock())

	old, err := store.InsertOperation(ctx, &models.PendingOperation{
		IdempotencyKey: models.IdempotencyKey("POST", "/api/expenses", []byte(`{}`)),
		Type:           models.OpTypeCreateExpense,
		Method:         "POST",
		Endpoint:       "/api/expenses",
		Status:         models.OperationStatusPending,
	})
	require.NoError(t, err)
	require.NoError(t, queueSvc.MarkCompleted(ctx, old))

	// Состариваем операцию за горизонт хранения
	coordinator.now = func() time.Time {
		return time.Now().Add(janitorRetention + time.Hour)
	}

	_, err = coordinator.SyncNow(ctx)
	require.NoError(t, err)

	_, err = store.GetOperation(ctx, old.ID)
	assert.ErrorIs(t, err, storage.ErrOperationNotFound)
}

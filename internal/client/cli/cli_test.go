package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/broadcast"
	"github.com/iudanet/possync/internal/client/cache"
	"github.com/iudanet/possync/internal/client/netstatus"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/client/resolver"
	"github.com/iudanet/possync/internal/client/session"
	"github.com/iudanet/possync/internal/client/storage/sqlite"
	"github.com/iudanet/possync/internal/client/sync"
	"github.com/iudanet/possync/internal/models"
)

// testIO буферизует вывод команд и отдает заранее заданный ввод
type testIO struct {
	out    bytes.Buffer
	inputs []string
}

func (t *testIO) Println(a ...any) {
	fmt.Fprintln(&t.out, a...)
}

func (t *testIO) Printf(format string, a ...any) {
	fmt.Fprintf(&t.out, format, a...)
}

func (t *testIO) ReadInput(prompt string) (string, error) {
	return t.next()
}

func (t *testIO) ReadPassword(prompt string) (string, error) {
	return t.next()
}

func (t *testIO) Write(p []byte) (n int, err error) {
	return t.out.Write(p)
}

func (t *testIO) next() (string, error) {
	if len(t.inputs) == 0 {
		return "", io.EOF
	}
	line := t.inputs[0]
	t.inputs = t.inputs[1:]
	return line, nil
}

type cliFixture struct {
	cli     *Cli
	io      *testIO
	store   *sqlite.Storage
	session *session.Store
	queue   *queue.Service
	mock    *api.ClientAPIMock
}

func setupCli(t *testing.T, mock *api.ClientAPIMock) *cliFixture {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	sessionStore := session.NewStore(store, logger)
	cacheService := cache.NewService(store, store, logger)
	interceptor := api.NewInterceptor(mock, cacheService, sessionStore, logger)
	queueSvc := queue.NewService(store, logger)
	monitor := netstatus.NewMonitor(mock, logger)
	bus := broadcast.NewBus(logger)
	t.Cleanup(bus.Close)

	coordinator := sync.NewCoordinator(sync.Config{
		Client:   mock,
		Queue:    queueSvc,
		Resolver: resolver.New(logger),
		Records:  store,
		Metadata: store,
		Monitor:  monitor,
		Bus:      bus,
		Logger:   logger,
	})

	out := &testIO{}
	c := New(Deps{
		IO:          out,
		Interceptor: interceptor,
		Session:     sessionStore,
		Queue:       queueSvc,
		Records:     store,
		Metadata:    store,
		Monitor:     monitor,
		Coordinator: coordinator,
		ListenAddr:  "127.0.0.1:0",
	})

	return &cliFixture{
		cli:     c,
		io:      out,
		store:   store,
		session: sessionStore,
		queue:   queueSvc,
		mock:    mock,
	}
}

func onlineMock() *api.ClientAPIMock {
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

func TestCli_Status(t *testing.T) {
	ctx := context.Background()
	f := setupCli(t, onlineMock())

	_, err := f.queue.Enqueue(ctx, &models.PendingOperation{
		Type:     models.OpTypeCreateOrder,
		Method:   http.MethodPost,
		Endpoint: "/api/orders",
		Body:     []byte(`{"type":"takeaway"}`),
	})
	require.NoError(t, err)

	require.NoError(t, f.cli.runStatus(ctx))

	out := f.io.out.String()
	assert.Contains(t, out, "Connectivity: online")
	assert.Contains(t, out, "Session: none")
	assert.Contains(t, out, "Pending operations: 1")
	assert.Contains(t, out, "Sync lease: free")
}

func TestCli_Status_Offline(t *testing.T) {
	ctx := context.Background()
	mock := onlineMock()
	mock.HealthFunc = func(ctx context.Context) error {
		return errors.New("connection refused")
	}
	f := setupCli(t, mock)

	require.NoError(t, f.session.Save(ctx, "token-1"))
	require.NoError(t, f.cli.runStatus(ctx))

	out := f.io.out.String()
	assert.Contains(t, out, "Connectivity: offline")
	assert.Contains(t, out, "Session: active")
	assert.Contains(t, out, "Pending operations: none")
}

func TestCli_Login(t *testing.T) {
	ctx := context.Background()
	mock := onlineMock()
	mock.DoFunc = func(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
		assert.Equal(t, http.MethodPost, method)
		assert.Equal(t, "/api/auth/login", endpoint)
		assert.Contains(t, string(body), "waiter@cafe.local")
		return []byte(`{"token":"session-token-1"}`), nil
	}
	f := setupCli(t, mock)
	f.io.inputs = []string{"waiter@cafe.local", "secret"}

	require.NoError(t, f.cli.runLogin(ctx))

	token, err := f.session.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "session-token-1", token)
	assert.Contains(t, f.io.out.String(), "Logged in.")
}

func TestCli_Login_EmptyEmail(t *testing.T) {
	f := setupCli(t, onlineMock())
	f.io.inputs = []string{"", "secret"}

	err := f.cli.runLogin(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")
}

func TestCli_Login_NoToken(t *testing.T) {
	mock := onlineMock()
	mock.DoFunc = func(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
		return []byte(`{}`), nil
	}
	f := setupCli(t, mock)
	f.io.inputs = []string{"waiter@cafe.local", "secret"}

	err := f.cli.runLogin(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session token")
}

func TestCli_Logout(t *testing.T) {
	ctx := context.Background()
	f := setupCli(t, onlineMock())

	require.NoError(t, f.session.Save(ctx, "token-1"))
	require.NoError(t, f.cli.runLogout(ctx))

	token, err := f.session.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Contains(t, f.io.out.String(), "Logged out.")
}

func TestCli_Queue(t *testing.T) {
	ctx := context.Background()
	f := setupCli(t, onlineMock())

	_, err := f.queue.Enqueue(ctx, &models.PendingOperation{
		Type:     models.OpTypeCreateOrder,
		Method:   http.MethodPost,
		Endpoint: "/api/orders",
		Body:     []byte(`{"type":"dine_in"}`),
	})
	require.NoError(t, err)

	require.NoError(t, f.cli.runQueue(ctx, nil))

	out := f.io.out.String()
	assert.Contains(t, out, "POST /api/orders")
	assert.Contains(t, out, models.OpTypeCreateOrder)
}

func TestCli_Queue_NoFailed(t *testing.T) {
	f := setupCli(t, onlineMock())

	require.NoError(t, f.cli.runQueue(context.Background(), []string{"-status=failed"}))
	assert.Contains(t, f.io.out.String(), "No failed operations.")
}

func TestCli_Queue_UnknownStatus(t *testing.T) {
	f := setupCli(t, onlineMock())

	err := f.cli.runQueue(context.Background(), []string{"-status=done"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestCli_Orders(t *testing.T) {
	ctx := context.Background()
	f := setupCli(t, onlineMock())

	require.NoError(t, f.store.SaveOrder(ctx, &models.Order{
		ID:            "local-1",
		LocalID:       "local-1",
		Type:          models.OrderTypeTakeaway,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Total:         12.50,
		CreatedAt:     time.Now(),
	}))
	require.NoError(t, f.store.SaveOrder(ctx, &models.Order{
		ID:            "ord-2",
		Type:          models.OrderTypeDelivery,
		Status:        models.OrderStatusConfirmed,
		PaymentStatus: models.PaymentStatusCompleted,
		Total:         30,
		CreatedAt:     time.Now(),
		Synced:        true,
	}))

	require.NoError(t, f.cli.runOrders(ctx, nil))

	out := f.io.out.String()
	assert.Contains(t, out, "local-1")
	assert.Contains(t, out, "no (offline)")
	assert.Contains(t, out, "ord-2")

	f.io.out.Reset()
	require.NoError(t, f.cli.runOrders(ctx, []string{"-type=delivery"}))
	out = f.io.out.String()
	assert.Contains(t, out, "ord-2")
	assert.NotContains(t, out, "local-1")
}

func TestCli_Orders_Empty(t *testing.T) {
	f := setupCli(t, onlineMock())

	require.NoError(t, f.cli.runOrders(context.Background(), nil))
	assert.Contains(t, f.io.out.String(), "No orders.")
}

func TestCli_Menu(t *testing.T) {
	ctx := context.Background()
	f := setupCli(t, onlineMock())

	items := []*models.MenuItem{
		{ID: "mi-1", CategoryID: "cat-1", Name: "Margherita", Price: 9.90, Available: true},
		{ID: "mi-2", CategoryID: "cat-1", Name: "Calzone", Price: 11.50, Available: false},
		{ID: "mi-3", CategoryID: "cat-missing", Name: "Special", Price: 15, Available: true},
	}
	categories := []*models.Category{
		{ID: "cat-1", Name: "Pizza", Position: 1},
	}
	require.NoError(t, f.store.ReplaceMenu(ctx, items, categories))

	require.NoError(t, f.cli.runMenu(ctx))

	out := f.io.out.String()
	assert.Contains(t, out, "Pizza")
	assert.Contains(t, out, "Margherita")
	assert.Contains(t, out, "unavailable")
	// позиция без категории тоже выводится
	assert.Contains(t, out, "Special")
}

func TestCli_Menu_Empty(t *testing.T) {
	f := setupCli(t, onlineMock())

	require.NoError(t, f.cli.runMenu(context.Background()))
	assert.Contains(t, f.io.out.String(), "Menu is empty.")
}

func TestCli_Sync_Offline(t *testing.T) {
	mock := onlineMock()
	mock.HealthFunc = func(ctx context.Context) error {
		return errors.New("no route to host")
	}
	f := setupCli(t, mock)

	err := f.cli.runSync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}

func TestCli_Sync(t *testing.T) {
	f := setupCli(t, onlineMock())

	require.NoError(t, f.cli.runSync(context.Background()))

	out := f.io.out.String()
	assert.Contains(t, out, "Synchronization completed")
	assert.Contains(t, out, "Reference data (menu, categories) refreshed")
}

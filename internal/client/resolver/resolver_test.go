package resolver

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/possync/internal/models"
)

func newTestResolver() *Resolver {
	return New(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func order(status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:            "ord-1",
		Type:          models.OrderTypeDineIn,
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
	}
}

// TestResolver_Resolve_StatusPrecedence проверяет правила выбора статуса
func TestResolver_Resolve_StatusPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		local      models.OrderStatus
		server     models.OrderStatus
		overridden bool
		want       models.OrderStatus
	}{
		{
			name:   "server ahead wins",
			local:  models.OrderStatusConfirmed,
			server: models.OrderStatusReady,
			want:   models.OrderStatusReady,
		},
		{
			name:   "server behind ignored",
			local:  models.OrderStatusReady,
			server: models.OrderStatusConfirmed,
			want:   models.OrderStatusReady,
		},
		{
			name:       "local override wins over stale server",
			local:      models.OrderStatusPreparing,
			server:     models.OrderStatusPending,
			overridden: true,
			want:       models.OrderStatusPreparing,
		},
		{
			// Пока флаг стоит, серверное значение отбрасывается целиком,
			// даже если сервер ушел дальше по жизненному циклу
			name:       "override retained against server ahead",
			local:      models.OrderStatusPreparing,
			server:     models.OrderStatusCompleted,
			overridden: true,
			want:       models.OrderStatusPreparing,
		},
		{
			name:   "local cancellation absorbs",
			local:  models.OrderStatusCancelled,
			server: models.OrderStatusCompleted,
			want:   models.OrderStatusCancelled,
		},
		{
			name:   "server cancellation absorbs",
			local:  models.OrderStatusReady,
			server: models.OrderStatusCancelled,
			want:   models.OrderStatusCancelled,
		},
		{
			// Отмена с сервера дойдет следующим циклом, когда drain
			// подтвердит локальную операцию и снимет флаг
			name:       "server cancellation deferred by override",
			local:      models.OrderStatusReady,
			server:     models.OrderStatusCancelled,
			overridden: true,
			want:       models.OrderStatusReady,
		},
		{
			name:   "equal statuses stay",
			local:  models.OrderStatusConfirmed,
			server: models.OrderStatusConfirmed,
			want:   models.OrderStatusConfirmed,
		},
	}

	r := newTestResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := order(tt.local)
			local.LocallyOverridden = tt.overridden
			server := order(tt.server)

			merged := r.Resolve(local, server)
			assert.Equal(t, tt.want, merged.Status)
		})
	}
}

// TestResolver_Resolve_CommutativeForStatus проверяет независимость итога
// от того, какая сторона пришла первой
func TestResolver_Resolve_CommutativeForStatus(t *testing.T) {
	r := newTestResolver()

	statuses := []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
	}

	for _, a := range statuses {
		for _, b := range statuses {
			ab := r.Resolve(order(a), order(b))
			ba := r.Resolve(order(b), order(a))
			assert.Equal(t, ab.Status, ba.Status, "a=%s b=%s", a, b)
		}
	}
}

// TestResolver_Resolve_PaymentForcesCompletion проверяет, что завершенная
// оплата дотягивает статус заказа до completed
func TestResolver_Resolve_PaymentForcesCompletion(t *testing.T) {
	r := newTestResolver()

	local := order(models.OrderStatusReady)
	server := order(models.OrderStatusReady)
	server.PaymentStatus = models.PaymentStatusCompleted

	merged := r.Resolve(local, server)
	assert.Equal(t, models.OrderStatusCompleted, merged.Status)
	assert.Equal(t, models.PaymentStatusCompleted, merged.PaymentStatus)
}

// TestResolver_Resolve_PaymentDoesNotResurrectCancelled проверяет, что
// оплата не выводит заказ из отмены
func TestResolver_Resolve_PaymentDoesNotResurrectCancelled(t *testing.T) {
	r := newTestResolver()

	local := order(models.OrderStatusCancelled)
	server := order(models.OrderStatusReady)
	server.PaymentStatus = models.PaymentStatusCompleted

	merged := r.Resolve(local, server)
	assert.Equal(t, models.OrderStatusCancelled, merged.Status)
}

// TestResolver_Resolve_PaymentOverrideRetained проверяет, что флаг
// переопределения держит и статус оплаты
func TestResolver_Resolve_PaymentOverrideRetained(t *testing.T) {
	r := newTestResolver()

	local := order(models.OrderStatusReady)
	local.PaymentStatus = models.PaymentStatusPending
	local.LocallyOverridden = true

	server := order(models.OrderStatusReady)
	server.PaymentStatus = models.PaymentStatusCompleted

	merged := r.Resolve(local, server)
	assert.Equal(t, models.PaymentStatusPending, merged.PaymentStatus)
	assert.Equal(t, models.OrderStatusReady, merged.Status)
}

// TestResolver_Resolve_DeliverySeparateHierarchy проверяет независимое
// разрешение статуса доставки
func TestResolver_Resolve_DeliverySeparateHierarchy(t *testing.T) {
	r := newTestResolver()

	local := order(models.OrderStatusConfirmed)
	local.Type = models.OrderTypeDelivery
	local.DeliveryStatus = models.DeliveryStatusPickedUp

	server := order(models.OrderStatusReady)
	server.Type = models.OrderTypeDelivery
	server.DeliveryStatus = models.DeliveryStatusAssigned

	merged := r.Resolve(local, server)
	// Доставка взяла локальный (более продвинутый), статус заказа - серверный
	assert.Equal(t, models.DeliveryStatusPickedUp, merged.DeliveryStatus)
	assert.Equal(t, models.OrderStatusReady, merged.Status)
}

// TestResolver_Resolve_OneSided проверяет поведение при отсутствии одной стороны
func TestResolver_Resolve_OneSided(t *testing.T) {
	r := newTestResolver()

	serverOnly := r.Resolve(nil, order(models.OrderStatusReady))
	assert.Equal(t, models.OrderStatusReady, serverOnly.Status)

	localOnly := r.Resolve(order(models.OrderStatusConfirmed), nil)
	assert.Equal(t, models.OrderStatusConfirmed, localOnly.Status)
}

// TestResolver_Resolve_KeepsLocalLinkage проверяет сохранение локальных полей
func TestResolver_Resolve_KeepsLocalLinkage(t *testing.T) {
	r := newTestResolver()

	local := order(models.OrderStatusConfirmed)
	local.ID = "local-abc"
	local.LocalID = "local-abc"
	local.LocallyOverridden = true

	server := order(models.OrderStatusConfirmed)
	server.ID = "ord-42"
	server.Total = 150

	merged := r.Resolve(local, server)
	assert.Equal(t, "ord-42", merged.ID)
	assert.Equal(t, "local-abc", merged.LocalID)
	assert.True(t, merged.LocallyOverridden)
	assert.InDelta(t, 150.0, merged.Total, 0.001)

	// Аргументы не мутируются
	assert.Equal(t, "local-abc", local.ID)
	assert.Zero(t, server.LocalID)
}

// TestResolver_MatchTempOrder проверяет эвристику сопоставления офлайн-заказа
// с его серверным двойником
func TestResolver_MatchTempOrder(t *testing.T) {
	r := newTestResolver()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	local := &models.Order{
		ID:         "local-1",
		LocalID:    "local-1",
		Type:       models.OrderTypeDelivery,
		CustomerID: "cust-7",
		CreatedAt:  createdAt,
	}

	t.Run("matches by customer", func(t *testing.T) {
		candidates := []*models.Order{
			{ID: "ord-1", Type: models.OrderTypeDelivery, CustomerID: "cust-9"},
			{ID: "ord-2", Type: models.OrderTypeDelivery, CustomerID: "cust-7"},
		}
		match := r.MatchTempOrder(local, candidates)
		require.NotNil(t, match)
		assert.Equal(t, "ord-2", match.ID)
	})

	t.Run("zero creation time never matches by window", func(t *testing.T) {
		// Кандидат без отметки времени отстоит от любого заказа на сотни
		// лет - переполнение разницы не должно проходить окно
		candidates := []*models.Order{
			{ID: "ord-8", Type: models.OrderTypeDelivery, CustomerID: "cust-9"},
			{ID: "ord-2", Type: models.OrderTypeDelivery, CustomerID: "cust-7"},
		}
		match := r.MatchTempOrder(local, candidates)
		require.NotNil(t, match)
		assert.Equal(t, "ord-2", match.ID)

		anon := &models.Order{ID: "local-9", Type: models.OrderTypeDelivery, CreatedAt: createdAt}
		assert.Nil(t, r.MatchTempOrder(anon, []*models.Order{
			{ID: "ord-8", Type: models.OrderTypeDelivery},
		}))
	})

	t.Run("matches by creation time window", func(t *testing.T) {
		anon := &models.Order{
			ID:        "local-2",
			Type:      models.OrderTypeTakeaway,
			CreatedAt: createdAt,
		}
		candidates := []*models.Order{
			{ID: "ord-3", Type: models.OrderTypeTakeaway, CreatedAt: createdAt.Add(60 * time.Second)},
		}
		match := r.MatchTempOrder(anon, candidates)
		require.NotNil(t, match)
		assert.Equal(t, "ord-3", match.ID)
	})

	t.Run("type mismatch never matches", func(t *testing.T) {
		candidates := []*models.Order{
			{ID: "ord-4", Type: models.OrderTypeDineIn, CustomerID: "cust-7"},
		}
		assert.Nil(t, r.MatchTempOrder(local, candidates))
	})

	t.Run("outside time window stays separate", func(t *testing.T) {
		anon := &models.Order{
			ID:        "local-3",
			Type:      models.OrderTypeTakeaway,
			CreatedAt: createdAt,
		}
		candidates := []*models.Order{
			{ID: "ord-5", Type: models.OrderTypeTakeaway, CreatedAt: createdAt.Add(5 * time.Minute)},
		}
		assert.Nil(t, r.MatchTempOrder(anon, candidates))
	})

	t.Run("synced order is not matched", func(t *testing.T) {
		synced := &models.Order{ID: "ord-6", Type: models.OrderTypeDelivery, CustomerID: "cust-7"}
		assert.Nil(t, r.MatchTempOrder(synced, []*models.Order{
			{ID: "ord-7", Type: models.OrderTypeDelivery, CustomerID: "cust-7"},
		}))
	})
}

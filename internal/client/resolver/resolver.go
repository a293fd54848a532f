package resolver

import (
	"log/slog"
	"time"

	"github.com/iudanet/possync/internal/models"
)

// tempIDMatchWindow допуск по времени создания при сопоставлении
// локального заказа с серверным без общего идентификатора.
const tempIDMatchWindow = 90 * time.Second

// Resolver сводит локальное и серверное представление заказа в одно.
// Правила детерминированы и не зависят от порядка применения обновлений:
//   - локально переопределенный статус побеждает серверный, пока операция
//     из очереди не подтверждена;
//   - иначе серверный статус принимается, только если он не откатывает
//     заказ назад по жизненному циклу;
//   - cancelled поглощает: из него нет переходов ни вперед, ни назад;
//   - завершенная оплата дотягивает статус заказа до completed.
type Resolver struct {
	logger *slog.Logger
}

// New creates a new conflict resolver
func New(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve возвращает итоговое состояние заказа по локальной и серверной
// версии. Ни один из аргументов не мутируется.
func (r *Resolver) Resolve(local, server *models.Order) *models.Order {
	if local == nil {
		return normalized(server.Clone())
	}
	if server == nil {
		return normalized(local.Clone())
	}

	// База - серверная версия: серверные поля (id, total, items) первичны
	merged := server.Clone()
	merged.LocalID = local.LocalID
	merged.LocallyOverridden = local.LocallyOverridden

	merged.Status = r.resolveStatus(local, server)
	merged.PaymentStatus = resolvePayment(local.PaymentStatus, server.PaymentStatus, local.LocallyOverridden)
	merged.DeliveryStatus = resolveDelivery(local.DeliveryStatus, server.DeliveryStatus)

	return normalized(merged)
}

// MatchTempOrder ищет среди серверных заказов тот, что соответствует
// локальному заказу, созданному офлайн. Совпадением считается заказ того же
// типа с тем же клиентом или адресом, либо созданный в пределах допуска
// по времени. nil - совпадения нет, локальный заказ остается самостоятельным.
func (r *Resolver) MatchTempOrder(local *models.Order, candidates []*models.Order) *models.Order {
	if local == nil || local.HasServerID() {
		return nil
	}

	// Совпадение по контрагенту надежнее временного окна и проверяется
	// по всем кандидатам первым
	for _, candidate := range candidates {
		if candidate.Type != local.Type {
			continue
		}
		if local.CustomerID != "" && candidate.CustomerID == local.CustomerID {
			return candidate
		}
		if local.AddressID != "" && candidate.AddressID == local.AddressID {
			return candidate
		}
	}

	if local.CreatedAt.IsZero() {
		return nil
	}
	for _, candidate := range candidates {
		if candidate.Type != local.Type || candidate.CreatedAt.IsZero() {
			continue
		}
		// Без отрицания: разница за пределами int64 схлопывается к границе
		// и окно не проходит
		d := candidate.CreatedAt.Sub(local.CreatedAt)
		if d >= -tempIDMatchWindow && d <= tempIDMatchWindow {
			return candidate
		}
	}

	return nil
}

// resolveStatus выбирает итоговый статус заказа
func (r *Resolver) resolveStatus(local, server *models.Order) models.OrderStatus {
	if local.LocallyOverridden {
		// Локальное действие еще не подтверждено сервером: статус берется
		// как есть, серверное значение в этом цикле отбрасывается. Флаг
		// снимает drain после подтверждения операции, и следующий refresh
		// примет серверный статус обычным порядком.
		if local.Status != server.Status {
			r.logger.Debug("server status deferred by local override",
				"order", server.ID,
				"local", local.Status,
				"server", server.Status)
		}
		return local.Status
	}

	// Отмена с любой стороны окончательна
	if local.Status == models.OrderStatusCancelled || server.Status == models.OrderStatusCancelled {
		return models.OrderStatusCancelled
	}

	// Серверный статус принимается, только если не тянет заказ назад
	if local.Status.IsAheadOf(server.Status) {
		return local.Status
	}
	return server.Status
}

// resolvePayment выбирает итоговый статус оплаты
func resolvePayment(local, server models.PaymentStatus, overridden bool) models.PaymentStatus {
	if overridden {
		return local
	}
	if local.IsAheadOf(server) {
		return local
	}
	return server
}

// resolveDelivery выбирает итоговый статус доставки.
// Иерархия доставки отдельная и со статусом заказа не сравнивается.
func resolveDelivery(local, server models.DeliveryStatus) models.DeliveryStatus {
	if local == models.DeliveryStatusCancelled || server == models.DeliveryStatusCancelled {
		return models.DeliveryStatusCancelled
	}
	if local.IsAheadOf(server) {
		return local
	}
	return server
}

// normalized применяет межполевые инварианты к итоговому заказу
func normalized(order *models.Order) *models.Order {
	// Полная оплата означает, что заказ завершен, если он не отменен
	if order.PaymentStatus == models.PaymentStatusCompleted &&
		order.Status != models.OrderStatusCancelled {
		order.Status = models.OrderStatusCompleted
	}
	return order
}

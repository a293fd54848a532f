package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/broadcast"
	"github.com/iudanet/possync/internal/models"
)

// attemptOutcome результат сетевой попытки одной операции
type attemptOutcome struct {
	payload []byte
	err     error
}

// drainQueue отправляет накопленные операции пачками. Порядок задает
// хранилище очереди (приоритет, затем время создания); пачка уходит
// параллельно, между пачками выдерживается пауза, чтобы не задавить
// только что восстановившийся backend.
func (c *Coordinator) drainQueue(ctx context.Context, result *SyncResult) error {
	for {
		batch, err := c.queue.ListDue(ctx, drainBatchSize)
		if err != nil {
			return fmt.Errorf("failed to list due operations: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		// Долгий drain не должен ронять lease
		if _, err := c.metadata.AcquireLease(ctx, c.ownerID, LeaseTTL); err != nil {
			return fmt.Errorf("failed to extend sync lease during drain: %w", err)
		}

		outcomes := make([]attemptOutcome, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, op := range batch {
			g.Go(func() error {
				payload, err := c.client.Do(gctx, op.Method, op.Endpoint, op.Body)
				outcomes[i] = attemptOutcome{payload: payload, err: err}
				return nil
			})
		}
		_ = g.Wait()

		wentOffline := false
		for i, op := range batch {
			outcome := outcomes[i]
			switch {
			case outcome.err == nil:
				c.monitor.ReportSuccess()
				if err := c.queue.MarkCompleted(ctx, op); err != nil {
					return err
				}
				c.finalizeOperation(ctx, op, outcome.payload)
				result.DrainedOperations++

			case api.IsConnectivity(outcome.err):
				// Сеть пропала во время drain: операция остается pending,
				// попытка не тратится
				c.monitor.ReportConnectivityFailure()
				wentOffline = true

			default:
				if err := c.queue.HandleFailure(ctx, op, outcome.err); err != nil {
					return err
				}
				if op.Status == models.OperationStatusCompleted {
					// Доброкачественный конфликт: намерение уже на сервере
					c.finalizeOperation(ctx, op, nil)
					result.DrainedOperations++
				} else {
					result.FailedOperations++
				}
			}
		}

		if wentOffline {
			return fmt.Errorf("queue drain interrupted: %w", api.ErrOffline)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.batchPause):
		}
	}
}

// finalizeOperation применяет последствия подтвержденной операции
// к локальным записям и оповещает подписчиков.
func (c *Coordinator) finalizeOperation(ctx context.Context, op *models.PendingOperation, payload []byte) {
	switch op.Type {
	case models.OpTypeCreateOrder:
		c.finalizeCreateOrder(ctx, op, payload)

	case models.OpTypeUpdateOrderStatus, models.OpTypeMarkAsPaid, models.OpTypeCancelOrder:
		c.clearLocalOverride(ctx, op.EntityID)
		c.bus.Publish(broadcast.Message{
			Kind:     broadcast.KindDataUpdated,
			Resource: models.ResourceOrders,
			EntityID: op.EntityID,
		})

	case models.OpTypeCreateCustomer, models.OpTypeCreateAddress, models.OpTypeDeleteAddress:
		c.bus.Publish(broadcast.Message{
			Kind:     broadcast.KindDataUpdated,
			Resource: models.ResourceCustomers,
			EntityID: op.EntityID,
		})

	case models.OpTypeCreateExpense:
		c.bus.Publish(broadcast.Message{
			Kind:     broadcast.KindDataUpdated,
			Resource: models.ResourceExpenses,
		})
	}
}

// finalizeCreateOrder перепривязывает офлайн-заказ к серверному id
func (c *Coordinator) finalizeCreateOrder(ctx context.Context, op *models.PendingOperation, payload []byte) {
	if op.EntityID == "" {
		return
	}

	finalID := op.EntityID
	serverID := serverIssuedID(payload)
	if serverID != "" {
		if err := c.records.ReplaceOrderID(ctx, op.EntityID, serverID); err != nil {
			c.logger.Warn("failed to rebind order to server id",
				"local_id", op.EntityID,
				"server_id", serverID,
				"error", err)
		} else {
			c.logger.Info("order confirmed by server",
				"local_id", op.EntityID,
				"server_id", serverID)
			finalID = serverID
		}
	}

	c.clearLocalOverride(ctx, finalID)
	c.bus.Publish(broadcast.Message{
		Kind:     broadcast.KindDataCreated,
		Resource: models.ResourceOrders,
		EntityID: finalID,
	})
}

// clearLocalOverride снимает флаг локального переопределения после
// подтверждения операции сервером
func (c *Coordinator) clearLocalOverride(ctx context.Context, entityID string) {
	if entityID == "" {
		return
	}

	order, err := c.records.GetOrder(ctx, entityID)
	if err != nil {
		return
	}
	if !order.LocallyOverridden {
		return
	}

	order.LocallyOverridden = false
	if err := c.records.SaveOrder(ctx, order); err != nil {
		c.logger.Warn("failed to clear local override", "order", entityID, "error", err)
	}
}

// serverIssuedID извлекает id созданной сущности из ответа сервера.
// Ответ может быть плоским объектом либо конвертом data/order,
// id - строкой либо числом.
func serverIssuedID(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}

	if id := issuedIDFromObject(payload); id != "" {
		return id
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return ""
	}
	for _, key := range []string{"data", "order", "result"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if id := issuedIDFromObject(raw); id != "" {
			return id
		}
	}
	return ""
}

func issuedIDFromObject(raw []byte) string {
	var obj struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj.ID) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(obj.ID, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(obj.ID, &n); err == nil {
		return n.String()
	}
	return ""
}

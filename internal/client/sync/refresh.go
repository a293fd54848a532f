package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/possync/internal/client/broadcast"
	"github.com/iudanet/possync/internal/models"
)

// refreshData обновляет локальные снимки с сервера. Справочные данные
// (меню, категории) живут долго и обновляются редко; операционные
// (заказы, клиенты) - часто. Каждый класс обновляется не раньше своего
// интервала с момента последнего успеха.
func (c *Coordinator) refreshData(ctx context.Context, result *SyncResult) error {
	if due, err := c.refreshDue(ctx, refreshClassReference, referenceRefreshInterval); err != nil {
		return err
	} else if due {
		if err := c.refreshReference(ctx); err != nil {
			return err
		}
		result.ReferenceRefreshed = true
	}

	if due, err := c.refreshDue(ctx, refreshClassOrders, operationalRefreshInterval); err != nil {
		return err
	} else if due {
		if err := c.refreshOrders(ctx, result); err != nil {
			return err
		}
	}

	if due, err := c.refreshDue(ctx, refreshClassCustomers, operationalRefreshInterval); err != nil {
		return err
	} else if due {
		if err := c.refreshCustomers(ctx, result); err != nil {
			return err
		}
	}

	return nil
}

// refreshDue проверяет, пора ли обновлять класс данных
func (c *Coordinator) refreshDue(ctx context.Context, dataClass string, interval time.Duration) (bool, error) {
	last, err := c.metadata.GetLastRefresh(ctx, dataClass)
	if err != nil {
		return false, fmt.Errorf("failed to get last refresh for %s: %w", dataClass, err)
	}
	return c.now().Sub(last) >= interval, nil
}

// markRefreshed сохраняет отметку успешного обновления класса данных
func (c *Coordinator) markRefreshed(ctx context.Context, dataClass string) {
	if err := c.metadata.SaveLastRefresh(ctx, dataClass, c.now().UTC()); err != nil {
		c.logger.Warn("failed to save refresh timestamp", "class", dataClass, "error", err)
	}
}

// refreshReference заменяет справочные данные целиком
func (c *Coordinator) refreshReference(ctx context.Context) error {
	var (
		items      []*models.MenuItem
		categories []*models.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = c.client.ListMenuItems(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = c.client.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to fetch reference data: %w", err)
	}

	if err := c.records.ReplaceMenu(ctx, items, categories); err != nil {
		return fmt.Errorf("failed to replace menu snapshot: %w", err)
	}

	c.markRefreshed(ctx, refreshClassReference)
	c.bus.Publish(broadcast.Message{Kind: broadcast.KindDataUpdated, Resource: models.ResourceMenuItems})
	c.bus.Publish(broadcast.Message{Kind: broadcast.KindDataUpdated, Resource: models.ResourceCategories})

	c.logger.Info("reference data refreshed",
		"menu_items", len(items),
		"categories", len(categories))
	return nil
}

// orderSegments сегменты, по которым обновляются недавние заказы
var orderSegments = []models.OrderType{
	models.OrderTypeDineIn,
	models.OrderTypeTakeaway,
	models.OrderTypeDelivery,
}

// refreshOrders сводит серверные заказы с локальными через резолвер.
// Заказы запрашиваются посегментно по типу. Сначала офлайн-заказы без
// серверного id сопоставляются с возможными серверными двойниками,
// затем каждая серверная версия сливается с локальной.
func (c *Coordinator) refreshOrders(ctx context.Context, result *SyncResult) error {
	var serverOrders []*models.Order
	for _, segment := range orderSegments {
		batch, err := c.client.ListOrders(ctx, segment)
		if err != nil {
			return fmt.Errorf("failed to fetch %s orders: %w", segment, err)
		}
		serverOrders = append(serverOrders, batch...)
	}

	c.adoptTempOrders(ctx, serverOrders)

	for _, server := range serverOrders {
		local, err := c.records.GetOrder(ctx, server.ID)
		if err != nil {
			local = nil
		}

		merged := c.resolver.Resolve(local, server)
		if err := c.records.SaveOrder(ctx, merged); err != nil {
			return fmt.Errorf("failed to save merged order %s: %w", server.ID, err)
		}

		result.RefreshedOrders++
		if local != nil && local.Status != merged.Status {
			result.Conflicts++
		}
	}

	c.markRefreshed(ctx, refreshClassOrders)
	c.bus.Publish(broadcast.Message{Kind: broadcast.KindDataUpdated, Resource: models.ResourceOrders})
	return nil
}

// adoptTempOrders привязывает офлайн-заказы к серверным двойникам,
// появившимся на сервере раньше, чем подтвердилась операция создания
// (повторная отправка, другой процесс успел раньше)
func (c *Coordinator) adoptTempOrders(ctx context.Context, serverOrders []*models.Order) {
	unsynced, err := c.records.ListUnsyncedOrders(ctx)
	if err != nil {
		c.logger.Warn("failed to list unsynced orders", "error", err)
		return
	}

	for _, local := range unsynced {
		match := c.resolver.MatchTempOrder(local, serverOrders)
		if match == nil {
			continue
		}
		if err := c.records.ReplaceOrderID(ctx, local.LocalID, match.ID); err != nil {
			c.logger.Warn("failed to adopt temp order",
				"local_id", local.LocalID,
				"server_id", match.ID,
				"error", err)
			continue
		}
		c.logger.Info("temp order matched to server order",
			"local_id", local.LocalID,
			"server_id", match.ID)
	}
}

// refreshCustomers обновляет снимки клиентов с адресами
func (c *Coordinator) refreshCustomers(ctx context.Context, result *SyncResult) error {
	customers, err := c.client.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch customers: %w", err)
	}

	for _, customer := range customers {
		if err := c.records.SaveCustomer(ctx, customer); err != nil {
			return fmt.Errorf("failed to save customer %s: %w", customer.ID, err)
		}
		result.RefreshedCustomers++
	}

	c.markRefreshed(ctx, refreshClassCustomers)
	c.bus.Publish(broadcast.Message{Kind: broadcast.KindDataUpdated, Resource: models.ResourceCustomers})
	return nil
}

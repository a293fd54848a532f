package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/possync/internal/client/api"
)

// runSync запускает цикл синхронизации немедленно
func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("Starting synchronization...")

	result, err := c.coordinator.SyncNow(ctx)
	if err != nil {
		if errors.Is(err, api.ErrOffline) {
			return fmt.Errorf("device is offline, queued operations will sync when connectivity returns")
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	if result.LeaseSkipped {
		c.io.Println("Another process is syncing right now, skipped.")
		return nil
	}

	c.io.Println("Synchronization completed:")
	c.io.Printf("  Operations pushed:   %d\n", result.DrainedOperations)
	c.io.Printf("  Operations failed:   %d\n", result.FailedOperations)
	c.io.Printf("  Orders refreshed:    %d\n", result.RefreshedOrders)
	c.io.Printf("  Customers refreshed: %d\n", result.RefreshedCustomers)
	c.io.Printf("  Conflicts resolved:  %d\n", result.Conflicts)
	if result.ReferenceRefreshed {
		c.io.Println("  Reference data (menu, categories) refreshed")
	}
	return nil
}

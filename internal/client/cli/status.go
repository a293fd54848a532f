package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/possync/internal/client/sync"
)

// runStatus показывает состояние клиента: сеть, сессию, очередь и lease
func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Sync Status ===")
	c.io.Println()

	if c.monitor.Probe(ctx, true) {
		c.io.Println("Connectivity: online")
	} else {
		c.io.Println("Connectivity: offline")
	}

	valid, err := c.session.IsValid(ctx)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if valid {
		c.io.Println("Session: active")
	} else {
		c.io.Println("Session: none (run 'possync login')")
	}

	pending, err := c.queue.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending operations: %w", err)
	}
	if pending > 0 {
		c.io.Printf("Pending operations: %d (run 'possync sync' to push)\n", pending)
	} else {
		c.io.Println("Pending operations: none")
	}

	lease, err := c.metadata.GetLease(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync lease: %w", err)
	}
	switch {
	case lease == nil:
		c.io.Println("Sync lease: free")
	case time.Since(lease.AcquiredAt) > sync.LeaseTTL:
		c.io.Printf("Sync lease: expired (last owner %s)\n", lease.OwnerID)
	default:
		c.io.Printf("Sync lease: held by %s since %s\n",
			lease.OwnerID, lease.AcquiredAt.Format(time.RFC3339))
	}

	return nil
}

package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/iudanet/possync/internal/models"
)

// runQueue показывает операции очереди
func (c *Cli) runQueue(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("queue", flag.ContinueOnError)
	status := fs.String("status", "pending", "Operation status to list (pending|failed)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		ops []*models.PendingOperation
		err error
	)
	switch *status {
	case "pending":
		ops, err = c.queue.ListPending(ctx)
	case "failed":
		ops, err = c.queue.ListFailed(ctx)
	default:
		return fmt.Errorf("unknown status %q, expected pending or failed", *status)
	}
	if err != nil {
		return fmt.Errorf("failed to list operations: %w", err)
	}

	if len(ops) == 0 {
		c.io.Printf("No %s operations.\n", *status)
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tENDPOINT\tRETRIES\tCREATED\tLAST ERROR")
	for _, op := range ops {
		lastError := op.LastError
		if len(lastError) > 48 {
			lastError = lastError[:45] + "..."
		}
		fmt.Fprintf(w, "%d\t%s\t%s %s\t%d\t%s\t%s\n",
			op.ID,
			op.Type,
			op.Method,
			op.Endpoint,
			op.RetryCount,
			op.CreatedAt.Local().Format(time.DateTime),
			lastError)
	}
	return w.Flush()
}

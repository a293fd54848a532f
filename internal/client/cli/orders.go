package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/iudanet/possync/internal/models"
)

// runOrders показывает локальные снимки заказов
func (c *Cli) runOrders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	orderType := fs.String("type", "", "Order type filter (dine_in|takeaway|delivery)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	orders, err := c.records.ListOrders(ctx, models.OrderType(*orderType))
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	if len(orders) == 0 {
		c.io.Println("No orders.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tPAYMENT\tTOTAL\tCREATED\tSYNCED")
	for _, order := range orders {
		synced := "yes"
		if !order.Synced {
			synced = "no (offline)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
			order.ID,
			order.Type,
			order.Status,
			order.PaymentStatus,
			order.Total,
			order.CreatedAt.Local().Format(time.DateTime),
			synced)
	}
	return w.Flush()
}

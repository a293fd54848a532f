package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/iudanet/possync/internal/models"
)

// runMenu показывает локальный снимок меню, сгруппированный по категориям
func (c *Cli) runMenu(ctx context.Context) error {
	categories, err := c.records.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	items, err := c.records.ListMenuItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to list menu items: %w", err)
	}

	if len(items) == 0 {
		c.io.Println("Menu is empty. Run 'possync sync' to fetch it.")
		return nil
	}

	byCategory := make(map[string][]*models.MenuItem)
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	for _, category := range categories {
		categoryItems := byCategory[category.ID]
		if len(categoryItems) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t\t\n", category.Name)
		for _, item := range categoryItems {
			availability := ""
			if !item.Available {
				availability = "unavailable"
			}
			fmt.Fprintf(w, "  %s\t%.2f\t%s\n", item.Name, item.Price, availability)
		}
		delete(byCategory, category.ID)
	}

	// Позиции без известной категории
	for _, orphans := range byCategory {
		for _, item := range orphans {
			fmt.Fprintf(w, "  %s\t%.2f\t\n", item.Name, item.Price)
		}
	}
	return w.Flush()
}

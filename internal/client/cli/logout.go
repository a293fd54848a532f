package cli

import (
	"context"
)

// runLogout очищает локальную сессию. Токен на сервере не отзывается:
// команда должна работать и без сети.
func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.session.Clear(ctx); err != nil {
		return err
	}
	c.io.Println("Logged out.")
	return nil
}

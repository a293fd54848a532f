package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/iudanet/possync/pkg/api"
)

// runLogin запрашивает учетные данные и сохраняет токен сессии.
// Ответы endpoint'ов аутентификации через кэш не проходят.
func (c *Cli) runLogin(ctx context.Context) error {
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	body, err := json.Marshal(api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	payload, err := c.interceptor.Do(ctx, http.MethodPost, "/api/auth/login", body)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	var resp api.LoginResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("server did not return a session token")
	}

	if err := c.session.Save(ctx, resp.Token); err != nil {
		return err
	}

	c.io.Println("Logged in.")
	return nil
}

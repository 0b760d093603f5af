package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/jasperwreed/campus-market/internal/api"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the login token used for AI search",
	}

	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthStatusCommand(),
		newAuthLogoutCommand(),
	)

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a login token",
		Long: `Store the bearer token issued by the marketplace. Copy it from the web
app after signing in. The token is checked against the backend unless --offline is set.`,
		Example: `  market auth login --token eyJhbGciOi...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd.Context(), token)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	cmd.MarkFlagRequired("token")

	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current login",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(cmd.Context())
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout()
		},
	}
}

func runAuthLogin(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if exp, err := tokenExpiry(token); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: token is not a readable JWT: %v\n", err)
	} else if exp != nil && exp.Before(time.Now()) {
		return fmt.Errorf("token expired at %s", exp.Local().Format("2006-01-02 15:04"))
	}

	if !offline {
		user, err := a.client.Me(ctx, token)
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			return errors.New("the backend rejected this token")
		case err != nil:
			fmt.Fprintf(os.Stderr, "Warning: could not verify token: %v\n", err)
		default:
			fmt.Printf("Logged in as %s\n", userLabel(user.DisplayName, user.Email))
		}
	}

	if err := a.store.SaveToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Println("Token saved.")
	return nil
}

func runAuthStatus(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	token, ok := a.tokens.Token()
	if !ok {
		fmt.Println("Not logged in. AI search is unavailable.")
		return nil
	}

	fmt.Printf("Token source: %s\n", a.tokens.origin())

	exp, err := tokenExpiry(token)
	switch {
	case err != nil:
		fmt.Println("Expires: unknown (token is not a readable JWT)")
	case exp == nil:
		fmt.Println("Expires: never")
	case exp.Before(time.Now()):
		fmt.Printf("Expired: %s\n", exp.Local().Format("2006-01-02 15:04"))
	default:
		fmt.Printf("Expires: %s\n", exp.Local().Format("2006-01-02 15:04"))
	}

	if offline {
		return nil
	}

	user, err := a.client.Me(ctx, token)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		fmt.Println("Backend: token rejected, log in again")
	case err != nil:
		fmt.Printf("Backend: %v\n", err)
	default:
		role := ""
		if user.IsAdmin {
			role = " (admin)"
		}
		fmt.Printf("User: %s%s\n", userLabel(user.DisplayName, user.Email), role)
	}
	return nil
}

func runAuthLogout() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.ClearToken(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	fmt.Println("Logged out.")
	if a.tokens.env != "" {
		fmt.Println("Note: MARKET_TOKEN is still set in the environment.")
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature. A nil
// time means the token has no expiry.
func tokenExpiry(token string) (*time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, nil
	}
	exp := claims.ExpiresAt.Time
	return &exp, nil
}

func userLabel(name, email string) string {
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	default:
		return email
	}
}

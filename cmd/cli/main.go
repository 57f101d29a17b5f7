package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/gobudget/internal/infrastructure/auth"
	"github.com/iho/gobudget/internal/infrastructure/logger"
	"github.com/iho/gobudget/internal/infrastructure/postgres"
)

type options struct {
	baseURL   string
	timeout   time.Duration
	userID    string
	token     string
	jwtSecret string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gobudget-cli",
		Short:         "GoBudget CLI tool",
		Long:          `A command line interface for closing months and checking budgets through the GoBudget API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the GoBudget API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.userID, "user", os.Getenv("GOBUDGET_USER"), "Acting user id")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("GOBUDGET_TOKEN"), "Bearer token for an authenticated server")
	rootCmd.PersistentFlags().StringVar(&opts.jwtSecret, "jwt-secret", "", "Mint a bearer token for --user with this secret")

	rootCmd.AddCommand(periodCmd(opts), budgetCmd(opts), validateCmd(opts), migrateCmd())

	return rootCmd
}

func periodCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Month closing operations",
	}

	statusCmd := &cobra.Command{
		Use:   "status <YYYY-MM>",
		Short: "Show whether a month is closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, "/api/v1/periods/"+args[0], nil)
		},
	}

	closeCmd := &cobra.Command{
		Use:   "close <YYYY-MM>",
		Short: "Close a month and freeze its totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, "/api/v1/periods/"+args[0]+"/close", nil)
		},
	}

	var reason string
	reopenCmd := &cobra.Command{
		Use:   "reopen <YYYY-MM>",
		Short: "Reopen a closed month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, "/api/v1/periods/"+args[0]+"/reopen", map[string]string{"reason": reason})
		},
	}
	reopenCmd.Flags().StringVar(&reason, "reason", "", "Why the month is reopened")

	closeAgainCmd := &cobra.Command{
		Use:   "close-again <YYYY-MM>",
		Short: "Close a reopened month with recalculated totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodPost, "/api/v1/periods/"+args[0]+"/close-again", nil)
		},
	}

	cmd.AddCommand(statusCmd, closeCmd, reopenCmd, closeAgainCmd)
	return cmd
}

func budgetCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Monthly budget operations",
	}

	statusCmd := &cobra.Command{
		Use:   "status <YYYY-MM>",
		Short: "Show spend against the monthly budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, opts, http.MethodGet, "/api/v1/budgets/"+args[0], nil)
		},
	}

	var currency string
	setCmd := &cobra.Command{
		Use:   "set <YYYY-MM> <amount>",
		Short: "Set the monthly budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"amount": args[1], "currency": currency}
			return call(cmd, opts, http.MethodPut, "/api/v1/budgets/"+args[0], body)
		},
	}
	setCmd.Flags().StringVar(&currency, "currency", "BRL", "Budget currency")

	cmd.AddCommand(statusCmd, setCmd)
	return cmd
}

func validateCmd(opts *options) *cobra.Command {
	var (
		txType     string
		categoryID string
		amount     string
		currency   string
		date       string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Dry-run a transaction through the rule pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"type":     txType,
				"amount":   amount,
				"currency": currency,
				"date":     date,
			}
			if categoryID != "" {
				body["category_id"] = categoryID
			}
			return call(cmd, opts, http.MethodPost, "/api/v1/validations", body)
		},
	}

	cmd.Flags().StringVar(&txType, "type", "expense", "Transaction type (income or expense)")
	cmd.Flags().StringVar(&categoryID, "category", "", "Category id")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount, e.g. 120.50")
	cmd.Flags().StringVar(&currency, "currency", "BRL", "Currency")
	cmd.Flags().StringVar(&date, "date", time.Now().UTC().Format(time.DateOnly), "Transaction date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

var (
	migrateUp   = postgres.RunMigrations
	migrateDown = postgres.RunMigrationsDown
)

func migrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")

	migrationLogger := func(cmd *cobra.Command) zerolog.Logger {
		return logger.New(logger.Config{Format: "console", Output: cmd.ErrOrStderr(), NoColor: true})
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return migrateUp(databaseURL, migrationLogger(cmd))
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return migrateDown(databaseURL, migrationLogger(cmd))
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Body)
}

func call(cmd *cobra.Command, opts *options, method, path string, body any) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	var out json.RawMessage
	if err := doRequest(ctx, opts, method, path, body, &out); err != nil {
		return err
	}
	if len(out) == 0 {
		return nil
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func doRequest(ctx context.Context, opts *options, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(opts.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := bearerToken(opts)
	if err != nil {
		return err
	}
	switch {
	case token != "":
		req.Header.Set("Authorization", "Bearer "+token)
	case opts.userID != "":
		req.Header.Set("X-User-ID", opts.userID)
	}

	client := &http.Client{Timeout: opts.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if len(data) == 0 || out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func bearerToken(opts *options) (string, error) {
	if opts.token != "" {
		return opts.token, nil
	}
	if opts.jwtSecret == "" {
		return "", nil
	}
	if opts.userID == "" {
		return "", fmt.Errorf("--user is required with --jwt-secret")
	}
	return auth.NewJWTManager(opts.jwtSecret, time.Hour).Generate(opts.userID)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

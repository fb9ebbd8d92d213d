// wallet-admin is a small operational CLI: account creation and listing a
// month's transactions straight from the database, without going through the
// HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/guhrizzo/my-wallet/internal/auth"
	"github.com/guhrizzo/my-wallet/internal/config"
	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "create-user":
		err = createUser(ctx, repo, os.Args[2:])
	case "list-month":
		err = listMonth(ctx, repo, cfg.Currency, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wallet-admin <command> [flags]")
	fmt.Fprintln(os.Stderr, "  create-user -email <email> -password <password>")
	fmt.Fprintln(os.Stderr, "  list-month  -owner <user-id> [-year N] [-month N]")
}

func createUser(ctx context.Context, repo *storage.SQLiteRepository, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (min 8 chars)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !strings.Contains(*email, "@") {
		return fmt.Errorf("invalid email %q", *email)
	}
	if len(*password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := repo.CreateUser(ctx, *email, hash)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Printf("created user %s (%s)\n", user.ID, user.Email)
	return nil
}

func listMonth(ctx context.Context, repo *storage.SQLiteRepository, currency string, args []string) error {
	fs := flag.NewFlagSet("list-month", flag.ExitOnError)
	owner := fs.String("owner", "", "owner user id")
	now := time.Now().UTC()
	year := fs.Int("year", now.Year(), "year")
	month := fs.Int("month", int(now.Month()), "month (1-12)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *owner == "" {
		return fmt.Errorf("-owner is required")
	}
	if *month < 1 || *month > 12 {
		return fmt.Errorf("invalid month %d", *month)
	}

	start, end := core.MonthRange(*year, time.Month(*month))
	txs, err := repo.ListPeriod(ctx, *owner, start, end)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	formatter := core.NewCurrencyFormatter(currency)
	for _, t := range txs {
		sign := "+"
		if t.Type == core.Expense {
			sign = "-"
		}
		fmt.Printf("%s  %s %-10s %s  %s\n",
			t.OccurredAt.Format("2006-01-02 15:04"), sign, formatter.Display(t.Amount), t.ID, t.Description)
	}

	totals := core.Sum(txs)
	fmt.Printf("\nincome %s  expense %s  balance %s\n",
		formatter.Display(totals.Income), formatter.Display(totals.Expense), formatter.Display(totals.Balance))
	return nil
}

// Command ledgerctl prints operator views of the credit ledger.
//
//	ledgerctl balances [-limit N]   balances of the first N users
//	ledgerctl due                   AI bets waiting for arbitration
//	ledgerctl audit                 resolved bets whose payouts do not match the pool
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"prophet-betting/internal/config"
	"prophet-betting/internal/database"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ledgerctl balances|due|audit [flags]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := database.Connect(cfg, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	repo := repository.NewRepository(database.GetDB())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, repo, os.Stdout, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, repo *repository.Repository, out io.Writer, cmd string, args []string) error {
	switch cmd {
	case "balances":
		fs := flag.NewFlagSet("balances", flag.ContinueOnError)
		limit := fs.Int("limit", 100, "maximum number of users")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return printBalances(ctx, repo, out, *limit)
	case "due":
		return printDue(ctx, repo, out, time.Now().UTC())
	case "audit":
		bad, err := audit(ctx, repo, out)
		if err != nil {
			return err
		}
		if bad > 0 {
			return fmt.Errorf("%d resolved bets do not balance", bad)
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func printBalances(ctx context.Context, repo *repository.Repository, out io.Writer, limit int) error {
	users, err := repo.ListUsers(ctx, limit)
	if err != nil {
		return err
	}
	balances, err := repo.Balances(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("User", "Email", "Role", "Balance")
	total := decimal.Zero
	for _, u := range users {
		b := balances[u.ID]
		total = total.Add(b)
		if err := table.Append(u.ID.String(), u.Email, u.Role, b.StringFixed(2)); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d users, %s credits\n", len(users), total.StringFixed(2))
	return nil
}

func printDue(ctx context.Context, repo *repository.Repository, out io.Writer, now time.Time) error {
	bets, err := repo.ListDueAIBets(ctx, now, 500)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("Bet", "Title", "Deadline", "Overdue", "Pool")
	for _, b := range bets {
		if err := table.Append(
			b.ID.String(),
			b.Title,
			b.Deadline.Format(time.RFC3339),
			now.Sub(b.Deadline).Truncate(time.Minute).String(),
			b.TotalPool.StringFixed(2),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d bets awaiting arbitration\n", len(bets))
	return nil
}

// audit compares, for every resolved bet, the pool with the payout and
// refund entries written for it.
func audit(ctx context.Context, repo *repository.Repository, out io.Writer) (int, error) {
	table := tablewriter.NewWriter(out)
	table.Header("Bet", "Pool", "Paid", "Difference")

	bad := 0
	for page := 1; ; page++ {
		bets, total, err := repo.ListBets(ctx, models.BetFilter{
			Status: repository.BetStatusResolved,
			Page:   page,
			Limit:  50,
		}, time.Now().UTC())
		if err != nil {
			return 0, err
		}

		for _, b := range bets {
			credits, err := repo.CreditsForBet(ctx, b.ID)
			if err != nil {
				return 0, err
			}
			paid := decimal.Zero
			for _, c := range credits {
				if c.Type == models.CreditTypePayout || c.Type == models.CreditTypeRefund {
					paid = paid.Add(c.Amount)
				}
			}
			if paid.Equal(b.TotalPool) {
				continue
			}
			bad++
			if err := table.Append(b.ID.String(), b.TotalPool.StringFixed(2), paid.StringFixed(2), b.TotalPool.Sub(paid).StringFixed(2)); err != nil {
				return 0, err
			}
		}

		if int64(page*50) >= total || len(bets) == 0 {
			break
		}
	}

	if bad > 0 {
		if err := table.Render(); err != nil {
			return 0, err
		}
	}
	fmt.Fprintf(out, "%d unbalanced bets\n", bad)
	return bad, nil
}

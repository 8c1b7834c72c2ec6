// Command ledger_audit scans all profiles and reports rows whose stored
// token balance or rating no longer matches the underlying ledger and
// review tables. Run it read-only against production before and after
// migrations; a non-zero exit means at least one profile drifted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type profileRow struct {
	ID            string          `db:"id"`
	WalletAddress string          `db:"wallet_address"`
	TokenBalance  decimal.Decimal `db:"token_balance"`
	Rating        float64         `db:"rating"`
	TotalReviews  int             `db:"total_reviews"`
	LedgerSum     decimal.Decimal `db:"ledger_sum"`
	ReviewAvg     float64         `db:"review_avg"`
	ReviewCount   int             `db:"review_count"`
}

const auditQuery = `
SELECT p.id, p.wallet_address, p.token_balance, p.rating, p.total_reviews,
       COALESCE((SELECT SUM(t.amount) FROM token_transactions t WHERE t.profile_id = p.id), 0) AS ledger_sum,
       COALESCE((SELECT AVG(r.stars) FROM reviews r WHERE r.student_id = p.id), 0) AS review_avg,
       COALESCE((SELECT COUNT(*) FROM reviews r WHERE r.student_id = p.id), 0) AS review_count
FROM profiles p
ORDER BY p.created_at`

func main() {
	var (
		dsn     string
		timeout time.Duration
	)
	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (defaults to DATABASE_URL)")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "overall query timeout")
	flag.Parse()

	if dsn == "" {
		log.Fatal("no DSN: pass -dsn or set DATABASE_URL")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var rows []profileRow
	if err := db.SelectContext(ctx, &rows, auditQuery); err != nil {
		log.Fatalf("audit query failed: %v", err)
	}

	var balanceDrift, ratingDrift int
	for _, row := range rows {
		if !row.TokenBalance.Equal(row.LedgerSum) {
			balanceDrift++
			fmt.Printf("BALANCE DRIFT %s (%s): stored=%s ledger=%s diff=%s\n",
				row.ID, row.WalletAddress,
				row.TokenBalance.String(), row.LedgerSum.String(),
				row.TokenBalance.Sub(row.LedgerSum).String())
		}
		if row.TotalReviews != row.ReviewCount || math.Abs(row.Rating-row.ReviewAvg) > 0.005 {
			ratingDrift++
			fmt.Printf("RATING DRIFT %s (%s): stored=%.2f/%d reviews=%.2f/%d\n",
				row.ID, row.WalletAddress,
				row.Rating, row.TotalReviews,
				row.ReviewAvg, row.ReviewCount)
		}
	}

	fmt.Printf("audited %d profiles: %d balance drifts, %d rating drifts\n",
		len(rows), balanceDrift, ratingDrift)
	if balanceDrift > 0 || ratingDrift > 0 {
		os.Exit(1)
	}
}

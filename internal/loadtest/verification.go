package loadtest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/okian/liftguard/internal/domain/types"
)

// ErrVerification is returned when dashboard data disagrees with what the
// run submitted.
var ErrVerification = errors.New("verification failed")

// fetchTotal reads the current assessment count.
func fetchTotal(ctx context.Context, client *HTTPClient, baseURL string) (int, error) {
	var sum types.Summary
	if err := client.Get(ctx, baseURL+"/dashboard/summary", &sum); err != nil {
		return 0, err
	}
	return sum.TotalAssessments, nil
}

// verifyResults checks the dashboard against the run: every accepted
// assessment is counted once, the distribution covers the total, and the
// recent list is newest first.
func verifyResults(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) error {
	log.Println("verifying dashboard results")

	total, err := fetchTotal(ctx, client, config.BaseURL)
	if err != nil {
		return err
	}
	stats.FinalTotal = total
	if grew := total - stats.BaseTotal; grew != stats.Accepted {
		return fmt.Errorf("%w: total grew by %d, accepted %d", ErrVerification, grew, stats.Accepted)
	}

	var dist types.RiskDistribution
	if err := client.Get(ctx, config.BaseURL+"/dashboard/risk_distribution", &dist); err != nil {
		return err
	}
	if n := dist.Low + dist.Moderate + dist.High; n != total {
		return fmt.Errorf("%w: risk distribution covers %d of %d assessments", ErrVerification, n, total)
	}

	var recent []types.RecentAssessment
	if err := client.Get(ctx, config.BaseURL+"/dashboard/recent?limit="+strconv.Itoa(recentCheckLimit), &recent); err != nil {
		return err
	}
	if err := verifyNewestFirst(recent); err != nil {
		return err
	}

	log.Println("dashboard results verified")
	return nil
}

// verifyNewestFirst checks rows are ordered by descending creation, ties
// broken by descending id.
func verifyNewestFirst(rows []types.RecentAssessment) error {
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if cur.CreatedAt.After(prev.CreatedAt) || (cur.CreatedAt.Equal(prev.CreatedAt) && cur.ID >= prev.ID) {
			return fmt.Errorf("%w: recent row %d (id %d) is newer than row %d (id %d)",
				ErrVerification, i, cur.ID, i-1, prev.ID)
		}
	}
	return nil
}

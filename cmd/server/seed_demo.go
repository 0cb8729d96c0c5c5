package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fittrack/internal/db"
	"github.com/fittrack/internal/service"
	"github.com/spf13/cobra"
)

const (
	demoEmail    = "demo@fittrack.local"
	demoPassword = "demo123"
)

func newSeedDemoCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "seed-demo",
		Short: "Generate a demo account with sample seances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return errors.New("--days must be positive")
			}
			created, err := seedDemo(cmd.Context(), a.api.Users(), db.NewSeanceStore(db.DB), time.Now(), days)
			if err != nil {
				return err
			}
			if created == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "demo data already present, skipping")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d seances for %s (password: %s)\n", created, demoEmail, demoPassword)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 28, "number of past days to fill")
	return cmd
}

// seedDemo 为演示账号生成过去 days 天的训练记录；账号已有记录时不做任何事
func seedDemo(ctx context.Context, users *service.UserService, seances *db.SeanceStore, now time.Time, days int) (int, error) {
	if _, err := users.EnsureUser(ctx, demoEmail, demoPassword); err != nil {
		return 0, fmt.Errorf("ensure demo user: %w", err)
	}
	user, err := users.Authenticate(ctx, demoEmail, demoPassword)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return 0, errors.New("demo user exists with a different password")
		}
		return 0, err
	}

	existing, err := seances.FindByOwner(ctx, user.ID, db.SeanceFilter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	created := 0
	for i := days; i >= 1; i-- {
		// 每周休息一天
		if i%7 == 0 {
			continue
		}
		seance := demoSeance(i)
		seance.UserID = user.ID
		seance.Date = now.AddDate(0, 0, -i).Truncate(time.Hour)
		if err := seances.Create(ctx, &seance); err != nil {
			return created, fmt.Errorf("create demo seance: %w", err)
		}
		created++
	}
	return created, nil
}

func demoSeance(i int) db.Seance {
	jitter := float64(i % 5)
	switch i % 3 {
	case 0:
		return db.Seance{Type: int(service.SeanceCycling), Duration: 60 + jitter*5, Distance: 20000 + jitter*1500, Calories: 550 + jitter*20, Notes: "endurance ride"}
	case 1:
		return db.Seance{Type: int(service.SeanceRunning), Duration: 35 + jitter*2, Distance: 6000 + jitter*400, Calories: 380 + jitter*15, Notes: "easy run"}
	default:
		return db.Seance{Type: int(service.SeanceStrength), Duration: 45, Distance: 0, Calories: 260 + jitter*10, Notes: "full body"}
	}
}

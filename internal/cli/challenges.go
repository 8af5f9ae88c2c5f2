package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Poolchaos/personalfit/internal/daemon"
)

func init() {
	challengesCmd.Flags().StringVar(&challengesUser, "user", "", "User ID (required)")
	challengesCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(challengesCmd)
}

var challengesUser string

var challengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "Show today's daily challenges",
	RunE:  runChallenges,
}

func runChallenges(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(challengesUser)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	set, err := d.Tracker.TodaySet(context.Background(), userID, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Challenges for %s (gems earned today: %d)\n\n", set.Date, set.GemsEarnedToday)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tCATEGORY\tPROGRESS\tREWARD\tSTATUS")
	for _, ch := range set.Challenges {
		status := "open"
		if ch.Completed {
			status = "done"
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d XP + %d gems\t%s\n",
			ch.Title, ch.Category, ch.Progress, ch.Target, ch.XPReward, ch.GemsReward, status)
	}
	return w.Flush()
}

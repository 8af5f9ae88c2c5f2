package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Poolchaos/personalfit/internal/app/engagement"
	"github.com/Poolchaos/personalfit/internal/daemon"
)

func init() {
	statsCmd.Flags().StringVar(&statsUser, "user", "", "User ID (required)")
	statsCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(statsCmd)
}

var statsUser string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a user's gamification state",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(statsUser)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	st, err := d.Ledger.State(context.Background(), userID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Level\t%d\n", st.Level)
	fmt.Fprintf(w, "XP\t%s\n", xpLine(st.XP, st.Level))
	fmt.Fprintf(w, "Streak\t%d days (longest %d)\n", st.CurrentStreak, st.LongestStreak)
	fmt.Fprintf(w, "Gems\t%d\n", st.Gems)
	fmt.Fprintf(w, "Achievements\t%d / %d\n", len(st.Achievements), len(engagement.Catalog()))
	fmt.Fprintf(w, "Completions\t%d\n", st.TotalCompletions)
	fmt.Fprintf(w, "Freezes left\t%d\n", st.StreakFreezesAvailable)
	return w.Flush()
}

// xpLine formats the XP row. There is no next level at the cap.
func xpLine(xp int64, level int) string {
	if level >= engagement.MaxLevel {
		return fmt.Sprintf("%d (max level)", xp)
	}
	return fmt.Sprintf("%d (%d%% to level %d)", xp, engagement.LevelProgressPct(xp), level+1)
}

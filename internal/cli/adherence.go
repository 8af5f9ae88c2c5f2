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
	adherenceCmd.Flags().StringVar(&adherenceUser, "user", "", "User ID (required)")
	adherenceCmd.Flags().IntVar(&adherenceWindow, "days", 0, "Window size in days (default from config)")
	adherenceCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(adherenceCmd)
}

var (
	adherenceUser   string
	adherenceWindow int
)

var adherenceCmd = &cobra.Command{
	Use:   "adherence",
	Short: "Show a medication adherence report",
	RunE:  runAdherence,
}

func runAdherence(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(adherenceUser)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	windowDays := adherenceWindow
	if windowDays <= 0 {
		windowDays = d.Config.Analytics.AdherenceWindowDays
	}

	report, err := d.Adherence.Analyze(context.Background(), userID, windowDays, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Adherence over the last %d days\n", report.WindowDays)
	fmt.Printf("Perfect-day streak: %d (longest %d)\n\n", report.Streak.Current, report.Streak.Longest)

	if len(report.Medications) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MEDICATION\tTAKEN\tSCHEDULED\tADHERENCE")
		for _, m := range report.Medications {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d%%\n", m.Name, m.Taken, m.Total, m.Percent)
		}
		w.Flush()
		fmt.Println()
	}

	for _, ins := range report.Insights {
		fmt.Printf("[%s] %s\n", ins.Severity, ins.Message)
	}
	return nil
}

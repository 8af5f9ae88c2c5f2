package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Poolchaos/personalfit/internal/daemon"
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "User ID (analyze one medication/metric pair)")
	analyzeCmd.Flags().StringVar(&analyzeMedication, "medication", "", "Medication ID")
	analyzeCmd.Flags().StringVar(&analyzeMetric, "metric", "", "Body metric name (e.g. sleep_quality)")
	rootCmd.AddCommand(analyzeCmd)
}

var (
	analyzeUser       string
	analyzeMedication string
	analyzeMetric     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run medication/metric correlation analysis",
	Long: `Run correlation analysis between medication intake and body metrics.
With no flags, recomputes every known medication/metric pair. With
--user, --medication and --metric, analyzes just that pair and prints
the result.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := context.Background()
	windowDays := d.Config.Analytics.CorrelationWindowDays

	// Batch mode
	if analyzeUser == "" && analyzeMedication == "" && analyzeMetric == "" {
		produced, err := d.Correlation.AnalyzeAll(ctx, d.DB, windowDays, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Analyzed all known pairs, produced %d correlation records.\n", produced)
		return nil
	}

	if analyzeUser == "" || analyzeMedication == "" || analyzeMetric == "" {
		return fmt.Errorf("--user, --medication and --metric must be given together")
	}

	userID, err := uuid.Parse(analyzeUser)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	medID, err := uuid.Parse(analyzeMedication)
	if err != nil {
		return fmt.Errorf("invalid medication ID: %w", err)
	}

	rec, err := d.Correlation.AnalyzeMedicationMetric(ctx, userID, medID, analyzeMetric, windowDays, time.Now())
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("Not enough overlapping data yet (need at least 10 days).")
		return nil
	}

	fmt.Printf("r = %.3f (%s, %s confidence, %d days)\n", rec.Coefficient, rec.Direction, rec.Confidence, rec.DataPoints)
	for _, obs := range rec.Observations {
		fmt.Println("  " + obs)
	}
	return nil
}

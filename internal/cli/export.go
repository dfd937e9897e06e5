package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"babyplate/internal/domain"
	"babyplate/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a recommended plan to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var (
	exportBaby   int64
	exportStart  string
	exportDays   int
	exportOutput string
)

func init() {
	exportCmd.Flags().Int64Var(&exportBaby, "baby", 0, "Baby id")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "First day (YYYY-MM-DD, defaults to today)")
	exportCmd.Flags().IntVar(&exportDays, "days", 7, "Number of days to plan")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "meal-plan.xlsx", "Output file")
	_ = exportCmd.MarkFlagRequired("baby")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	plan, err := rt.recs.GenerateWeekly(ctx, exportBaby, startDay(exportStart), exportDays)
	if err != nil {
		return err
	}
	babies, err := rt.catalog.ListBabies(ctx)
	if err != nil {
		return err
	}
	var baby domain.Baby
	for _, b := range babies {
		if b.ID == exportBaby {
			baby = b
		}
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOutput, err)
	}
	if err := export.WeeklyPlan(f, baby, *plan); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	successColor.Fprintf(cmd.OutOrStdout(), "wrote %s (%s to %s)\n", exportOutput, plan.StartDate, plan.EndDate)
	return nil
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"babyplate/internal/domain"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Recommend a meal plan for a baby",
	Long: `Recommend meals for every slot of a date range.

Examples:
  # One week starting today
  babyplate generate --baby 1

  # Three days, saved without touching meals that are already planned
  babyplate generate --baby 1 --start 2026-10-19 --days 3 --save skip`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	genBaby  int64
	genStart string
	genDays  int
	genSave  string
)

func init() {
	generateCmd.Flags().Int64Var(&genBaby, "baby", 0, "Baby id")
	generateCmd.Flags().StringVar(&genStart, "start", "", "First day (YYYY-MM-DD, defaults to today)")
	generateCmd.Flags().IntVar(&genDays, "days", 7, "Number of days to plan")
	generateCmd.Flags().StringVar(&genSave, "save", "", "Save the plan: skip keeps conflicting meals, overwrite replaces them")
	_ = generateCmd.MarkFlagRequired("baby")
}

func saveResolution(s string) (domain.ConflictResolution, error) {
	switch s {
	case "skip":
		return domain.ResolveSkipConflicts, nil
	case "overwrite":
		return domain.ResolveOverwriteAll, nil
	}
	return "", fmt.Errorf("--save must be skip or overwrite, got %q", s)
}

func startDay(s string) string {
	if s == "" {
		return time.Now().Format(domain.DayLayout)
	}
	return s
}

func runGenerate(cmd *cobra.Command, args []string) error {
	var resolution domain.ConflictResolution
	if genSave != "" {
		var err error
		if resolution, err = saveResolution(genSave); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	plan, err := rt.recs.GenerateWeekly(ctx, genBaby, startDay(genStart), genDays)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if resolution == "" {
		if jsonOutput {
			return writeJSON(out, plan)
		}
		printPlan(out, plan)
		return nil
	}

	res, err := rt.recs.SaveRecommendation(ctx, genBaby, *plan, resolution, nil)
	if jsonOutput {
		if werr := writeJSON(out, map[string]any{"plan": plan, "save": res}); werr != nil {
			return werr
		}
		return err
	}
	printPlan(out, plan)
	printSaveResult(out, res)
	return err
}

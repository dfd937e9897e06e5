package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"babyplate/internal/domain"
)

// seedFile is the JSON layout read by the seed command.
type seedFile struct {
	Babies  []domain.Baby   `json:"babies"`
	Recipes []domain.Recipe `json:"recipes"`
}

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Import babies and recipes from a JSON file",
	Long: `Import babies and recipes from a JSON file of the form
{"babies": [...], "recipes": [...]}. Recipes are upserted by id; babies
without an id are created. The file defaults to BABYPLATE_SEED_FILE.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	path := rt.cfg.SeedFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no seed file given")
	}
	var seed seedFile
	if err := readJSONFile(path, &seed); err != nil {
		return err
	}

	if err := rt.catalog.ImportRecipes(ctx, seed.Recipes); err != nil {
		return err
	}
	ids := make([]int64, 0, len(seed.Babies))
	for _, b := range seed.Babies {
		saved, err := rt.catalog.SaveBaby(ctx, b)
		if err != nil {
			return fmt.Errorf("baby %q: %w", b.Name, err)
		}
		ids = append(ids, saved.ID)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"recipes": len(seed.Recipes), "babyIds": ids})
	}
	successColor.Fprintf(cmd.OutOrStdout(), "imported %d recipes and %d babies\n", len(seed.Recipes), len(ids))
	return nil
}
